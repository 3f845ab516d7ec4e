package report

import (
	"errors"

	"github.com/samcharles93/appendscan/internal/scan"
)

// Multi fans every call out to all reporters and joins their errors.
type Multi []scan.Reporter

func (m Multi) Begin(s scan.Summary) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Begin(s))
	}
	return errors.Join(errs...)
}

func (m Multi) Report(res scan.Result) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Report(res))
	}
	return errors.Join(errs...)
}

func (m Multi) End(s scan.Summary) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.End(s))
	}
	return errors.Join(errs...)
}
