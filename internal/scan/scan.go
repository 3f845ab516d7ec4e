package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/appendscan/internal/discover"
	"github.com/samcharles93/appendscan/internal/extract"
	"github.com/samcharles93/appendscan/internal/filebuf"
	"github.com/samcharles93/appendscan/internal/logger"
	"github.com/samcharles93/appendscan/pkg/imgend"
)

// Scanner walks targets, measures every candidate file and hands hits to
// the sink and reporter. The zero value scans with one worker per CPU and
// extracts nothing.
type Scanner struct {
	// Workers bounds concurrent file loads. <= 0 means runtime.NumCPU().
	Workers int
	// Extensions filters files found inside directories.
	Extensions []string
	// MaxFileSize is passed to filebuf.OpenLimit. 0 means filebuf.DefaultMaxSize.
	MaxFileSize int64
	// Sink receives discoveries. Nil disables extraction.
	Sink     *extract.Sink
	Reporter Reporter
	Log      logger.Logger

	now func() time.Time
}

// Measure computes the verdict for an in-memory file. Preview is copied,
// so data may be released afterwards.
func Measure(path string, data []byte) Result {
	end := imgend.End(data)
	r := Result{
		Path:   path,
		Format: imgend.Detect(data),
		Size:   len(data),
		End:    end,
	}
	if end < len(data) {
		r.Preview = bytes.Clone(data[end:min(end+PreviewLen, len(data))])
	}
	return r
}

// File loads and measures one file and, on a hit, saves it to the sink.
func (s *Scanner) File(path string) Result {
	buf, err := filebuf.OpenLimit(path, s.maxFileSize())
	if err != nil {
		return Result{Path: path, Err: err}
	}
	defer func() { _ = buf.Close() }()
	return s.measure(path, buf)
}

// measure runs on an open buffer. A mapped file that shrinks underneath us
// faults on access; SetPanicOnFault turns that into a recoverable panic
// for this goroutine only.
func (s *Scanner) measure(path string, buf *filebuf.Buffer) (res Result) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Path: path, Err: fmt.Errorf("panic scanning %s: %v", path, rec)}
		}
	}()

	data := buf.Bytes()
	res = Measure(path, data)
	if res.Found() && s.Sink != nil {
		saved, err := s.Sink.Save(path, data, res.End)
		if err != nil {
			res.Err = err
		} else {
			res.Saved = &saved
		}
	}
	return res
}

// Run expands targets and scans every file found. Per-file failures are
// reported and counted, never returned. The error is non-nil only when
// ctx is cancelled or the reporter fails.
func (s *Scanner) Run(ctx context.Context, targets []string) (Summary, error) {
	log := s.log()
	sum := Summary{
		RunID:   uuid.NewString(),
		Targets: targets,
		Started: s.clock(),
	}
	log = log.With("run", sum.RunID)

	var reportErr error
	keep := func(err error) {
		if err != nil && reportErr == nil {
			reportErr = err
		}
	}
	if s.Reporter != nil {
		keep(s.Reporter.Begin(sum))
	}

	files, err := discover.Expand(targets, s.Extensions)
	for _, e := range unwrapAll(err) {
		log.Warn("skipping target", "error", e)
		sum.Failed++
	}
	log.Debug("discovered files", "count", len(files))

	s.fanOut(ctx, files, func(r Result) {
		sum.Scanned++
		switch {
		case r.Err != nil:
			sum.Failed++
			log.Error("scan failed", "path", r.Path, "error", r.Err)
		case r.Found():
			sum.Found++
			log.Info("appended data", "path", r.Path, "format", r.Format.String(), "end", r.End, "bytes", r.Appended())
		default:
			log.Debug("clean", "path", r.Path, "format", r.Format.String(), "size", r.Size)
		}
		if s.Reporter != nil {
			keep(s.Reporter.Report(r))
		}
	})

	sum.Finished = s.clock()
	if s.Reporter != nil {
		keep(s.Reporter.End(sum))
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	if reportErr != nil {
		return sum, fmt.Errorf("report: %w", reportErr)
	}
	return sum, nil
}

// fanOut scans files on a worker pool and calls emit in input order.
// emit is never called concurrently.
func (s *Scanner) fanOut(ctx context.Context, files []string, emit func(Result)) {
	if len(files) == 0 {
		return
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(files))

	var (
		mu      sync.Mutex
		next    int
		pending = make(map[int]Result)
	)
	deliver := func(i int, r Result) {
		mu.Lock()
		defer mu.Unlock()
		pending[i] = r
		for {
			r, ok := pending[next]
			if !ok {
				return
			}
			delete(pending, next)
			emit(r)
			next++
		}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				deliver(i, s.File(files[i]))
			}
		}()
	}

feed:
	for i := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

func (s *Scanner) log() logger.Logger {
	if s.Log == nil {
		return logger.Discard()
	}
	return s.Log
}

func (s *Scanner) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scanner) maxFileSize() int64 {
	if s.MaxFileSize == 0 {
		return filebuf.DefaultMaxSize
	}
	return s.MaxFileSize
}

func unwrapAll(err error) []error {
	if err == nil {
		return nil
	}
	var j interface{ Unwrap() []error }
	if errors.As(err, &j) {
		return j.Unwrap()
	}
	return []error{err}
}
