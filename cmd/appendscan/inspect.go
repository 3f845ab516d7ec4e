package main

import (
	"context"
	"fmt"
	"io"
	"os"
	runtimedebug "runtime/debug"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/appendscan/internal/filebuf"
	"github.com/samcharles93/appendscan/internal/scan"
	"github.com/samcharles93/appendscan/pkg/imgend"
)

func inspectCmd() *cli.Command {
	var (
		asJSON    bool
		showParts bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show where an image's structure ends and what follows it",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the layout as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "parts", Usage: "list every block, segment or chunk", Value: true, Destination: &showParts},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: inspect takes exactly one file", 1)
			}
			path := cmd.Args().First()

			buf, err := filebuf.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %q: %v", path, err), 1)
			}
			defer func() { _ = buf.Close() }()

			if err := inspectBuffer(os.Stdout, path, buf, asJSON, showParts); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

// inspectBuffer reports on an open buffer. Faults from a mapped file that
// shrinks while being read come back as an error.
func inspectBuffer(w io.Writer, path string, buf *filebuf.Buffer, asJSON, parts bool) (err error) {
	defer runtimedebug.SetPanicOnFault(runtimedebug.SetPanicOnFault(true))
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read %s: %v", path, rec)
		}
	}()

	if asJSON {
		return writeInspectJSON(w, path, buf.Bytes(), parts)
	}
	return writeInspect(w, path, buf.Bytes(), parts)
}

type inspectReport struct {
	Path          string        `json:"path"`
	Format        string        `json:"format"`
	Size          int           `json:"size"`
	EndOffset     int           `json:"end_offset"`
	AppendedBytes int           `json:"appended_bytes"`
	Preview       string        `json:"preview,omitempty"`
	Parts         []imgend.Part `json:"parts,omitempty"`
}

func newInspectReport(path string, data []byte, parts bool) inspectReport {
	layout := imgend.Walk(data)
	res := scan.Measure(path, data)
	out := inspectReport{
		Path:          path,
		Format:        layout.Format.String(),
		Size:          layout.Size,
		EndOffset:     layout.End,
		AppendedBytes: layout.AppendedLen(),
	}
	if len(res.Preview) > 0 {
		out.Preview = strconv.Quote(string(res.Preview))
	}
	if parts {
		out.Parts = layout.Parts
	}
	return out
}

func writeInspectJSON(w io.Writer, path string, data []byte, parts bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newInspectReport(path, data, parts))
}

func writeInspect(w io.Writer, path string, data []byte, parts bool) error {
	r := newInspectReport(path, data, parts)

	_, _ = fmt.Fprintf(w, "path:     %s\n", r.Path)
	_, _ = fmt.Fprintf(w, "format:   %s\n", r.Format)
	_, _ = fmt.Fprintf(w, "size:     %d\n", r.Size)
	_, _ = fmt.Fprintf(w, "end:      %d\n", r.EndOffset)
	_, _ = fmt.Fprintf(w, "appended: %d\n", r.AppendedBytes)
	if r.Preview != "" {
		_, _ = fmt.Fprintf(w, "preview:  %s\n", r.Preview)
	}
	if len(r.Parts) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%10s  %10s  %s\n", "offset", "length", "kind")
	for _, p := range r.Parts {
		if _, err := fmt.Fprintf(w, "%10d  %10d  %s\n", p.Offset, p.Length, p.Kind); err != nil {
			return err
		}
	}
	return nil
}
