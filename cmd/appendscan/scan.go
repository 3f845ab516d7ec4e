package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/appendscan/internal/extract"
	"github.com/samcharles93/appendscan/internal/logger"
	"github.com/samcharles93/appendscan/internal/report"
	"github.com/samcharles93/appendscan/internal/scan"
)

func scanCmd() *cli.Command {
	var o scanOptions

	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan files and directories for appended data",
		ArgsUsage: "[paths...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "directory for copies of flagged files and their .data sidecars",
				Destination: &o.outDir,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "scan log, appended to (default <out>/" + defaultLogName + ", ./" + defaultLogName + " with --no-extract)",
				Destination: &o.logFile,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "files scanned concurrently (0 = one per CPU)",
				Destination: &o.workers,
			},
			&cli.StringSliceFlag{
				Name:        "ext",
				Usage:       "extension picked up inside directories (repeatable)",
				Destination: &o.exts,
			},
			&cli.BoolFlag{
				Name:        "no-extract",
				Usage:       "report only, do not copy flagged files",
				Destination: &o.noExtract,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "stdout format (text, json)",
				Value:       "text",
				Destination: &o.format,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "with --format json, include files without appended data",
				Destination: &o.all,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyScanConfig(cmd, LoadConfig(), &o)

			targets, err := resolveTargets(cmd.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			// Report-only runs leave the discoveries directory alone and
			// log to the working directory.
			outDir, logDir := outDirPath(o.outDir), "."
			if !o.noExtract {
				if outDir, err = resolveOutDir(o.outDir); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				logDir = outDir
			}
			logPath := resolveLogFile(logDir, o.logFile)
			logFile, err := openLogFile(logPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open log file: %v", err), 1)
			}
			defer func() { _ = logFile.Close() }()

			rep, err := newReporter(o.format, o.all, os.Stdout, logFile)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			s := &scan.Scanner{
				Workers:    int(o.workers),
				Extensions: o.exts,
				Reporter:   rep,
				Log:        log,
			}
			if !o.noExtract {
				s.Sink = extract.New(outDir)
			}

			log.Debug("scan starting", "targets", len(targets), "out", outDir, "log_file", logPath)
			sum, err := s.Run(ctx, targets)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: scan: %v", err), 1)
			}
			log.Debug("scan finished",
				"run", sum.RunID,
				"scanned", sum.Scanned,
				"found", sum.Found,
				"failed", sum.Failed,
				"elapsed", sum.Finished.Sub(sum.Started),
			)
			return nil
		},
	}
}

// newReporter builds the stdout reporter. The log file always receives the
// text form.
func newReporter(format string, all bool, stdout, logFile io.Writer) (scan.Reporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return report.NewText(stdout, logFile), nil
	case "json":
		return report.Multi{report.NewJSON(stdout, all), report.NewText(logFile)}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text or json)", format)
	}
}
