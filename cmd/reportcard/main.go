// Command reportcard reads a report card request as JSON on stdin and writes
// the rendered PDF to stdout.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"github.com/noah-isme/cbc-reportcard/internal/handler"
	"github.com/noah-isme/cbc-reportcard/internal/service"
	"github.com/noah-isme/cbc-reportcard/pkg/config"
	"github.com/noah-isme/cbc-reportcard/pkg/export"
	"github.com/noah-isme/cbc-reportcard/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one generation and returns the process exit status. stdout
// receives the PDF only when generation succeeded.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("reportcard", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.String("input", "", "read the JSON payload from this file instead of stdin")
	flags.String("output", "", "write the PDF to this file instead of stdout")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return fail(stderr, err)
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		return fail(stderr, fmt.Errorf("load config: %w", err))
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fail(stderr, fmt.Errorf("init logger: %w", err))
	}
	defer logr.Sync() //nolint:errcheck

	in := stdin
	if cfg.CLI.Input != "" {
		f, err := os.Open(cfg.CLI.Input)
		if err != nil {
			return fail(stderr, err)
		}
		defer f.Close()
		in = f
	}

	formatter := service.NewReportFormatter(cfg.School, export.NewPDFExporter(), nil)
	reports := service.NewReportCardService(formatter, validator.New(), nil, logr, service.ReportCardConfig{
		DefaultTerm:         cfg.Reports.DefaultTerm,
		DefaultAcademicYear: cfg.Reports.DefaultAcademicYear,
	})

	var buf bytes.Buffer
	if err := handler.NewStreamHandler(reports).Serve(ctx, in, &buf); err != nil {
		return fail(stderr, err)
	}

	if cfg.CLI.Output != "" {
		if err := os.WriteFile(cfg.CLI.Output, buf.Bytes(), 0o644); err != nil {
			return fail(stderr, err)
		}
		return 0
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return fail(stderr, err)
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "ERROR: %v\n", err)
	return 1
}
