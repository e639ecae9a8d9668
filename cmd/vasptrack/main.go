package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/vasptrack/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdin, os.Stdout, os.Args[1:])
	cancel()

	if err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, out)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	log := newLogger(out, opts.logFormat, opts.logLevel)
	slog.SetDefault(log)

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return &ExitError{Code: 2, Message: fmt.Sprintf("ошибка парсинга конфига, %v", err)}
	}

	return RunBatch(ctx, cfg, opts, defaultAppFactories(), streams{in: in, out: out}, log)
}
