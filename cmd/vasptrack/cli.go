package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ExitError carries the process exit code up to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	input      string
	output     string
	configPath string
	logFormat  string
	logLevel   string
}

// parseArgs returns the parsed options, or true when the program should exit
// cleanly (-h).
func parseArgs(args []string, output io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("vasptrack", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
vasptrack - batch tracking lookups against VASP Expresso.

Usage:
  vasptrack [-i codes.txt|codes.csv] [-o results.json|results.csv] [options]

Options:
`)
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.input, "i", "", "Input file with tracking codes (.txt or .csv).")
	fs.StringVar(&opts.output, "o", "", "Output file path (.json or .csv).")
	fs.StringVar(&opts.configPath, "config", os.Getenv("configPath"), "Path to the YAML config file.")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}

	opts.logFormat = strings.ToLower(opts.logFormat)
	if opts.logFormat != "text" && opts.logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	opts.logLevel = strings.ToLower(opts.logLevel)
	if _, err := parseLevel(opts.logLevel); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return opts, false, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	lvl, _ := parseLevel(level)
	ho := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// prompter asks for missing paths on an interactive terminal.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(question string) (string, bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// inputFile asks until an existing file is given.
func (p *prompter) inputFile() (string, error) {
	for {
		path, ok := p.ask("Enter path to input file with codes (.txt or .csv): ")
		if !ok {
			return "", &ExitError{Code: 2, Message: "no input file given"}
		}
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, nil
		}
		fmt.Fprintln(p.out, "File does not exist. Try again.")
	}
}

// outputFile asks once; an empty answer or closed input picks the default.
func (p *prompter) outputFile(inputPath string) string {
	def := defaultOutput(inputPath)
	path, _ := p.ask(fmt.Sprintf("Enter path to save results (.json or .csv) [default: %s]: ", def))
	if path == "" {
		return def
	}
	return path
}

func defaultOutput(inputPath string) string {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		abs = inputPath
	}
	return filepath.Join(filepath.Dir(abs), "results.json")
}
