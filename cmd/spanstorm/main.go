// Package main is the entry point for the spanstorm command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dshills/spanstorm/internal/config"
	"github.com/dshills/spanstorm/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage marks errors already reported together with usage text.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries what every command needs.
type cli struct {
	cfg    config.Config
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"reconcile": {"merge analysis results into a workspace", runReconcile},
	"split":     {"split a segment at an offset", runSplit},
	"join":      {"join two consecutive segments", runJoin},
	"edit":      {"replace the text and move annotations with it", runEdit},
	"locate":    {"show what lies at an offset", runLocate},
	"translate": {"store a translation response on a segment", runTranslate},
	"payload":   {"print a request body for the analysis services", runPayload},
}

var commandOrder = []string{"reconcile", "split", "join", "edit", "locate", "translate", "payload"}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("spanstorm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	fs.StringVar(&configPath, "config", "", "Path to configuration file")
	fs.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "spanstorm - keep entity annotations aligned with edited documents\n\n")
		fmt.Fprintf(stderr, "Usage: spanstorm [options] <command> [command options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nCommands:\n")
		for _, name := range commandOrder {
			fmt.Fprintf(stderr, "  %-10s %s\n", name, commands[name].summary)
		}
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "spanstorm %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.NewContext(ctx, logger)

	c := &cli{cfg: cfg, logger: logger, stdin: stdin, stdout: stdout, stderr: stderr}
	if err := cmd.run(ctx, c, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
