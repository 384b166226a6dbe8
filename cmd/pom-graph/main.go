package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/pom-graph/pkg/analysis"
	"github.com/ritzau/pom-graph/pkg/config"
	"github.com/ritzau/pom-graph/pkg/diagram"
	"github.com/ritzau/pom-graph/pkg/logging"
	"github.com/ritzau/pom-graph/pkg/output"
	"github.com/ritzau/pom-graph/pkg/watcher"
	"github.com/ritzau/pom-graph/pkg/web"
)

const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logging.Error("pom-graph failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("pom-graph", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pom-graph --pom-path <pom.xml> [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Builds the dependency graph of a Maven POM from a local repository")
		fmt.Fprintln(os.Stderr, "and writes it as a PlantUML diagram.")
		fmt.Fprintln(os.Stderr)
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.File != "" {
		logging.Debug("loaded config file", "path", cfg.File)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := analysis.NewRunner(cfg)
	if err != nil {
		return err
	}

	var server *web.Server
	if cfg.Serve {
		server = web.NewServer()
		runner.SetPublisher(server)
	}

	report, err := runner.Run(ctx, "initial analysis")
	if err != nil {
		return err
	}
	if err := present(cfg, report); err != nil {
		return err
	}

	if !cfg.Watch && !cfg.Serve {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	if server != nil {
		go func() {
			err := server.Start(ctx, cfg.Port)
			if err != nil {
				cancel()
			}
			serveErr <- err
		}()
	}

	if cfg.Watch {
		if err := watch(ctx, cfg, runner); err != nil {
			cancel()
			if server != nil {
				<-serveErr
			}
			return err
		}
	} else {
		<-ctx.Done()
	}

	if server != nil {
		return <-serveErr
	}
	return nil
}

// present echoes the diagram to stdout and prints the summary to stderr, so
// that stdout can be piped straight into PlantUML.
func present(cfg *config.Config, report *analysis.Report) error {
	if cfg.Print {
		if err := diagram.Write(os.Stdout, report.Graph); err != nil {
			return fmt.Errorf("printing diagram: %w", err)
		}
	}
	output.PrintSummary(os.Stderr, report)
	return nil
}

// watch re-runs the analysis whenever the root POM changes, until ctx ends
func watch(ctx context.Context, cfg *config.Config, runner *analysis.Runner) error {
	fw, err := watcher.NewFileWatcher(cfg.POMPath)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	logging.Info("watching for changes", "pom", cfg.POMPath)

	for event := range debouncer.Output() {
		logging.Info("root pom changed", "paths", len(event.Paths))

		report, err := runner.Run(ctx, "root pom changed")
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			// Keep watching; the next save may fix it
			logging.Error("re-analysis failed", "error", err)
			continue
		}
		if err := present(cfg, report); err != nil {
			logging.Error("presenting report", "error", err)
		}
	}
	return nil
}
