// ABOUTME: leaksentinel command: runs leak probes and serves diagnostics
// ABOUTME: Subcommands probe, navigate, serve, and version

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prateek/leaksentinel"
	"github.com/prateek/leaksentinel/internal/config"
	"github.com/prateek/leaksentinel/internal/diag"
	"github.com/prateek/leaksentinel/internal/logging"
	"github.com/prateek/leaksentinel/internal/metrics"
	"github.com/prateek/leaksentinel/sentinel"
)

// exitLeak is returned by probe and navigate with -fail-on-leak when any
// destroyed owner is still reachable.
const exitLeak = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "probe":
		return runProbe(args[1:], stdout, stderr)
	case "navigate":
		return runNavigate(args[1:], stdout, stderr)
	case "serve":
		return runServe(args[1:], stderr)
	case "version", "--version", "-version":
		fmt.Fprintf(stdout, "leaksentinel version %s\n", leaksentinel.Version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: leaksentinel <command> [options]

Commands:
  probe       Run create/register/destroy cycles and report leaks
  navigate    Run the two-screen navigation scenario
  serve       Start the HTTP diagnostics server
  version     Print version information

Run 'leaksentinel <command> -h' for more information on a command.`)
}

// commonFlags are shared by every subcommand that loads configuration.
type commonFlags struct {
	configPath *string
	strategy   *string
	clear      *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	cf := commonFlags{
		configPath: fs.String("config", "", "Path to configuration file"),
		strategy:   fs.String("strategy", "", "Reference strategy: strong, weak, cleared, or all"),
	}
	// -clear stays nil unless given, so the config value survives
	fs.Func("clear", "Override whether the destroy hook calls Clear (true/false)", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("must be true or false")
		}
		cf.clear = &b
		return nil
	})
	return cf
}

// loadConfig loads configuration and applies the common flag overrides.
func loadConfig(cf commonFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *cf.configPath != "" {
		cfg, err = config.LoadFromPath(*cf.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if *cf.strategy != "" {
		cfg.Sentinel.Strategy = *cf.strategy
	}
	if cf.clear != nil {
		cfg.Sentinel.ClearOnDestroy = *cf.clear
	}
	return cfg, nil
}

// strategiesFor expands a configured strategy name, where "all" selects
// every strategy.
func strategiesFor(name string) ([]sentinel.Strategy, error) {
	if name == "all" {
		return sentinel.Strategies(), nil
	}
	s, err := sentinel.ParseStrategy(name)
	if err != nil {
		return nil, err
	}
	return []sentinel.Strategy{s}, nil
}

func newLogger(cfg *config.Config, w io.Writer, command string) *logging.Logger {
	l := logging.Configure(cfg.Observability.LogLevel, cfg.Observability.LogFormat, w)
	return l.With(map[string]any{"command": command})
}

func runProbe(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := addCommonFlags(fs)
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	withGraph := fs.Bool("graph", false, "Include the registry's retention graph after the last cycle")
	failOnLeak := fs.Bool("fail-on-leak", false, "Exit with status 2 if any owner leaked")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	strategies, err := strategiesFor(cfg.Sentinel.Strategy)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	log := newLogger(cfg, stderr, "probe")
	reg := sentinel.NewRegistry(sentinel.WithLogger(log))
	probe := sentinel.NewProbe(reg,
		sentinel.WithProbeLogger(log),
		sentinel.WithPayloadBytes(cfg.Sentinel.PayloadBytes),
	)

	reports := make([]sentinel.LeakReport, 0, len(strategies))
	for _, s := range strategies {
		reports = append(reports, probe.SimulateCycle(s, cfg.Sentinel.ClearOnDestroy))
	}

	out := &output{Reports: reports}
	if *withGraph {
		out.Graph = reg.Snapshot()
	}
	if err := writeOutput(stdout, *format, out); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if *failOnLeak && out.leaked() {
		return exitLeak
	}
	return 0
}

func runNavigate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("navigate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := addCommonFlags(fs)
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	failOnLeak := fs.Bool("fail-on-leak", false, "Exit with status 2 if any screen leaked")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	strategies, err := strategiesFor(cfg.Sentinel.Strategy)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	log := newLogger(cfg, stderr, "navigate")
	probe := sentinel.NewProbe(
		sentinel.NewRegistry(sentinel.WithLogger(log)),
		sentinel.WithProbeLogger(log),
		sentinel.WithPayloadBytes(cfg.Sentinel.PayloadBytes),
	)

	out := &output{}
	for _, s := range strategies {
		out.Navigation = append(out.Navigation, probe.SimulateNavigation(s, cfg.Sentinel.ClearOnDestroy))
	}
	if err := writeOutput(stdout, *format, out); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if *failOnLeak && out.leaked() {
		return exitLeak
	}
	return 0
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := addCommonFlags(fs)
	listen := fs.String("listen", "", "Override listen address (e.g., :9464)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Diagnostics.ListenAddr = *listen
	}

	log := newLogger(cfg, stderr, "serve")
	promReg := prometheus.NewRegistry()
	m := metrics.NewSentinelMetricsWithRegistry(promReg)

	// The server inspects the process-wide slot, the same one any embedded
	// controller would register into.
	reg := sentinel.Default()
	reg.Configure(sentinel.WithLogger(log), sentinel.WithObserver(m))
	probe := sentinel.NewProbe(reg,
		sentinel.WithProbeLogger(log),
		sentinel.WithPayloadBytes(cfg.Sentinel.PayloadBytes),
		sentinel.WithCycleObserver(m),
	)

	srv := diag.NewServer(cfg.Diagnostics.ListenAddr, probe, promReg, log)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(stderr, "failed to start diagnostics server: %v\n", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", map[string]any{"signal": sig.String()})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Close(ctx); err != nil {
		log.Error("shutdown failed", map[string]any{"error": err.Error()})
		return 1
	}
	return 0
}
