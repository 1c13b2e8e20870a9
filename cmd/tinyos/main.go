// Package main boots a tinyos kernel: it loads a boot profile, registers
// the Lua user programs, runs the workload manifest as init, and
// optionally attaches the process monitor.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akislouk/operating-systems-project/internal/config"
	"github.com/akislouk/operating-systems-project/internal/kernel"
	"github.com/akislouk/operating-systems-project/internal/klog"
	"github.com/akislouk/operating-systems-project/internal/manifest"
	"github.com/akislouk/operating-systems-project/internal/monitor"
	"github.com/akislouk/operating-systems-project/internal/program"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath   string
	manifestPath string
	programDir   string
	logLevel     string
	attachView   bool
	watch        bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	profile := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
			return 1
		}
		profile = loaded
	}
	if err := config.FromEnv(&profile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading environment: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		profile.LogLevel = opts.logLevel
	}
	if opts.programDir != "" {
		profile.ProgramDir = opts.programDir
	}

	log := klog.New(klog.Config{
		Level:  klog.ParseLevel(profile.LogLevel),
		Prefix: "tinyos",
	})

	reg := program.NewRegistry(log)
	if profile.ProgramDir != "" {
		if opts.watch {
			watcher, err := program.WatchDir(reg, profile.ProgramDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: watching programs: %v\n", err)
				return 1
			}
			defer watcher.Close()
		} else if err := program.LoadDir(reg, profile.ProgramDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading programs: %v\n", err)
			return 1
		}
	}

	m, err := manifest.Load(opts.manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading manifest: %v\n", err)
		return 1
	}
	if err := m.Validate(reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid manifest: %v\n", err)
		return 1
	}

	k, err := kernel.New(profile, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating kernel: %v\n", err)
		return 1
	}

	// The monitor owns the terminal while attached; the kernel halts on
	// its own once the workload drains, and SIGINT/SIGTERM just detach.
	done := make(chan result, 1)
	go func() {
		status, err := k.Run(m.InitTask(reg, log), nil)
		done <- result{status: status, err: err}
	}()

	if opts.attachView {
		view, err := monitor.New(k, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating monitor: %v\n", err)
			return 1
		}
		if err := view.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: monitor: %v\n", err)
			return 1
		}
	} else {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		select {
		case r := <-done:
			return report(r)
		case sig := <-signals:
			log.Warn("signal %v, detaching (workload keeps running)", sig)
			return 130
		}
	}

	return report(<-done)
}

type result struct {
	status int
	err    error
}

func report(r result) int {
	if r.err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", r.err)
		return 1
	}
	return r.status
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to TOML boot profile")
	flag.StringVar(&opts.configPath, "c", "", "Path to TOML boot profile (shorthand)")
	flag.StringVar(&opts.manifestPath, "manifest", "boot.yaml", "Path to YAML workload manifest")
	flag.StringVar(&opts.manifestPath, "m", "boot.yaml", "Path to YAML workload manifest (shorthand)")
	flag.StringVar(&opts.programDir, "programs", "", "Directory of Lua user programs (overrides profile)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.attachView, "monitor", false, "Attach the live process-table monitor")
	flag.BoolVar(&opts.watch, "watch", false, "Reload programs when the program directory changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tinyos - a teaching kernel core\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tinyos [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tinyos -programs ./progs -m boot.yaml     Run a workload\n")
		fmt.Fprintf(os.Stderr, "  tinyos -m boot.yaml -monitor              Run with the live monitor\n")
		fmt.Fprintf(os.Stderr, "  tinyos -c profile.toml -watch             Custom limits, live reload\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("tinyos %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	return opts
}
