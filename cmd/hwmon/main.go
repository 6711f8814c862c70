// hwmon is a hardware inventory and monitoring agent for ML
// workstations. It samples CPU, memory, disk, network and NVIDIA GPU
// metrics on a fixed interval and serves them over HTTP, websocket and
// a terminal view; one-shot commands export the hardware inventory and
// validate the ML toolchain.
//
// Commands:
//
//	serve      run the monitoring agent with the web dashboard
//	top        live metrics in the terminal
//	inventory  collect the hardware inventory and write it as JSON
//	check      validate NVIDIA driver, CUDA, PyTorch and Ultralytics
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mlrig/hwmon/internal/app"
	"github.com/mlrig/hwmon/internal/config"
	"github.com/mlrig/hwmon/internal/envcheck"
	"github.com/mlrig/hwmon/internal/inventory"
)

type options struct {
	configPath string
	outputPath string
	quiet      bool
	interval   time.Duration
}

// parseArgs splits os.Args-style input into a command and its flags.
// The command defaults to serve; anything that is not a known command
// or a flag is rejected here, before any subsystem starts.
func parseArgs(args []string) (string, *options, error) {
	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}
	switch command {
	case "serve", "top", "inventory", "check":
	default:
		return "", nil, fmt.Errorf("unknown command %q (expected serve, top, inventory or check)", command)
	}

	opts := &options{}
	flagSet := pflag.NewFlagSet("hwmon "+command, pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "hwmon.yaml", "path to the config file")
	flagSet.DurationVarP(&opts.interval, "interval", "i", 0, "sampling interval, overrides the config file")
	flagSet.StringVarP(&opts.outputPath, "output", "o", "", "inventory output file (default inventory_<timestamp>.json)")
	flagSet.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress the inventory summary")
	if err := flagSet.Parse(args); err != nil {
		return "", nil, err
	}
	return command, opts, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("hwmon %s (built %s)\n", config.Version, config.BuildTime)
		return nil
	}

	command, opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if opts.interval > 0 {
		cfg.Interval = opts.interval
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
	}
	logger := config.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	switch command {
	case "serve":
		return a.Serve(ctx)
	case "top":
		return a.Top(ctx)
	case "inventory":
		inv := a.Inventory(ctx)
		path := opts.outputPath
		if path == "" {
			path = inventory.DefaultFilename(time.Now())
		}
		if err := inventory.Save(inv, path); err != nil {
			return err
		}
		if !opts.quiet {
			inventory.WriteSummary(os.Stdout, inv)
		}
		fmt.Printf("inventory written to %s\n", path)
		return nil
	default: // check
		results := a.Checker().Run(ctx)
		envcheck.WriteReport(os.Stdout, results)
		if envcheck.Failed(results) {
			os.Exit(2)
		}
		return nil
	}
}
