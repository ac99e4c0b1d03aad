package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ardnew/usbtap/internal/runner"
	"github.com/ardnew/usbtap/internal/scenario"
	"github.com/ardnew/usbtap/usb"
)

// CLI is the command-line grammar.
type CLI struct {
	Config    string `help:"Configuration file (JSON, YAML or TOML)." type:"path" env:"USBTAP_CONFIG"`
	LogLevel  string `help:"Log level: trace, debug, info, warn, error." default:"warn" enum:"trace,debug,info,warn,error" env:"USBTAP_LOG_LEVEL"`
	LogFormat string `help:"Log format: auto, text, json." default:"auto" enum:"auto,text,json" env:"USBTAP_LOG_FORMAT"`

	CPUProfile  string `help:"Write a CPU profile to this file (requires -tags profile)." type:"path"`
	HeapProfile string `help:"Write a heap profile to this file on exit (requires -tags profile)." type:"path"`

	Run     RunCmd     `cmd:"" help:"Play a scenario against the simulated board."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

// RunCmd plays one scenario file.
type RunCmd struct {
	Scenario string `arg:"" type:"existingfile" help:"Scenario file (.yaml, .yml or .toml)."`

	Defer          []usb.Role `help:"Roles whose setup packets stay in the FIFO for task code." default:"control" sep:","`
	SplitSetup     []usb.Role `help:"Roles whose setup packets use the receive-control sub-queue." sep:","`
	CapturePackets []usb.Role `help:"Roles whose OUT packets are read in the interrupt and queued." sep:","`
	Hold           bool       `help:"Start draining only after every burst has been serviced."`
	Strict         bool       `help:"Fail if any error event is produced or any event is dropped."`
}

// Options converts the flags to runner options.
func (c *RunCmd) Options() runner.Options {
	opts := runner.DefaultOptions()
	for _, role := range usb.Roles {
		opts.Classifier.Extract[role] = true
	}
	for _, role := range c.Defer {
		opts.Classifier.Extract[role] = false
	}
	for _, role := range c.SplitSetup {
		opts.Handler.SplitSetup[role] = true
	}
	for _, role := range c.CapturePackets {
		opts.Classifier.Capture[role] = true
	}
	opts.Hold = c.Hold
	opts.Strict = c.Strict
	return opts
}

// Run loads the scenario, plays it and writes the report.
func (c *RunCmd) Run(ctx context.Context, stdout io.Writer) error {
	s, err := scenario.Load(c.Scenario)
	if err != nil {
		return err
	}
	report, err := runner.Run(ctx, s, c.Options())
	if report != nil {
		if _, werr := report.WriteTo(stdout); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", s.Name, err)
	}
	return nil
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run prints the version.
func (VersionCmd) Run(stdout io.Writer) error {
	_, err := fmt.Fprintln(stdout, version)
	return err
}
