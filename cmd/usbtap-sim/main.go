// Command usbtap-sim plays interrupt scenarios against a simulated board
// of three USB controllers and reports what the classifier produced.
//
// Usage:
//
//	usbtap-sim [flags] run <scenario.yaml|scenario.toml>
//	usbtap-sim version
//
// Flags may also be set from a JSON, YAML or TOML file named by --config
// or USBTAP_CONFIG; command-line flags and environment override it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	"golang.org/x/term"

	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/pkg/prof"
)

// component identifies this executable for structured logging.
const component = pkg.ComponentSim

// version is set at link time.
var version = "dev"

// exitCode carries a kong exit request out of Parse.
type exitCode int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	userCfg := findUserConfig(args)
	jsonPaths, yamlPaths, tomlPaths := configCandidatePaths(userCfg)

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("usbtap-sim"),
		kong.Description("Simulate USB analyzer interrupt classification."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Vars{"version": version},
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)
	if err != nil {
		fmt.Fprintln(stderr, "usbtap-sim:", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, "usbtap-sim:", err)
		return 2
	}

	setupLogging(cli.LogLevel, cli.LogFormat, stderr)
	pkg.LogDebug(component, "starting", "version", version, "command", kctx.Command())

	session, err := prof.Start(cli.CPUProfile, cli.HeapProfile)
	if err != nil {
		fmt.Fprintln(stderr, "usbtap-sim:", err)
		return 1
	}
	defer func() {
		if err := session.Stop(); err != nil {
			pkg.LogError(component, "profile write failed", "error", err)
		}
	}()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(stdout, (*io.Writer)(nil))
	if err := kctx.Run(); err != nil {
		pkg.LogError(component, "command failed", "command", kctx.Command(), "error", err)
		fmt.Fprintln(stderr, "usbtap-sim:", err)
		return 1
	}
	return 0
}

// setupLogging configures the pkg logger. The auto format writes text to
// a terminal and JSON otherwise.
func setupLogging(level, format string, w io.Writer) {
	pkg.SetLogLevel(pkg.ParseLevel(level))
	f := pkg.LogFormatText
	switch format {
	case "json":
		f = pkg.LogFormatJSON
	case "auto":
		if file, ok := w.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
			f = pkg.LogFormatJSON
		}
	}
	pkg.SetLogFormat(w, f)
}

func findUserConfig(args []string) string {
	for i, a := range args {
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("USBTAP_CONFIG")
}

// configCandidatePaths returns the configuration files to try for each
// loader, lowest priority first. A user file is routed by extension.
func configCandidatePaths(user string) (jsonPaths, yamlPaths, tomlPaths []string) {
	dir := filepath.Join("~", ".config", "usbtap")
	jsonPaths = []string{filepath.Join(dir, "config.json")}
	yamlPaths = []string{filepath.Join(dir, "config.yaml")}
	tomlPaths = []string{filepath.Join(dir, "config.toml")}

	switch strings.ToLower(filepath.Ext(user)) {
	case "":
	case ".yaml", ".yml":
		yamlPaths = append(yamlPaths, user)
	case ".toml":
		tomlPaths = append(tomlPaths, user)
	default:
		jsonPaths = append(jsonPaths, user)
	}
	return jsonPaths, yamlPaths, tomlPaths
}
