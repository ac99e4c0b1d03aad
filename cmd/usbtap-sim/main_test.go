package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/usb"
)

var enumerate = filepath.Join("..", "..", "internal", "scenario", "testdata", "enumerate.yaml")

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	logger, level := pkg.DefaultLogger, pkg.GetLogLevel()
	t.Cleanup(func() {
		pkg.SetLogger(logger)
		pkg.SetLogLevel(level)
	})
	t.Setenv("USBTAP_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Scenario(t *testing.T) {
	code, out, errOut := runCLI(t, "run", enumerate)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "enumerate")
	assert.Contains(t, out, "SendComplete")
	assert.Contains(t, out, "ReceiveControl")
}

func TestRun_SplitAndCapture(t *testing.T) {
	code, out, errOut := runCLI(t, "run", "--split-setup=target", "--capture-packets=aux,usb0", enumerate)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "ext.ReceiveControl")
	assert.Contains(t, out, "ext.ReceivePacket")
	assert.Contains(t, out, "packet bytes")
}

func TestRun_LogFormatJSON(t *testing.T) {
	code, _, errOut := runCLI(t, "--log-level=debug", "--log-format=json", "run", enumerate)
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, `"component":"sim"`)
	assert.Equal(t, pkg.ParseLevel("debug"), pkg.GetLogLevel())
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, version+"\n", out)
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "usbtap-sim")
}

func TestRun_Errors(t *testing.T) {
	code, _, errOut := runCLI(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usbtap-sim:")

	code, _, _ = runCLI(t, "run", "--split-setup=host", enumerate)
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "--log-level=loud", "version")
	assert.Equal(t, 2, code)
}

func TestRun_BadScenario(t *testing.T) {
	code, _, errOut := runCLI(t, "run", "main.go")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid scenario")
}

func TestRun_StrictFlood(t *testing.T) {
	flood := filepath.Join(filepath.Dir(enumerate), "flood.yaml")
	code, out, errOut := runCLI(t, "run", "--hold", "--strict", flood)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "dropped", "report is printed before failing")
	assert.Contains(t, errOut, "event queue full")
}

func TestRunCmd_Options(t *testing.T) {
	cmd := RunCmd{
		Defer:          []usb.Role{usb.RoleAux},
		SplitSetup:     []usb.Role{usb.RoleTarget},
		CapturePackets: []usb.Role{usb.RoleControl},
		Hold:           true,
	}
	opts := cmd.Options()
	assert.Equal(t, [usb.NumRoles]bool{true, false, true}, opts.Classifier.Extract)
	assert.Equal(t, [usb.NumRoles]bool{true, false, false}, opts.Handler.SplitSetup)
	assert.Equal(t, [usb.NumRoles]bool{false, false, true}, opts.Classifier.Capture)
	assert.True(t, opts.Hold)
}

func TestConfigCandidatePaths(t *testing.T) {
	tests := []struct {
		user              string
		json, yaml, tomls int
	}{
		{"", 1, 1, 1},
		{"sim.yaml", 1, 2, 1},
		{"sim.YML", 1, 2, 1},
		{"sim.toml", 1, 1, 2},
		{"sim.json", 2, 1, 1},
	}
	for _, tt := range tests {
		j, y, tm := configCandidatePaths(tt.user)
		assert.Len(t, j, tt.json, tt.user)
		assert.Len(t, y, tt.yaml, tt.user)
		assert.Len(t, tm, tt.tomls, tt.user)
	}
}

func TestFindUserConfig(t *testing.T) {
	t.Setenv("USBTAP_CONFIG", "env.toml")
	assert.Equal(t, "a.yaml", findUserConfig([]string{"run", "--config=a.yaml"}))
	assert.Equal(t, "b.toml", findUserConfig([]string{"--config", "b.toml", "run"}))
	assert.Equal(t, "env.toml", findUserConfig([]string{"run"}))
}
