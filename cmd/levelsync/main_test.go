package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/levelsync"
)

type fakeController struct {
	status levelsync.Status
	calls  []string
}

func (f *fakeController) Status() levelsync.Status { return f.status }

func (f *fakeController) Start(context.Context) error {
	f.calls = append(f.calls, "start")
	return nil
}

func (f *fakeController) Stop(context.Context) error {
	f.calls = append(f.calls, "stop")
	return nil
}

func (f *fakeController) Reload(context.Context) error {
	f.calls = append(f.calls, "reload")
	return nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestSimulator_Exec(t *testing.T) {
	ctx := context.Background()
	sim := newSimulator()
	ctl := &fakeController{status: levelsync.Status{Running: true}}

	_, err := sim.exec(ctx, "vol 75", ctl)
	require.NoError(t, err)
	assert.Equal(t, levelsync.Percent(75), sim.system.Value())

	_, err = sim.exec(ctx, "gain -6.5", ctl)
	require.NoError(t, err)
	assert.Equal(t, levelsync.Decibels(-6.5), sim.mixer.Value())

	out, err := sim.exec(ctx, "status", ctl)
	require.NoError(t, err)
	assert.Contains(t, out, "system=75%")
	assert.Contains(t, out, "mixer=-6.50dB")
	assert.Contains(t, out, "running=true")

	for _, cmd := range []string{"stop", "start", "reload"} {
		_, err = sim.exec(ctx, cmd, ctl)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"stop", "start", "reload"}, ctl.calls)

	out, err = sim.exec(ctx, "   ", ctl)
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestSimulator_ExecErrors(t *testing.T) {
	ctx := context.Background()
	sim := newSimulator()
	ctl := &fakeController{}

	_, err := sim.exec(ctx, "vol", ctl)
	assert.ErrorContains(t, err, "needs an argument")
	_, err = sim.exec(ctx, "vol loud", ctl)
	assert.ErrorContains(t, err, "invalid volume")
	_, err = sim.exec(ctx, "gain x", ctl)
	assert.ErrorContains(t, err, "invalid gain")
	_, err = sim.exec(ctx, "jump", ctl)
	assert.ErrorContains(t, err, "unknown command")
}

func TestSimulator_Repl(t *testing.T) {
	sim := newSimulator()
	var out bytes.Buffer
	con := &console{out: &out, profile: termenv.Ascii}
	sim.repl(context.Background(), strings.NewReader("vol 20\nhealth off\nbogus\n"), con, &fakeController{})

	assert.Equal(t, levelsync.Percent(20), sim.system.Value())
	assert.False(t, sim.mixer.Healthy(context.Background()))
	assert.Contains(t, out.String(), "error: unknown command")
}

func TestConsole_Present(t *testing.T) {
	var out bytes.Buffer
	con := newConsole(&out)
	con.Present(context.Background(), levelsync.StatusEvent{
		Kind:   levelsync.StatusUnhealthy,
		Source: "voicemeeter",
		At:     time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Detail: "connection lost",
	})
	line := out.String()
	assert.Contains(t, line, "15:04:05")
	assert.Contains(t, line, "unhealthy voicemeeter: connection lost")
}

func TestMapCommand(t *testing.T) {
	out, err := execute(t, "map", "--volume", "50")
	require.NoError(t, err)
	assert.Equal(t, "50% -> -10.82dB\n", out)

	out, err = execute(t, "map", "--gain", "-6")
	require.NoError(t, err)
	assert.Equal(t, "-6.00dB -> 59%\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelsync.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "show", "--config", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"curve_power": 0.55`)
}
