package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/1broseidon/swaygravity/internal/compositor"
	"github.com/1broseidon/swaygravity/internal/config"
	"github.com/1broseidon/swaygravity/internal/geometry"
	"github.com/1broseidon/swaygravity/internal/placement"
	"github.com/1broseidon/swaygravity/internal/unit"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parse runs flag parsing only and returns the flags and positionals.
func parse(t *testing.T, argv ...string) (*pflag.FlagSet, *options, []string) {
	t.Helper()
	var opts options
	f := pflag.NewFlagSet("swaygravity", pflag.ContinueOnError)
	bindFlags(f, &opts)
	require.NoError(t, f.Parse(argv))
	return f, &opts, f.Args()
}

func TestBuildUpdate_OnlyGivenFields(t *testing.T) {
	flags, opts, args := parse(t, "top", "left", "--width", "-5%", "--natural")

	u, err := buildUpdate(flags, args, opts)
	require.NoError(t, err)

	require.NotNil(t, u.Vertical)
	assert.Equal(t, geometry.Top, *u.Vertical)
	require.NotNil(t, u.Horizontal)
	assert.Equal(t, geometry.Left, *u.Horizontal)
	require.NotNil(t, u.Width)
	assert.Equal(t, unit.DeltaPct(-5), *u.Width)
	require.NotNil(t, u.Natural)
	assert.True(t, *u.Natural)

	assert.Nil(t, u.Padding)
	assert.Nil(t, u.Height)
}

func TestBuildUpdate_Empty(t *testing.T) {
	flags, opts, args := parse(t)

	u, err := buildUpdate(flags, args, opts)
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
}

func TestBuildUpdate_ExplicitZeroAndFalse(t *testing.T) {
	flags, opts, args := parse(t, "--padding", "0", "--natural=false")

	u, err := buildUpdate(flags, args, opts)
	require.NoError(t, err)
	require.NotNil(t, u.Padding)
	assert.Equal(t, 0, *u.Padding)
	require.NotNil(t, u.Natural)
	assert.False(t, *u.Natural)
}

func TestBuildUpdate_Errors(t *testing.T) {
	tests := [][]string{
		{"sideways"},
		{"top", "up"},
		{"--width", "wide"},
		{"--height", "10em"},
		{"--padding", "-4"},
	}
	for _, argv := range tests {
		flags, opts, args := parse(t, argv...)
		_, err := buildUpdate(flags, args, opts)
		assert.Error(t, err, "argv %v", argv)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("socket: /tmp/from-file.sock\nsway_event_delay: 50\nlog_level: debug\n"), 0644))

	flags, opts, _ := parse(t, "--config", path, "--sway-event-delay", "10")
	cfg, err := loadConfig(flags, opts)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-file.sock", cfg.Socket)
	assert.Equal(t, 10, cfg.SwayEventDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5000, cfg.HandoverTimeout)
}

func TestLoadConfig_RejectsInvalidOverride(t *testing.T) {
	flags, opts, _ := parse(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "loud")
	_, err := loadConfig(flags, opts)
	assert.Error(t, err)
}

func TestInitialStateFromFlags_RejectsRelative(t *testing.T) {
	flags, opts, args := parse(t, "--daemon", "--width", "+10px")
	u, err := buildUpdate(flags, args, opts)
	require.NoError(t, err)

	_, err = config.DefaultConfig().InitialState(u)
	assert.ErrorIs(t, err, placement.ErrInvalidInitialState)
}

func TestRootCmd_RejectsDaemonWithShutdown(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--daemon", "--shutdown"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}

type recordingBackend struct {
	tree     *compositor.Node
	commands []compositor.Command
}

func (b *recordingBackend) Tree(context.Context) (*compositor.Node, error) { return b.tree, nil }

func (b *recordingBackend) WorkspaceRect(context.Context, int64) (geometry.Rect, error) {
	return geometry.Rect{Width: 1000, Height: 800}, nil
}

func (b *recordingBackend) Run(_ context.Context, cmd compositor.Command) error {
	b.commands = append(b.commands, cmd)
	return nil
}

func TestPlaceOnce_StartsFromDefaultState(t *testing.T) {
	backend := &recordingBackend{tree: &compositor.Node{ID: 1, Type: compositor.NodeRoot, Nodes: []*compositor.Node{
		{ID: 2, Type: compositor.NodeWorkspace, FloatingNodes: []*compositor.Node{
			{ID: 3, Type: compositor.NodeFloatingCon, Rect: geometry.Rect{Width: 200, Height: 100}},
		}},
	}}}

	res, err := placeOnce(context.Background(), backend, placement.Update{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	// Bottom-right, unpadded, size unchanged.
	assert.Equal(t, []compositor.Command{compositor.MoveCommand{WindowID: 3, X: 800, Y: 700}}, backend.commands)
	assert.False(t, res.Resized)
}
