// Package sway talks to the sway compositor over its IPC socket: it reads
// the window tree, runs layout commands and subscribes to events.
package sway

import (
	"context"
	"fmt"
	"strings"

	"github.com/1broseidon/swaygravity/internal/compositor"
	"github.com/1broseidon/swaygravity/internal/geometry"
	gosway "github.com/joshuarubin/go-sway"
)

// Connection is a command connection to sway. It implements
// compositor.Backend.
type Connection struct {
	client gosway.Client
	cancel context.CancelFunc
}

var _ compositor.Backend = (*Connection)(nil)

// Connect opens a command connection using the socket named by $SWAYSOCK.
func Connect(ctx context.Context) (*Connection, error) {
	connCtx, cancel := context.WithCancel(ctx)
	client, err := gosway.New(connCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect to sway: %w", err)
	}
	return &Connection{client: client, cancel: cancel}, nil
}

// Close releases the connection.
func (c *Connection) Close() {
	if c != nil && c.cancel != nil {
		c.cancel()
	}
}

// Tree returns the current window tree.
func (c *Connection) Tree(ctx context.Context) (*compositor.Node, error) {
	root, err := c.client.GetTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_tree: %w", err)
	}
	return convertNode(root), nil
}

// WorkspaceRect returns the rectangle of the workspace holding windowID.
func (c *Connection) WorkspaceRect(ctx context.Context, windowID int64) (geometry.Rect, error) {
	tree, err := c.Tree(ctx)
	if err != nil {
		return geometry.Rect{}, err
	}
	ws, err := tree.WorkspaceOf(windowID)
	if err != nil {
		return geometry.Rect{}, err
	}
	return ws.Rect, nil
}

// Run sends cmd and fails when sway reports any of its parts unsuccessful.
func (c *Connection) Run(ctx context.Context, cmd compositor.Command) error {
	replies, err := c.client.RunCommand(ctx, cmd.String())
	if err != nil {
		return fmt.Errorf("run %q: %w", cmd.String(), err)
	}
	return checkReplies(cmd, replies)
}

// SendTick sends a tick event carrying payload to all tick subscribers.
func (c *Connection) SendTick(ctx context.Context, payload string) error {
	reply, err := c.client.SendTick(ctx, payload)
	if err != nil {
		return fmt.Errorf("send_tick: %w", err)
	}
	if reply != nil && !reply.Success {
		return fmt.Errorf("send_tick: rejected")
	}
	return nil
}

func checkReplies(cmd compositor.Command, replies []gosway.RunCommandReply) error {
	var failures []string
	for _, r := range replies {
		if !r.Success {
			failures = append(failures, r.Error)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", compositor.ErrCommandFailed, cmd.String(), strings.Join(failures, "; "))
}

func convertNode(n *gosway.Node) *compositor.Node {
	if n == nil {
		return nil
	}
	out := &compositor.Node{
		ID:       n.ID,
		Name:     n.Name,
		Type:     compositor.NodeType(n.Type),
		Focused:  n.Focused,
		Rect:     convertRect(n.Rect),
		DecoRect: convertRect(n.DecoRect),
		Geometry: convertRect(n.Geometry),
	}
	for _, child := range n.Nodes {
		out.Nodes = append(out.Nodes, convertNode(child))
	}
	for _, child := range n.FloatingNodes {
		out.FloatingNodes = append(out.FloatingNodes, convertNode(child))
	}
	return out
}

func convertRect(r gosway.Rect) geometry.Rect {
	return geometry.Rect{
		X:      int(r.X),
		Y:      int(r.Y),
		Width:  int(r.Width),
		Height: int(r.Height),
	}
}
