// Package compositor describes the window tree and layout commands the
// placement engine needs from a compositor, independent of its wire protocol.
package compositor

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/swaygravity/internal/geometry"
)

var (
	// ErrNoWorkspace is returned when a window is not inside any workspace.
	ErrNoWorkspace = errors.New("window has no workspace")
	// ErrCommandFailed is returned when the compositor rejects a layout command.
	ErrCommandFailed = errors.New("layout command failed")
)

// NodeType classifies a node of the window tree.
type NodeType string

const (
	NodeRoot        NodeType = "root"
	NodeOutput      NodeType = "output"
	NodeWorkspace   NodeType = "workspace"
	NodeCon         NodeType = "con"
	NodeFloatingCon NodeType = "floating_con"
)

// Node is one entry of the compositor's window tree.
type Node struct {
	ID      int64
	Name    string
	Type    NodeType
	Focused bool

	// Rect is the node's on-screen rectangle.
	Rect geometry.Rect
	// DecoRect is the title bar; its height adds to the effective height.
	DecoRect geometry.Rect
	// Geometry is the content's own unconstrained size.
	Geometry geometry.Rect

	Nodes         []*Node
	FloatingNodes []*Node
}

// Floating reports whether n is a floating container.
func (n *Node) Floating() bool {
	return n != nil && n.Type == NodeFloatingCon
}

// Walk visits n and its descendants depth-first, tiled children before
// floating ones, until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Nodes {
		if !child.Walk(fn) {
			return false
		}
	}
	for _, child := range n.FloatingNodes {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first node with the given id.
func (n *Node) Find(id int64) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// WorkspaceOf returns the workspace node that contains the node with id.
func (n *Node) WorkspaceOf(id int64) (*Node, error) {
	var found *Node
	n.Walk(func(node *Node) bool {
		if node.Type == NodeWorkspace && node.Find(id) != nil {
			found = node
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoWorkspace, id)
	}
	return found, nil
}

// Command is a layout command addressed to a single window.
type Command interface {
	Target() int64
	String() string
}

// ResizeCommand sets a window's size in pixels.
type ResizeCommand struct {
	WindowID int64
	Width    int
	Height   int
}

func (c ResizeCommand) Target() int64 { return c.WindowID }

func (c ResizeCommand) String() string {
	return fmt.Sprintf(`[con_id="%d"] resize set %d px %d px`, c.WindowID, c.Width, c.Height)
}

// MoveCommand moves a floating window to a workspace-relative position.
type MoveCommand struct {
	WindowID int64
	X        int
	Y        int
}

func (c MoveCommand) Target() int64 { return c.WindowID }

func (c MoveCommand) String() string {
	return fmt.Sprintf(`[con_id="%d"] move position %d %d`, c.WindowID, c.X, c.Y)
}

// Backend abstracts the compositor operations used by a reconciliation pass.
// Implementations are not safe for concurrent use; each goroutine that talks
// to the compositor owns its own Backend.
type Backend interface {
	Tree(ctx context.Context) (*Node, error)
	WorkspaceRect(ctx context.Context, windowID int64) (geometry.Rect, error)
	Run(ctx context.Context, cmd Command) error
}
