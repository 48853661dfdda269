package compositor

import (
	"testing"

	"github.com/1broseidon/swaygravity/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	return &Node{ID: 1, Type: NodeRoot, Nodes: []*Node{
		{ID: 2, Type: NodeOutput, Nodes: []*Node{
			{ID: 3, Type: NodeWorkspace, Rect: geometry.Rect{Width: 1920, Height: 1050},
				Nodes: []*Node{{ID: 10, Type: NodeCon}},
				FloatingNodes: []*Node{{ID: 11, Type: NodeFloatingCon}},
			},
			{ID: 4, Type: NodeWorkspace, Rect: geometry.Rect{X: 1920, Width: 1280, Height: 1024},
				Nodes: []*Node{{ID: 20, Type: NodeCon, Nodes: []*Node{{ID: 21, Type: NodeCon}}}},
			},
		}},
	}}
}

func TestWorkspaceOf(t *testing.T) {
	tree := sampleTree()

	ws, err := tree.WorkspaceOf(11)
	require.NoError(t, err)
	assert.EqualValues(t, 3, ws.ID)

	ws, err = tree.WorkspaceOf(21)
	require.NoError(t, err)
	assert.EqualValues(t, 4, ws.ID)

	_, err = tree.WorkspaceOf(99)
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestWalk_StopsEarly(t *testing.T) {
	var visited []int64
	sampleTree().Walk(func(n *Node) bool {
		visited = append(visited, n.ID)
		return n.ID != 10
	})
	assert.Equal(t, []int64{1, 2, 3, 10}, visited)
}

func TestFloating(t *testing.T) {
	tree := sampleTree()
	assert.True(t, tree.Find(11).Floating())
	assert.False(t, tree.Find(10).Floating())
	assert.Nil(t, tree.Find(42))
	var missing *Node
	assert.False(t, missing.Floating())
}

func TestCommandText(t *testing.T) {
	assert.Equal(t, `[con_id="7"] resize set 640 px 480 px`, ResizeCommand{WindowID: 7, Width: 640, Height: 480}.String())
	assert.Equal(t, `[con_id="7"] move position -20 15`, MoveCommand{WindowID: 7, X: -20, Y: 15}.String())
	assert.EqualValues(t, 7, MoveCommand{WindowID: 7}.Target())
}
