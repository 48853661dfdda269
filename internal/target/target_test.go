package target

import (
	"testing"

	"github.com/1broseidon/swaygravity/internal/compositor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workspace(nodes []*compositor.Node, floating ...*compositor.Node) *compositor.Node {
	return &compositor.Node{ID: 1, Type: compositor.NodeRoot, Nodes: []*compositor.Node{
		{ID: 2, Type: compositor.NodeWorkspace, Nodes: nodes, FloatingNodes: floating},
	}}
}

func floatingCon(id int64, focused bool) *compositor.Node {
	return &compositor.Node{ID: id, Type: compositor.NodeFloatingCon, Focused: focused}
}

func tiledCon(id int64, focused bool) *compositor.Node {
	return &compositor.Node{ID: id, Type: compositor.NodeCon, Focused: focused}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		tree    *compositor.Node
		wantID  int64
		wantErr error
	}{
		{
			name:   "single floating window without focus",
			tree:   workspace([]*compositor.Node{tiledCon(10, true)}, floatingCon(20, false)),
			wantID: 20,
		},
		{
			name:   "focused floating among several",
			tree:   workspace(nil, floatingCon(20, false), floatingCon(21, true), floatingCon(22, false)),
			wantID: 21,
		},
		{
			name:    "no floating window",
			tree:    workspace([]*compositor.Node{tiledCon(10, true)}),
			wantErr: ErrNoApplicableTarget,
		},
		{
			name:    "several floating none focused",
			tree:    workspace([]*compositor.Node{tiledCon(10, true)}, floatingCon(20, false), floatingCon(21, false)),
			wantErr: ErrAmbiguousTarget,
		},
		{
			name:    "several floating several focused",
			tree:    workspace(nil, floatingCon(20, true), floatingCon(21, true)),
			wantErr: ErrAmbiguousTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.tree)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, Ref{ID: tt.wantID, Floating: true}, RefOf(got))
		})
	}
}

func TestSelect_FloatingAcrossWorkspaces(t *testing.T) {
	tree := &compositor.Node{ID: 1, Type: compositor.NodeRoot, Nodes: []*compositor.Node{
		{ID: 2, Type: compositor.NodeWorkspace, FloatingNodes: []*compositor.Node{floatingCon(20, false)}},
		{ID: 3, Type: compositor.NodeWorkspace, FloatingNodes: []*compositor.Node{floatingCon(30, true)}},
	}}

	got, err := Select(tree)
	require.NoError(t, err)
	assert.EqualValues(t, 30, got.ID)
}
