package topology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lint111/VBVS--VIXEN-sub013/node"
)

func TestLinearGraphTopologicalOrder(t *testing.T) {
	top := New()
	a, b, c := node.Handle(1), node.Handle(2), node.Handle(3)
	top.AddNode(a)
	top.AddNode(b)
	top.AddNode(c)
	require.NoError(t, top.Connect(a, b))
	require.NoError(t, top.Connect(b, c))

	order, err := top.TopologicalOrder()
	require.NoError(t, err)
	require.Equal(t, []node.Handle{a, b, c}, order)
}

func TestCycleDetection(t *testing.T) {
	top := New()
	a, b, c := node.Handle(1), node.Handle(2), node.Handle(3)
	top.AddNode(a)
	top.AddNode(b)
	top.AddNode(c)
	require.NoError(t, top.Connect(a, b))
	require.NoError(t, top.Connect(b, c))
	require.NoError(t, top.Connect(c, a))

	_, err := top.TopologicalOrder()
	require.Error(t, err)

	path, ok := top.CycleCheck()
	require.True(t, ok)
	require.NotEmpty(t, path.Path)
}

func TestTopologicalOrderIsIdempotent(t *testing.T) {
	top := New()
	handles := []node.Handle{1, 2, 3, 4}
	for _, h := range handles {
		top.AddNode(h)
	}
	require.NoError(t, top.Connect(1, 3))
	require.NoError(t, top.Connect(2, 3))
	require.NoError(t, top.Connect(3, 4))

	first, err := top.TopologicalOrder()
	require.NoError(t, err)
	second, err := top.TopologicalOrder()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDirectAndTransitiveDeps(t *testing.T) {
	top := New()
	a, b, c := node.Handle(1), node.Handle(2), node.Handle(3)
	top.AddNode(a)
	top.AddNode(b)
	top.AddNode(c)
	require.NoError(t, top.Connect(a, b))
	require.NoError(t, top.Connect(b, c))

	require.Equal(t, []node.Handle{b}, top.DirectDeps(c))
	require.Equal(t, []node.Handle{a, b}, top.TransitiveDeps(c))
	require.Equal(t, []node.Handle{a}, top.Roots())
	require.Equal(t, []node.Handle{c}, top.Leaves())
}
