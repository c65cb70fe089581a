package connect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lint111/VBVS--VIXEN-sub013/node"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

func imageSlot(null typesys.Nullability, role typesys.Role, ar typesys.Arity) typesys.SlotDescriptor {
	return typesys.SlotDescriptor{Type: typesys.TagImage, Null: null, RoleKind: role, Ar: ar}
}

func TestDirectConnectionSucceeds(t *testing.T) {
	r := NewRegistry(typesys.NewRegistry())
	src := imageSlot(typesys.Required, typesys.Execute, typesys.Single)
	dst := imageSlot(typesys.Required, typesys.Execute, typesys.Single)
	c, err := r.Connect(1, 0, src, 2, 0, dst, Direct)
	require.NoError(t, err)
	require.Equal(t, Direct, c.Kind)
}

func TestDirectSecondConnectionToSingleSlotFails(t *testing.T) {
	r := NewRegistry(typesys.NewRegistry())
	src := imageSlot(typesys.Required, typesys.Execute, typesys.Single)
	dst := imageSlot(typesys.Required, typesys.Execute, typesys.Single)
	_, err := r.Connect(1, 0, src, 2, 0, dst, Direct)
	require.NoError(t, err)
	_, err = r.Connect(3, 0, src, 2, 0, dst, Direct)
	require.Error(t, err)
}

func TestVariadicConnectionAssignsIndices(t *testing.T) {
	r := NewRegistry(typesys.NewRegistry())
	src := imageSlot(typesys.Required, typesys.Execute, typesys.Single)
	dst := imageSlot(typesys.Required, typesys.Execute, typesys.Variadic)
	c1, err := r.Connect(1, 0, src, 9, 0, dst, Variadic)
	require.NoError(t, err)
	c2, err := r.Connect(2, 0, src, 9, 0, dst, Variadic)
	require.NoError(t, err)
	require.Equal(t, 0, c1.Ordinal)
	require.Equal(t, 1, c2.Ordinal)
}

func TestAccumulationPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(typesys.NewRegistry())
	src := typesys.SlotDescriptor{Type: typesys.TagImageView, Null: typesys.Required, RoleKind: typesys.Execute, Ar: typesys.Single}
	dst := typesys.SlotDescriptor{Type: typesys.TagImageView, Null: typesys.Required, RoleKind: typesys.Execute,
		Ar: typesys.Variadic, Container: typesys.ContainerVector}

	p1 := node.Handle(1)
	p2 := node.Handle(2)
	p3 := node.Handle(3)
	gather := node.Handle(10)

	_, err := r.Connect(p1, 0, src, gather, 0, dst, Accumulation)
	require.NoError(t, err)
	_, err = r.Connect(p2, 0, src, gather, 0, dst, Accumulation)
	require.NoError(t, err)
	_, err = r.Connect(p3, 0, src, gather, 0, dst, Accumulation)
	require.NoError(t, err)

	order := r.AccumulationOrder(gather, 0)
	require.Len(t, order, 3)
	require.Equal(t, p1, order[0].SrcNode)
	require.Equal(t, p2, order[1].SrcNode)
	require.Equal(t, p3, order[2].SrcNode)
}

func TestRoleMismatchRejected(t *testing.T) {
	r := NewRegistry(typesys.NewRegistry())
	// Every output slot is necessarily Execute-role (Dependency is
	// input-only per the validity table), so wiring one into a
	// Dependency input is always a RoleMismatch, regardless of type
	// compatibility.
	src := imageSlot(typesys.Required, typesys.Execute, typesys.Single)
	dst := imageSlot(typesys.Required, typesys.Dependency, typesys.Single)
	_, err := r.Connect(1, 0, src, 2, 0, dst, Direct)
	require.Error(t, err)
}

func TestTypeIncompatibleRejected(t *testing.T) {
	r := NewRegistry(typesys.NewRegistry())
	src := typesys.SlotDescriptor{Type: typesys.TagBuffer, Null: typesys.Required, RoleKind: typesys.Execute, Ar: typesys.Single}
	dst := typesys.SlotDescriptor{Type: typesys.TagImage, Null: typesys.Required, RoleKind: typesys.Execute, Ar: typesys.Single}
	_, err := r.Connect(1, 0, src, 2, 0, dst, Direct)
	require.Error(t, err)
}
