package stlview_test

import (
	"math"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenUnflatten(t *testing.T) {
	tris := []ms3.Triangle{
		{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}, {X: 7, Y: 8, Z: 9}},
		{{X: -1}, {Y: -1}, {Z: -1}},
	}
	buf := stlview.Flatten(tris)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, -1, 0, 0, 0, -1, 0, 0, 0, -1}, buf)
	got, err := stlview.Unflatten(buf)
	require.NoError(t, err)
	assert.Equal(t, tris, got)

	_, err = stlview.Unflatten(buf[:10])
	assert.ErrorIs(t, err, stlview.ErrInvalidMeshData)
}

func TestMeshBoundsAndCenter(t *testing.T) {
	m := stlview.Mesh{Vertices: cubeBuffer(2, 10, -4, 1)}
	assert.Equal(t, 12, m.TriangleCount())
	bb := m.Bounds()
	assert.Equal(t, 10.0, bb.Min.X)
	assert.Equal(t, 3.0, bb.Max.Z)

	c := m.Centered()
	cb := c.Bounds()
	assert.InDelta(t, -1, cb.Min.X, eps)
	assert.InDelta(t, 1, cb.Max.Y, eps)
	// Centered must not touch the receiver.
	assert.Equal(t, float32(10), m.Vertices[0])

	vol, err := c.Volume()
	require.NoError(t, err)
	assert.InDelta(t, 8, vol, 1e-5)
}

func TestMeshEmpty(t *testing.T) {
	var m stlview.Mesh
	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.TriangleCount())
	assert.Zero(t, m.Bounds().Min)
	vol, err := m.Volume()
	require.NoError(t, err)
	assert.Zero(t, vol)
	assert.True(t, m.Centered().IsEmpty())
}

func TestMeshScaledVolume(t *testing.T) {
	m := stlview.Mesh{Vertices: tetraBuffer}
	for _, k := range []float64{0.1, 0.5, 2, 10, -3} {
		vol, err := m.Scaled(k).Volume()
		require.NoError(t, err)
		want := math.Abs(k*k*k) / 6
		assert.InDelta(t, want, vol, 1e-6*math.Max(1, want), "k=%g", k)
	}
}

func TestPlacementPreservesShape(t *testing.T) {
	m := stlview.Mesh{Vertices: cubeBuffer(10, 5, 5, 5)}
	placed := stlview.DefaultPlacement.Apply(m)

	bb := placed.Bounds()
	for _, v := range []float64{bb.Min.X, bb.Min.Y, bb.Min.Z} {
		assert.InDelta(t, -0.5, v, 1e-5)
	}
	for _, v := range []float64{bb.Max.X, bb.Max.Y, bb.Max.Z} {
		assert.InDelta(t, 0.5, v, 1e-5)
	}
	raw, err := m.Volume()
	require.NoError(t, err)
	got, err := placed.Volume()
	require.NoError(t, err)
	assert.InDelta(t, raw*stlview.DefaultPlacement.VolumeFactor(), got, 1e-5)
	assert.InDelta(t, 1e-3, stlview.DefaultPlacement.VolumeFactor(), 1e-15)
}

func TestPlacementRotationKeepsVolume(t *testing.T) {
	m := stlview.Mesh{Vertices: tetraBuffer}
	p := stlview.Placement{RotationX: 1.234}
	got, err := p.Apply(m).SignedVolume()
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6, got, eps)
	assert.InDelta(t, 1.0, p.VolumeFactor(), 1e-12)
}

func TestPlacementVolumeFactor(t *testing.T) {
	for _, tc := range []struct {
		p    stlview.Placement
		want float64
	}{
		{stlview.Placement{}, 1},
		{stlview.Placement{Scale: 2}, 8},
		{stlview.Placement{Scale: -2, RotationX: 0.5}, 8},
		{stlview.Placement{Center: true, Scale: 0.5}, 0.125},
	} {
		assert.InDelta(t, tc.want, tc.p.VolumeFactor(), 1e-12, "%+v", tc.p)
		// The factor must match what Apply does to a closed mesh.
		m := stlview.Mesh{Vertices: tetraBuffer}
		got, err := tc.p.Apply(m).Volume()
		require.NoError(t, err)
		assert.InDelta(t, tc.want/6, got, 1e-6, "%+v", tc.p)
	}
}

func TestPlacementKeepsMalformedLength(t *testing.T) {
	m := stlview.Mesh{Vertices: make([]float32, 10)}
	placed := stlview.DefaultPlacement.Apply(m)
	assert.Len(t, placed.Vertices, 10)
	_, err := placed.Volume()
	assert.ErrorIs(t, err, stlview.ErrInvalidMeshData)
}
