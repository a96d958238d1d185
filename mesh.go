package stlview

import (
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a caller-owned triangle mesh in STL buffer layout.
// Each triangle owns its 3 vertices: Vertices holds 9 values per triangle.
// Methods never modify the receiver, transforming methods return a copy.
type Mesh struct {
	Vertices []float32
}

// NewMesh flattens triangles into a Mesh.
func NewMesh(triangles []ms3.Triangle) Mesh {
	return Mesh{Vertices: Flatten(triangles)}
}

// Flatten returns the STL buffer of triangles, 9 values per triangle.
func Flatten(triangles []ms3.Triangle) []float32 {
	buf := make([]float32, 0, len(triangles)*floatsPerTriangle)
	for _, t := range triangles {
		for _, v := range t {
			buf = append(buf, v.X, v.Y, v.Z)
		}
	}
	return buf
}

// Unflatten is the inverse of Flatten. It fails with an *InvalidMeshDataError
// if buf does not hold a whole number of triangles.
func Unflatten(buf []float32) ([]ms3.Triangle, error) {
	if err := checkBufferLen(len(buf)); err != nil {
		return nil, err
	}
	triangles := make([]ms3.Triangle, len(buf)/floatsPerTriangle)
	for i := range triangles {
		t := buf[i*floatsPerTriangle:]
		triangles[i] = ms3.Triangle{
			{X: t[0], Y: t[1], Z: t[2]},
			{X: t[3], Y: t[4], Z: t[5]},
			{X: t[6], Y: t[7], Z: t[8]},
		}
	}
	return triangles, nil
}

// TriangleCount returns the number of whole triangles in the mesh.
func (m Mesh) TriangleCount() int { return len(m.Vertices) / floatsPerTriangle }

// IsEmpty returns true if the mesh has no geometry.
func (m Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// Triangles returns the mesh triangles. See Unflatten.
func (m Mesh) Triangles() ([]ms3.Triangle, error) { return Unflatten(m.Vertices) }

// Volume returns the absolute enclosed volume of the mesh. See Volume.
func (m Mesh) Volume() (float64, error) { return Volume(m.Vertices) }

// SignedVolume returns the signed enclosed volume of the mesh.
func (m Mesh) SignedVolume() (float64, error) { return SignedVolume(m.Vertices) }

// Bounds returns the axis aligned bounding box of the mesh vertices.
// An empty mesh has a zero-sized box at the origin.
func (m Mesh) Bounds() r3.Box {
	return r3.Box(m.bounds())
}

func (m Mesh) bounds() d3.Box {
	if len(m.Vertices) < 3 {
		return d3.Box{}
	}
	bb := d3.EmptyBox()
	for i := 0; i+3 <= len(m.Vertices); i += 3 {
		bb = bb.Include(vertexAt(m.Vertices, i))
	}
	return bb
}

// Centered returns a copy of the mesh translated so that the center of its
// bounding box lies at the origin.
func (m Mesh) Centered() Mesh {
	return m.transform(d3.Translation(r3.Scale(-1, m.bounds().Center())))
}

// Scaled returns a copy of the mesh uniformly scaled about the origin by k.
// The volume of the result is |k|³ times the volume of m.
func (m Mesh) Scaled(k float64) Mesh {
	if k == 1 {
		return m.clone()
	}
	return m.transform(d3.Scaling(k))
}

func (m Mesh) transform(T d3.Transform) Mesh {
	if T.IsIdentity() {
		return m.clone()
	}
	out := make([]float32, len(m.Vertices))
	// A trailing partial vertex is copied unchanged so the buffer length,
	// and therefore its validity, is preserved.
	copy(out, m.Vertices)
	for i := 0; i+3 <= len(out); i += 3 {
		v := T.Transform(vertexAt(out, i))
		out[i], out[i+1], out[i+2] = float32(v.X), float32(v.Y), float32(v.Z)
	}
	return Mesh{Vertices: out}
}

func (m Mesh) clone() Mesh {
	if m.Vertices == nil {
		return Mesh{}
	}
	return Mesh{Vertices: append([]float32(nil), m.Vertices...)}
}

func vertexAt(buf []float32, i int) r3.Vec {
	return r3.Vec{X: float64(buf[i]), Y: float64(buf[i+1]), Z: float64(buf[i+2])}
}
