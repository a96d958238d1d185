package stlview

import (
	"math"

	"github.com/soypat/stlview/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement positions a loaded mesh in the scene. It is applied in order:
// optional recentering of the bounding box on the origin, uniform scaling,
// then rotation about the X axis.
type Placement struct {
	// Center translates the bounding box center of the mesh to the origin.
	Center bool `toml:"center"`
	// Scale is the uniform display scale. Zero means 1.
	Scale float64 `toml:"scale"`
	// RotationX is the rotation about the X axis in radians.
	RotationX float64 `toml:"rotation_x"`
}

// DefaultPlacement recenters the mesh, shrinks it 10 times and turns
// Z-up models into the Y-up scene frame.
var DefaultPlacement = Placement{
	Center:    true,
	Scale:     0.1,
	RotationX: -math.Pi / 2,
}

func (p Placement) scale() float64 {
	if p.Scale == 0 {
		return 1
	}
	return p.Scale
}

// VolumeFactor returns the factor by which Apply scales mesh volumes.
func (p Placement) VolumeFactor() float64 {
	return math.Abs(p.transform(r3.Vec{}).LinearDet())
}

// Apply returns a copy of m positioned by p.
func (p Placement) Apply(m Mesh) Mesh {
	Logger().Debug("placing mesh", "triangles", m.TriangleCount(), "scale", p.scale(), "rotx", p.RotationX)
	return m.transform(p.transform(m.bounds().Center()))
}

// transform returns the placement of a mesh whose bounding box is
// centered at center.
func (p Placement) transform(center r3.Vec) d3.Transform {
	var T d3.Transform
	if p.Center {
		T = d3.Translation(r3.Scale(-1, center))
	}
	if s := p.scale(); s != 1 {
		T = d3.Scaling(s).Mul(T)
	}
	if p.RotationX != 0 {
		T = d3.Rotation(p.RotationX, r3.Vec{X: 1}).Mul(T)
	}
	return T
}
