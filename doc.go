/*
Package stlview measures and places triangle meshes loaded from STL files.

The core of the package is the volume estimator, which sums the signed
volumes of the tetrahedra formed by each triangle of a flat vertex buffer and
the origin. A buffer stores every triangle as 9 consecutive numbers
(3 vertices, 3 coordinates each) with no vertex sharing, which is the layout
produced by the STL decoder in the render package.

	vol, err := stlview.Volume(mesh.Vertices)

The result equals the enclosed volume only for closed, consistently wound
meshes. Open meshes or meshes with flipped triangles still yield a number,
it is just not meaningful.
*/
package stlview
