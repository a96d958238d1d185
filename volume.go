package stlview

import "math"

// floatsPerTriangle is the number of buffer values describing one triangle.
const floatsPerTriangle = 9

// Volume returns the absolute enclosed volume of the closed triangle mesh
// stored in buf, 9 values per triangle. It returns an *InvalidMeshDataError
// if len(buf) is not a multiple of 9. An empty buffer has volume 0.
//
// Products are evaluated in float64 and triangles are summed in buffer order.
func Volume(buf []float32) (float64, error) {
	v, err := SignedVolume(buf)
	return math.Abs(v), err
}

// SignedVolume is like Volume but keeps the sign of the sum, which is
// positive for meshes wound counter-clockwise seen from outside.
func SignedVolume(buf []float32) (float64, error) {
	if err := checkBufferLen(len(buf)); err != nil {
		return 0, err
	}
	v, _ := signedVolume32(buf)
	return v, nil
}

// Volume64 is the float64 buffer version of Volume.
func Volume64(buf []float64) (float64, error) {
	v, err := SignedVolume64(buf)
	return math.Abs(v), err
}

// SignedVolume64 is the float64 buffer version of SignedVolume.
func SignedVolume64(buf []float64) (float64, error) {
	if err := checkBufferLen(len(buf)); err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i+floatsPerTriangle <= len(buf); i += floatsPerTriangle {
		t := buf[i : i+floatsPerTriangle : i+floatsPerTriangle]
		sum += tetraVolume(t[0], t[1], t[2], t[3], t[4], t[5], t[6], t[7], t[8])
	}
	return sum, nil
}

// TruncatedVolume ignores a trailing partial triangle instead of failing.
// It returns the absolute volume of the whole triangles in buf and how
// many triangles were summed.
func TruncatedVolume(buf []float32) (vol float64, n int) {
	v, n := signedVolume32(buf)
	return math.Abs(v), n
}

func signedVolume32(buf []float32) (sum float64, n int) {
	for i := 0; i+floatsPerTriangle <= len(buf); i += floatsPerTriangle {
		t := buf[i : i+floatsPerTriangle : i+floatsPerTriangle]
		sum += tetraVolume(
			float64(t[0]), float64(t[1]), float64(t[2]),
			float64(t[3]), float64(t[4]), float64(t[5]),
			float64(t[6]), float64(t[7]), float64(t[8]),
		)
		n++
	}
	return sum, n
}

// tetraVolume returns the signed volume of the tetrahedron formed by
// triangle ABC and the origin, that is A·(B×C)/6.
func tetraVolume(ax, ay, az, bx, by, bz, cx, cy, cz float64) float64 {
	return (ax*(by*cz-bz*cy) +
		ay*(bz*cx-bx*cz) +
		az*(bx*cy-by*cx)) / 6
}
