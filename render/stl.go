package render

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"github.com/hschendel/stl"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
)

// ErrNormalMismatch is returned alongside decoded triangles when some
// stored normals disagree with the normal computed from the vertex winding.
// The triangles are still usable; for high resolution models the check is
// known to misfire.
var ErrNormalMismatch = errors.New("stored normal does not match vertex winding")

// ReadSTLFile decodes the binary or ASCII STL file at path.
func ReadSTLFile(path string) ([]ms3.Triangle, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadSTL(bufio.NewReader(fp))
}

// ReadSTL decodes binary or ASCII STL data from r. The format is detected
// from the content: data whose length matches the triangle count of a binary
// header is binary even if it starts with "solid".
//
// A non-nil error wrapping ErrNormalMismatch may be returned together
// with a complete set of triangles. Mismatches never stop decoding.
func ReadSTL(r io.Reader) ([]ms3.Triangle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isASCII(data) {
		stlview.Logger().Debug("decoding ASCII STL", "bytes", len(data))
		return readASCIISTL(bytes.NewReader(data))
	}
	stlview.Logger().Debug("decoding binary STL", "bytes", len(data))
	return ReadBinarySTL(bytes.NewReader(data))
}

func isASCII(data []byte) bool {
	if len(data) >= stlHeaderSize {
		count := binary.LittleEndian.Uint32(data[80:stlHeaderSize])
		if int64(stlHeaderSize)+int64(count)*stlTriangleSize == int64(len(data)) {
			return false
		}
	}
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid"))
}

func readASCIISTL(r io.ReadSeeker) ([]ms3.Triangle, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ASCII STL: %w", err)
	}
	output := make([]ms3.Triangle, 0, len(solid.Triangles))
	for i, t := range solid.Triangles {
		v1, v2, v3 := [3]float32(t.Vertices[0]), [3]float32(t.Vertices[1]), [3]float32(t.Vertices[2])
		if bad3F32(v1) || bad3F32(v2) || bad3F32(v3) {
			return nil, fmt.Errorf("ASCII STL facet %d: inf/NaN vertex", i)
		}
		output = append(output, ms3.Triangle{vecFromArray(v1), vecFromArray(v2), vecFromArray(v3)})
	}
	return output, nil
}

// ReadBinarySTL decodes binary STL data: an 80 byte header, a little endian
// uint32 triangle count and 50 bytes per triangle.
func ReadBinarySTL(r io.Reader) (output []ms3.Triangle, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errors.New("encountered EOF while reading STL header")
		}
		return nil, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf            [stlTriangleSize]byte
		d              stlTriangle
		i              int
		normMismatches int
	)
	defer func() {
		if readErr != nil && !errors.Is(readErr, ErrNormalMismatch) {
			readErr = fmt.Errorf("%d/%d STL triangles read: %w", i+1, header.Count, readErr)
		}
	}()
	output = make([]ms3.Triangle, 0, min(int(header.Count), 1<<20))
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			if !errors.Is(err, ErrNormalMismatch) {
				return nil, err
			}
			normMismatches++
		}
		output = append(output, d.Triangle())
	}
	if normMismatches > 0 {
		stlview.Logger().Warn("STL normals disagree with winding", "mismatches", normMismatches, "triangles", header.Count)
		return output, fmt.Errorf("%d/%d triangles: %w", normMismatches, header.Count, ErrNormalMismatch)
	}
	return output, nil
}

// WriteBinarySTL writes model triangles to a writer in binary STL format.
func WriteBinarySTL(w io.Writer, model []ms3.Triangle) (int, error) {
	if len(model) == 0 {
		return 0, errors.New("empty triangle slice")
	}

	nt := int64(len(model)) // int64 cast so that next line works correctly on 32bit machines.
	if nt > math.MaxUint32 {
		return 0, errors.New("amount of triangles in model exceeds STL design limits")
	}
	header := stlHeader{
		Count: uint32(nt),
	}

	var buf [stlHeaderSize]byte
	header.put(buf[:])
	n, err := w.Write(buf[:stlHeaderSize])
	if err != nil {
		return n, err
	} else if n != len(buf) {
		return n, io.ErrShortWrite
	}
	var d stlTriangle
	for _, triangle := range model {
		d.Normal = arrayFromVec(triangleNormal(triangle))
		d.Vertex1 = arrayFromVec(triangle[0])
		d.Vertex2 = arrayFromVec(triangle[1])
		d.Vertex3 = arrayFromVec(triangle[2])
		d.put(buf[:])
		ngot, err := w.Write(buf[:stlTriangleSize])
		n += ngot
		if err != nil {
			return n, err
		} else if ngot != stlTriangleSize {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

// WriteASCIISTL writes model triangles to w as an ASCII STL solid called name.
func WriteASCIISTL(w io.Writer, name string, model []ms3.Triangle) error {
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}
	solid := stl.Solid{
		Name:      name,
		IsAscii:   true,
		Triangles: make([]stl.Triangle, len(model)),
	}
	for i, t := range model {
		solid.Triangles[i] = stl.Triangle{
			Normal: stl.Vec3(arrayFromVec(triangleNormal(t))),
			Vertices: [3]stl.Vec3{
				stl.Vec3(arrayFromVec(t[0])),
				stl.Vec3(arrayFromVec(t[1])),
				stl.Vec3(arrayFromVec(t[2])),
			},
		}
	}
	return solid.WriteAll(w)
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

func (h stlHeader) put(b []byte) {
	_ = b[83] //early bounds check
	binary.LittleEndian.PutUint32(b[80:], h.Count)
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0) // Zero out attributes.
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
	// attribute byte count is ignored.
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

// validate rejects non-finite records. Degenerate triangles are accepted
// since they add nothing to the volume, and a zero normal means the
// exporter left it unspecified.
func (t stlTriangle) validate() error {
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	gotNormal := vecFromArray(t.Normal)
	if gotNormal == (ms3.Vec{}) || isDegenerate(t.Triangle()) {
		return nil
	}
	calcNormal := t.normalFromVertices()
	calcNormalNeg := ms3.Scale(-1, calcNormal)
	gotNormal = ms3.Unit(gotNormal)
	if !equalWithin(calcNormal, gotNormal, normTol) && !equalWithin(calcNormalNeg, gotNormal, normTol) {
		return ErrNormalMismatch
	}
	return nil
}

// isDegenerate reports whether t has no area, including the case where all
// three vertices coincide.
func isDegenerate(t ms3.Triangle) bool {
	n := ms3.Norm(ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0])))
	return !(n > 0) || math32.IsInf(n, 0)
}

func equalWithin(a, b ms3.Vec, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol &&
		math32.Abs(a.Y-b.Y) <= tol &&
		math32.Abs(a.Z-b.Z) <= tol
}

func vecFromArray(f [3]float32) ms3.Vec {
	return ms3.Vec{X: f[0], Y: f[1], Z: f[2]}
}

func arrayFromVec(v ms3.Vec) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func (t stlTriangle) normalFromVertices() ms3.Vec {
	v1 := ms3.Scale(10, vecFromArray(t.Vertex1))
	v2 := ms3.Scale(10, vecFromArray(t.Vertex2))
	v3 := ms3.Scale(10, vecFromArray(t.Vertex3))
	e1 := ms3.Sub(v2, v1)
	e2 := ms3.Sub(v3, v1)
	return ms3.Unit(ms3.Cross(e1, e2))
}

func (t stlTriangle) Triangle() ms3.Triangle {
	return ms3.Triangle{vecFromArray(t.Vertex1), vecFromArray(t.Vertex2), vecFromArray(t.Vertex3)}
}

// triangleNormal returns the unit normal of t, or the zero vector
// for degenerate triangles.
func triangleNormal(t ms3.Triangle) ms3.Vec {
	if isDegenerate(t) {
		return ms3.Vec{}
	}
	return ms3.Unit(ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0])))
}
