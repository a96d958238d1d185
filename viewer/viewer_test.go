package viewer_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview/render"
	"github.com/soypat/stlview/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// cubeSTL returns a binary STL cube of side s with a corner at (s, s, s).
func cubeSTL(t testing.TB, s float32) []byte {
	t.Helper()
	v := func(x, y, z float32) ms3.Vec { return ms3.Vec{X: s + x*s, Y: s + y*s, Z: s + z*s} }
	quad := func(a, b, c, d ms3.Vec) []ms3.Triangle { return []ms3.Triangle{{a, b, c}, {a, c, d}} }
	var model []ms3.Triangle
	model = append(model, quad(v(0, 0, 0), v(0, 1, 0), v(1, 1, 0), v(1, 0, 0))...)
	model = append(model, quad(v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1))...)
	model = append(model, quad(v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1))...)
	model = append(model, quad(v(0, 1, 0), v(0, 1, 1), v(1, 1, 1), v(1, 1, 0))...)
	model = append(model, quad(v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), v(0, 1, 0))...)
	model = append(model, quad(v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1))...)
	var b bytes.Buffer
	_, err := render.WriteBinarySTL(&b, model)
	require.NoError(t, err)
	return b.Bytes()
}

func newViewer(t *testing.T) *viewer.Viewer {
	t.Helper()
	v, err := viewer.New(viewer.DefaultConfig())
	require.NoError(t, err)
	return v
}

func TestLoad(t *testing.T) {
	v := newViewer(t)
	_, ok := v.Result()
	assert.False(t, ok, "no result before first load")

	res, err := v.Load(bytes.NewReader(cubeSTL(t, 10)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, 12, res.Triangles)
	assert.InDelta(t, 1000, res.Volume, 1e-3)
	assert.Equal(t, "1000.00", res.Text)
	assert.Equal(t, r3.Vec{X: 10, Y: 10, Z: 10}, res.Bounds.Min)

	got, ok := v.Result()
	require.True(t, ok)
	assert.Equal(t, res, got)

	// The displayed mesh is centered and shrunk by the default placement.
	bb := v.Mesh().Bounds()
	assert.InDelta(t, -0.5, bb.Min.X, 1e-5)
	assert.InDelta(t, 0.5, bb.Max.Y, 1e-5)
}

func TestLoadMeasureScale(t *testing.T) {
	cfg := viewer.DefaultConfig()
	cfg.Measure = viewer.Measure{Scale: 0.1, Precision: 4}
	v, err := viewer.New(cfg)
	require.NoError(t, err)
	res, err := v.Load(bytes.NewReader(cubeSTL(t, 10)))
	require.NoError(t, err)
	assert.InDelta(t, 1, res.Volume, 1e-5)
	assert.Equal(t, "1.0000", res.Text)
}

func TestLoadInvalid(t *testing.T) {
	v := newViewer(t)
	good, err := v.Load(bytes.NewReader(cubeSTL(t, 1)))
	require.NoError(t, err)
	res, err := v.Load(bytes.NewReader([]byte("not an stl file")))
	require.Error(t, err)
	assert.Equal(t, uint64(2), res.Seq)
	got, _ := v.Result()
	assert.Equal(t, good, got, "failed load must not replace the displayed mesh")
}

func TestLoadStale(t *testing.T) {
	v := newViewer(t)
	slow := cubeSTL(t, 2)
	pr, pw := io.Pipe()

	var (
		wg      sync.WaitGroup
		slowRes viewer.Result
		slowErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowRes, slowErr = v.Load(pr)
	}()
	// Returns once the slow load is reading, so it already holds seq 1.
	_, err := pw.Write(slow[:10])
	require.NoError(t, err)

	fast, err := v.Load(bytes.NewReader(cubeSTL(t, 3)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fast.Seq)

	_, err = pw.Write(slow[10:])
	require.NoError(t, err)
	require.NoError(t, pw.Close())
	wg.Wait()

	require.ErrorIs(t, slowErr, viewer.ErrStaleLoad)
	assert.Equal(t, uint64(1), slowRes.Seq)
	assert.InDelta(t, 8, slowRes.Volume, 1e-4)
	got, _ := v.Result()
	assert.Equal(t, fast, got)
	assert.InDelta(t, 27, got.Volume, 1e-4)
}

func TestLoadManyCollapsedTriangles(t *testing.T) {
	const collapsed = 10001
	cube := cubeSTL(t, 1)
	var b bytes.Buffer
	b.Write(make([]byte, 80))
	binary.Write(&b, binary.LittleEndian, uint32(collapsed+12))
	for i := 0; i < collapsed; i++ {
		binary.Write(&b, binary.LittleEndian, [12]float32{0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
		binary.Write(&b, binary.LittleEndian, uint16(0))
	}
	b.Write(cube[84:])

	v := newViewer(t)
	res, err := v.Load(&b)
	require.NoError(t, err)
	assert.Equal(t, collapsed+12, res.Triangles)
	assert.InDelta(t, 1, res.Volume, 1e-6)
	assert.Equal(t, "1.00", res.Text)
}

func TestLoadFile(t *testing.T) {
	v := newViewer(t)
	path := filepath.Join(t.TempDir(), "cube.stl")
	require.NoError(t, os.WriteFile(path, cubeSTL(t, 5), 0o644))
	res, err := v.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "125.00", res.Text)

	_, err = v.LoadFile(filepath.Join(t.TempDir(), "missing.stl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetters(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.SetColor("#ff0000"))
	assert.Error(t, v.SetColor("red"))
	assert.Equal(t, "#ff0000", v.Config().Scene.Color)

	l := v.SetLight(r3.Vec{X: 100, Y: -3, Z: -60}, 5)
	assert.Equal(t, r3.Vec{X: 50, Y: -3, Z: -50}, l.Position)
	assert.Equal(t, 2.0, l.Intensity)
	l = v.SetLight(r3.Vec{}, math.NaN())
	assert.Zero(t, l.Intensity)

	c := v.SetCamera(r3.Vec{X: -20, Y: 1, Z: 4}, 200)
	assert.Equal(t, r3.Vec{X: -10, Y: 1, Z: 4}, c.Position)
	assert.Equal(t, 120.0, c.FOV)
	c = v.SetCamera(r3.Vec{X: 1}, 1)
	assert.Equal(t, 10.0, c.FOV)
	assert.Equal(t, c, v.Config().Scene.Camera)
	assert.NoError(t, v.Config().Validate())
}

func TestSnapshot(t *testing.T) {
	cfg := viewer.DefaultConfig()
	cfg.Scene.Width, cfg.Scene.Height, cfg.Scene.Supersample = 40, 30, 1
	v, err := viewer.New(cfg)
	require.NoError(t, err)
	img, err := v.Snapshot()
	require.NoError(t, err, "empty viewer renders background")
	assert.Equal(t, 40, img.Bounds().Dx())

	_, err = v.Load(bytes.NewReader(cubeSTL(t, 10)))
	require.NoError(t, err)
	img, err = v.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "0.17", viewer.FormatVolume(1.0/6, 2))
	assert.Equal(t, "0.00", viewer.FormatVolume(0, 2))
	assert.Equal(t, "3", viewer.FormatVolume(2.5001, 0))
}
