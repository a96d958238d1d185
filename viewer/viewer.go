// Package viewer ties STL loading, volume measurement and scene rendering
// together the way an interactive mesh viewer does, without a window.
package viewer

import (
	"errors"
	"image"
	"io"
	"math"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/soypat/stlview"
	"github.com/soypat/stlview/internal/d3"
	"github.com/soypat/stlview/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrStaleLoad is returned by Load when a load that started later has
// already been applied. The returned Result is valid but not displayed.
var ErrStaleLoad = errors.New("load superseded by a newer load")

// Result is the outcome of one load event.
type Result struct {
	// Seq is the load sequence number, starting at 1.
	Seq uint64
	// Triangles is the number of triangles in the loaded mesh.
	Triangles int
	// Volume is the enclosed volume of the centered geometry
	// multiplied by Measure.Scale³.
	Volume float64
	// Bounds is the bounding box of the geometry as read from the file.
	Bounds r3.Box
	// Text is Volume formatted with Measure.Precision decimals.
	Text string
}

// Viewer holds the mesh currently on display and the scene it is shown in.
// It is safe for concurrent use. Loads may overlap; the result of the load
// that started last always wins.
type Viewer struct {
	seq atomic.Uint64

	mu      sync.Mutex
	cfg     Config
	applied uint64
	mesh    stlview.Mesh
	result  Result
}

// New returns a Viewer with no mesh loaded.
func New(cfg Config) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Viewer{cfg: cfg}, nil
}

// LoadFile loads the STL file at path. See Load.
func (v *Viewer) LoadFile(path string) (Result, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer fp.Close()
	return v.Load(fp)
}

// Load decodes an STL mesh from r, measures it and puts it on display.
// Stored normals that disagree with the winding are logged and ignored.
// If a later call to Load finished first, the result is returned together
// with ErrStaleLoad and the displayed mesh is left untouched.
func (v *Viewer) Load(r io.Reader) (Result, error) {
	seq := v.seq.Add(1)
	log := stlview.Logger().With("seq", seq)
	model, err := render.ReadSTL(r)
	if err != nil && !errors.Is(err, render.ErrNormalMismatch) {
		log.Warn("load failed", "err", err)
		return Result{Seq: seq}, err
	}

	v.mu.Lock()
	cfg := v.cfg
	v.mu.Unlock()

	mesh := stlview.NewMesh(model)
	res := Result{
		Seq:       seq,
		Triangles: mesh.TriangleCount(),
		Bounds:    mesh.Bounds(),
	}
	res.Volume, err = mesh.Centered().Scaled(cfg.Measure.scale()).Volume()
	if err != nil {
		return Result{Seq: seq}, err
	}
	res.Text = FormatVolume(res.Volume, cfg.Measure.Precision)
	placed := cfg.Placement.Apply(mesh)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq < v.applied {
		log.Debug("discarding stale load", "applied", v.applied)
		return res, ErrStaleLoad
	}
	v.applied = seq
	v.mesh = placed
	v.result = res
	log.Info("mesh loaded", "triangles", res.Triangles, "volume", res.Volume)
	return res, nil
}

// FormatVolume formats vol with a fixed number of decimals.
func FormatVolume(vol float64, precision int) string {
	return strconv.FormatFloat(vol, 'f', precision, 64)
}

// Result returns the result of the load on display. ok is false if
// nothing has been loaded yet.
func (v *Viewer) Result() (res Result, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.applied != 0
}

// Mesh returns the placed mesh on display. The returned mesh must not
// be modified.
func (v *Viewer) Mesh() stlview.Mesh {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mesh
}

// Config returns the current configuration.
func (v *Viewer) Config() Config {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg
}

// SetColor sets the mesh color from a "#rrggbb" or "#rgb" string.
func (v *Viewer) SetColor(hex string) error {
	if _, err := render.ParseHexColor(hex); err != nil {
		return err
	}
	v.mu.Lock()
	v.cfg.Scene.Color = hex
	v.mu.Unlock()
	return nil
}

// SetLight moves the light and sets its intensity, clamped to the control
// limits. It returns the light actually set.
func (v *Viewer) SetLight(pos r3.Vec, intensity float64) render.Light {
	l := render.Light{
		Position:  d3.Clamp(pos, d3.Elem(-LightRange), d3.Elem(LightRange)),
		Intensity: clamp(intensity, 0, MaxIntensity),
	}
	v.mu.Lock()
	v.cfg.Scene.Light = l
	v.mu.Unlock()
	return l
}

// SetCamera moves the camera and sets its vertical field of view in degrees,
// clamped to the control limits. It returns the camera actually set.
func (v *Viewer) SetCamera(pos r3.Vec, fov float64) render.Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	c := v.cfg.Scene.Camera
	c.Position = d3.Clamp(pos, d3.Elem(-CameraRange), d3.Elem(CameraRange))
	c.FOV = clamp(fov, MinFOV, MaxFOV)
	v.cfg.Scene.Camera = c
	return c
}

// Snapshot renders the mesh on display with the current scene.
func (v *Viewer) Snapshot() (image.Image, error) {
	v.mu.Lock()
	mesh, scene := v.mesh, v.cfg.Scene
	v.mu.Unlock()
	model, err := mesh.Triangles()
	if err != nil {
		return nil, err
	}
	return scene.Render(model)
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Min(hi, math.Max(x, lo))
}
