package render

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview"
	"gonum.org/v1/gonum/spatial/r3"
)

// Scene holds everything needed to draw a mesh besides the mesh itself.
type Scene struct {
	// Background and Color are "#rrggbb" or "#rgb" hex colors.
	Background string `toml:"background"`
	Color      string `toml:"color"`
	Light      Light  `toml:"light"`
	Camera     Camera `toml:"camera"`
	// Width and Height of the output image in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// Supersample renders at this many times the output size and downsizes
	// the result for antialiasing. Values below 1 mean 1.
	Supersample int `toml:"supersample"`
}

// Light is a point light shining at the origin.
type Light struct {
	Position  r3.Vec  `toml:"position"`
	Intensity float64 `toml:"intensity"`
}

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	Position r3.Vec `toml:"position"`
	Target   r3.Vec `toml:"target"`
	Up       r3.Vec `toml:"up"`
	// FOV is the vertical field of view in degrees.
	FOV  float64 `toml:"fov"`
	Near float64 `toml:"near"`
	Far  float64 `toml:"far"`
}

// DefaultScene returns the scene loaded meshes are first shown in.
func DefaultScene() Scene {
	return Scene{
		Background: "#f2f3f5",
		Color:      "#b2ffc8",
		Light: Light{
			Position:  r3.Vec{X: -43, Y: 12.3, Z: 20},
			Intensity: 1,
		},
		Camera: Camera{
			Position: r3.Vec{X: -8, Y: 1, Z: 4},
			Up:       r3.Vec{Y: 1},
			FOV:      75,
			Near:     0.1,
			Far:      1000,
		},
		Width:       800,
		Height:      600,
		Supersample: 2,
	}
}

// Render draws triangles with Phong shading and returns the image.
// Degenerate triangles are skipped. An empty model yields an image
// filled with the background color.
func (s Scene) Render(model []ms3.Triangle) (image.Image, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", s.Width, s.Height)
	}
	if s.Camera.Near <= 0 || s.Camera.Far <= s.Camera.Near {
		return nil, fmt.Errorf("invalid camera clip range [%g, %g]", s.Camera.Near, s.Camera.Far)
	}
	if s.Camera.Position == s.Camera.Target {
		return nil, errors.New("camera position equals camera target")
	}
	background, err := ParseHexColor(s.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	color, err := ParseHexColor(s.Color)
	if err != nil {
		return nil, fmt.Errorf("mesh color: %w", err)
	}
	scale := max(s.Supersample, 1)
	up := s.Camera.Up
	if up == (r3.Vec{}) {
		up = r3.Vec{Y: 1}
	}
	lightDir := s.Light.Position
	if lightDir == (r3.Vec{}) {
		lightDir = up
	}

	var (
		eye    = fauxglVec(s.Camera.Position)
		center = fauxglVec(s.Camera.Target)
		light  = fauxglVec(lightDir).Normalize()
	)
	context := fauxgl.NewContext(s.Width*scale, s.Height*scale)
	context.ClearColorBufferWith(background)
	aspect := float64(s.Width) / float64(s.Height)
	matrix := fauxgl.LookAt(eye, center, fauxglVec(up)).Perspective(s.Camera.FOV, aspect, s.Camera.Near, s.Camera.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	shader.DiffuseColor = fauxgl.Gray(0.9 * s.Light.Intensity)
	context.Shader = shader

	triangles := make([]*fauxgl.Triangle, 0, len(model))
	for _, t := range model {
		if isDegenerate(t) {
			continue
		}
		triangles = append(triangles, fauxgl.NewTriangleForPoints(fauxglVec3(t[0]), fauxglVec3(t[1]), fauxglVec3(t[2])))
	}
	if len(triangles) > 0 {
		context.DrawMesh(fauxgl.NewTriangleMesh(triangles))
	}
	stlview.Logger().Debug("rendered scene", "triangles", len(triangles), "width", s.Width, "height", s.Height, "supersample", scale)

	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(s.Width), uint(s.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG writes img to a PNG file at path.
func SavePNG(path string, img image.Image) error {
	return fauxgl.SavePNG(path, img)
}

// ParseHexColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseHexColor(hex string) (fauxgl.Color, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 || !strings.HasPrefix(hex, "#") {
		return fauxgl.Color{}, fmt.Errorf("bad hex color %q", hex)
	}
	rgb, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return fauxgl.Color{}, fmt.Errorf("bad hex color %q", hex)
	}
	return fauxgl.Color{
		R: float64(rgb>>16&0xff) / 255,
		G: float64(rgb>>8&0xff) / 255,
		B: float64(rgb&0xff) / 255,
		A: 1,
	}, nil
}

func fauxglVec(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}

func fauxglVec3(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
