package viewer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/stlview"
	"github.com/soypat/stlview/render"
)

// Limits of the interactive controls. Setters clamp to them and
// Config.Validate rejects values outside them.
const (
	LightRange   = 50  // light position components lie in [-LightRange, LightRange]
	MaxIntensity = 2   // light intensity lies in [0, MaxIntensity]
	CameraRange  = 10  // camera position components lie in [-CameraRange, CameraRange]
	MinFOV       = 10  // degrees
	MaxFOV       = 120 // degrees
	MaxPrecision = 12
)

// Config is the complete viewer configuration, stored as TOML.
type Config struct {
	Scene     render.Scene      `toml:"scene"`
	Placement stlview.Placement `toml:"placement"`
	Measure   Measure           `toml:"measure"`
}

// Measure controls how the volume is computed and displayed.
type Measure struct {
	// Scale multiplies the centered geometry before measuring, so the
	// volume is multiplied by Scale³. Zero means 1. It is independent
	// of Placement.Scale, which only affects display.
	Scale float64 `toml:"scale"`
	// Precision is the number of decimals in Result.Text.
	Precision int `toml:"precision"`
}

func (m Measure) scale() float64 {
	if m.Scale == 0 {
		return 1
	}
	return m.Scale
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Scene:     render.DefaultScene(),
		Placement: stlview.DefaultPlacement,
		Measure:   Measure{Scale: 1, Precision: 2},
	}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file
// keep their DefaultConfig value. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig is like LoadConfig but reads from r.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// WriteTo encodes c as TOML.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Validate reports every value outside the control limits.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	s := c.Scene
	if _, err := render.ParseHexColor(s.Color); err != nil {
		errs = append(errs, fmt.Errorf("scene.color: %w", err))
	}
	if _, err := render.ParseHexColor(s.Background); err != nil {
		errs = append(errs, fmt.Errorf("scene.background: %w", err))
	}
	for _, v := range []float64{s.Light.Position.X, s.Light.Position.Y, s.Light.Position.Z} {
		check(v >= -LightRange && v <= LightRange, "scene.light.position component %g outside [%d, %d]", v, -LightRange, LightRange)
	}
	check(s.Light.Intensity >= 0 && s.Light.Intensity <= MaxIntensity, "scene.light.intensity %g outside [0, %d]", s.Light.Intensity, MaxIntensity)
	for _, v := range []float64{s.Camera.Position.X, s.Camera.Position.Y, s.Camera.Position.Z} {
		check(v >= -CameraRange && v <= CameraRange, "scene.camera.position component %g outside [%d, %d]", v, -CameraRange, CameraRange)
	}
	check(s.Camera.FOV >= MinFOV && s.Camera.FOV <= MaxFOV, "scene.camera.fov %g outside [%d, %d]", s.Camera.FOV, MinFOV, MaxFOV)
	check(s.Camera.Near > 0 && s.Camera.Far > s.Camera.Near, "scene.camera clip range [%g, %g] is invalid", s.Camera.Near, s.Camera.Far)
	check(s.Width > 0 && s.Height > 0, "scene size %dx%d is invalid", s.Width, s.Height)
	check(c.Measure.Precision >= 0 && c.Measure.Precision <= MaxPrecision, "measure.precision %d outside [0, %d]", c.Measure.Precision, MaxPrecision)
	check(c.Measure.Scale >= 0 && !math.IsInf(c.Measure.Scale, 0), "measure.scale %g is not a finite non-negative number", c.Measure.Scale)
	check(c.Placement.Scale >= 0 && !math.IsInf(c.Placement.Scale, 0), "placement.scale %g is not a finite non-negative number", c.Placement.Scale)
	return errors.Join(errs...)
}
