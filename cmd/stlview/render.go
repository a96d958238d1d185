package main

import (
	"errors"
	"fmt"

	"github.com/soypat/stlview/render"
	"github.com/soypat/stlview/viewer"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

var renderFlags struct {
	output        string
	color         string
	width, height int
	light         []float64
	intensity     float64
	camera        []float64
	fov           float64
}

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render an STL file to a PNG image",
	Long: `Render an STL mesh to a PNG image. The scene comes from the configuration
file; flags override single values and are clamped to the viewer limits.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.output, "output", "o", "", "output PNG file (required)")
	f.StringVar(&renderFlags.color, "color", "", "mesh color as #rrggbb")
	f.IntVar(&renderFlags.width, "width", 0, "image width in pixels")
	f.IntVar(&renderFlags.height, "height", 0, "image height in pixels")
	f.Float64SliceVar(&renderFlags.light, "light", nil, "light position x,y,z")
	f.Float64Var(&renderFlags.intensity, "intensity", -1, "light intensity")
	f.Float64SliceVar(&renderFlags.camera, "camera", nil, "camera position x,y,z")
	f.Float64Var(&renderFlags.fov, "fov", 0, "vertical field of view in degrees")
	renderCmd.MarkFlagRequired("output")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderFlags.width > 0 {
		cfg.Scene.Width = renderFlags.width
	}
	if renderFlags.height > 0 {
		cfg.Scene.Height = renderFlags.height
	}
	v, err := viewer.New(cfg)
	if err != nil {
		return err
	}
	if renderFlags.color != "" {
		if err := v.SetColor(renderFlags.color); err != nil {
			return err
		}
	}
	scene := v.Config().Scene
	if renderFlags.light != nil || renderFlags.intensity >= 0 {
		pos, err := vecFlag("light", renderFlags.light, scene.Light.Position)
		if err != nil {
			return err
		}
		intensity := scene.Light.Intensity
		if renderFlags.intensity >= 0 {
			intensity = renderFlags.intensity
		}
		v.SetLight(pos, intensity)
	}
	if renderFlags.camera != nil || renderFlags.fov > 0 {
		pos, err := vecFlag("camera", renderFlags.camera, scene.Camera.Position)
		if err != nil {
			return err
		}
		fov := scene.Camera.FOV
		if renderFlags.fov > 0 {
			fov = renderFlags.fov
		}
		v.SetCamera(pos, fov)
	}

	res, err := v.LoadFile(args[0])
	if err != nil {
		return err
	}
	img, err := v.Snapshot()
	if err != nil {
		return err
	}
	if err := render.SavePNG(renderFlags.output, img); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: volume %s, wrote %s\n", args[0], res.Text, renderFlags.output)
	return nil
}

// vecFlag converts a x,y,z flag value, returning def if the flag is unset.
func vecFlag(name string, vals []float64, def r3.Vec) (r3.Vec, error) {
	switch len(vals) {
	case 0:
		return def, nil
	case 3:
		return r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}, nil
	}
	return r3.Vec{}, errors.New("--" + name + " needs three comma separated values")
}
