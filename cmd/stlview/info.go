package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/stlview"
	"github.com/soypat/stlview/render"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Display general information about an STL file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	model, err := render.ReadSTLFile(path)
	if err != nil && !errors.Is(err, render.ErrNormalMismatch) {
		return err
	}
	mismatch := err != nil
	mesh := stlview.NewMesh(model)
	signed, err := mesh.SignedVolume()
	if err != nil {
		return err
	}
	centered, err := mesh.Centered().SignedVolume()
	if err != nil {
		return err
	}
	bb := mesh.Bounds()
	size := r3.Sub(bb.Max, bb.Min)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Triangles: %d\n", mesh.TriangleCount())
	fmt.Fprintf(out, "Bounds min: (%.6f, %.6f, %.6f)\n", bb.Min.X, bb.Min.Y, bb.Min.Z)
	fmt.Fprintf(out, "Bounds max: (%.6f, %.6f, %.6f)\n", bb.Max.X, bb.Max.Y, bb.Max.Z)
	fmt.Fprintf(out, "Size: %.6f x %.6f x %.6f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(out, "Signed volume: %.6f\n", signed)
	fmt.Fprintf(out, "Volume: %.6f cubic units\n", math.Abs(centered))
	if mismatch {
		fmt.Fprintln(out, "Warning: some stored normals disagree with the vertex winding")
	}
	// The signed volume of a closed mesh does not depend on where it sits.
	if d := math.Abs(signed - centered); d > 1e-6*math.Max(math.Abs(signed), 1) {
		fmt.Fprintf(out, "Warning: volume changes by %.6g when recentered, mesh is likely open\n", d)
	}
	return nil
}
