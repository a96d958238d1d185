package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/stlview/render"
	"github.com/soypat/stlview/viewer"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportASCII  bool
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the placed mesh to a new STL file",
	Long: `Write the mesh as it is placed in the scene (recentered, scaled and rotated
by the [placement] configuration) to a new STL file.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output STL file (required)")
	exportCmd.Flags().BoolVar(&exportASCII, "ascii", false, "write ASCII STL instead of binary")
	exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := viewer.New(cfg)
	if err != nil {
		return err
	}
	if _, err := v.LoadFile(args[0]); err != nil {
		return err
	}
	model, err := v.Mesh().Triangles()
	if err != nil {
		return err
	}
	fp, err := os.Create(exportOutput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fp.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(fp)
	if exportASCII {
		err = render.WriteASCIISTL(w, solidName(args[0]), model)
	} else {
		_, err = render.WriteBinarySTL(w, model)
	}
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d triangles to %s\n", len(model), exportOutput)
	return nil
}

// solidName returns the file name of path without its extension.
func solidName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
