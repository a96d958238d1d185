package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/soypat/stlview/viewer"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Print the volume of an STL file every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := viewer.New(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	err = v.Watch(ctx, args[0], func(res viewer.Result, err error) {
		switch {
		case errors.Is(err, viewer.ErrStaleLoad):
		case err != nil:
			fmt.Fprintf(errOut, "load %d: %v\n", res.Seq, err)
		default:
			fmt.Fprintf(out, "load %d: %s triangles=%d volume=%s\n", res.Seq, args[0], res.Triangles, res.Text)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
