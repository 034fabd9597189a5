package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/spf13/cobra"
)

func (a *App) newFaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "face",
		Short: "Manage your reference face",
	}
	cmd.AddCommand(a.newFaceEnrollCmd(), a.newFaceStatusCmd())
	return cmd
}

func (a *App) newFaceEnrollCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll or replace your reference face descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.readProbe(path)
			if err != nil {
				return err
			}
			var descriptor []float64
			if err := json.Unmarshal(raw, &descriptor); err != nil {
				return fmt.Errorf("descriptor must be a JSON array of numbers: %w", err)
			}

			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			st, err := c.EnrollFace(ctx, descriptor)
			if err != nil {
				return err
			}
			return a.output(cmd, st, func() { printFaceStatus(cmd.OutOrStdout(), st) })
		},
	}

	cmd.Flags().StringVarP(&path, "descriptor", "d", "", "descriptor file (JSON array), or - for stdin")
	_ = cmd.MarkFlagRequired("descriptor")
	return cmd
}

func (a *App) newFaceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you have a reference face",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			st, err := c.FaceStatus(ctx)
			if err != nil {
				return err
			}
			return a.output(cmd, st, func() { printFaceStatus(cmd.OutOrStdout(), st) })
		},
	}
}

func printFaceStatus(out io.Writer, st *api.FaceStatus) {
	if !st.Enrolled {
		fmt.Fprintln(out, "No reference face enrolled")
		return
	}
	fmt.Fprintln(out, "Reference face enrolled")
	fmt.Fprintf(out, "  Enrolled: %s\n", st.EnrolledAt.AsTime().Local().Format(time.RFC3339))
	fmt.Fprintf(out, "  Updated: %s\n", st.UpdatedAt.AsTime().Local().Format(time.RFC3339))
}
