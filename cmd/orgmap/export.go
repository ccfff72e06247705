package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orgmap/pkg/report"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		p      pipelineFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Write the hierarchy, employees and campus mismatches to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.run(cmd.Context(), args[0], &p)
			if err != nil {
				return err
			}
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = base + "_orgmap.xlsx"
			}

			r := report.Build(report.FromState(st))
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, "create output")
			}
			if err := report.WriteXLSX(f, r); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "close output")
			}

			c.logger.Info("report written",
				zap.String("output", output),
				zap.Int("managers", r.Totals.Managers),
				zap.Int("employees", r.Totals.Filtered),
				zap.Int("campus_mismatches", r.Totals.CampusMismatches))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
	p.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <input>_orgmap.xlsx)")
	return cmd
}
