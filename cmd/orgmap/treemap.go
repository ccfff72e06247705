package main

import (
	"github.com/spf13/cobra"

	"orgmap/pkg/app"
	"orgmap/pkg/engine"
	"orgmap/pkg/parser"
	"orgmap/pkg/schema"
)

type treemapOutput struct {
	File          string               `json:"file" yaml:"file"`
	Caption       string               `json:"caption" yaml:"caption"`
	Mapping       schema.ColumnMapping `json:"mapping" yaml:"mapping"`
	EmployeeCount int                  `json:"employeeCount" yaml:"employeeCount"`
	FilteredCount int                  `json:"filteredCount" yaml:"filteredCount"`
	Filters       engine.FilterState   `json:"filters" yaml:"filters"`
	Hierarchy     engine.Hierarchy     `json:"hierarchy" yaml:"hierarchy"`
}

func newTreemapCmd(c *cli) *cobra.Command {
	var (
		p      pipelineFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "treemap <file.csv>",
		Short: "Print the manager/location hierarchy of a roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.run(cmd.Context(), args[0], &p)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, treemapOutput{
				File:          st.FileName,
				Caption:       app.Caption(st),
				Mapping:       st.Mapping,
				EmployeeCount: len(st.Employees),
				FilteredCount: len(st.Filtered),
				Filters:       st.Filters,
				Hierarchy:     st.Hierarchy,
			})
		},
	}
	p.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

type headersOutput struct {
	File       string                `json:"file" yaml:"file"`
	Encoding   string                `json:"encoding" yaml:"encoding"`
	Headers    []string              `json:"headers" yaml:"headers"`
	RowCount   int                   `json:"rowCount" yaml:"rowCount"`
	Warnings   []parser.ParseWarning `json:"warnings" yaml:"warnings"`
	Suggestion app.SuggestionStatus  `json:"suggestion" yaml:"suggestion"`
	Mapping    schema.ColumnMapping  `json:"mapping" yaml:"mapping"`
	Missing    []schema.Field        `json:"missing" yaml:"missing"`
}

func newHeadersCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "headers <file.csv>",
		Short: "Print the parsed headers and the suggested column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.load(args[0])
			if err != nil {
				return err
			}
			if st, err = c.suggestMapping(cmd.Context(), st); err != nil {
				return err
			}
			out := headersOutput{
				File:       st.FileName,
				Encoding:   st.Encoding,
				Headers:    st.Headers,
				RowCount:   len(st.Rows),
				Warnings:   st.Warnings,
				Suggestion: st.Suggestion,
				Mapping:    st.Mapping,
				Missing:    st.Mapping.Missing(st.Required),
			}
			if out.Warnings == nil {
				out.Warnings = []parser.ParseWarning{}
			}
			if out.Missing == nil {
				out.Missing = []schema.Field{}
			}
			return writeOutput(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}
