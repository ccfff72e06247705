package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"orgmap/pkg/app"
	"orgmap/pkg/engine"
	"orgmap/pkg/schema"
	"orgmap/pkg/suggest"
)

// pipelineFlags are shared by every command that runs a CSV end to end.
type pipelineFlags struct {
	mapping         string
	levels          []string
	employeeTypes   []string
	teamProjects    []string
	differentCampus bool
	manager         string
	location        string
}

func (p *pipelineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&p.mapping, "mapping", "m", "", `column mapping as JSON, e.g. '{"manager":"Manager"}' (suggested when empty)`)
	fs.StringSliceVar(&p.levels, "level", nil, "keep only these levels")
	fs.StringSliceVar(&p.employeeTypes, "employee-type", nil, "keep only these employee types")
	fs.StringSliceVar(&p.teamProjects, "team", nil, "keep only these teams/projects")
	fs.BoolVar(&p.differentCampus, "different-campus", false, "keep only employees located away from their manager")
	fs.StringVar(&p.manager, "manager", "", "drill down to this manager")
	fs.StringVar(&p.location, "location", "", "drill down to this location of --manager")
}

// load reads and parses a CSV file into a fresh state.
func (c *cli) load(path string) (app.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return app.State{}, errors.Wrap(err, "read input")
	}
	fileName := filepath.Base(path)
	res, err := app.Ingest(fileName, data)
	if err != nil {
		return app.State{}, classify(err)
	}
	for _, w := range res.Warnings {
		c.logger.Warn("row skipped", zap.Int("row", w.Row), zap.String("reason", w.Message))
	}
	st := app.Reduce(app.New(c.cfg.RequiredFields()), app.Uploaded{FileName: fileName, Token: "cli", Result: res})
	return st, nil
}

// suggestMapping runs the configured suggester inline. A file named
// *_mapped.csv or a "none" provider leaves the mapping empty.
func (c *cli) suggestMapping(ctx context.Context, st app.State) (app.State, error) {
	if st.Suggestion == app.SuggestionSkipped {
		return st, nil
	}
	s, err := suggest.New(ctx, c.cfg.Suggest)
	if err != nil {
		return st, withCode(exitConfig, err)
	}
	if s == nil {
		return st, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Suggest.Timeout)
	defer cancel()

	st = app.Reduce(st, app.SuggestionStarted{Token: st.Token})
	res, err := suggest.Run(ctx, s, st.Headers)
	st = app.Reduce(st, app.SuggestionReceived{Token: st.Token, Mapping: res.Mapping, Err: err})
	if err != nil {
		c.logger.Warn("mapping suggestion failed", zap.String("provider", s.Name()), zap.Error(err))
	} else {
		c.logger.Info("mapping suggested", zap.String("provider", s.Name()), zap.Int("mapped", res.Mapped))
	}
	return st, nil
}

// run takes a CSV through mapping, apply and the requested filters.
func (c *cli) run(ctx context.Context, path string, p *pipelineFlags) (app.State, error) {
	st, err := c.load(path)
	if err != nil {
		return st, err
	}

	if p.mapping != "" {
		var m schema.ColumnMapping
		if err := json.Unmarshal([]byte(p.mapping), &m); err != nil {
			return st, withCode(exitUsage, errors.Wrap(err, "parse --mapping"))
		}
		st = app.Reduce(st, app.MappingReplaced{Mapping: m.Reconcile(st.Headers)})
	} else if st, err = c.suggestMapping(ctx, st); err != nil {
		return st, err
	}

	st = app.Reduce(st, app.MappingsApplied{})
	if st.Err != nil {
		return st, classify(st.Err)
	}

	if p.levels != nil {
		st = app.Reduce(st, app.FacetChanged{Field: schema.FieldLevel, Values: p.levels})
	}
	if p.employeeTypes != nil {
		st = app.Reduce(st, app.FacetChanged{Field: schema.FieldEmployeeType, Values: p.employeeTypes})
	}
	if p.teamProjects != nil {
		st = app.Reduce(st, app.FacetChanged{Field: schema.FieldTeamProject, Values: p.teamProjects})
	}
	if p.differentCampus {
		st = app.Reduce(st, app.CampusToggled{On: true})
	}
	if p.manager != "" {
		if _, ok := st.Hierarchy.Find(p.manager); !ok {
			return st, withCode(exitUsage, errors.Errorf("manager %q is not in the filtered hierarchy", p.manager))
		}
		st = app.Reduce(st, app.NodeClicked{Click: engine.Click{Manager: p.manager, Location: p.location}})
	}
	if st.Err != nil {
		return st, classify(st.Err)
	}
	return st, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return withCode(exitUsage, errors.Errorf("unknown output format %q (json or yaml)", format))
	}
}
