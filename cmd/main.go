package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/superdango/embodied-carbon/internal/config"
	"github.com/superdango/embodied-carbon/internal/demo"
	"github.com/superdango/embodied-carbon/internal/ingest"
	"github.com/superdango/embodied-carbon/internal/session"
	"github.com/superdango/embodied-carbon/internal/settings"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/gwp"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	building   string
	demo       bool

	listen      string
	settings    string
	buildingUse string
	logLevel    string
	logFormat   string
	phases      []string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "embodied-carbon",
		Short:         "Estimate the embodied carbon of a building structure",
		Long:          "embodied-carbon apportions structural elements to building levels, groups them by material and estimates their embodied carbon, rebar included.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "yaml configuration file")
	flags.StringVarP(&a.building, "building", "b", "", "building document (json, yaml)")
	flags.BoolVar(&a.demo, "demo", false, "use a generated demo building")
	flags.StringVar(&a.listen, "listen", "", "addr to listen to (default 0.0.0.0:2923)")
	flags.StringVar(&a.settings, "settings", "", "file keeping the group selections between runs")
	flags.StringVar(&a.buildingUse, "use", "", "building use for the benchmark (default Commercial)")
	flags.StringVar(&a.logLevel, "log.level", "", "log severity (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log.format", "", "log format (text, json)")
	flags.StringSliceVar(&a.phases, "phase", nil, "construction phases to include (default all)")

	cmd.AddCommand(
		newReportCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newEditCmd(a),
		newResetCmd(a),
		newPresetsCmd(),
	)

	return cmd
}

// configure loads the configuration and applies the flags set explicitly.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	overrides := map[string]func(){
		"listen":     func() { cfg.Listen = a.listen },
		"settings":   func() { cfg.Settings = a.settings },
		"use":        func() { cfg.BuildingUse = a.buildingUse },
		"log.level":  func() { cfg.Log.Level = a.logLevel },
		"log.format": func() { cfg.Log.Format = a.logFormat },
		"phase":      func() { cfg.Phases = a.phases },
	}
	for name, override := range overrides {
		if flags.Changed(name) {
			override()
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	initLogging(cfg.Log.Level, cfg.Log.Format)
	a.cfg = cfg

	return nil
}

func (a *app) source() (ingest.Source, error) {
	switch {
	case a.demo:
		return demo.NewBuilding(), nil
	case a.building != "":
		return ingest.File{Path: a.building}, nil
	}
	return nil, errors.New("a building document (--building) or --demo is required")
}

// loadSession reads the building document and the saved settings concurrently,
// then ingests the building with the saved level map and restores the
// saved selections.
func (a *app) loadSession(ctx context.Context) (*session.Session, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}

	var (
		doc   ingest.Document
		saved settings.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		doc, err = src.Document(gctx)
		return err
	})
	g.Go(func() (err error) {
		if a.cfg.Settings == "" {
			return nil
		}
		saved, err = settings.Load(a.cfg.Settings)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	building := ingest.Read(ctx, doc, a.cfg.IngestOptions(saved.LevelMap))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(building.Errors) > 0 {
		slog.Warn("some elements were skipped", "building", building.Name, "skipped", len(building.Errors))
	}
	if len(saved.LevelMap) == 0 && len(a.cfg.LevelMap) > 0 {
		saved = saved.WithLevelMap(a.cfg.LevelMap)
	}

	quartiles, err := benchmark.Lookup(a.cfg.BuildingUse)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.WithRules(a.cfg.ClassificationRules()),
		session.WithSettings(saved),
		session.WithBuildingUse(quartiles),
	}
	if a.cfg.Settings != "" {
		opts = append(opts, session.WithSettingsPath(a.cfg.Settings))
	}

	return session.New(building, opts...), nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "presets [family]",
		Short:     "List the embodied carbon coefficients and building uses",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"concrete", "steel", "timber", "unknown", "uses"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPresets(cmd.OutOrStdout(), gwp.DefaultCatalog(), args)
		},
	}
}
