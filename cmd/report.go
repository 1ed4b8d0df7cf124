package main

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/export"
	"github.com/superdango/embodied-carbon/internal/render"
	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/gwp"
)

func newReportCmd(a *app) *cobra.Command {
	showGroups := false
	members := ""

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the embodied carbon by category and by level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if members != "" {
				name := aggregate.TotalName
				if !strings.EqualFold(members, aggregate.TotalName) {
					m, err := embodiedcarbon.ParseMaterialType(members)
					if err != nil {
						return err
					}
					name = string(m)
				}
				return render.Members(out, s.Report().Members(name))
			}

			if err := render.Report(out, s.Building().Name, s.Report(), s.Rating()); err != nil {
				return err
			}
			if showGroups {
				return render.Groups(out, s.Groups(""))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showGroups, "groups", false, "also print the material groups")
	cmd.Flags().StringVar(&members, "members", "", "print the elements of a totals line (Steel, Concrete, Timber, Rebar, Unknown, Total)")

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	output := ""
	format := ""

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the assessed elements (csv) or the whole report (xlsx, pdf)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" && filepath.Ext(output) != "" {
				format = filepath.Ext(output)
			}
			f, err := export.ParseFormat(cmp.Or(format, string(export.CSV)))
			if err != nil {
				return err
			}

			s, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			doc := export.Document{
				Building: s.Building().Name,
				Report:   s.Report(),
				Rating:   s.Rating(),
			}

			if output == "" || output == "-" {
				return export.Write(cmd.OutOrStdout(), f, doc)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := export.Write(file, f, doc); err != nil {
				file.Close()
				return err
			}
			slog.Info("report exported", "format", f, "output", output)
			return file.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, xlsx or pdf (default from the output extension, else csv)")

	return cmd
}

func printPresets(w io.Writer, catalog gwp.Catalog, args []string) error {
	if len(args) == 1 && strings.EqualFold(args[0], "uses") {
		for _, use := range benchmark.Uses() {
			q, _ := benchmark.Lookup(use)
			fmt.Fprintf(w, "%-16s median %s kg-CO2e/m2\n", q.Use, render.Number(q.Median, 0))
		}
		return nil
	}

	families := []embodiedcarbon.MaterialType{embodiedcarbon.Concrete, embodiedcarbon.Steel, embodiedcarbon.Timber}
	if len(args) == 1 {
		family, err := embodiedcarbon.ParseMaterialType(args[0])
		if err != nil {
			return err
		}
		families = []embodiedcarbon.MaterialType{family}
	}

	for _, family := range families {
		if err := render.Presets(w, catalog, family); err != nil {
			return err
		}
	}
	return nil
}
