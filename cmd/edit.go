package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/render"
	"github.com/superdango/embodied-carbon/internal/server"
	"github.com/superdango/embodied-carbon/model/group"
)

func newEditCmd(a *app) *cobra.Command {
	preset := ""
	var gwpValue, volumeFactor, rebarMultiplier, rebarWeight, rebarGwp float64

	cmd := &cobra.Command{
		Use:   "edit <material> <category> <material name>",
		Short: "Change the coefficients of a material group and save them in the settings file",
		Example: `  embodied-carbon edit concrete floor "Concrete 4000" --preset 4000-30-FA --rebar-multiplier 5 --settings tower.settings.yaml
  embodied-carbon edit steel framing A992 --preset hss --demo`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			material, err := embodiedcarbon.ParseMaterialType(args[0])
			if err != nil {
				return err
			}
			category, err := embodiedcarbon.ParseCategory(args[1])
			if err != nil {
				return err
			}
			key := group.Key{Material: material, Category: category, MaterialName: args[2]}

			s, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			if a.cfg.Settings == "" {
				slog.Warn("no settings file, the edit will not be kept")
			}

			edit := server.GroupEdit{}
			flags := cmd.Flags()
			if flags.Changed("preset") {
				edit.Preset = &preset
			}
			values := map[string]struct {
				value  *float64
				target **float64
			}{
				"gwp":              {&gwpValue, &edit.Gwp},
				"volume-factor":    {&volumeFactor, &edit.VolumeFactor},
				"rebar-multiplier": {&rebarMultiplier, &edit.RebarMultiplier},
				"rebar-weight":     {&rebarWeight, &edit.RebarWeight},
				"rebar-gwp":        {&rebarGwp, &edit.RebarGwp},
			}
			for name, v := range values {
				if flags.Changed(name) {
					*v.target = v.value
				}
			}

			if err := edit.Apply(s, key); err != nil {
				return err
			}

			g, err := s.Group(key)
			if err != nil {
				return err
			}
			return render.Groups(cmd.OutOrStdout(), []group.MaterialGroup{g})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&preset, "preset", "", "coefficient preset, closest name wins")
	flags.Float64Var(&gwpValue, "gwp", 0, "custom coefficient (kg CO2e per CY, or per short ton for steel)")
	flags.Float64Var(&volumeFactor, "volume-factor", 1, "volume multiplier")
	flags.Float64Var(&rebarMultiplier, "rebar-multiplier", 0, "rebar multiplier (PSF for floors, PCY otherwise)")
	flags.Float64Var(&rebarWeight, "rebar-weight", 0, "custom rebar weight in lb")
	flags.Float64Var(&rebarGwp, "rebar-gwp", 0, "rebar coefficient in kg CO2e per short ton")

	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <family>",
		Short: "Restore the default coefficients of a material family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := embodiedcarbon.ParseMaterialType(args[0])
			if err != nil {
				return err
			}
			s, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Reset(family); err != nil {
				return err
			}
			return render.Groups(cmd.OutOrStdout(), s.Groups(family))
		},
	}
}
