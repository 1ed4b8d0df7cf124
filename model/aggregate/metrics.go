package aggregate

import (
	embodiedcarbon "github.com/superdango/embodied-carbon"
)

var bucketMaterials = []embodiedcarbon.MaterialType{
	embodiedcarbon.Steel,
	embodiedcarbon.Concrete,
	embodiedcarbon.Timber,
	embodiedcarbon.Rebar,
	embodiedcarbon.Unknown,
}

// Metrics exposes the report as OpenMetrics measurements: carbon by
// category and material, by level and material, totals and floor area.
func (r Report) Metrics() []*embodiedcarbon.Metric {
	metrics := make([]*embodiedcarbon.Metric, 0, (len(r.Categories)+len(r.Levels))*len(bucketMaterials)+len(r.Totals)+1)

	for _, c := range r.Categories {
		for _, m := range bucketMaterials {
			metrics = append(metrics, embodiedcarbon.NewEmissionsMetric(embodiedcarbon.Emissions(c.Value(m))).SetLabels(map[string]string{
				"category": c.Label,
				"material": string(m),
			}))
		}
	}

	for _, l := range r.Levels {
		for _, m := range bucketMaterials {
			metric := &embodiedcarbon.Metric{
				Name:  "estimated_level_embodied_emissions_kgCO2eq",
				Value: l.Value(m),
			}
			metrics = append(metrics, metric.SetLabels(map[string]string{
				"level":    l.Label,
				"material": string(m),
			}))
		}
	}

	for _, total := range r.Totals {
		metric := &embodiedcarbon.Metric{Name: "estimated_total_embodied_emissions_kgCO2eq", Value: total.Value}
		metrics = append(metrics, metric.AddLabel("material", total.Name))
	}

	return append(metrics, &embodiedcarbon.Metric{Name: "floor_area_ft2", Value: r.FloorArea})
}
