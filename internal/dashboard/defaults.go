package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/mkoudsi/opstower/internal/upstream"
)

//go:embed defaults/*.json
var defaultsFS embed.FS

// Defaults is the bundled demo dataset every page falls back to when the
// analytics service cannot be reached.
type Defaults struct {
	FactoryKPIs      upstream.FactoryKPIs
	HourlyProduction []upstream.HourlyProduction
	DispatchPlanning []upstream.DispatchPlan

	DCKPIs       upstream.DCKPIs
	DaysCover    []upstream.DaysCover
	InventoryAge []upstream.InventoryAgeBucket

	StoreKPIs        upstream.StoreKPIs
	ShelfPerformance []upstream.ShelfPerformance
	HourlySales      []upstream.HourlySales

	NodeHealth []upstream.NodeHealth
	GlobalKPIs upstream.GlobalKPIs
}

// LoadDefaults parses the embedded demo dataset. The files ship inside the
// binary, so a parse failure is a build defect and callers treat it as fatal.
func LoadDefaults() (*Defaults, error) {
	d := &Defaults{}
	files := []struct {
		name string
		into any
	}{
		{"factory_kpis.json", &d.FactoryKPIs},
		{"hourly_production.json", &d.HourlyProduction},
		{"dispatch_planning.json", &d.DispatchPlanning},
		{"dc_kpis.json", &d.DCKPIs},
		{"days_cover.json", &d.DaysCover},
		{"inventory_age.json", &d.InventoryAge},
		{"store_kpis.json", &d.StoreKPIs},
		{"shelf_performance.json", &d.ShelfPerformance},
		{"hourly_sales.json", &d.HourlySales},
		{"node_health.json", &d.NodeHealth},
		{"global_kpis.json", &d.GlobalKPIs},
	}
	for _, f := range files {
		raw, err := defaultsFS.ReadFile("defaults/" + f.name)
		if err != nil {
			return nil, fmt.Errorf("read bundled defaults %s: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.into); err != nil {
			return nil, fmt.Errorf("parse bundled defaults %s: %w", f.name, err)
		}
	}
	return d, nil
}
