// Package upstream implements the HTTP client for the analytics service.
package upstream

// FactoryKPIs is the factory control tower KPI set.
type FactoryKPIs struct {
	LineUtilization     float64 `json:"lineUtilization"`
	ProductionAdherence float64 `json:"productionAdherence"`
	DefectRate          float64 `json:"defectRate"`
	WasteUnits          int     `json:"wasteUnits"`
	WasteSAR            float64 `json:"wasteSAR"`
}

// HourlyProduction is one hour of actual production versus predicted demand.
type HourlyProduction struct {
	Hour   string `json:"hour"` // "00:00" .. "23:00"
	Actual int    `json:"actual"`
	Demand int    `json:"demand"`
}

// DispatchPlan is a SKU-level production recommendation.
type DispatchPlan struct {
	SKU             string  `json:"sku"`
	Name            string  `json:"name"`
	ForecastDemand  int     `json:"forecastDemand"`
	RecommendedProd int     `json:"recommendedProd"`
	CapacityImpact  float64 `json:"capacityImpact"`
	WasteRisk       string  `json:"wasteRisk"` // "Low", "Medium", "High"
}

// DCKPIs is the distribution center KPI set.
type DCKPIs struct {
	DCID             string  `json:"dcId"`
	ServiceLevelPct  float64 `json:"serviceLevelPct"`
	WastePercent     float64 `json:"wastePercent"`
	AvgShelfLifeDays float64 `json:"avgShelfLifeDays"`
	Backorders       int     `json:"backorders"`
}

// DaysCover is days-of-cover for one (DC, SKU) pair.
type DaysCover struct {
	DCID      string  `json:"dcId"`
	SKUID     string  `json:"skuId"`
	DaysCover float64 `json:"daysCover"`
}

// InventoryAgeBucket is one age bucket of DC inventory.
type InventoryAgeBucket struct {
	Bucket string `json:"bucket"`
	Units  int    `json:"units"`
	Color  string `json:"color"`
}

// StoreKPIs is the store operations KPI set.
type StoreKPIs struct {
	StoreID             string  `json:"storeId"`
	OnShelfAvailability float64 `json:"onShelfAvailability"`
	StockoutIncidents   int     `json:"stockoutIncidents"`
	WasteUnits          int     `json:"wasteUnits"`
	WasteSAR            float64 `json:"wasteSAR"`
}

// ShelfPerformance is SKU-level shelf performance for one store.
type ShelfPerformance struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	PlanogramCap int     `json:"planogramCap"`
	OnShelf      int     `json:"onShelf"`
	ShelfFill    float64 `json:"shelfFill"`
	SalesPerHour float64 `json:"salesPerHour"`
	WasteLast7   float64 `json:"wasteLast7"`
}

// HourlySales is one hour of store sales versus forecast.
type HourlySales struct {
	Hour     string  `json:"hour"`
	Sales    float64 `json:"sales"`
	Forecast float64 `json:"forecast"`
}

// NodeHealth summarizes the health of one supply chain node.
type NodeHealth struct {
	NodeID       string  `json:"node_id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"` // "Factory", "DC" or "Store"
	ServiceLevel float64 `json:"service_level"`
	WastePct     float64 `json:"waste_pct"`
	MAPE         float64 `json:"mape"`
	Alerts       int     `json:"alerts"`
	Status       string  `json:"status"` // "good", "warning" or "danger"
}

// GlobalKPIs is the command center KPI set aggregated across all nodes.
type GlobalKPIs struct {
	ForecastAccuracy    float64 `json:"forecast_accuracy"`
	WasteCost           float64 `json:"waste_cost"`
	ServiceLevel        float64 `json:"service_level"`
	OnShelfAvailability float64 `json:"on_shelf_availability"`
	NetMargin           float64 `json:"net_margin"`
	AIUplift            float64 `json:"ai_uplift"`
	Revenue             float64 `json:"revenue"`
}

// Health is the analytics service health report.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Agents  string `json:"agents"`
}

// QueryReply is the answer to one natural language question. Every field is
// optional; consumers presence-check before rendering.
type QueryReply struct {
	SQL     string           `json:"sql"`
	Data    []map[string]any `json:"data"`
	Summary string           `json:"summary"`
	Content string           `json:"content"`
	Viz     string           `json:"viz"` // base64-encoded image
	Mime    string           `json:"mime"`

	// Write operation metadata.
	RowsAffected *int64 `json:"rows_affected"`
	EmailSubject string `json:"email_subject"`
	EmailBody    string `json:"email_body"`
}
