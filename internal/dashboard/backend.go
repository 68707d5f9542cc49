package dashboard

import (
	"context"

	"github.com/mkoudsi/opstower/internal/upstream"
)

// Backend is the subset of the analytics service API the dashboard reads.
// *upstream.Client satisfies it; tests substitute fakes.
type Backend interface {
	FactoryKPIs(ctx context.Context, factoryID, lineID string) (upstream.FactoryKPIs, error)
	FactoryHourlyProduction(ctx context.Context, factoryID, lineID string) ([]upstream.HourlyProduction, error)
	FactoryDispatchPlanning(ctx context.Context, factoryID, lineID string) ([]upstream.DispatchPlan, error)

	DCKPIs(ctx context.Context, dcID string) (upstream.DCKPIs, error)
	DCDaysCover(ctx context.Context, dcID, skuID string) ([]upstream.DaysCover, error)
	DCInventoryAge(ctx context.Context, dcID string) ([]upstream.InventoryAgeBucket, error)

	StoreKPIs(ctx context.Context, storeID string) (upstream.StoreKPIs, error)
	StoreShelfPerformance(ctx context.Context, storeID string) ([]upstream.ShelfPerformance, error)
	StoreHourlySales(ctx context.Context, storeID string) ([]upstream.HourlySales, error)

	NodeHealth(ctx context.Context) ([]upstream.NodeHealth, error)
	GlobalKPIs(ctx context.Context) (upstream.GlobalKPIs, error)
}
