package inventory

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Default forecast windows in days
const (
	DefaultLookbackDays = 30
	DefaultHorizonDays  = 30
)

// Forecast is a linear-average demand projection for one product
type Forecast struct {
	ProductID         uuid.UUID       `json:"product_id"`
	OnHand            int64           `json:"on_hand"`
	LookbackDays      int             `json:"lookback_days"`
	OutboundQuantity  int64           `json:"outbound_quantity"`
	AverageDailyUsage decimal.Decimal `json:"average_daily_usage"`
	HorizonDays       int             `json:"horizon_days"`
	ProjectedDemand   int64           `json:"projected_demand"`
	DaysUntilStockout *int            `json:"days_until_stockout,omitempty"`
	StockoutDate      *time.Time      `json:"stockout_date,omitempty"`
	Threshold         int             `json:"threshold"`
	SuggestedReorder  int64           `json:"suggested_reorder"`
}

// ComputeForecast projects demand from the outbound quantity of the lookback window.
// Average daily usage = outbound / lookback; projected demand = ceil(avg * horizon);
// suggested reorder = max(0, demand + threshold - on hand).
func ComputeForecast(productID uuid.UUID, onHand, outbound int64, lookbackDays, horizonDays, threshold int, now time.Time) Forecast {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if outbound < 0 {
		outbound = 0
	}

	avg := decimal.NewFromInt(outbound).Div(decimal.NewFromInt(int64(lookbackDays)))
	demand := avg.Mul(decimal.NewFromInt(int64(horizonDays))).Ceil().IntPart()

	f := Forecast{
		ProductID:         productID,
		OnHand:            onHand,
		LookbackDays:      lookbackDays,
		OutboundQuantity:  outbound,
		AverageDailyUsage: avg.Round(4),
		HorizonDays:       horizonDays,
		ProjectedDemand:   demand,
		Threshold:         threshold,
	}

	if avg.IsPositive() {
		days := int(math.Floor(decimal.NewFromInt(onHand).Div(avg).InexactFloat64()))
		if days < 0 {
			days = 0
		}
		date := now.AddDate(0, 0, days)
		f.DaysUntilStockout = &days
		f.StockoutDate = &date
	}

	reorder := demand + int64(threshold) - onHand
	if reorder < 0 {
		reorder = 0
	}
	f.SuggestedReorder = reorder
	return f
}
