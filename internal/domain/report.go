package domain

import (
	"math"
	"time"
)

// Timeframe names a reporting window. The zero value means all time.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
	TimeframeAll     Timeframe = ""
)

// Cutoff returns the inclusive lower bound of the window ending at now.
// Daily means the start of the current calendar day; weekly, monthly and
// yearly are rolling windows. Unknown values fall back to all time.
func (t Timeframe) Cutoff(now time.Time) time.Time {
	switch t {
	case TimeframeDaily:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case TimeframeWeekly:
		return now.AddDate(0, 0, -7)
	case TimeframeMonthly:
		return now.AddDate(0, -1, 0)
	case TimeframeYearly:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Unix(0, 0).UTC()
	}
}

// ProfitRate is the platform's share of gross paid sales.
const ProfitRate = 0.05

// SalesSummary aggregates paid orders for reporting. The same figures back
// both the sells-history response and the admin dashboard.
type SalesSummary struct {
	PaidOrders     int64   `json:"paidOrders"`
	TotalSells     float64 `json:"totalSells"`
	GizmobuyProfit float64 `json:"gizmobuyProfit"`
}

// NewSalesSummary derives the profit figure from the paid-order totals.
// Profit is 5% of gross sales rounded to two decimal places.
func NewSalesSummary(paidOrders int64, totalSells float64) SalesSummary {
	return SalesSummary{
		PaidOrders:     paidOrders,
		TotalSells:     totalSells,
		GizmobuyProfit: round2(totalSells * ProfitRate),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
