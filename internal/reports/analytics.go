package reports

import (
	"context"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// unknownItem labels consumption entries without an item name.
const unknownItem = "Unknown"

// SpendingAnalytics is the chart data for a user's consumption.
type SpendingAnalytics struct {
	Months int `json:"months"`

	// MonthlyTrend has one bucket per month with consumption, oldest first.
	MonthlyTrend []MonthlyTotal `json:"monthly_trend"`

	// TopItems are the item names with the highest spend in the window.
	TopItems []Spend `json:"top_items"`
}

// SpendingAnalytics returns the consumption trend over the last months
// (current month included) and the top items by spend. Zero months means
// DefaultAnalyticsMonths.
func (r *Reporter) SpendingAnalytics(ctx context.Context, userID string, months int) (*SpendingAnalytics, error) {
	if userID == "" {
		return nil, apperr.Invalid("user_id", "is required")
	}
	switch {
	case months == 0:
		months = DefaultAnalyticsMonths
	case months < 0 || months > MaxAnalyticsMonths:
		return nil, apperr.Invalid("months", "must be between 1 and %d", MaxAnalyticsMonths)
	}

	from := periodsBack(r.now(), months)

	totals, err := r.store.MonthlyTotals(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	trend := []MonthlyTotal{}
	for _, t := range totals {
		if t.Type != models.EntryConsumption {
			continue
		}
		trend = append(trend, MonthlyTotal{Period: t.Period, Type: t.Type, Total: t.Total, Count: t.EntryCount})
	}

	consumed, err := r.store.ListUserEntriesSince(ctx, userID, models.EntryConsumption, from)
	if err != nil {
		return nil, err
	}
	top := sumBy(consumed, func(e *models.LedgerEntry) string {
		if e.Metadata.ItemName == "" {
			return unknownItem
		}
		return e.Metadata.ItemName
	})
	if len(top) > topItemsLimit {
		top = top[:topItemsLimit]
	}
	if top == nil {
		top = []Spend{}
	}

	return &SpendingAnalytics{Months: months, MonthlyTrend: trend, TopItems: top}, nil
}
