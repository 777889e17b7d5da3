package reports

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"blinq/internal/models"
)

// RecurringLimit caps the number of recurring payments reported
const RecurringLimit = 20

// maxIntervalStdDev is the largest spread, in days, between repeats
const maxIntervalStdDev = 7

type cadence struct {
	name       string
	minDays    float64
	maxDays    float64
	perYear    float64
	minRepeats int
}

var cadences = []cadence{
	{"weekly", 5, 9, 52, 4},
	{"biweekly", 12, 16, 26, 4},
	{"monthly", 25, 35, 12, 3},
	{"quarterly", 85, 95, 4, 3},
	{"yearly", 350, 380, 1, 3},
}

// Recurring detects expenses that repeat with a steady interval and a
// consistent amount (within 10% of the mean). Groups are keyed by the
// lowercased description. Results are sorted by annual cost, highest first.
func Recurring(txns []models.Transaction) *models.RecurringSummary {
	type dated struct {
		models.Transaction
		at time.Time
	}

	groups := make(map[string][]dated)
	var order []string
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		at, ok := t.Time()
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(t.Description))
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], dated{t, at})
	}

	summary := &models.RecurringSummary{Payments: []models.RecurringPayment{}}

	for _, key := range order {
		group := groups[key]
		if len(group) < 3 {
			continue
		}
		slices.SortStableFunc(group, func(a, b dated) int { return a.at.Compare(b.at) })

		intervals := make([]float64, 0, len(group)-1)
		for i := 1; i < len(group); i++ {
			intervals = append(intervals, group[i].at.Sub(group[i-1].at).Hours()/24)
		}

		median := medianOf(intervals)
		var sumSq float64
		for _, d := range intervals {
			sumSq += (d - median) * (d - median)
		}
		stdDev := math.Sqrt(sumSq / float64(len(intervals)))
		if stdDev > maxIntervalStdDev {
			continue
		}

		var total float64
		for _, t := range group {
			total += t.Amount
		}
		avg := total / float64(len(group))
		if avg <= 0 || slices.ContainsFunc(group, func(d dated) bool {
			return math.Abs(d.Amount-avg)/avg > 0.10
		}) {
			continue
		}

		c, ok := cadenceFor(median, len(group))
		if !ok {
			continue
		}

		confidence := 1 - stdDev/median
		if confidence < 0.5 {
			continue
		}

		last := group[len(group)-1]
		summary.Payments = append(summary.Payments, models.RecurringPayment{
			Description:  last.Description,
			Category:     categoryOf(last.Transaction),
			Amount:       avg,
			Frequency:    c.name,
			LastDate:     last.at.Format("2006-01-02"),
			NextExpected: last.at.AddDate(0, 0, int(median)).Format("2006-01-02"),
			AnnualCost:   avg * c.perYear,
			Occurrences:  len(group),
			Confidence:   confidence,
		})
	}

	slices.SortStableFunc(summary.Payments, func(a, b models.RecurringPayment) int {
		return cmp.Compare(b.AnnualCost, a.AnnualCost)
	})
	if len(summary.Payments) > RecurringLimit {
		summary.Payments = summary.Payments[:RecurringLimit]
	}

	for _, p := range summary.Payments {
		summary.AnnualTotal += p.AnnualCost
	}
	summary.MonthlyCost = summary.AnnualTotal / 12

	return summary
}

func medianOf(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

func categoryOf(t models.Transaction) string {
	if t.Category == "" {
		return uncategorized
	}
	return t.Category
}

func cadenceFor(days float64, repeats int) (cadence, bool) {
	for _, c := range cadences {
		if days >= c.minDays && days <= c.maxDays {
			return c, repeats >= c.minRepeats
		}
	}
	return cadence{}, false
}
