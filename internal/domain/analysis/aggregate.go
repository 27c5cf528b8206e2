package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultTopProducts is the ranking size used when the caller does not ask
// for a specific limit.
const DefaultTopProducts = 10

// DailyRow is one calendar day's revenue and profit, rounded to 2 decimals.
type DailyRow struct {
	Day     string
	Revenue decimal.Decimal
	Profit  decimal.Decimal
}

// Totals are the grand revenue and profit over the window, rounded once from
// the unrounded line-level sums. They are deliberately not the sum of the
// rounded daily rows, which would compound per-day rounding error.
type Totals struct {
	Revenue decimal.Decimal
	Profit  decimal.Decimal
}

// ProductRank is one entry of the top-sellers ranking.
type ProductRank struct {
	DisplayName string
	Quantity    decimal.Decimal
}

// productTotal accumulates quantity per product during aggregation. The
// display name is fixed on first sight; seq preserves encounter order for
// stable ranking ties.
type productTotal struct {
	displayName string
	quantity    decimal.Decimal
	seq         int
}

// Aggregation is the outcome of joining the order stream against the cost
// index over a date window. It is a transient value, rebuilt per request.
type Aggregation struct {
	DailyRows  []DailyRow
	Totals     Totals
	OrderCount int

	products map[string]*productTotal
}

type dayBucket struct {
	revenue decimal.Decimal
	profit  decimal.Decimal
}

// Aggregate joins each order line to its resolved unit cost and accumulates
// per-day and per-product totals. Orders without a parseable date, or dated
// outside the range, are excluded entirely. Lines with non-positive quantity
// contribute nothing. A line whose product identity cannot be resolved is
// still counted, under the shared "unknown" key, so totals are conserved
// even when identity is not.
func Aggregate(orders []RawRecord, costs CostIndex, rng DateRange) Aggregation {
	days := make(map[string]*dayBucket)
	products := make(map[string]*productTotal)

	totalRevenue := decimal.Zero
	totalProfit := decimal.Zero
	orderCount := 0
	seq := 0

	for _, order := range orders {
		rawDate, ok := order["date"]
		if !ok || rawDate == nil {
			continue
		}
		orderedAt, ok := parseTime(rawDate)
		if !ok || !rng.Contains(orderedAt) {
			continue
		}
		orderCount++

		dayKey := rng.DayKey(orderedAt)
		bucket, ok := days[dayKey]
		if !ok {
			bucket = &dayBucket{revenue: decimal.Zero, profit: decimal.Zero}
			days[dayKey] = bucket
		}

		for _, line := range orderLines(order) {
			quantity := decimal.Zero
			if v, ok := resolveFirst(line, lineQuantityChain); ok {
				quantity = toDecimal(v)
			}
			if !quantity.IsPositive() {
				continue
			}

			productKey := UnresolvedProductKey
			displayName := UnresolvedProductKey
			if v, ok := resolveFirst(line, lineProductKeyChain); ok {
				if key, ok := asKey(v); ok {
					productKey = key
					displayName = stringify(v)
				}
			}
			if v, ok := nested("productInfo", "name").get(line); ok {
				if name := stringify(v); name != "" {
					displayName = name
				}
			}

			unitPrice := decimal.Zero
			if v, ok := resolveFirst(line, linePriceChain); ok {
				unitPrice = toDecimal(v)
			}

			lineRevenue := unitPrice.Mul(quantity)
			lineCost := costs.UnitCost(productKey).Mul(quantity)
			lineProfit := lineRevenue.Sub(lineCost)

			bucket.revenue = bucket.revenue.Add(lineRevenue)
			bucket.profit = bucket.profit.Add(lineProfit)
			totalRevenue = totalRevenue.Add(lineRevenue)
			totalProfit = totalProfit.Add(lineProfit)

			p, ok := products[productKey]
			if !ok {
				p = &productTotal{displayName: displayName, quantity: decimal.Zero, seq: seq}
				products[productKey] = p
				seq++
			}
			p.quantity = p.quantity.Add(quantity)
		}
	}

	dayKeys := make([]string, 0, len(days))
	for key := range days {
		dayKeys = append(dayKeys, key)
	}
	sort.Strings(dayKeys)

	rows := make([]DailyRow, 0, len(dayKeys))
	for _, key := range dayKeys {
		bucket := days[key]
		rows = append(rows, DailyRow{
			Day:     key,
			Revenue: bucket.revenue.Round(2),
			Profit:  bucket.profit.Round(2),
		})
	}

	return Aggregation{
		DailyRows:  rows,
		Totals:     Totals{Revenue: totalRevenue.Round(2), Profit: totalProfit.Round(2)},
		OrderCount: orderCount,
		products:   products,
	}
}

// orderLines extracts the line array of an order; missing or malformed line
// collections read as empty.
func orderLines(order RawRecord) []RawRecord {
	raw, ok := order["products"].([]any)
	if !ok {
		return nil
	}
	lines := make([]RawRecord, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			lines = append(lines, RawRecord(m))
		}
	}
	return lines
}

// RankTopProducts orders the aggregation's products by summed quantity,
// descending, and truncates to limit. Equal quantities keep their
// first-encountered relative order. Empty input yields an empty ranking.
func RankTopProducts(agg Aggregation, limit int) []ProductRank {
	if limit <= 0 {
		limit = DefaultTopProducts
	}

	entries := make([]*productTotal, 0, len(agg.products))
	for _, p := range agg.products {
		entries = append(entries, p)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quantity.GreaterThan(entries[j].quantity)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	ranks := make([]ProductRank, len(entries))
	for i, p := range entries {
		ranks[i] = ProductRank{DisplayName: p.displayName, Quantity: p.quantity}
	}
	return ranks
}
