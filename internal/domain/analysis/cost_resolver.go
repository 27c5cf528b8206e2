package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time. Injected so that supplier batches missing
// every timestamp field resolve deterministically under test.
type Clock func() time.Time

// CostIndex maps a product key to its authoritative unit acquisition cost,
// taken from the most recent supplier batch. Built fresh for every report
// computation; never updated incrementally.
type CostIndex map[string]decimal.Decimal

// UnitCost returns the cost on file for the product, or zero when the
// supplier feed never mentioned it. Absence is a normal state, not an error.
func (ci CostIndex) UnitCost(productKey string) decimal.Decimal {
	if c, ok := ci[productKey]; ok {
		return c
	}
	return decimal.Zero
}

// batchCandidate tracks the current latest-wins selection for one product.
type batchCandidate struct {
	observedAt time.Time
	unitCost   decimal.Decimal
}

// ResolveCosts derives one unit cost per product from an unordered supplier
// batch stream. For each product the batch with the latest observed timestamp
// wins; exact timestamp ties keep the first-encountered record. Records
// without a resolvable product key are dropped silently: the supplier feed is
// known to be noisy and a malformed batch must never fail a report.
func ResolveCosts(batches []RawRecord, now Clock) CostIndex {
	if now == nil {
		now = time.Now
	}

	latest := make(map[string]batchCandidate)
	for _, batch := range batches {
		rawKey, ok := resolveFirst(batch, supplierProductKeyChain)
		if !ok {
			continue
		}
		key, ok := asKey(rawKey)
		if !ok {
			continue
		}

		observedAt := now()
		if rawAt, ok := resolveFirst(batch, supplierObservedAtChain); ok {
			if t, ok := parseTime(rawAt); ok {
				observedAt = t
			}
		}

		unit := batchUnitCost(batch)

		cur, exists := latest[key]
		if !exists || observedAt.After(cur.observedAt) {
			latest[key] = batchCandidate{observedAt: observedAt, unitCost: unit}
		}
	}

	index := make(CostIndex, len(latest))
	for key, c := range latest {
		index[key] = c.unitCost
	}
	return index
}

// batchUnitCost resolves the per-unit cost of a batch. An explicit unitCost
// field wins; otherwise the batch cost is spread over the restocked quantity.
// A batch with no usable cost information resolves to zero.
func batchUnitCost(batch RawRecord) decimal.Decimal {
	if v, ok := batch["unitCost"]; ok && v != nil {
		unit := toDecimal(v)
		if unit.IsNegative() {
			return decimal.Zero
		}
		return unit
	}

	stock := decimal.Zero
	if v, ok := batch["stock"]; ok && v != nil {
		stock = toDecimal(v)
	} else if v, ok := batch["quantity"]; ok && v != nil {
		stock = toDecimal(v)
	}
	if !stock.IsPositive() {
		return decimal.Zero
	}

	batchCost := decimal.Zero
	if v, ok := batch["cost"]; ok && v != nil {
		batchCost = toDecimal(v)
	} else if v, ok := batch["totalCost"]; ok && v != nil {
		batchCost = toDecimal(v)
	}

	unit := batchCost.Div(stock)
	if unit.IsNegative() {
		return decimal.Zero
	}
	return unit
}
