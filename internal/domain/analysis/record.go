package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is an order or supplier-batch record as delivered by the
// storefront API. Shapes vary between data sources, so fields are resolved
// through ordered accessor chains instead of a fixed struct.
type RawRecord map[string]any

// UnresolvedProductKey is the bucket for order lines whose product identity
// cannot be resolved through any accessor. Revenue and profit from such lines
// still count toward the totals.
const UnresolvedProductKey = "unknown"

// accessor extracts one candidate value from a raw record. Accessors are
// arranged in ordered chains so the fallback priority stays auditable.
type accessor struct {
	name string
	get  func(RawRecord) (any, bool)
}

// field reads a top-level key.
func field(key string) accessor {
	return accessor{
		name: key,
		get: func(r RawRecord) (any, bool) {
			v, ok := r[key]
			if !ok || v == nil {
				return nil, false
			}
			return v, true
		},
	}
}

// nested reads a key from an embedded object (e.g. a product snapshot).
func nested(outer, inner string) accessor {
	return accessor{
		name: outer + "." + inner,
		get: func(r RawRecord) (any, bool) {
			obj, ok := r[outer].(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := obj[inner]
			if !ok || v == nil {
				return nil, false
			}
			return v, true
		},
	}
}

// Accessor chains, in fallback priority order. The supplier feed and the
// order feed were built independently and disagree on field naming, so each
// entity carries its own chain.
var (
	supplierProductKeyChain = []accessor{
		field("productId"),
		field("productID"),
		field("product_id"),
		nested("product", "id"),
		nested("product", "productId"),
	}

	supplierObservedAtChain = []accessor{
		field("updatedAt"),
		field("createdAt"),
		field("date"),
		field("time"),
	}

	lineProductKeyChain = []accessor{
		nested("productInfo", "productId"),
		nested("productInfo", "_id"),
		nested("productInfo", "id"),
		field("productId"),
		nested("productInfo", "sku"),
		nested("productInfo", "name"),
	}

	lineQuantityChain = []accessor{
		field("quantity"),
		field("qty"),
	}

	linePriceChain = []accessor{
		nested("productInfo", "price"),
		field("price"),
	}
)

// resolveFirst walks an accessor chain and returns the first present value.
func resolveFirst(r RawRecord, chain []accessor) (any, bool) {
	for _, a := range chain {
		if v, ok := a.get(r); ok {
			return v, true
		}
	}
	return nil, false
}

// asKey converts a resolved identifier value to its string form.
// Empty strings are treated as absent.
func asKey(v any) (string, bool) {
	switch k := v.(type) {
	case string:
		if k == "" {
			return "", false
		}
		return k, true
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64), true
	case int:
		return strconv.Itoa(k), true
	case int64:
		return strconv.FormatInt(k, 10), true
	case json.Number:
		return k.String(), true
	default:
		return "", false
	}
}

// toDecimal coerces a raw numeric value to a decimal. Non-numeric values
// resolve to zero rather than an error, matching the tolerant input policy.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return d
		}
	case decimal.Decimal:
		return n
	}
	return decimal.Zero
}

// timeLayouts are tried in order when a timestamp arrives as a string.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime coerces a raw timestamp value. String timestamps are parsed
// against the known layouts; numeric timestamps are taken as epoch
// milliseconds (the storefront API serializes Date.now() values).
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case float64:
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms), true
		}
	case time.Time:
		return t, true
	}
	return time.Time{}, false
}

// stringify renders any resolved key for use as a display name fallback.
func stringify(v any) string {
	if s, ok := asKey(v); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
