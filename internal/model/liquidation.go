package model

// LiquidationFilter selects which liquidation figure is surfaced for display.
type LiquidationFilter string

const (
	FilterAll   LiquidationFilter = "ALL"
	FilterLong  LiquidationFilter = "LONG"
	FilterShort LiquidationFilter = "SHORT"
)

// ParseLiquidationFilter maps a case-sensitive filter name; ok is false for unknown names.
func ParseLiquidationFilter(s string) (LiquidationFilter, bool) {
	switch LiquidationFilter(s) {
	case FilterAll, FilterLong, FilterShort:
		return LiquidationFilter(s), true
	case "":
		return FilterAll, true
	}
	return "", false
}

// LiquidationBucket is the roll-up for one timeframe. Long + Short equals Total.
type LiquidationBucket struct {
	Total float64 `json:"total"`
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// Value returns the figure selected by f.
func (b LiquidationBucket) Value(f LiquidationFilter) float64 {
	switch f {
	case FilterLong:
		return b.Long
	case FilterShort:
		return b.Short
	default:
		return b.Total
	}
}
