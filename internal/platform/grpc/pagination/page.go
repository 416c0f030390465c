// Package pagination normalizes list request paging fields.
package pagination

import "fmt"

// PageSizeConfig bounds a requested page size.
type PageSizeConfig struct {
	Default int
	Max     int
}

// OrderByConfig lists the accepted order_by values.
type OrderByConfig struct {
	Default string
	Allowed []string
}

// ClampPageSize applies the default to non-positive sizes and caps at Max.
// The result is always at least 1.
func ClampPageSize(value int32, cfg PageSizeConfig) int {
	size := int(value)
	if size <= 0 {
		size = cfg.Default
	}
	if cfg.Max > 0 && size > cfg.Max {
		size = cfg.Max
	}
	return max(size, 1)
}

// NormalizeOrderBy returns the default for an empty value and rejects values
// outside Allowed.
func NormalizeOrderBy(orderBy string, cfg OrderByConfig) (string, error) {
	if orderBy == "" {
		return cfg.Default, nil
	}
	for _, allowed := range cfg.Allowed {
		if orderBy == allowed {
			return orderBy, nil
		}
	}
	return "", fmt.Errorf("invalid order_by: %s", orderBy)
}
