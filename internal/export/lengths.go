package export

import (
	"strings"

	"github.com/shopspring/decimal"
)

// joinDecimals renders lengths as "2 + 2 + 1.5".
func joinDecimals(values []decimal.Decimal) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, " + ")
}
