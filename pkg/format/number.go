// Package format renders numbers the way the dashboard displays them
// (Brazilian convention: "." groups thousands, "," separates decimals).
package format

import (
	"fmt"
	"math"
	"strings"
)

// Integer returns a whole number with thousands separators (e.g., "-1.234").
func Integer(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + groupThousands(fmt.Sprintf("%d", n))
}

// Decimal returns a number with the given decimal places and separators
// (e.g., "1.234,50"). A zero decimals value behaves like Integer.
func Decimal(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	sign := ""
	if value < 0 {
		sign = "-"
	}
	formatted := fmt.Sprintf("%.*f", decimals, math.Abs(value))
	parts := strings.SplitN(formatted, ".", 2)
	intPart := groupThousands(parts[0])
	if len(parts) == 1 {
		return sign + intPart
	}
	return sign + intPart + "," + parts[1]
}

// Value renders a layer value: integral values without decimals, the rest
// with two decimal places.
func Value(value float64) string {
	if value == math.Trunc(value) {
		return Decimal(value, 0)
	}
	return Decimal(value, 2)
}

func groupThousands(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte('.')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
