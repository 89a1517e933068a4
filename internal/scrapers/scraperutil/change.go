package scraperutil

import (
	"fmt"
	"math"
	"strconv"
)

// FormatChange renders the percentage change from prev to latest with two decimals,
// or "0.00%" when there is no meaningful previous value.
func FormatChange(latest, prev float64) string {
	if prev == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", (latest-prev)/prev*100)
}

// FormatPrice rounds to two decimals without padding trailing zeros.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
