package pionex

import (
	"strconv"
	"strings"
)

var quoteAssets = []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}

// formatSymbol приводит символ к формату pionex: BTCUSDT -> BTC_USDT.
func formatSymbol(symbol string) string {
	clean := strings.ReplaceAll(strings.ToUpper(symbol), "_", "")
	for _, quote := range quoteAssets {
		if strings.HasSuffix(clean, quote) && len(clean) > len(quote) {
			return clean[:len(clean)-len(quote)] + "_" + quote
		}
	}
	return symbol
}

// formatInterval приводит интервал к формату pionex: 1m -> 1M, 1h -> 1H.
func formatInterval(interval string) string {
	return strings.ToUpper(strings.TrimSpace(interval))
}

func parseFloat(s string) float64 {
	val, _ := strconv.ParseFloat(s, 64)
	return val
}

func formatFloat(val float64) string {
	formatted := strconv.FormatFloat(val, 'f', 12, 64)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")
	if formatted == "" || formatted == "-0" {
		return "0"
	}
	return formatted
}
