package sizing

// correlationGroups maps tickers to sector/index groups whose aggregate
// risk is capped together. The table is fixed; tickers outside it carry no
// group cap.
var correlationGroups = map[string]string{
	"AAPL":  "TECH",
	"MSFT":  "TECH",
	"NVDA":  "TECH",
	"GOOGL": "TECH",
	"GOOG":  "TECH",
	"AMZN":  "TECH",
	"META":  "TECH",
	"TSLA":  "TECH",
	"AMD":   "TECH",
	"AVGO":  "TECH",

	"SPY": "SPY_RELATED",
	"QQQ": "SPY_RELATED",
	"IWM": "SPY_RELATED",
	"DIA": "SPY_RELATED",
	"VTI": "SPY_RELATED",

	"JPM": "FINANCE",
	"BAC": "FINANCE",
	"GS":  "FINANCE",
	"MS":  "FINANCE",
	"WFC": "FINANCE",
	"C":   "FINANCE",
	"XLF": "FINANCE",
}

// GroupFor returns the correlation group for a ticker, or "" when the
// ticker is ungrouped.
func GroupFor(ticker string) string {
	return correlationGroups[ticker]
}
