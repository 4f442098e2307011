package utils

import (
	"strings"
)

// Common NSE ticker aliases and normalizations.
var tickerAliases = map[string]string{
	"RIL":           "RELIANCE",
	"HDFC BANK":     "HDFCBANK",
	"ICICI BANK":    "ICICIBANK",
	"SBI":           "SBIN",
	"AIRTEL":        "BHARTIARTL",
	"BAJAJ FIN":     "BAJFINANCE",
	"L&T":           "LT",
	"TATA MOTORS":   "TATAMOTORS",
	"TATA STEEL":    "TATASTEEL",
	"HCL TECH":      "HCLTECH",
	"KOTAK":         "KOTAKBANK",
	"AXIS BANK":     "AXISBANK",
	"SUN PHARMA":    "SUNPHARMA",
	"ASIAN PAINTS":  "ASIANPAINT",
	"NESTLE":        "NESTLEIND",
	"ULTRATECH":     "ULTRACEMCO",
	"TECH MAHINDRA": "TECHM",
	"MAHINDRA":      "M&M",
	"HUL":           "HINDUNILVR",
	"COAL INDIA":    "COALINDIA",
}

// screenerSymbols maps NSE symbols to the slug screener.in files the
// company under, where the two differ.
var screenerSymbols = map[string]string{
	"INFOSYS": "INFY",
	"LTIM":    "MINDTREE",
}

// NSE index tickers. Indices publish no statements.
var indexTickers = map[string]bool{
	"NIFTY":      true,
	"NIFTY50":    true,
	"NIFTY 50":   true,
	"BANKNIFTY":  true,
	"NIFTY BANK": true,
	"FINNIFTY":   true,
	"NIFTY IT":   true,
	"SENSEX":     true,
}

// NormalizeTicker normalizes a user-input ticker to the canonical NSE format.
// It handles aliases, uppercasing, exchange suffixes and whitespace.
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	ticker = strings.TrimPrefix(ticker, "$")
	ticker = strings.TrimSuffix(ticker, ".NS")
	ticker = strings.TrimSuffix(ticker, ".BO")

	if canonical, ok := tickerAliases[ticker]; ok {
		return canonical
	}
	return ticker
}

// ScreenerSymbol returns the screener.in slug for a ticker.
func ScreenerSymbol(ticker string) string {
	ticker = NormalizeTicker(ticker)
	if s, ok := screenerSymbols[ticker]; ok {
		return s
	}
	return ticker
}

// IsIndex checks if the ticker is an index (not a stock).
func IsIndex(ticker string) bool {
	return indexTickers[strings.TrimSpace(strings.ToUpper(ticker))]
}
