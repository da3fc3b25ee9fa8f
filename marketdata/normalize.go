package marketdata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tradewithedge/tickersnap/models"
)

// ordinalPrefix matches the provider's numbered field names: "4. close".
var ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)

// stripOrdinal removes the numeric ordinal prefix and lower-cases the name.
func stripOrdinal(key string) string {
	return strings.ToLower(ordinalPrefix.ReplaceAllString(key, ""))
}

// stripOrdinalLookup finds a value in a numbered-key map by its cleaned,
// lower-cased field name ("2. Symbol" is found via "symbol").
func stripOrdinalLookup(m map[string]string, name string) string {
	for k, v := range m {
		if stripOrdinal(k) == name {
			return v
		}
	}
	return ""
}

// NormalizeSeries converts the provider's numbered-key day records into
// typed bars and injects the derived VWAP = (high+low+close)/3, rounded to
// 4 decimals, for every bucket where high, low, and close are all present
// and non-zero.
func NormalizeSeries(raw map[string]map[string]string) map[string]models.Bar {
	series := make(map[string]models.Bar, len(raw))
	for date, fields := range raw {
		series[date] = normalizeBar(fields)
	}
	return series
}

func normalizeBar(fields map[string]string) models.Bar {
	var bar models.Bar
	for key, value := range fields {
		switch stripOrdinal(key) {
		case "open":
			bar.Open = value
		case "high":
			bar.High = value
		case "low":
			bar.Low = value
		case "close":
			bar.Close = value
		case "volume":
			bar.Volume = value
		}
	}

	high, _ := strconv.ParseFloat(bar.High, 64)
	low, _ := strconv.ParseFloat(bar.Low, 64)
	closing, _ := strconv.ParseFloat(bar.Close, 64)
	if high != 0 && low != 0 && closing != 0 {
		bar.VWAP = strconv.FormatFloat((high+low+closing)/3, 'f', 4, 64)
	}
	return bar
}
