package notifier

import (
	"fmt"
	"strings"
	"time"

	"StockSentry/internal/model"
	"StockSentry/internal/scanner"
)

func strengthEmoji(strength float64) string {
	switch {
	case strength >= 70:
		return "🔥"
	case strength >= 50:
		return "⭐"
	default:
		return "·"
	}
}

func direction(rec model.SignalRecord) string {
	if rec.Type == model.SignalBullish {
		return "📈 Bullish"
	}
	return "📉 Bearish"
}

// FormatEmail renders the scan results as an HTML email body. Records
// are assumed ranked; only the first limit rows are rendered.
func FormatEmail(src model.SignalSource, scanDate time.Time, records []model.SignalRecord, limit int) string {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	b.WriteString(fmt.Sprintf("<h2>StockSentry %s Crossover Scan | %s</h2>\n",
		src, scanDate.Format("2006-01-02")))

	if len(records) == 0 {
		b.WriteString("<p>No crossover signals today.</p>\n")
		b.WriteString("</body></html>\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("<p>%d signal(s) detected.</p>\n", len(records)))
	b.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">\n")
	b.WriteString("<tr><th>Symbol</th><th>Direction</th><th>Price</th><th>Cross</th>" +
		"<th>RSI</th><th>Strength</th><th>Play</th></tr>\n")

	for _, rec := range records {
		b.WriteString(fmt.Sprintf(
			"<tr><td><b>%s</b></td><td>%s</td><td>$%.2f</td>"+
				"<td>%s %d/%d (%dd ago)</td><td>%.0f</td><td>%s %d (%s)</td><td>%s</td></tr>\n",
			rec.Symbol, direction(rec), rec.Price,
			rec.Source, rec.FastPeriod, rec.SlowPeriod, rec.DaysSinceCross,
			rec.RSI,
			strengthEmoji(rec.Strength), int(rec.Strength+0.5), scanner.Category(rec.Strength),
			rec.Recommendation))
	}
	b.WriteString("</table>\n")
	b.WriteString("<p><i>Signals are informational only, not trading advice.</i></p>\n")
	b.WriteString("</body></html>\n")
	return b.String()
}

// FormatMOTD renders the top signals as a short plain-text banner
// suitable for /etc/motd.
func FormatMOTD(src model.SignalSource, scanDate time.Time, records []model.SignalRecord, limit int) string {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("=== StockSentry %s scan %s ===\n", src, scanDate.Format("2006-01-02")))
	if len(records) == 0 {
		b.WriteString("No crossover signals today.\n")
		return b.String()
	}
	for _, rec := range records {
		b.WriteString(fmt.Sprintf("%-6s %s %s at $%.2f | strength %d (%s) | %s\n",
			rec.Symbol, string(rec.Type), rec.Source, rec.Price,
			int(rec.Strength+0.5), scanner.Category(rec.Strength), rec.Recommendation))
	}
	return b.String()
}
