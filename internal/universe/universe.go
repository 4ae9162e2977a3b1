// Package universe provides the default candidate symbol list used when
// no symbols are configured.
package universe

// Default returns the built-in candidate universe: large-cap and
// high-activity US equities. Callers get a fresh copy.
func Default() []string {
	out := make([]string, len(candidates))
	copy(out, candidates)
	return out
}

var candidates = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA",
	"META", "NVDA", "NFLX", "AMD", "INTC",
	"CRM", "ORCL", "ADBE", "PYPL", "UBER",
	"LYFT", "SNAP", "SQ", "ROKU", "ZM",
	"DIS", "NKE", "SBUX", "MCD", "KO",
	"PEP", "WMT", "TGT", "HD", "LOW",
	"BA", "GE", "F", "GM", "CAT",
	"JPM", "GS", "BAC", "V", "MA",
	"XOM", "CVX", "PFE", "JNJ", "UNH",
	"BABA", "SHOP", "PLTR", "SOFI", "RIVN",
}
