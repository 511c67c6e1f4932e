// market/symbols.go
package market

// SymbolTable maps a canonical symbol ("BTC") to the identifier a
// particular price source uses for it ("BTCUSDT", "bitcoin", ...).
// Each source gets its own table injected at construction; a symbol
// missing from the table means the source does not list it.
type SymbolTable map[string]string

// Lookup returns the source-local identifier for symbol.
func (t SymbolTable) Lookup(symbol string) (string, bool) {
	id, ok := t[symbol]
	return id, ok
}

// Symbols returns the canonical symbols present in the table.
func (t SymbolTable) Symbols() []string {
	out := make([]string, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	return out
}

// Default per-source tables for the monitored universe. These are
// configuration data, not logic; callers may supply their own tables.
var (
	BinanceSymbols = SymbolTable{
		"BTC": "BTCUSDT",
		"ETH": "ETHUSDT",
		"SOL": "SOLUSDT",
		"ARB": "ARBUSDT",
		"OP":  "OPUSDT",
	}

	CoinbaseSymbols = SymbolTable{
		"BTC": "BTC-USD",
		"ETH": "ETH-USD",
		"SOL": "SOL-USD",
		"ARB": "ARB-USD",
		"OP":  "OP-USD",
	}

	OKXSymbols = SymbolTable{
		"BTC": "BTC-USDT",
		"ETH": "ETH-USDT",
		"SOL": "SOL-USDT",
		"ARB": "ARB-USDT",
		"OP":  "OP-USDT",
	}

	BybitSymbols = SymbolTable{
		"BTC": "BTCUSDT",
		"ETH": "ETHUSDT",
		"SOL": "SOLUSDT",
		"ARB": "ARBUSDT",
		"OP":  "OPUSDT",
	}

	// CoinGecko keys by coin id rather than ticker pair.
	CoinGeckoSymbols = SymbolTable{
		"BTC": "bitcoin",
		"ETH": "ethereum",
		"SOL": "solana",
		"ARB": "arbitrum",
		"OP":  "optimism",
	}
)

// DefaultSymbols is the scan priority order: best recent performers
// first. The detector returns the first symbol that clears the
// deviation threshold, so order matters.
var DefaultSymbols = []string{"SOL", "ETH", "BTC", "ARB", "OP"}
