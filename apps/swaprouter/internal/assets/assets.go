package assets

import "strings"

// Asset represents a tradeable token with its properties
type Asset struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Pair is a directed trading pair. ReferencePrice is the synthetic mid price
// the simulated quote feeds randomize around (output units per input unit).
type Pair struct {
	TokenIn        string
	TokenOut       string
	ReferencePrice float64
}

// AssetRegistry holds all supported assets and tradeable pairs
type AssetRegistry struct {
	assets map[string]*Asset
	pairs  map[string]*Pair
}

// NewAssetRegistry creates a new asset registry with all supported assets
func NewAssetRegistry() *AssetRegistry {
	registry := &AssetRegistry{
		assets: make(map[string]*Asset),
		pairs:  make(map[string]*Pair),
	}

	supportedAssets := []*Asset{
		{Symbol: "SOL", Name: "Solana", Decimals: 9},
		{Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Decimals: 6},
		{Symbol: "BONK", Name: "Bonk", Decimals: 5},
	}

	for _, asset := range supportedAssets {
		registry.assets[asset.Symbol] = asset
	}

	supportedPairs := []*Pair{
		{TokenIn: "SOL", TokenOut: "USDC", ReferencePrice: 150.0},
		{TokenIn: "SOL", TokenOut: "USDT", ReferencePrice: 149.85},
		{TokenIn: "USDC", TokenOut: "SOL", ReferencePrice: 1.0 / 150.0},
		{TokenIn: "USDT", TokenOut: "SOL", ReferencePrice: 1.0 / 149.85},
		{TokenIn: "SOL", TokenOut: "BONK", ReferencePrice: 6500000.0},
		{TokenIn: "USDC", TokenOut: "USDT", ReferencePrice: 0.9995},
		{TokenIn: "USDT", TokenOut: "USDC", ReferencePrice: 1.0005},
	}

	for _, pair := range supportedPairs {
		registry.pairs[pairKey(pair.TokenIn, pair.TokenOut)] = pair
	}

	return registry
}

func pairKey(tokenIn, tokenOut string) string {
	return tokenIn + "/" + tokenOut
}

// GetBySymbol returns an asset by its symbol (case-insensitive)
func (r *AssetRegistry) GetBySymbol(symbol string) (*Asset, bool) {
	asset, exists := r.assets[strings.ToUpper(symbol)]
	return asset, exists
}

// IsSupported checks if a symbol is supported
func (r *AssetRegistry) IsSupported(symbol string) bool {
	_, exists := r.GetBySymbol(symbol)
	return exists
}

// GetPair returns the pair definition for a token_in/token_out combination
func (r *AssetRegistry) GetPair(tokenIn, tokenOut string) (*Pair, bool) {
	pair, exists := r.pairs[pairKey(strings.ToUpper(tokenIn), strings.ToUpper(tokenOut))]
	return pair, exists
}

// IsPairSupported checks if a directed pair is tradeable
func (r *AssetRegistry) IsPairSupported(tokenIn, tokenOut string) bool {
	_, exists := r.GetPair(tokenIn, tokenOut)
	return exists
}

// GetSupportedSymbols returns all supported asset symbols
func (r *AssetRegistry) GetSupportedSymbols() []string {
	symbols := make([]string, 0, len(r.assets))
	for symbol := range r.assets {
		symbols = append(symbols, symbol)
	}
	return symbols
}
