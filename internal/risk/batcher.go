package risk

import "github.com/polysense/riskagent/internal/contracts"

// SplitMarkets splits markets into contiguous batches of at most
// batchSize, preserving input order. Concatenating the batches in order
// reproduces the input exactly. batchSize is validated at construction
// time (Config.Validate), so a non-positive value never reaches here.
func SplitMarkets(markets []contracts.Market, batchSize int) [][]contracts.Market {
	batches := make([][]contracts.Market, 0, (len(markets)+batchSize-1)/batchSize)

	for start := 0; start < len(markets); start += batchSize {
		end := start + batchSize
		if end > len(markets) {
			end = len(markets)
		}
		batches = append(batches, markets[start:end])
	}

	return batches
}
