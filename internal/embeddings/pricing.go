package embeddings

// priceTable maps embedding model identifiers to their price in USD per 1M
// tokens. Unknown models (and the mock backend) cost nothing.
var priceTable = map[string]float64{
	"text-embedding-3-small": 0.02,
	"text-embedding-3-large": 0.13,
	"text-embedding-ada-002": 0.10,
}

// EstimateCost returns the estimated cost in USD for the given model and
// token count. Returns 0 if the model is not in the price table.
func EstimateCost(model string, tokens int) float64 {
	price, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(tokens) / 1_000_000.0 * price
}

// EstimateTokens provides a rough token count estimation for the given text,
// using the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}
