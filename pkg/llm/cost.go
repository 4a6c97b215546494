package llm

// Token pricing per 1M tokens (USD).
var pricing = map[string]modelPrice{
	// Groq
	"llama3-8b-8192":          {Input: 0.05, Output: 0.08},
	"llama3-70b-8192":         {Input: 0.59, Output: 0.79},
	"llama-3.1-8b-instant":    {Input: 0.05, Output: 0.08},
	"llama-3.3-70b-versatile": {Input: 0.59, Output: 0.79},
	"mixtral-8x7b-32768":      {Input: 0.24, Output: 0.24},
	"gemma2-9b-it":            {Input: 0.20, Output: 0.20},

	// OpenAI
	"gpt-4o":        {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
}

type modelPrice struct {
	Input  float64 // per 1M input tokens
	Output float64 // per 1M output tokens
}

// EstimateCost returns the estimated cost in USD for the given model and
// token counts. Unknown models (including local ones) cost nothing.
func EstimateCost(model string, tokensIn, tokensOut int) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	return (float64(tokensIn) * p.Input / 1_000_000) + (float64(tokensOut) * p.Output / 1_000_000)
}
