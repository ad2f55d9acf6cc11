package usage

// pricing lists published per-million-token rates for the built-in model
// catalogues. Models missing from the table accumulate tokens but no spend.
var pricing = map[string]ModelCost{
	// OpenAI
	"gpt-4o":        {InputCostPerMillion: 2.50, OutputCostPerMillion: 10.00},
	"gpt-4o-mini":   {InputCostPerMillion: 0.15, OutputCostPerMillion: 0.60},
	"gpt-4-turbo":   {InputCostPerMillion: 10.00, OutputCostPerMillion: 30.00},
	"gpt-3.5-turbo": {InputCostPerMillion: 0.50, OutputCostPerMillion: 1.50},

	// Gemini
	"gemini-2.5-pro":   {InputCostPerMillion: 1.25, OutputCostPerMillion: 10.00},
	"gemini-2.5-flash": {InputCostPerMillion: 0.30, OutputCostPerMillion: 2.50},
	"gemini-1.5-pro":   {InputCostPerMillion: 1.25, OutputCostPerMillion: 5.00},
	"gemini-1.5-flash": {InputCostPerMillion: 0.075, OutputCostPerMillion: 0.30},

	// Anthropic
	"claude-3-5-sonnet-20241022": {InputCostPerMillion: 3.00, OutputCostPerMillion: 15.00},
	"claude-3-opus-20240229":     {InputCostPerMillion: 15.00, OutputCostPerMillion: 75.00},
	"claude-3-haiku-20240307":    {InputCostPerMillion: 0.25, OutputCostPerMillion: 1.25},

	// GLM (approximate USD conversion of published CNY rates)
	"glm-4-plus":  {InputCostPerMillion: 7.00, OutputCostPerMillion: 7.00},
	"glm-4":       {InputCostPerMillion: 1.40, OutputCostPerMillion: 1.40},
	"glm-4-air":   {InputCostPerMillion: 0.14, OutputCostPerMillion: 0.14},
	"glm-4-flash": {InputCostPerMillion: 0.014, OutputCostPerMillion: 0.014},
}

// PricingFor returns the pricing for a model id when known.
func PricingFor(modelID string) (ModelCost, bool) {
	cost, ok := pricing[modelID]
	return cost, ok
}
