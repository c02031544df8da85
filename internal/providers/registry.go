package providers

import "sort"

// modelAliases maps short model names to their OpenRouter identifiers.
var modelAliases = map[string]string{
	"gpt-4o":          "openai/gpt-4o",
	"gpt-4o-mini":     "openai/gpt-4o-mini",
	"gpt-4-turbo":     "openai/gpt-4-turbo",
	"gpt-3.5-turbo":   "openai/gpt-3.5-turbo",
	"claude-3-opus":   "anthropic/claude-3-opus",
	"claude-3-sonnet": "anthropic/claude-3-sonnet",
	"claude-3-haiku":  "anthropic/claude-3-haiku",
	"gemini-pro":      "google/gemini-pro",
	"llama-3-70b":     "meta-llama/llama-3-70b-instruct",
	"llama-3-8b":      "meta-llama/llama-3-8b-instruct",
	"mistral-large":   "mistralai/mistral-large",
	"mixtral-8x7b":    "mistralai/mixtral-8x7b-instruct",
}

// ResolveModelAlias expands a short model name to its full identifier.
// Names that are not aliases pass through unchanged.
func ResolveModelAlias(model string) string {
	if full, ok := modelAliases[model]; ok {
		return full
	}
	return model
}

// ModelAliases returns the known short names, sorted.
func ModelAliases() []string {
	names := make([]string, 0, len(modelAliases))
	for name := range modelAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
