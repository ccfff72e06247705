package suggest

import (
	"context"

	"github.com/go-faster/errors"

	"orgmap/pkg/config"
)

// Provider names accepted in configuration.
const (
	ProviderGenAI     = "genai"
	ProviderOpenAI    = "openai"
	ProviderHeuristic = "heuristic"
	ProviderNone      = "none"
)

// New builds the configured suggester. ProviderNone yields a nil Suggester
// and no error: uploads are then mapped by hand.
func New(ctx context.Context, cfg config.SuggestConfig) (Suggester, error) {
	switch cfg.Provider {
	case ProviderGenAI:
		g, err := NewGenAI(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		o, err := NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return o, nil
	case ProviderHeuristic, "":
		return NewHeuristic(), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, errors.Errorf("unknown suggestion provider %q", cfg.Provider)
	}
}
