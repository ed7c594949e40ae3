package agent

import (
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/reasonalabs/reasona/config"
	"github.com/reasonalabs/reasona/model"
	"github.com/reasonalabs/reasona/model/anthropic"
	"github.com/reasonalabs/reasona/model/openai"
)

// ResolveModel instantiates a model from a "provider/name" identifier using
// the provider credentials in cfg. The "mock" provider yields a MockModel
// and needs no credentials.
func ResolveModel(id string, cfg *config.Config) (model.Model, error) {
	provider, name, ok := strings.Cut(id, "/")
	if !ok || provider == "" || name == "" {
		return nil, fmt.Errorf("invalid model id %q: expected \"provider/name\"", id)
	}

	switch provider {
	case "openai":
		p := cfg.OpenAI
		return openai.New(func(o *openai.Options) {
			o.Model = name
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			o.Organization = p.Organization
		}), nil
	case "anthropic":
		p := cfg.Anthropic
		return anthropic.New(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			o.APIKey = p.APIKey
		}), nil
	case "mock":
		return model.NewMockModel(name), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", provider)
	}
}
