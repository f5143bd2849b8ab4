package market

import (
	"fmt"
	"strings"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/provider"
	"github.com/marketmux/marketmux/internal/providers/fixture"
	"github.com/marketmux/marketmux/internal/providers/synthetic"
)

// Domain groups operations that share a provider chain.
type Domain string

const (
	DomainQuotes       Domain = "quotes"
	DomainOptions      Domain = "options"
	DomainFundamentals Domain = "fundamentals"
	DomainHistorical   Domain = "historical"
	DomainTechnical    Domain = "technical"
)

// Domains lists every domain in display order.
var Domains = []Domain{DomainQuotes, DomainOptions, DomainFundamentals, DomainHistorical, DomainTechnical}

// ParseDomain resolves a domain name.
func ParseDomain(value string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Domains {
		if d == known {
			return d, nil
		}
	}
	return "", core.NewConfigurationError(value, "unknown domain")
}

// DomainFor returns the domain whose chain serves op.
func DomainFor(op provider.Operation) Domain {
	switch op {
	case provider.OpQuote, provider.OpBatchQuote:
		return DomainQuotes
	case provider.OpOptionsChain:
		return DomainOptions
	case provider.OpFundamentals:
		return DomainFundamentals
	case provider.OpHistorical:
		return DomainHistorical
	default:
		return DomainTechnical
	}
}

// ProviderTypes maps a configured provider type to its constructor.
var ProviderTypes = map[string]provider.Constructor{
	synthetic.TypeName: synthetic.NewFromArgs,
	fixture.TypeName:   fixture.NewFromArgs,
}

// typeConstructor wraps the constructor for typ so every instance is named
// after its config key.
func typeConstructor(name, typ string) (provider.Constructor, error) {
	ctor, ok := ProviderTypes[strings.ToLower(strings.TrimSpace(typ))]
	if !ok {
		return nil, core.NewConfigurationError(name, "unknown provider type %q", typ)
	}
	return func(args provider.Args) (provider.Provider, error) {
		merged := make(provider.Args, len(args)+1)
		for k, v := range args {
			merged[k] = v
		}
		merged["name"] = name
		p, err := ctor(merged)
		if err != nil {
			return nil, fmt.Errorf("%s provider %s: %w", typ, name, err)
		}
		return p, nil
	}, nil
}
