package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketmux/marketmux/internal/core"
)

type stubProvider struct {
	name string
	caps core.CapabilitySet
}

func (s *stubProvider) Name() string                          { return s.name }
func (s *stubProvider) Capabilities() core.CapabilitySet      { return s.caps }
func (s *stubProvider) HealthCheck(ctx context.Context) error { return nil }

type stubQuoter struct {
	stubProvider
	quote *core.Quote
}

func (s *stubQuoter) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	return s.quote, nil
}

func countingConstructor(calls *int) Constructor {
	return func(args Args) (Provider, error) {
		*calls++
		name := args.String("name")
		if name == "" {
			name = "stub"
		}
		return &stubProvider{name: name, caps: core.NewCapabilitySet(core.CapabilityRealTimeQuotes)}, nil
	}
}

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("stub", countingConstructor(&calls)))

	err := r.Register("stub", countingConstructor(&calls))
	require.Error(t, err)
	require.True(t, core.IsConfigurationError(err))

	require.NoError(t, r.Replace("stub", countingConstructor(&calls)))
}

func TestRegistryRegisterRejectsInvalidInput(t *testing.T) {
	r := NewRegistry()
	require.True(t, core.IsConfigurationError(r.Register(" ", countingConstructor(new(int)))))
	require.True(t, core.IsConfigurationError(r.Register("stub", nil)))
}

func TestRegistryCreateAlwaysBuildsNew(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("stub", countingConstructor(&calls)))

	a, err := r.Create("stub", nil)
	require.NoError(t, err)
	b, err := r.Create("stub", nil)
	require.NoError(t, err)

	require.NotSame(t, a, b)
	require.Equal(t, 2, calls)
	require.False(t, r.Cached("stub"))
}

func TestRegistryGetOrCreateCaches(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("stub", countingConstructor(&calls)))

	a, err := r.GetOrCreate("stub", Args{"name": "primary"})
	require.NoError(t, err)
	b, err := r.GetOrCreate("stub", Args{"name": "ignored"})
	require.NoError(t, err)

	require.Same(t, a, b)
	require.Equal(t, "primary", b.Name())
	require.Equal(t, 1, calls)
}

func TestRegistryUnknownName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("missing", nil)
	require.True(t, core.IsConfigurationError(err))
	_, err = r.GetOrCreate("missing", nil)
	require.True(t, core.IsConfigurationError(err))
}

func TestRegistryConstructorFailures(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("broken", func(Args) (Provider, error) {
		return nil, errors.New("boom")
	}))
	require.NoError(t, r.Register("empty", func(Args) (Provider, error) {
		return nil, nil
	}))
	require.NoError(t, r.Register("nameless", func(Args) (Provider, error) {
		return &stubProvider{}, nil
	}))

	for _, name := range []string{"broken", "empty", "nameless"} {
		_, err := r.GetOrCreate(name, nil)
		require.True(t, core.IsConfigurationError(err), name)
		require.False(t, r.Cached(name), name)
	}
}

func TestRegistryCapabilitiesOfDoesNotCache(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("stub", countingConstructor(&calls)))

	caps, err := r.CapabilitiesOf("stub", nil)
	require.NoError(t, err)
	require.True(t, caps.Has(core.CapabilityRealTimeQuotes))
	require.False(t, r.Cached("stub"))
}

func TestRegistryCapabilitiesOfPassesArgs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("snapshot", func(args Args) (Provider, error) {
		if args.String("path") == "" {
			return nil, errors.New("requires a path")
		}
		return &stubProvider{name: "snapshot", caps: core.NewCapabilitySet(core.CapabilityFundamentals)}, nil
	}))

	_, err := r.CapabilitiesOf("snapshot", nil)
	require.True(t, core.IsConfigurationError(err))

	caps, err := r.CapabilitiesOf("snapshot", Args{"path": " testdata/snap.yaml "})
	require.NoError(t, err)
	require.True(t, caps.Has(core.CapabilityFundamentals))
	require.False(t, r.Cached("snapshot"))
}

func TestArgsString(t *testing.T) {
	args := Args{"name": "  alpha ", "count": 3}
	require.Equal(t, "alpha", args.String("name"))
	require.Empty(t, args.String("count"))
	require.Empty(t, args.String("missing"))
}

func TestRegistryListAndReset(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("zeta", countingConstructor(new(int))))
	require.NoError(t, r.Register("alpha", countingConstructor(new(int))))
	require.Equal(t, []string{"alpha", "zeta"}, r.List())

	_, err := r.GetOrCreate("alpha", nil)
	require.NoError(t, err)

	r.Reset()
	require.Empty(t, r.List())
	require.False(t, r.Cached("alpha"))
}

func TestArgsDecode(t *testing.T) {
	var opts struct {
		Name    string        `mapstructure:"name"`
		Price   float64       `mapstructure:"seed_price"`
		Latency time.Duration `mapstructure:"latency"`
		Fail    []string      `mapstructure:"fail_operations"`
	}
	args := Args{"name": "demo", "seed_price": "101.5", "latency": "250ms", "fail_operations": "quote,rsi"}

	require.NoError(t, args.Decode(&opts))
	require.Equal(t, "demo", opts.Name)
	require.InDelta(t, 101.5, opts.Price, 1e-9)
	require.Equal(t, 250*time.Millisecond, opts.Latency)
	require.Equal(t, []string{"quote", "rsi"}, opts.Fail)
}

func TestInvokeUnsupported(t *testing.T) {
	p := &stubProvider{name: "bare"}
	_, err := Invoke(context.Background(), p, OpQuote, Request{Symbol: "AAPL"})
	require.ErrorIs(t, err, core.ErrUnsupported)
	require.False(t, Supports(p, OpQuote))
}

func TestInvokeRejectsEmptyPayload(t *testing.T) {
	p := &stubQuoter{stubProvider: stubProvider{name: "q"}}
	_, err := Invoke(context.Background(), p, OpQuote, Request{Symbol: "AAPL"})
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrUnsupported)

	p.quote = &core.Quote{Symbol: "AAPL", Price: 190}
	out, err := Invoke(context.Background(), p, OpQuote, Request{Symbol: "AAPL"})
	require.NoError(t, err)
	require.Equal(t, p.quote, out)
}

func TestDescribe(t *testing.T) {
	p := &stubQuoter{stubProvider: stubProvider{name: "q", caps: core.NewCapabilitySet(core.CapabilityRealTimeQuotes)}}
	d := Describe(p)
	require.Equal(t, "q", d.Name)
	require.Equal(t, []Operation{OpQuote}, d.Operations)
	require.True(t, d.Capabilities.Has(core.CapabilityRealTimeQuotes))
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("Options-Chain")
	require.NoError(t, err)
	require.Equal(t, OpOptionsChain, op)
	require.Equal(t, core.CapabilityOptionsChain, op.Capability())

	op, err = ParseOperation("bbands")
	require.NoError(t, err)
	require.Equal(t, OpBollinger, op)

	_, err = ParseOperation("dividends")
	require.Error(t, err)
}
