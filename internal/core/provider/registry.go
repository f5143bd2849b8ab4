package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/marketmux/marketmux/internal/core"
)

// Args holds constructor options, typically straight from configuration.
type Args map[string]any

// Constructor builds a provider from Args.
type Constructor func(args Args) (Provider, error)

// Registry maps provider type names to constructors and caches instances
// created through GetOrCreate.
type Registry struct {
	mu           sync.Mutex
	constructors map[string]Constructor
	instances    map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		instances:    make(map[string]Provider),
	}
}

// Register adds a constructor. Registering an existing name fails; use
// Replace to swap one deliberately.
func (r *Registry) Register(name string, ctor Constructor) error {
	return r.register(name, ctor, false)
}

// Replace registers ctor under name, discarding any previous constructor and
// cached instance.
func (r *Registry) Replace(name string, ctor Constructor) error {
	return r.register(name, ctor, true)
}

func (r *Registry) register(name string, ctor Constructor, replace bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NewConfigurationError("", "provider name is required")
	}
	if ctor == nil {
		return core.NewConfigurationError(name, "constructor is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensure()

	if _, exists := r.constructors[name]; exists && !replace {
		return core.NewConfigurationError(name, "provider already registered")
	}
	r.constructors[name] = ctor
	delete(r.instances, name)
	return nil
}

// Create always builds a new instance.
func (r *Registry) Create(name string, args Args) (Provider, error) {
	r.mu.Lock()
	ctor, ok := r.constructors[strings.TrimSpace(name)]
	r.mu.Unlock()
	if !ok {
		return nil, core.NewConfigurationError(name, "unknown provider")
	}
	return build(name, ctor, args)
}

// GetOrCreate returns the cached instance for name, creating and caching one
// on first use. Args are ignored once an instance is cached.
func (r *Registry) GetOrCreate(name string, args Args) (Provider, error) {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensure()

	if p, ok := r.instances[name]; ok {
		return p, nil
	}
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, core.NewConfigurationError(name, "unknown provider")
	}
	p, err := build(name, ctor, args)
	if err != nil {
		return nil, err
	}
	r.instances[name] = p
	return p, nil
}

// List returns registered names in lexical order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CapabilitiesOf inspects a transient instance built from args. The instance
// is not cached.
func (r *Registry) CapabilitiesOf(name string, args Args) (core.CapabilitySet, error) {
	p, err := r.Create(name, args)
	if err != nil {
		return core.CapabilitySet{}, err
	}
	return p.Capabilities(), nil
}

// Cached reports whether an instance for name is cached.
func (r *Registry) Cached(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.instances[name]
	return ok
}

// Reset drops every registration and cached instance.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors = make(map[string]Constructor)
	r.instances = make(map[string]Provider)
}

func (r *Registry) ensure() {
	if r.constructors == nil {
		r.constructors = make(map[string]Constructor)
	}
	if r.instances == nil {
		r.instances = make(map[string]Provider)
	}
}

func build(name string, ctor Constructor, args Args) (Provider, error) {
	if args == nil {
		args = Args{}
	}
	p, err := ctor(args)
	if err != nil {
		return nil, &core.ConfigurationError{Name: name, Reason: err.Error()}
	}
	if p == nil {
		return nil, core.NewConfigurationError(name, "constructor returned no provider")
	}
	if strings.TrimSpace(p.Name()) == "" {
		return nil, core.NewConfigurationError(name, "provider has an empty name")
	}
	return p, nil
}

// Decode copies args into out, accepting loosely typed values such as
// duration strings and comma-separated lists.
func (a Args) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("decode provider options: %w", err)
	}
	return nil
}

// String returns the trimmed string stored at key, or "" when the key is
// missing or not a string.
func (a Args) String(key string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
