package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Capability is a declared provider feature used to decide which providers are
// eligible for an operation.
type Capability uint16

const (
	CapabilityRealTimeQuotes Capability = 1 << iota
	CapabilityBatchQuotes
	CapabilityOptionsChain
	CapabilityFundamentals
	CapabilityHistorical
	CapabilityTechnicalIndicators
	CapabilityUnlimitedRate
	CapabilityRateLimited
)

var capabilityNames = map[Capability]string{
	CapabilityRealTimeQuotes:      "real_time_quotes",
	CapabilityBatchQuotes:         "batch_quotes",
	CapabilityOptionsChain:        "options_chain",
	CapabilityFundamentals:        "fundamentals",
	CapabilityHistorical:          "historical_data",
	CapabilityTechnicalIndicators: "technical_indicators",
	CapabilityUnlimitedRate:       "unlimited_rate",
	CapabilityRateLimited:         "rate_limited",
}

// AllCapabilities lists the closed capability set in declaration order.
var AllCapabilities = []Capability{
	CapabilityRealTimeQuotes,
	CapabilityBatchQuotes,
	CapabilityOptionsChain,
	CapabilityFundamentals,
	CapabilityHistorical,
	CapabilityTechnicalIndicators,
	CapabilityUnlimitedRate,
	CapabilityRateLimited,
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", uint16(c))
}

// ParseCapability resolves a capability by name. Hyphens and underscores are
// interchangeable.
func ParseCapability(value string) (Capability, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	switch normalized {
	case "historical":
		return CapabilityHistorical, nil
	case "technical", "indicators":
		return CapabilityTechnicalIndicators, nil
	}
	for capability, name := range capabilityNames {
		if name == normalized {
			return capability, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", value)
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	bits Capability
}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(capabilities ...Capability) CapabilitySet {
	var bits Capability
	for _, c := range capabilities {
		bits |= c
	}
	return CapabilitySet{bits: bits}
}

// ParseCapabilitySet builds a set from capability names.
func ParseCapabilitySet(values []string) (CapabilitySet, error) {
	caps := make([]Capability, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		c, err := ParseCapability(v)
		if err != nil {
			return CapabilitySet{}, err
		}
		caps = append(caps, c)
	}
	return NewCapabilitySet(caps...), nil
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	return c != 0 && s.bits&c == c
}

// Empty reports whether the set holds no capabilities.
func (s CapabilitySet) Empty() bool {
	return s.bits == 0
}

// List returns the members in declaration order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(AllCapabilities))
	for _, c := range AllCapabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Strings returns member names in declaration order.
func (s CapabilitySet) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.String()
	}
	return out
}

func (s CapabilitySet) String() string {
	names := s.Strings()
	sort.Strings(names)
	return strings.Join(names, ",")
}

// MarshalJSON renders the set as a list of names.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON accepts the list form written by MarshalJSON.
func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseCapabilitySet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
