// ABOUTME: Static registry of assistant variants the bot can converse with
// ABOUTME: Built once at startup from config, immutable afterwards

package assistant

import (
	"fmt"

	"github.com/ai4business/advisor-bot/internal/config"
)

// Variant is one configured assistant persona. RemoteID is the identifier
// the assistant service knows it by.
type Variant struct {
	Key         string
	RemoteID    string
	DisplayName string
	Description string
}

// Registry maps variant keys to their remote assistant identifiers.
// It is immutable after construction and safe for unsynchronized concurrent reads.
type Registry struct {
	variants map[string]Variant
	order    []string
}

// NewRegistry builds a registry from configuration. Every variant must carry
// a remote assistant id; a missing id fails construction rather than surfacing
// later as a runtime error.
func NewRegistry(configs []config.AssistantConfig) (*Registry, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no assistant variants configured")
	}

	r := &Registry{
		variants: make(map[string]Variant, len(configs)),
		order:    make([]string, 0, len(configs)),
	}
	for _, c := range configs {
		if c.Key == "" {
			return nil, fmt.Errorf("assistant variant with empty key")
		}
		if c.AssistantID == "" {
			return nil, fmt.Errorf("assistant variant %q has no assistant id", c.Key)
		}
		if _, exists := r.variants[c.Key]; exists {
			return nil, fmt.Errorf("duplicate assistant variant %q", c.Key)
		}
		name := c.DisplayName
		if name == "" {
			name = c.Key
		}
		r.variants[c.Key] = Variant{
			Key:         c.Key,
			RemoteID:    c.AssistantID,
			DisplayName: name,
			Description: c.Description,
		}
		r.order = append(r.order, c.Key)
	}
	return r, nil
}

// Resolve returns the variant for the given key.
func (r *Registry) Resolve(key string) (Variant, bool) {
	v, ok := r.variants[key]
	return v, ok
}

// Variants returns all variants in configuration order.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.variants[key])
	}
	return out
}
