// Package registry holds the canonical event tag registry: a static table
// mapping each venue-independent tag to the venue-native symbols that trade
// the same event. It is loaded once at startup and read-only afterwards, so
// lookups are safe from any number of goroutines without locking.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// Symbol is a venue-native identifier. It decodes from any YAML scalar as its
// literal text, so numeric PredictIt market IDs compare as canonical strings.
type Symbol string

func (s *Symbol) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("venue symbol must be a scalar, got %s", node.Tag)
	}
	*s = Symbol(strings.TrimSpace(node.Value))
	return nil
}

// Entry is one registry row: a canonical tag plus zero or more venue symbols.
// A nil symbol means the venue does not list the event.
type Entry struct {
	Tag         string  `yaml:"tag"`
	Description string  `yaml:"description"`
	Kalshi      *Symbol `yaml:"kalshi"`
	Nadex       *Symbol `yaml:"nadex"`
	PredictIt   *Symbol `yaml:"predictit"`
}

func (e Entry) symbolFor(exchange domain.Exchange) *Symbol {
	switch exchange {
	case domain.ExchangeKalshi:
		return e.Kalshi
	case domain.ExchangeNadex:
		return e.Nadex
	case domain.ExchangePredictIt:
		return e.PredictIt
	}
	return nil
}

// Registry is the immutable tag table with reverse lookup maps per venue.
type Registry struct {
	entries []Entry
	byVenue map[domain.Exchange]map[string]string // symbol -> tag
}

// New builds a Registry from explicit entries. When two entries claim the
// same (venue, symbol) pair, the later one wins, so edits appended to the
// registry file override earlier rows.
func New(entries []Entry) *Registry {
	r := &Registry{
		entries: append([]Entry(nil), entries...),
		byVenue: make(map[domain.Exchange]map[string]string, len(domain.Exchanges)),
	}
	for _, exchange := range domain.Exchanges {
		m := make(map[string]string)
		for _, e := range r.entries {
			sym := e.symbolFor(exchange)
			if sym == nil || *sym == "" {
				continue
			}
			m[string(*sym)] = e.Tag
		}
		r.byVenue[exchange] = m
	}
	return r
}

// Load reads the registry from a YAML file: an ordered list of entries.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Tag) == "" {
			return nil, fmt.Errorf("registry: entry %d has no tag", i)
		}
	}
	return New(entries), nil
}

// TagFor resolves a venue-native symbol to its canonical tag. The match is
// exact; unknown exchanges or symbols report not-found rather than an error,
// leaving error signaling to the caller.
func (r *Registry) TagFor(exchange domain.Exchange, symbol string) (string, bool) {
	m, ok := r.byVenue[exchange]
	if !ok {
		return "", false
	}
	tag, ok := m[symbol]
	return tag, ok
}

// VenueSymbols returns the venue symbols listed for a tag, omitting venues
// with no symbol. An unknown tag returns an empty map, never an error: the
// orchestrator treats fewer than two venues as "skip this tag".
func (r *Registry) VenueSymbols(tag string) map[domain.Exchange]string {
	out := make(map[domain.Exchange]string)
	for _, e := range r.entries {
		if e.Tag != tag {
			continue
		}
		for _, exchange := range domain.Exchanges {
			if sym := e.symbolFor(exchange); sym != nil && *sym != "" {
				out[exchange] = string(*sym)
			}
		}
		break
	}
	return out
}

// Tags returns all canonical tags in file order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		tags = append(tags, e.Tag)
	}
	return tags
}

// Len returns the number of registry entries.
func (r *Registry) Len() int { return len(r.entries) }
