package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies the upstream organization a channel belongs to.
// Each provider maps to exactly one resolution strategy.
type Provider int

const (
	// Rai is the state broadcaster, resolved through the RaiPlay JSON API
	Rai Provider = iota
	// Mediaset is resolved by deterministic CDN URL templating
	Mediaset
	// Paramount is proxy-delegated; its master manifest needs rewriting
	Paramount
	// TGR is the regional news service, resolved through the relinker endpoint
	TGR
	// Sky is proxy-delegated; its stream URLs are short-lived
	Sky
	// Local is a single fixed live stream for the whole provider
	Local
	// Fixed carries its stream URL directly in the registry entry
	Fixed

	providerCount
)

func (p Provider) String() string {
	switch p {
	case Rai:
		return "Rai"
	case Mediaset:
		return "Mediaset"
	case Paramount:
		return "Paramount"
	case TGR:
		return "TGR"
	case Sky:
		return "Sky"
	case Local:
		return "Local"
	case Fixed:
		return "Fixed"
	default:
		return "UNKNOWN"
	}
}

// ParseProvider converts a registry file group name to a Provider
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(s) {
	case "rai":
		return Rai, nil
	case "mediaset":
		return Mediaset, nil
	case "paramount":
		return Paramount, nil
	case "tgr":
		return TGR, nil
	case "sky":
		return Sky, nil
	case "local":
		return Local, nil
	case "fixed":
		return Fixed, nil
	default:
		return 0, fmt.Errorf("unknown provider %q", s)
	}
}

// Providers returns all providers in their canonical order
func Providers() []Provider {
	ps := make([]Provider, 0, providerCount)
	for p := Provider(0); p < providerCount; p++ {
		ps = append(ps, p)
	}
	return ps
}

// ChannelSpec is one immutable registry entry
type ChannelSpec struct {
	Provider Provider
	Name     string
	ID       string
	Number   int
	URL      string
}

// ErrUnknownChannel is returned when a display name is not in the registry
var ErrUnknownChannel = errors.New("unknown channel")

// Registry is the static, authoritative list of known channels grouped by
// provider. It is loaded once at startup and safe for concurrent reads.
type Registry struct {
	groups [providerCount][]ChannelSpec
}

// channelEntry mirrors one registry file value
type channelEntry struct {
	ID     string `yaml:"id"`
	Number int    `yaml:"number"`
	URL    string `yaml:"url"`
}

// Parse decodes a registry file. The file maps provider names to channel
// groups; channel order within a group is preserved as file order, which is
// why decoding goes through yaml.Node instead of a plain map.
func Parse(data []byte) (*Registry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	reg := &Registry{}

	if root.Kind == 0 || len(root.Content) == 0 {
		// Empty file: every provider group resolves to an empty set
		return reg, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("registry root must be a mapping of providers")
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		keyNode, valNode := doc.Content[i], doc.Content[i+1]

		provider, err := ParseProvider(keyNode.Value)
		if err != nil {
			return nil, fmt.Errorf("registry line %d: %w", keyNode.Line, err)
		}

		if valNode.Kind == yaml.ScalarNode && valNode.Tag == "!!null" {
			continue
		}
		if valNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("registry line %d: provider %s must map display names to entries", valNode.Line, provider)
		}

		for j := 0; j+1 < len(valNode.Content); j += 2 {
			nameNode, entryNode := valNode.Content[j], valNode.Content[j+1]

			var entry channelEntry
			if err := entryNode.Decode(&entry); err != nil {
				return nil, fmt.Errorf("registry line %d: invalid entry for %q: %w", entryNode.Line, nameNode.Value, err)
			}
			if entry.Number < 0 {
				return nil, fmt.Errorf("registry line %d: channel %q: number must be positive", entryNode.Line, nameNode.Value)
			}
			if provider == Fixed && entry.URL == "" {
				return nil, fmt.Errorf("registry line %d: channel %q: fixed entries require a url", entryNode.Line, nameNode.Value)
			}

			reg.groups[provider] = append(reg.groups[provider], ChannelSpec{
				Provider: provider,
				Name:     nameNode.Value,
				ID:       entry.ID,
				Number:   entry.Number,
				URL:      entry.URL,
			})
		}
	}

	return reg, nil
}

// Load reads and parses the registry file at path
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return Parse(data)
}

// Channels returns the specs of one provider in registry order.
// A provider absent from the registry file yields an empty set, not an error.
func (r *Registry) Channels(p Provider) []ChannelSpec {
	if p < 0 || p >= providerCount {
		return nil
	}
	return r.groups[p]
}

// All returns every spec: providers in canonical order, channels in file
// order within each provider. This is the playlist rendering order.
func (r *Registry) All() []ChannelSpec {
	var all []ChannelSpec
	for p := Provider(0); p < providerCount; p++ {
		all = append(all, r.groups[p]...)
	}
	return all
}

// Len returns the total number of registry entries
func (r *Registry) Len() int {
	n := 0
	for p := Provider(0); p < providerCount; p++ {
		n += len(r.groups[p])
	}
	return n
}

// Lookup finds a channel by display name within a provider group
func (r *Registry) Lookup(p Provider, name string) (ChannelSpec, error) {
	for _, spec := range r.Channels(p) {
		if spec.Name == name {
			return spec, nil
		}
	}
	return ChannelSpec{}, fmt.Errorf("%w: %s/%s", ErrUnknownChannel, p, name)
}

// FindProxied scans the proxy-delegated provider groups for an entry whose
// provider id equals id. Sky entries take precedence over Paramount ones,
// matching the proxy's historical lookup order.
func (r *Registry) FindProxied(id string) (ChannelSpec, bool) {
	for _, p := range []Provider{Sky, Paramount} {
		for _, spec := range r.groups[p] {
			if spec.ID == id {
				return spec, true
			}
		}
	}
	return ChannelSpec{}, false
}
