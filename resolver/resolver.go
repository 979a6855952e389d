package resolver

import (
	"context"
	"fmt"

	"github.com/iptv-italy/iptv-italy/registry"
)

// Resolver turns a provider-specific channel id into a playable stream URL.
// Resolutions are pure functions of (provider, id): implementations hold no
// mutable state and are safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

// Endpoints carries the provider hosts a resolver set is built against
type Endpoints struct {
	RaiPlayURL     string
	MediasetCDN    string
	RelinkerURL    string
	LocalStreamURL string
	ProxyURL       string
}

// ForProvider selects the resolution strategy for a registry entry.
// The switch is exhaustive over the provider enum; an unhandled provider is
// a programming error and is reported, not resolved.
func ForProvider(spec registry.ChannelSpec, client *Client, eps Endpoints) (Resolver, error) {
	switch spec.Provider {
	case registry.Rai:
		return &RaiPlay{Client: client, BaseURL: eps.RaiPlayURL}, nil
	case registry.Mediaset:
		return &MediasetCDN{Host: eps.MediasetCDN}, nil
	case registry.TGR:
		return &Relinker{BaseURL: eps.RelinkerURL}, nil
	case registry.Paramount, registry.Sky:
		// Two-phase resolution: the playlist points at the local proxy and
		// the real lookup happens at playback time.
		return &ProxyDelegated{BaseURL: eps.ProxyURL}, nil
	case registry.Local:
		if eps.LocalStreamURL == "" {
			return nil, fmt.Errorf("no local stream URL configured")
		}
		return Static(eps.LocalStreamURL), nil
	case registry.Fixed:
		if spec.URL == "" {
			return nil, fmt.Errorf("fixed channel %q has no url", spec.Name)
		}
		return Static(spec.URL), nil
	default:
		return nil, fmt.Errorf("no resolver for provider %v", spec.Provider)
	}
}
