package resolver

import (
	"context"
	"fmt"
	"net/url"
)

// MediasetCDN resolves private-broadcaster channels by deterministic URL
// templating against the live CDN; no network round-trip is needed.
type MediasetCDN struct {
	Host string
}

func (m *MediasetCDN) Resolve(_ context.Context, id string) (string, error) {
	return fmt.Sprintf("https://%s/Content/hls_h0_clr_vos/live/channel(%s)/index.m3u8", m.Host, id), nil
}

// Relinker resolves regional news channels through the relinker endpoint,
// which itself redirects to the current stream when dereferenced by the
// player. Only templating happens here.
type Relinker struct {
	BaseURL string
}

func (r *Relinker) Resolve(_ context.Context, id string) (string, error) {
	return fmt.Sprintf("%s?cont=%s", r.BaseURL, url.QueryEscape(id)), nil
}

// ProxyDelegated defers true resolution to the local redirect proxy: the
// playlist URL carries the channel id as a query parameter and the proxy
// performs the live lookup when a player dereferences it.
type ProxyDelegated struct {
	BaseURL string
}

func (p *ProxyDelegated) Resolve(_ context.Context, id string) (string, error) {
	return fmt.Sprintf("%s/?id=%s", p.BaseURL, url.QueryEscape(id)), nil
}

// Static is a constant stream URL; resolution is a no-op
type Static string

func (s Static) Resolve(_ context.Context, _ string) (string, error) {
	return string(s), nil
}
