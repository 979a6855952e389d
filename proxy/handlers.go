package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/iptv-italy/iptv-italy/logging"
	"github.com/iptv-italy/iptv-italy/metrics"
	"github.com/iptv-italy/iptv-italy/registry"
	"github.com/iptv-italy/iptv-italy/resolver"
)

// Handler kinds used as metric labels
const (
	kindRedirect = "redirect"
	kindRewrite  = "rewrite"
	kindNone     = "none"
)

// handler serves on-demand resolution for proxy-delegated channels.
// Each request is independent; the only shared state is the immutable
// registry, safe for unsynchronized concurrent reads.
type handler struct {
	reg          *registry.Registry
	client       *resolver.Client
	skyAPIURL    string
	paramountURL string
	logger       *logging.Logger
}

// handleResolve is the proxy entry point: GET /?id=<providerId>
func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		metrics.RecordProxyRequest(kindNone, http.StatusBadRequest)
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	spec, ok := h.reg.FindProxied(id)
	if !ok {
		metrics.RecordProxyRequest(kindNone, http.StatusNotFound)
		writeText(w, http.StatusNotFound, fmt.Sprintf("Could not find streaming id %s.", id))
		return
	}

	switch spec.Provider {
	case registry.Sky:
		h.redirectLivestream(w, r, spec)
	case registry.Paramount:
		h.rewriteManifest(w, r, spec)
	default:
		// FindProxied only returns proxy-delegated providers
		metrics.RecordProxyRequest(kindNone, http.StatusNotFound)
		writeText(w, http.StatusNotFound, fmt.Sprintf("Could not find streaming id %s.", id))
	}
}

// redirectLivestream performs the live satellite-aggregator lookup and
// answers with a redirect to the freshly resolved URL
func (h *handler) redirectLivestream(w http.ResponseWriter, r *http.Request, spec registry.ChannelSpec) {
	endpoint := fmt.Sprintf("%s/vdp/v1/getLivestream?id=%s&isMobile=false", h.skyAPIURL, url.QueryEscape(spec.ID))

	status, body, err := h.client.Get(r.Context(), endpoint)
	if err != nil {
		h.upstreamFailure(w, r, kindRedirect, spec, err)
		return
	}

	if status < 200 || status >= 300 {
		// Forward the upstream failure verbatim so the client keeps the
		// diagnostic information
		metrics.RecordProxyRequest(kindRedirect, status)
		w.WriteHeader(status)
		if _, err := w.Write(body); err != nil {
			log.Printf("Error forwarding upstream response: %v", err)
		}
		return
	}

	var payload struct {
		StreamingURL string `json:"streaming_url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.StreamingURL == "" {
		metrics.RecordProxyRequest(kindRedirect, http.StatusNotFound)
		writeText(w, http.StatusNotFound, `Could not find "streaming_url" in JSON.`)
		return
	}

	metrics.RecordProxyRequest(kindRedirect, http.StatusMovedPermanently)
	w.Header().Set("Location", payload.StreamingURL)
	w.WriteHeader(http.StatusMovedPermanently)
}

// rewriteManifest mirrors the provider's master playlist with its two
// known-broken leading variant lines removed
func (h *handler) rewriteManifest(w http.ResponseWriter, r *http.Request, spec registry.ChannelSpec) {
	target := spec.URL
	if target == "" {
		target = h.paramountURL
	}

	status, body, err := h.client.Get(r.Context(), target)
	if err != nil {
		h.upstreamFailure(w, r, kindRewrite, spec, err)
		return
	}

	if status < 200 || status >= 300 {
		metrics.RecordProxyRequest(kindRewrite, status)
		w.WriteHeader(status)
		if _, err := w.Write(body); err != nil {
			log.Printf("Error forwarding upstream response: %v", err)
		}
		return
	}

	lines := strings.Split(string(body), "\n")
	if len(lines) >= 3 {
		lines = append(lines[:1], lines[3:]...)
	}

	metrics.RecordProxyRequest(kindRewrite, http.StatusOK)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		log.Printf("Error writing rewritten manifest: %v", err)
	}
}

// upstreamFailure maps a transport-level upstream error to a response.
// Timeouts become 504 so a hung provider cannot be mistaken for a missing
// channel; a vanished client gets nothing.
func (h *handler) upstreamFailure(w http.ResponseWriter, r *http.Request, kind string, spec registry.ChannelSpec, err error) {
	if errors.Is(r.Context().Err(), context.Canceled) {
		// Client disconnected; the outbound call was cancelled with it
		h.logger.Debug("Client disconnected during upstream call", map[string]interface{}{
			"channel": spec.Name,
		})
		return
	}

	code := http.StatusBadGateway
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = http.StatusGatewayTimeout
	}

	h.logger.Error("Upstream call failed", map[string]interface{}{
		"channel": spec.Name,
		"kind":    kind,
		"error":   err.Error(),
	})
	metrics.RecordProxyRequest(kind, code)
	http.Error(w, http.StatusText(code), code)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
