package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iptv-italy/iptv-italy/config"
	"github.com/iptv-italy/iptv-italy/logging"
	"github.com/iptv-italy/iptv-italy/registry"
	"github.com/iptv-italy/iptv-italy/resolver"
)

const testRegistry = `
Sky:
  Sky TG24: {id: "1", number: 50}
Paramount:
  Paramount Channel: {id: paramount}
`

// newTestServer builds a proxy over the test registry with the Sky API and
// the Paramount manifest pointed at the given upstreams
func newTestServer(t *testing.T, skyURL, paramountURL string, timeout time.Duration) *Server {
	t.Helper()

	reg, err := registry.Parse([]byte(testRegistry))
	if err != nil {
		t.Fatalf("failed to parse test registry: %v", err)
	}

	cfg := config.Default()
	cfg.Providers.SkyAPIURL = skyURL
	cfg.Providers.ParamountManifestURL = paramountURL

	logger := logging.NewWithWriter(logging.ERROR, "[test]", io.Discard)
	return New(cfg, reg, resolver.NewClient(timeout, 100), logger)
}

func doGet(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestProxy_MissingID(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid", "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing id parameter") {
		t.Errorf("Expected 'Missing id parameter' error, got: %s", w.Body.String())
	}
}

func TestProxy_UnknownID(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid", "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/?id=UNKNOWN")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "UNKNOWN") {
		t.Errorf("Expected diagnostic naming the id, got: %s", w.Body.String())
	}
}

func TestProxy_SkyRedirect(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vdp/v1/getLivestream" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("id") != "1" || r.URL.Query().Get("isMobile") != "false" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if _, err := w.Write([]byte(`{"streaming_url": "http://x"}`)); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer upstream.Close()

	srv := newTestServer(t, upstream.URL, "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/?id=1")

	if w.Code != http.StatusMovedPermanently {
		t.Errorf("Expected status 301, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "http://x" {
		t.Errorf("Expected Location http://x, got %q", loc)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", w.Body.String())
	}
}

func TestProxy_SkyUpstreamFailureForwarded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		if _, err := w.Write([]byte("geo blocked")); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer upstream.Close()

	srv := newTestServer(t, upstream.URL, "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/?id=1")

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected forwarded status 403, got %d", w.Code)
	}
	if w.Body.String() != "geo blocked" {
		t.Errorf("Expected forwarded body, got %q", w.Body.String())
	}
}

func TestProxy_SkyMissingStreamingURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"something_else": true}`)); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer upstream.Close()

	srv := newTestServer(t, upstream.URL, "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/?id=1")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `Could not find "streaming_url" in JSON.`) {
		t.Errorf("Expected diagnostic body, got: %s", w.Body.String())
	}
}

func TestProxy_ManifestRewrite(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		manifest := "#EXTM3U\n#EXT-X-STREAM-INF:BROKEN\nhttp://broken/variant.m3u8\n#EXT-X-STREAM-INF:GOOD\nhttp://good/variant.m3u8\n"
		if _, err := w.Write([]byte(manifest)); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer upstream.Close()

	srv := newTestServer(t, "http://unused.invalid", upstream.URL, time.Second)

	w := doGet(t, srv, "/?id=paramount")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "BROKEN") || strings.Contains(body, "http://broken/variant.m3u8") {
		t.Errorf("Expected broken variant lines removed, got:\n%s", body)
	}
	if !strings.HasPrefix(body, "#EXTM3U\n") {
		t.Errorf("Expected manifest header preserved, got:\n%s", body)
	}
	if !strings.Contains(body, "http://good/variant.m3u8") {
		t.Errorf("Expected remaining variant preserved, got:\n%s", body)
	}
}

func TestProxy_ManifestUpstreamFailureForwarded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		if _, err := w.Write([]byte("origin down")); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer upstream.Close()

	srv := newTestServer(t, "http://unused.invalid", upstream.URL, time.Second)

	w := doGet(t, srv, "/?id=paramount")

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected forwarded status 502, got %d", w.Code)
	}
	if w.Body.String() != "origin down" {
		t.Errorf("Expected forwarded body, got %q", w.Body.String())
	}
}

func TestProxy_UpstreamTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer upstream.Close()

	srv := newTestServer(t, upstream.URL, "http://unused.invalid", 30*time.Millisecond)

	w := doGet(t, srv, "/?id=1")

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("Expected status 504, got %d", w.Code)
	}
}

func TestProxy_Health(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid", "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected OK body, got %q", w.Body.String())
	}
}

func TestProxy_RequestIDHeader(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid", "http://unused.invalid", time.Second)

	w := doGet(t, srv, "/health")

	if w.Header().Get("X-Request-Id") == "" {
		t.Error("Expected X-Request-Id header on every response")
	}
}
