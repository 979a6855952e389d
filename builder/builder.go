package builder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/iptv-italy/iptv-italy/circuitbreaker"
	"github.com/iptv-italy/iptv-italy/logging"
	"github.com/iptv-italy/iptv-italy/m3u"
	"github.com/iptv-italy/iptv-italy/metrics"
	"github.com/iptv-italy/iptv-italy/registry"
	"github.com/iptv-italy/iptv-italy/resolver"
)

// Policy controls how a single channel's resolution failure affects the build
type Policy int

const (
	// PolicySkip logs the failed channel and continues with the rest
	PolicySkip Policy = iota
	// PolicyAbort cancels outstanding resolutions and fails the whole build
	PolicyAbort
)

// ParsePolicy converts a policy name to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return 0, fmt.Errorf("unknown failure policy %q", s)
	}
}

// ChannelError marks one channel as unavailable, carrying the cause
type ChannelError struct {
	Spec registry.ChannelSpec
	Err  error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %q unavailable: %v", e.Spec.Name, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// Result reports the outcome of one channel's resolution
type Result struct {
	Spec    registry.ChannelSpec
	Channel *m3u.Channel
	Err     error
}

// Options configures a Builder
type Options struct {
	Policy          Policy
	Concurrency     int64
	LogosURL        string
	UserAgent       string
	NumberOverrides map[string]int // per-call channel numbers, keyed by display name
	Logger          *logging.Logger
}

// Builder assembles a playlist from the channel registry. Channel
// resolutions are independent, so they run concurrently under a bounded
// semaphore and are reassembled in registry order before numbering and
// rendering.
type Builder struct {
	reg    *registry.Registry
	client *resolver.Client
	eps    resolver.Endpoints
	opts   Options

	mu       sync.Mutex
	breakers map[registry.Provider]*circuitbreaker.Breaker
}

// New creates a Builder over an immutable registry snapshot
func New(reg *registry.Registry, client *resolver.Client, eps resolver.Endpoints, opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(logging.INFO, "[build]")
	}
	return &Builder{
		reg:      reg,
		client:   client,
		eps:      eps,
		opts:     opts,
		breakers: make(map[registry.Provider]*circuitbreaker.Breaker),
	}
}

// Build resolves every registry entry and assembles the playlist.
// Under PolicySkip the returned results name each failure and the encoder
// contains the channels that resolved; under PolicyAbort the first failure
// (in registry order) is returned as the error.
func (b *Builder) Build(ctx context.Context) (*m3u.Encoder, []Result, error) {
	specs := b.reg.All()
	results := make([]Result, len(specs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(b.opts.Concurrency)
	var wg sync.WaitGroup

	for i, spec := range specs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Build already cancelled; mark the remaining entries
			results[i] = Result{Spec: spec, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, spec registry.ChannelSpec) {
			defer wg.Done()
			defer sem.Release(1)

			start := time.Now()
			url, err := b.resolveOne(ctx, spec)
			results[i] = Result{Spec: spec, Err: err}

			if err != nil {
				metrics.RecordResolution(spec.Provider.String(), "failure")
				b.opts.Logger.LogChannelFailed(spec.Provider.String(), spec.Name, err)
				if b.opts.Policy == PolicyAbort {
					cancel()
				}
				return
			}

			results[i].Channel = b.newChannel(spec, url)
			metrics.RecordResolution(spec.Provider.String(), "success")
			b.opts.Logger.LogChannelResolved(spec.Provider.String(), spec.Name, time.Since(start))
		}(i, spec)
	}

	wg.Wait()

	enc := m3u.NewEncoder()
	autoNumbered := 0

	for i := range results {
		res := &results[i]

		if res.Err != nil {
			res.Err = &ChannelError{Spec: res.Spec, Err: res.Err}
			if b.opts.Policy == PolicyAbort {
				return nil, results, res.Err
			}
			b.opts.Logger.LogChannelSkipped(res.Spec.Provider.String(), res.Spec.Name)
			continue
		}

		b.assignNumber(res.Channel, res.Spec, &autoNumbered)
		enc.Add(res.Channel)
	}

	return enc, results, nil
}

// resolveOne resolves a single spec through its provider strategy, guarded
// by the provider's circuit breaker
func (b *Builder) resolveOne(ctx context.Context, spec registry.ChannelSpec) (string, error) {
	res, err := resolver.ForProvider(spec, b.client, b.eps)
	if err != nil {
		return "", err
	}

	br := b.breaker(spec.Provider)

	var url string
	err = br.Execute(func() error {
		var resolveErr error
		url, resolveErr = res.Resolve(ctx, spec.ID)
		return resolveErr
	})
	metrics.SetCircuitBreakerState(spec.Provider.String(), br.State().String())
	if err != nil {
		return "", err
	}

	return url, nil
}

// newChannel constructs the entity for a resolved spec. The number is
// assigned later, once results are back in registry order.
func (b *Builder) newChannel(spec registry.ChannelSpec, url string) *m3u.Channel {
	ch := &m3u.Channel{
		Name: spec.Name,
		ID:   spec.ID,
		URI:  url,
	}

	if b.opts.LogosURL != "" {
		ch.Logo = fmt.Sprintf("%s/%s.png", b.opts.LogosURL, ch.TVGID())
	}

	// The state broadcaster's stream servers reject default player user
	// agents, so those records carry a browser user-agent directive.
	if spec.Provider == registry.Rai && b.opts.UserAgent != "" {
		ch.UserAgent = b.opts.UserAgent
	}

	return ch
}

// assignNumber applies the numbering policy: explicit per-call override,
// then the registry default, then a positional fallback counting only
// previously fallback-numbered channels. First writer wins; numbers are
// never recomputed after insertion.
func (b *Builder) assignNumber(ch *m3u.Channel, spec registry.ChannelSpec, autoNumbered *int) {
	if n, ok := b.opts.NumberOverrides[spec.Name]; ok && n > 0 {
		ch.Number = n
		return
	}
	if spec.Number > 0 {
		ch.Number = spec.Number
		return
	}
	*autoNumbered++
	ch.Number = *autoNumbered
}

// breaker returns the circuit breaker for a provider, creating it on first use
func (b *Builder) breaker(p registry.Provider) *circuitbreaker.Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	br, ok := b.breakers[p]
	if !ok {
		provider := p.String()
		br = circuitbreaker.New(circuitbreaker.Config{
			Logger:   b.opts.Logger,
			Provider: provider,
			OnTrip:   func() { metrics.RecordCircuitBreakerTrip(provider) },
		})
		b.breakers[p] = br
	}
	return br
}
