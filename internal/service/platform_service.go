package service

import (
	"context"
	"net/http"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rebloomsa/social-publisher/internal/models"
	"go.uber.org/ratelimit"
)

type PublishRequest struct {
	Text     string
	ImageURL string
}

type PublishResult struct {
	ID string
}

// PlatformAdapter publishes one payload to one provider. Failures are
// returned as *APIError when the provider classified them.
type PlatformAdapter interface {
	Platform() models.Platform
	RequiresImage() bool
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
}

// PlatformRegistry maps every supported platform to its adapter.
type PlatformRegistry map[models.Platform]PlatformAdapter

func NewPlatformRegistry(adapters ...PlatformAdapter) PlatformRegistry {
	r := make(PlatformRegistry, len(adapters))
	for _, a := range adapters {
		r[a.Platform()] = a
	}
	return r
}

// AdapterDeps carries what every adapter needs besides its credentials.
type AdapterDeps struct {
	DryRun     bool
	HTTPClient *http.Client
	Limiter    ratelimit.Limiter
}

func (d AdapterDeps) withDefaults() AdapterDeps {
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewUnlimited()
	}
	return d
}

func dryRunID(short string) string {
	id, err := gonanoid.New(12)
	if err != nil {
		id = strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "dry_run_" + short + "_" + id
}

func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
