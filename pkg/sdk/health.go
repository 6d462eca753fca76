package minicompass

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded"
	Checks map[string]string `json:"checks"` // component -> "ok"/"error"
}

// Healthy reports whether every check passed.
func (h HealthStatus) Healthy() bool { return h.Status == "ok" }

// Health fetches GET /health. A degraded service still returns its report,
// together with an error matching ErrUnavailable.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	status, data, err := c.send(ctx, http.MethodGet, c.path("health"), nil, nil)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	if status != http.StatusOK && status != http.StatusServiceUnavailable {
		return HealthStatus{}, decodeAPIError(status, data)
	}
	if err = decodeJSON(data, &hs); err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	if status == http.StatusServiceUnavailable {
		return hs, &APIError{StatusCode: status, Message: "service " + hs.Status}
	}
	return hs, nil
}

// Banner fetches GET /, useful as a liveness probe.
func (c *Client) Banner(ctx context.Context) (banner string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("banner", start, err) }()

	status, data, err := c.send(ctx, http.MethodGet, c.path(), nil, nil)
	if err != nil {
		return "", fmt.Errorf("banner: %w", err)
	}
	if status != http.StatusOK {
		return "", decodeAPIError(status, data)
	}
	return string(data), nil
}
