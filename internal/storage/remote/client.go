// Package remote provides a read-only ObjectStore client for a remote
// knowledge service, with circuit-breaker protection so a failing
// upstream cannot stall every webhook call.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/pkg/types"
)

// ErrCircuitOpen is returned when the circuit breaker is open and requests
// to the knowledge service are being rejected.
var ErrCircuitOpen = errors.New("knowledge service circuit breaker is open")

// Config holds remote client configuration.
type Config struct {
	// BaseURL is the base URL of the knowledge service (required).
	BaseURL string

	// Timeout is the per-request timeout (default: 5s).
	Timeout time.Duration

	// MaxFailures is the number of consecutive failures that trips the
	// circuit (default: 3).
	MaxFailures uint32

	// OpenTimeout is how long the circuit stays open before allowing a
	// probe request (default: 30s).
	OpenTimeout time.Duration
}

// Client implements storage.ObjectStore against a remote knowledge
// service exposing:
//
//	GET {base}/objects/{type}        -> JSON array of objects
//	GET {base}/objects/{type}/{id}   -> JSON object, 404 when absent
type Client struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a remote knowledge-service client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", storage.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "KnowledgeServiceClient",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("remote: %s circuit %s -> %s", name, from, to)
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}, nil
}

// GetObjects returns all objects of the given type in the order the
// service lists them.
func (c *Client) GetObjects(ctx context.Context, typeName string) ([]*types.KnowledgeObject, error) {
	if typeName == "" {
		return nil, fmt.Errorf("%w: type name is required", storage.ErrInvalidInput)
	}

	body, status, err := c.get(ctx, fmt.Sprintf("%s/objects/%s", c.baseURL, url.PathEscape(typeName)))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("remote: unexpected status %d listing objects of type %q", status, typeName)
	}

	var objs []*types.KnowledgeObject
	if err := json.Unmarshal(body, &objs); err != nil {
		return nil, fmt.Errorf("remote: failed to decode object list for type %q: %w", typeName, err)
	}
	return objs, nil
}

// GetObject returns the object with the given type and identifier. A 404
// from the service maps to storage.ErrNotFound.
func (c *Client) GetObject(ctx context.Context, typeName, identifier string) (*types.KnowledgeObject, error) {
	if typeName == "" || identifier == "" {
		return nil, fmt.Errorf("%w: type name and identifier are required", storage.ErrInvalidInput)
	}

	body, status, err := c.get(ctx, fmt.Sprintf("%s/objects/%s/%s",
		c.baseURL, url.PathEscape(typeName), url.PathEscape(identifier)))
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		obj := &types.KnowledgeObject{}
		if err := json.Unmarshal(body, obj); err != nil {
			return nil, fmt.Errorf("remote: failed to decode object %s:%s: %w", typeName, identifier, err)
		}
		return obj, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s:%s", storage.ErrNotFound, typeName, identifier)
	default:
		return nil, fmt.Errorf("remote: unexpected status %d fetching object %s:%s", status, typeName, identifier)
	}
}

// GetAttribute returns the named attribute of an object.
func (c *Client) GetAttribute(obj *types.KnowledgeObject, name string) (any, error) {
	return storage.Attribute(obj, name)
}

// Close releases client resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// getResult carries a response through the circuit breaker. A 404 is a
// valid answer from the service, so it must not count as a breaker
// failure; only transport errors and 5xx responses do.
type getResult struct {
	body   []byte
	status int
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		return getResult{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, 0, ErrCircuitOpen
		}
		return nil, 0, fmt.Errorf("remote: request failed: %w", err)
	}

	r := result.(getResult)
	return r.body, r.status, nil
}
