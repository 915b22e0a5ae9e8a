// Package gateway is the typed REST client of the sync engine. The engine
// treats it as an external collaborator: every method is one awaitable
// round-trip returning a normalized payload or an error, nothing else.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
	"github.com/trailwatch-io/trailwatch/internal/engine/wire"
	"github.com/trailwatch-io/trailwatch/internal/pkg/metrics"
	"github.com/trailwatch-io/trailwatch/pkg/options"
)

// EventQuery filters an events fetch.
type EventQuery struct {
	From  time.Time
	To    time.Time
	Kinds []model.TrailerStatus
}

// RangeQuery filters a routes or media listing by date range.
type RangeQuery struct {
	From time.Time
	To   time.Time
}

// MediaRequest asks the backend to produce a new asset.
type MediaRequest struct {
	Camera model.CameraID
	Time   time.Time
	Kind   model.MediaKind
}

// IdentityProvider supplies the current session credentials for outgoing
// requests.
type IdentityProvider func() model.SessionIdentity

// Gateway is the REST surface the engine consumes. Extracted as an
// interface so workflows can be exercised against fakes.
type Gateway interface {
	FetchTrailers(ctx context.Context) ([]*model.TrailerDelta, error)
	FetchEvents(ctx context.Context, id model.TrailerID, q EventQuery) ([]model.TrailerEvent, error)
	FetchRoutes(ctx context.Context, id model.TrailerID, q RangeQuery) ([]model.Position, error)
	FetchSensors(ctx context.Context, id model.TrailerID) error
	FetchMedia(ctx context.Context, id model.TrailerID, q RangeQuery) ([]model.MediaAsset, error)
	RequestMedia(ctx context.Context, id model.TrailerID, req MediaRequest) (model.MediaAsset, error)
	SetTrailerState(ctx context.Context, id model.TrailerID, status model.TrailerStatus) (*model.TrailerDelta, error)
	ReadTrailerState(ctx context.Context, id model.TrailerID) error
	ResolveAlarm(ctx context.Context, id model.TrailerEventID) (model.TrailerEvent, error)
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// Client implements Gateway over HTTP.
type Client struct {
	base     string
	http     *http.Client
	identity IdentityProvider
}

var _ Gateway = (*Client)(nil)

// NewClient builds a REST client from options. identity is consulted per
// request so credential changes take effect without rebuilding the client.
func NewClient(opts *options.RestOptions, identity IdentityProvider) *Client {
	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		http:     &http.Client{Timeout: opts.Timeout},
		identity: identity,
	}
}

func (c *Client) FetchTrailers(ctx context.Context) ([]*model.TrailerDelta, error) {
	var raws []wire.RawTrailer
	if err := c.get(ctx, "fetch_trailers", "/trailers", nil, &raws); err != nil {
		return nil, fmt.Errorf("fetch trailers: %w", err)
	}
	now := time.Now()
	deltas := make([]*model.TrailerDelta, 0, len(raws))
	for i := range raws {
		deltas = append(deltas, wire.NormalizeTrailer(&raws[i], now))
	}
	return deltas, nil
}

func (c *Client) FetchEvents(ctx context.Context, id model.TrailerID, q EventQuery) ([]model.TrailerEvent, error) {
	params := url.Values{}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format(time.RFC3339))
	}
	for _, kind := range q.Kinds {
		params.Add("kinds[]", state.StatusToWire(kind))
	}

	var raws []wire.RawEvent
	if err := c.get(ctx, "fetch_events", "/trailers/"+url.PathEscape(string(id))+"/events", params, &raws); err != nil {
		return nil, fmt.Errorf("fetch events for %s: %w", id, err)
	}
	events := make([]model.TrailerEvent, 0, len(raws))
	for i := range raws {
		events = append(events, wire.NormalizeEvent(&raws[i]))
	}
	return events, nil
}

func (c *Client) FetchRoutes(ctx context.Context, id model.TrailerID, q RangeQuery) ([]model.Position, error) {
	params := url.Values{}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format(time.RFC3339))
	}

	var raws []wire.RawRoutePoint
	if err := c.get(ctx, "fetch_routes", "/trailers/"+url.PathEscape(string(id))+"/routes", params, &raws); err != nil {
		return nil, fmt.Errorf("fetch routes for %s: %w", id, err)
	}
	return wire.NormalizeRoute(raws), nil
}

func (c *Client) FetchSensors(ctx context.Context, id model.TrailerID) error {
	// Sensor readings are consumed elsewhere; the engine only needs the
	// fetch to succeed so downstream caches are warm.
	var ignored json.RawMessage
	if err := c.get(ctx, "fetch_sensors", "/trailers/"+url.PathEscape(string(id))+"/sensors", nil, &ignored); err != nil {
		return fmt.Errorf("fetch sensors for %s: %w", id, err)
	}
	return nil
}

func (c *Client) FetchMedia(ctx context.Context, id model.TrailerID, q RangeQuery) ([]model.MediaAsset, error) {
	params := url.Values{}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format(time.RFC3339))
	}

	var raws []wire.RawMedia
	if err := c.get(ctx, "fetch_media", "/trailers/"+url.PathEscape(string(id))+"/media", params, &raws); err != nil {
		return nil, fmt.Errorf("fetch media for %s: %w", id, err)
	}
	assets := make([]model.MediaAsset, 0, len(raws))
	for i := range raws {
		assets = append(assets, wire.NormalizeMedia(&raws[i]))
	}
	return assets, nil
}

func (c *Client) RequestMedia(ctx context.Context, id model.TrailerID, req MediaRequest) (model.MediaAsset, error) {
	body := map[string]any{
		"camera": state.CameraToWire(req.Camera),
		"time":   req.Time.Format(time.RFC3339),
		"type":   string(req.Kind),
	}
	var raw wire.RawMedia
	if err := c.post(ctx, "request_media", "/trailers/"+url.PathEscape(string(id))+"/media", body, &raw); err != nil {
		return model.MediaAsset{}, fmt.Errorf("request %s for %s: %w", req.Kind, id, err)
	}
	asset := wire.NormalizeMedia(&raw)
	// The backend occasionally echoes stale owner/camera fields on the
	// request response; trust what we asked for.
	asset.TrailerID = id
	asset.Camera = req.Camera
	asset.Kind = req.Kind
	return asset, nil
}

func (c *Client) SetTrailerState(ctx context.Context, id model.TrailerID, status model.TrailerStatus) (*model.TrailerDelta, error) {
	body := map[string]any{"status": state.StatusToWire(status)}
	var raw wire.RawTrailer
	if err := c.put(ctx, "set_trailer_state", "/trailers/"+url.PathEscape(string(id))+"/state", body, &raw); err != nil {
		return nil, fmt.Errorf("set state of %s: %w", id, err)
	}
	return wire.NormalizeTrailer(&raw, time.Now()), nil
}

func (c *Client) ReadTrailerState(ctx context.Context, id model.TrailerID) error {
	if err := c.post(ctx, "read_trailer_state", "/trailers/"+url.PathEscape(string(id))+"/read_state", nil, nil); err != nil {
		return fmt.Errorf("read state of %s: %w", id, err)
	}
	return nil
}

func (c *Client) ResolveAlarm(ctx context.Context, id model.TrailerEventID) (model.TrailerEvent, error) {
	var raw wire.RawEvent
	if err := c.put(ctx, "resolve_alarm", "/trailer_events/"+url.PathEscape(string(id))+"/resolve", nil, &raw); err != nil {
		return model.TrailerEvent{}, fmt.Errorf("resolve alarm %s: %w", id, err)
	}
	return wire.NormalizeEvent(&raw), nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body any, out any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, op, path string, body any, out any) error {
	return c.do(ctx, op, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body, out any) error {
	timer := prometheus.NewTimer(metrics.GatewayLatency.WithLabelValues(op))
	defer timer.ObserveDuration()

	target := c.base + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := c.identity(); id.Complete() {
		req.Header.Set("access-token", id.Token)
		req.Header.Set("client", id.Client)
		req.Header.Set("uid", id.UID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: string(snippet)}
	}
	if out == nil {
		return nil
	}

	var wrapped wire.Envelope
	decoded, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(decoded, &wrapped); err == nil && len(wrapped.Data) > 0 {
		return json.Unmarshal(wrapped.Data, out)
	}
	return json.Unmarshal(decoded, out)
}
