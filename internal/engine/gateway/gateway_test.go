package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/pkg/metrics"
	"github.com/trailwatch-io/trailwatch/pkg/options"
)

func newTestClient(t *testing.T, handler http.Handler, identity model.SessionIdentity) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		&options.RestOptions{BaseURL: srv.URL + "/", Timeout: 2 * time.Second},
		func() model.SessionIdentity { return identity },
	)
}

func TestRequestsCarryCredentialHeaders(t *testing.T) {
	var gotToken, gotClient, gotUID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("access-token")
		gotClient = r.Header.Get("client")
		gotUID = r.Header.Get("uid")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	c := newTestClient(t, handler, model.SessionIdentity{Token: "tok", Client: "cli", UID: "u@x"})
	if _, err := c.FetchTrailers(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotToken != "tok" || gotClient != "cli" || gotUID != "u@x" {
		t.Errorf("headers = %q/%q/%q", gotToken, gotClient, gotUID)
	}
}

func TestAnonymousRequestsOmitCredentials(t *testing.T) {
	var sawToken bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawToken = r.Header.Get("access-token") != ""
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	c := newTestClient(t, handler, model.SessionIdentity{})
	if _, err := c.FetchTrailers(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sawToken {
		t.Error("incomplete identity must not send credential headers")
	}
}

func TestFetchEventsQueryParameters(t *testing.T) {
	var gotQuery url.Values
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	c := newTestClient(t, handler, model.SessionIdentity{})
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.FetchEvents(context.Background(), "t1", EventQuery{
		From:  from,
		To:    from.AddDate(0, 0, 7),
		Kinds: []model.TrailerStatus{model.StatusAlarm, model.StatusWarning},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := gotQuery["kinds[]"]; len(got) != 2 || got[0] != "alarm" || got[1] != "warning" {
		t.Errorf("kinds[] = %v", got)
	}
	if gotQuery.Get("from") != "2026-03-01T00:00:00Z" {
		t.Errorf("from = %q", gotQuery.Get("from"))
	}
}

func TestRequestsRecordLatency(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	c := newTestClient(t, handler, model.SessionIdentity{})

	// No other test fetches routes, so the first call adds a new series.
	before := testutil.CollectAndCount(metrics.GatewayLatency)
	if _, err := c.FetchRoutes(context.Background(), "t1", RangeQuery{}); err != nil {
		t.Fatal(err)
	}
	after := testutil.CollectAndCount(metrics.GatewayLatency)
	if after != before+1 {
		t.Errorf("latency series count went %d -> %d, want a fetch_routes observation", before, after)
	}
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such trailer", http.StatusNotFound)
	})

	c := newTestClient(t, handler, model.SessionIdentity{})
	err := c.ReadTrailerState(context.Background(), "ghost")
	if err == nil {
		t.Fatal("want error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("status = %d", apiErr.Status)
	}
}

func TestEnvelopeAndBareResponsesBothDecode(t *testing.T) {
	trailer := map[string]any{"id": "t1", "registration_number": "WX-101", "status": "armed"}

	wrapped := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{trailer}})
	})
	c := newTestClient(t, wrapped, model.SessionIdentity{})
	deltas, err := c.FetchTrailers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 1 || deltas[0].ID != "t1" {
		t.Fatalf("wrapped response: %+v", deltas)
	}

	bare := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{trailer})
	})
	c = newTestClient(t, bare, model.SessionIdentity{})
	deltas, err = c.FetchTrailers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 1 || *deltas[0].Status != model.StatusArmed {
		t.Fatalf("bare response: %+v", deltas)
	}
}

func TestRequestMediaTrustsRequestedKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The backend echoes a stale camera on the request response.
		_, _ = w.Write([]byte(`{"data":{"id":"m1","camera":"interior","kind":"photo","status":"processing"}}`))
	})

	c := newTestClient(t, handler, model.SessionIdentity{})
	asset, err := c.RequestMedia(context.Background(), "t1", MediaRequest{
		Camera: model.CameraLeftTop,
		Time:   time.Now(),
		Kind:   model.MediaVideo,
	})
	if err != nil {
		t.Fatal(err)
	}
	if asset.Camera != model.CameraLeftTop || asset.Kind != model.MediaVideo || asset.TrailerID != "t1" {
		t.Errorf("asset key not normalized to the request: %+v", asset)
	}
}
