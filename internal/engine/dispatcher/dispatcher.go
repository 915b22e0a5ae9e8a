// Package dispatcher routes inbound push envelopes to store updates and
// REST re-fetch triggers. One bad payload never stops the stream: decode
// failures are logged, counted, and skipped.
package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trailwatch-io/trailwatch/internal/engine/gateway"
	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
	"github.com/trailwatch-io/trailwatch/internal/engine/store"
	"github.com/trailwatch-io/trailwatch/internal/engine/wire"
	"github.com/trailwatch-io/trailwatch/internal/pkg/metrics"
	"github.com/trailwatch-io/trailwatch/pkg/log"
)

// Known envelope type tags.
const (
	TagTrailer      = "trailer"
	TagTrailerEvent = "trailer_event"
	TagSensor       = "trailer_sensor"
	TagMedia        = "trailer_media"
)

// Dispatcher applies push payloads in arrival order. Re-fetches triggered
// by a payload run on their own goroutines so a slow backend never blocks
// the envelope stream.
type Dispatcher struct {
	store  *store.Store
	gw     gateway.Gateway
	logger log.Logger
}

func New(st *store.Store, gw gateway.Gateway, logger log.Logger) *Dispatcher {
	return &Dispatcher{store: st, gw: gw, logger: logger.WithName("dispatcher")}
}

// Run drains frames until the channel closes or the context ends. The
// channel's FIFO order is the application order.
func (d *Dispatcher) Run(ctx context.Context, frames <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-frames:
			if !ok {
				return
			}
			d.Dispatch(ctx, raw)
		}
	}
}

// Dispatch decodes one envelope and routes its payloads by type tag.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) {
	tag, payloads, err := wire.DecodeEnvelope(raw)
	if err != nil {
		metrics.DecodeFailuresTotal.WithLabelValues("envelope").Inc()
		d.logger.Warn("dropping undecodable envelope", "error", err)
		return
	}
	metrics.EnvelopesTotal.WithLabelValues(tag).Inc()

	switch tag {
	case TagTrailer:
		d.applyTrailers(ctx, payloads)
	case TagTrailerEvent:
		d.applyEvents(ctx, payloads)
	case TagSensor:
		d.applySensors(ctx, payloads)
	case TagMedia:
		d.applyMedia(payloads)
	default:
		d.applyUnknown(ctx, tag, payloads)
	}
}

// applyTrailers upserts trailer deltas and re-fetches events for every
// trailer touched. Position and permissions are stripped first: only REST
// snapshots are authoritative for those fields.
func (d *Dispatcher) applyTrailers(ctx context.Context, payloads []json.RawMessage) {
	now := time.Now()
	deltas := make([]*model.TrailerDelta, 0, len(payloads))
	for _, p := range payloads {
		delta, err := wire.DecodeTrailer(p, now)
		if err != nil {
			metrics.DecodeFailuresTotal.WithLabelValues(TagTrailer).Inc()
			d.logger.Warn("skipping malformed trailer payload", "error", err)
			continue
		}
		delta.StripVolatile()
		deltas = append(deltas, delta)
	}
	if len(deltas) == 0 {
		return
	}
	d.store.UpsertTrailers(deltas)
	for _, delta := range deltas {
		go d.refetchEvents(ctx, delta.ID)
	}
}

// applyEvents records each event, then refreshes the active trailer's full
// event list because push payloads may lack interaction history.
func (d *Dispatcher) applyEvents(ctx context.Context, payloads []json.RawMessage) {
	recorded := 0
	for _, p := range payloads {
		ev, err := wire.DecodeEvent(p)
		if err != nil {
			metrics.DecodeFailuresTotal.WithLabelValues(TagTrailerEvent).Inc()
			d.logger.Warn("skipping malformed event payload", "error", err)
			continue
		}
		d.store.RecordEvent(ev)
		recorded++
	}
	if recorded == 0 {
		return
	}
	if active := d.store.ActiveTrailer(); active != "" {
		go d.refetchEvents(ctx, active)
	}
}

func (d *Dispatcher) applySensors(ctx context.Context, payloads []json.RawMessage) {
	for _, p := range payloads {
		ref, err := decodeRef(p)
		if err != nil || ref.trailerID() == "" {
			metrics.DecodeFailuresTotal.WithLabelValues(TagSensor).Inc()
			d.logger.Warn("skipping sensor payload without trailer id", "error", err)
			continue
		}
		go d.refetchSensors(ctx, ref.trailerID())
	}
}

// applyMedia stores completed assets. In-flight assets are ignored; the
// media workflow polls the listing endpoint for those.
func (d *Dispatcher) applyMedia(payloads []json.RawMessage) {
	for _, p := range payloads {
		asset, err := wire.DecodeMedia(p)
		if err != nil {
			metrics.DecodeFailuresTotal.WithLabelValues(TagMedia).Inc()
			d.logger.Warn("skipping malformed media payload", "error", err)
			continue
		}
		if asset.IsLoading {
			continue
		}
		d.store.UpsertMedia(asset)
	}
}

// applyUnknown is the coarse fallback for resource types not otherwise
// modeled: if any payload carries an alarm status, re-fetch events and
// routes for that trailer plus the full trailer list, once each.
func (d *Dispatcher) applyUnknown(ctx context.Context, tag string, payloads []json.RawMessage) {
	d.logger.Debug("envelope with unmodeled type", "type", tag)
	for _, p := range payloads {
		ref, err := decodeRef(p)
		if err != nil {
			metrics.DecodeFailuresTotal.WithLabelValues(tag).Inc()
			d.logger.Warn("skipping unreadable payload", "type", tag, "error", err)
			continue
		}
		if ref.status() != model.StatusAlarm {
			continue
		}
		id := ref.trailerID()
		go d.refetchEvents(ctx, id)
		go d.refetchRoutes(ctx, id)
		go d.refetchTrailers(ctx)
		return
	}
}

func (d *Dispatcher) refetchEvents(ctx context.Context, id model.TrailerID) {
	if id == "" {
		return
	}
	metrics.RefetchesTotal.WithLabelValues("events").Inc()
	w := d.store.Window()
	events, err := d.gw.FetchEvents(ctx, id, gateway.EventQuery{
		From:  w.From,
		To:    w.To,
		Kinds: d.store.VisibleKinds(),
	})
	if err != nil {
		d.store.SetError(store.SliceEvents, err)
		d.logger.Error(err, "event re-fetch failed", "trailer", id)
		return
	}
	d.store.SetError(store.SliceEvents, nil)
	d.store.ReplaceEventsForTrailer(id, events)
}

func (d *Dispatcher) refetchRoutes(ctx context.Context, id model.TrailerID) {
	if id == "" {
		return
	}
	metrics.RefetchesTotal.WithLabelValues("routes").Inc()
	w := d.store.Window()
	if _, err := d.gw.FetchRoutes(ctx, id, gateway.RangeQuery{From: w.From, To: w.To}); err != nil {
		d.logger.Error(err, "route re-fetch failed", "trailer", id)
	}
}

func (d *Dispatcher) refetchSensors(ctx context.Context, id model.TrailerID) {
	metrics.RefetchesTotal.WithLabelValues("sensors").Inc()
	if err := d.gw.FetchSensors(ctx, id); err != nil {
		d.logger.Error(err, "sensor re-fetch failed", "trailer", id)
	}
}

func (d *Dispatcher) refetchTrailers(ctx context.Context) {
	metrics.RefetchesTotal.WithLabelValues("trailers").Inc()
	deltas, err := d.gw.FetchTrailers(ctx)
	if err != nil {
		d.store.SetError(store.SliceTrailers, err)
		d.logger.Error(err, "trailer re-fetch failed")
		return
	}
	d.store.SetError(store.SliceTrailers, nil)
	d.store.UpsertTrailers(deltas)
}

// payloadRef is the minimal probe shared by sensor and fallback payloads.
type payloadRef struct {
	TrailerID string `json:"trailer_id"`
	Trailer   *struct {
		ID string `json:"id"`
	} `json:"trailer"`
	Kind   any `json:"kind"`
	Status any `json:"status"`
}

func (r *payloadRef) status() model.TrailerStatus {
	if r.Kind != nil {
		return state.StatusFromWire(r.Kind)
	}
	return state.StatusFromWire(r.Status)
}

func (r *payloadRef) trailerID() model.TrailerID {
	if r.TrailerID != "" {
		return model.TrailerID(r.TrailerID)
	}
	if r.Trailer != nil {
		return model.TrailerID(r.Trailer.ID)
	}
	return ""
}

func decodeRef(raw json.RawMessage) (*payloadRef, error) {
	var ref payloadRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}
