// Package media implements the camera download workflow: request a photo,
// confirm the frame, then request the video under a bounded wait.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/trailwatch-io/trailwatch/internal/engine/gateway"
	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/store"
	"github.com/trailwatch-io/trailwatch/internal/pkg/metrics"
	fsmutil "github.com/trailwatch-io/trailwatch/internal/pkg/util/fsm"
	"github.com/trailwatch-io/trailwatch/pkg/log"
	"github.com/trailwatch-io/trailwatch/pkg/options"
)

// ErrNoPhoto rejects a video request before any backend call: video is only
// requested once a photo with a viewable frame exists for the same camera
// and time.
var ErrNoPhoto = errors.New("no viewable photo for this camera and time")

// ErrVideoUnavailable surfaces when the bounded wait expires with no asset.
var ErrVideoUnavailable = errors.New("video unavailable")

// Workflow states.
const (
	stateIdle        = "idle"
	stateRequesting  = "requesting"
	stateWaiting     = "waiting"
	stateReady       = "ready"
	stateUnavailable = "unavailable"
)

// Workflow events.
const (
	evRequest  = "request"
	evAwait    = "await"
	evComplete = "complete"
	evExpire   = "expire"
)

// download is one in-flight asset request.
type download struct {
	key     model.MediaKey
	at      time.Time
	started time.Time
	machine *fsm.FSM
	waitCtx context.Context
	cancel  context.CancelFunc
}

// Workflow drives media downloads. At most one download is in flight per
// asset key; a new command for the same key cancels the previous wait.
type Workflow struct {
	mu sync.Mutex

	store  *store.Store
	gw     gateway.Gateway
	opts   *options.MediaOptions
	logger log.Logger

	inflight map[model.MediaKey]*download
}

func NewWorkflow(st *store.Store, gw gateway.Gateway, opts *options.MediaOptions, logger log.Logger) *Workflow {
	return &Workflow{
		store:    st,
		gw:       gw,
		opts:     opts,
		logger:   logger.WithName("media"),
		inflight: make(map[model.MediaKey]*download),
	}
}

func (w *Workflow) newMachine() *fsm.FSM {
	return fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: evRequest, Src: []string{stateIdle}, Dst: stateRequesting},
			{Name: evAwait, Src: []string{stateRequesting}, Dst: stateWaiting},
			{Name: evComplete, Src: []string{stateRequesting, stateWaiting}, Dst: stateReady},
			{Name: evExpire, Src: []string{stateWaiting}, Dst: stateUnavailable},
		},
		fsm.Callbacks{
			"enter_" + stateRequesting: fsmutil.WrapEvent(w.onRequest),
		},
	)
}

// DownloadMedia is the user-facing command. For photos it is a no-op when
// the frame already exists. For videos it enforces the photo precondition
// and starts the bounded wait.
func (w *Workflow) DownloadMedia(ctx context.Context, trailer model.TrailerID, camera model.CameraID, at time.Time, kind model.MediaKind) error {
	key := model.MediaKey{Trailer: trailer, Camera: camera, Kind: kind}

	switch kind {
	case model.MediaPhoto:
		return w.downloadPhoto(ctx, key, at)
	case model.MediaVideo:
		return w.downloadVideo(ctx, key, at)
	default:
		return fmt.Errorf("unsupported media kind %q", kind)
	}
}

// InProgress reports whether a download is in flight for the key.
func (w *Workflow) InProgress(key model.MediaKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.inflight[key]
	return ok
}

// Cancel clears the in-progress flag for the key, if set. The in-flight
// REST call is left to complete and update the store harmlessly.
func (w *Workflow) Cancel(key model.MediaKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked(key)
}

// Shutdown cancels every outstanding wait.
func (w *Workflow) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key := range w.inflight {
		w.cancelLocked(key)
	}
}

func (w *Workflow) cancelLocked(key model.MediaKey) {
	if d, ok := w.inflight[key]; ok {
		d.cancel()
		delete(w.inflight, key)
	}
}

func (w *Workflow) downloadPhoto(ctx context.Context, key model.MediaKey, at time.Time) error {
	if _, ok := w.store.FindMedia(key, at); ok {
		return nil
	}

	d := w.begin(ctx, key, at)
	if d == nil {
		return nil
	}
	if err := d.machine.Event(ctx, evRequest, d); err != nil {
		w.Cancel(key)
		w.store.SetError(store.SliceMedia, err)
		return err
	}
	w.store.SetError(store.SliceMedia, nil)

	// The backend produces the frame asynchronously; one short-delay list
	// re-fetch picks it up, push updates cover the rest.
	go w.refetchSoon(d)
	return nil
}

func (w *Workflow) downloadVideo(ctx context.Context, key model.MediaKey, at time.Time) error {
	photoKey := model.MediaKey{Trailer: key.Trailer, Camera: key.Camera, Kind: model.MediaPhoto}
	photo, ok := w.store.FindMedia(photoKey, at)
	if !ok || photo.IsLoading || photo.SnapshotURL == "" {
		return ErrNoPhoto
	}

	d := w.begin(ctx, key, at)
	if d == nil {
		return nil
	}
	if err := d.machine.Event(ctx, evRequest, d); err != nil {
		w.Cancel(key)
		w.store.SetError(store.SliceMedia, err)
		return err
	}
	w.store.SetError(store.SliceMedia, nil)

	if err := d.machine.Event(ctx, evAwait, d); err != nil {
		return err
	}
	go w.awaitVideo(d)
	return nil
}

// begin registers a new download for the key, cancelling any previous one.
// Returns nil if the workflow context is already gone.
func (w *Workflow) begin(ctx context.Context, key model.MediaKey, at time.Time) *download {
	if ctx.Err() != nil {
		return nil
	}
	waitCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d := &download{key: key, at: at, started: time.Now(), waitCtx: waitCtx, cancel: cancel}
	d.machine = w.newMachine()

	w.mu.Lock()
	w.cancelLocked(key)
	w.inflight[key] = d
	w.mu.Unlock()
	return d
}

func (w *Workflow) onRequest(ctx context.Context, event *fsm.Event) error {
	d, err := fsmutil.Arg[*download](event, 0)
	if err != nil {
		return err
	}
	asset, err := w.gw.RequestMedia(ctx, d.key.Trailer, gateway.MediaRequest{
		Camera: d.key.Camera,
		Time:   d.at,
		Kind:   d.key.Kind,
	})
	if err != nil {
		return err
	}
	asset.IsLoading = true
	asset.EventDate = d.at
	w.store.UpsertMedia(asset)
	w.logger.Info("media requested", "trailer", d.key.Trailer, "camera", d.key.Camera, "kind", d.key.Kind)
	return nil
}

// awaitVideo runs the bounded wait. The deadline is monotonic from command
// issuance, so time spent in the request round-trip counts against it; a
// push completion before it fires means the asset exists and no failure
// surfaces.
func (w *Workflow) awaitVideo(d *download) {
	timer := time.NewTimer(w.opts.VideoTimeout - time.Since(d.started))
	defer timer.Stop()

	select {
	case <-d.waitCtx.Done():
		return
	case <-timer.C:
	}

	w.mu.Lock()
	current, stillInFlight := w.inflight[d.key]
	if !stillInFlight || current != d {
		w.mu.Unlock()
		return
	}
	delete(w.inflight, d.key)
	w.mu.Unlock()

	if asset, ok := w.store.FindMedia(d.key, d.at); ok && !asset.IsLoading {
		_ = d.machine.Event(context.Background(), evComplete, d)
		return
	}

	_ = d.machine.Event(context.Background(), evExpire, d)
	metrics.MediaTimeoutsTotal.Inc()
	w.store.SetError(store.SliceMedia, ErrVideoUnavailable)
	w.logger.Warn("video did not arrive before the deadline",
		"trailer", d.key.Trailer, "camera", d.key.Camera)
}

// refetchSoon waits the configured delay, then refreshes the trailer's
// media listing around the requested time. If the asset has landed, the
// download is complete and its in-progress flag clears.
func (w *Workflow) refetchSoon(d *download) {
	select {
	case <-d.waitCtx.Done():
		return
	case <-time.After(w.opts.RefetchDelay):
	}
	metrics.RefetchesTotal.WithLabelValues("media").Inc()

	ctx, cancel := context.WithTimeout(context.Background(), w.opts.VideoTimeout)
	defer cancel()

	assets, err := w.gw.FetchMedia(ctx, d.key.Trailer, gateway.RangeQuery{
		From: d.at.Add(-24 * time.Hour),
		To:   d.at.Add(24 * time.Hour),
	})
	if err != nil {
		w.store.SetError(store.SliceMedia, err)
		w.logger.Error(err, "media re-fetch failed", "trailer", d.key.Trailer)
		return
	}
	for _, asset := range assets {
		w.store.UpsertMedia(asset)
	}

	if asset, ok := w.store.FindMedia(d.key, d.at); ok && !asset.IsLoading {
		w.mu.Lock()
		if w.inflight[d.key] == d {
			delete(w.inflight, d.key)
		}
		w.mu.Unlock()
		_ = d.machine.Event(ctx, evComplete, d)
	}
}
