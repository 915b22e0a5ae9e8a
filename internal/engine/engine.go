// Package engine wires the store, REST gateway, push connection, dispatcher
// and media workflow into the command API the application consumes.
package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trailwatch-io/trailwatch/internal/engine/connection"
	"github.com/trailwatch-io/trailwatch/internal/engine/dispatcher"
	"github.com/trailwatch-io/trailwatch/internal/engine/gateway"
	"github.com/trailwatch-io/trailwatch/internal/engine/media"
	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
	"github.com/trailwatch-io/trailwatch/internal/engine/store"
	"github.com/trailwatch-io/trailwatch/pkg/log"
	"github.com/trailwatch-io/trailwatch/pkg/options"
)

// Config carries the per-concern options the engine is built from.
type Config struct {
	Rest  *options.RestOptions
	Push  *options.PushOptions
	Media *options.MediaOptions
}

// Engine is the fleet synchronization core. All entity state lives in the
// store for the lifetime of the process; nothing is persisted.
type Engine struct {
	store  *store.Store
	gw     gateway.Gateway
	conn   *connection.Manager
	disp   *dispatcher.Dispatcher
	media  *media.Workflow
	logger log.Logger

	readInterval time.Duration

	mu         sync.Mutex
	identity   model.SessionIdentity
	stopTicker context.CancelFunc
}

// New assembles an engine. The session starts anonymous; commands requiring
// credentials fail until SignIn provides them.
func New(cfg Config, logger log.Logger) *Engine {
	e := &Engine{
		store:        store.New(),
		logger:       logger.WithName("engine"),
		readInterval: cfg.Media.ReadStateInterval,
	}
	e.gw = gateway.NewClient(cfg.Rest, e.Identity)
	e.conn = connection.NewManager(cfg.Push, logger)
	e.disp = dispatcher.New(e.store, e.gw, logger)
	e.media = media.NewWorkflow(e.store, e.gw, cfg.Media, logger)
	return e
}

// Store exposes the entity collections for read access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Identity returns the current session credentials.
func (e *Engine) Identity() model.SessionIdentity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

// Run drives the dispatcher until the context ends, then tears everything
// down in dependency order: connection first so the frame stream closes,
// which lets the dispatcher drain and exit.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.disp.Run(context.WithoutCancel(ctx), e.conn.Frames())
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		e.SelectTrailer(ctx, "")
		e.media.Shutdown()
		e.conn.Close()
		return ctx.Err()
	})

	return g.Wait()
}

// SignIn installs the session identity, connects the push channel and
// loads the initial trailer snapshot.
func (e *Engine) SignIn(ctx context.Context, identity model.SessionIdentity) error {
	e.mu.Lock()
	e.identity = identity
	e.mu.Unlock()

	if err := e.conn.SyncSession(ctx, identity); err != nil {
		return err
	}
	return e.RefreshTrailers(ctx)
}

// SignOut clears the identity and tears down the subscription.
func (e *Engine) SignOut(ctx context.Context) error {
	e.mu.Lock()
	e.identity = model.SessionIdentity{}
	e.mu.Unlock()
	e.SelectTrailer(ctx, "")
	return e.conn.SyncSession(ctx, model.SessionIdentity{})
}

// RefreshTrailers replaces the trailer collection from a REST snapshot.
func (e *Engine) RefreshTrailers(ctx context.Context) error {
	deltas, err := e.gw.FetchTrailers(ctx)
	if err != nil {
		e.store.SetError(store.SliceTrailers, err)
		return err
	}
	e.store.SetError(store.SliceTrailers, nil)
	e.store.UpsertTrailers(deltas)
	return nil
}

// RefreshEvents replaces one trailer's event log using the current window
// and filter set.
func (e *Engine) RefreshEvents(ctx context.Context, id model.TrailerID) error {
	w := e.store.Window()
	events, err := e.gw.FetchEvents(ctx, id, gateway.EventQuery{
		From:  w.From,
		To:    w.To,
		Kinds: e.store.VisibleKinds(),
	})
	if err != nil {
		e.store.SetError(store.SliceEvents, err)
		return err
	}
	e.store.SetError(store.SliceEvents, nil)
	e.store.ReplaceEventsForTrailer(id, events)
	return nil
}

// SetTrailerStatus applies the status locally first so the UI reacts
// immediately, then confirms it with the backend. A REST failure rolls the
// trailer back to the record captured before the optimistic write.
func (e *Engine) SetTrailerStatus(ctx context.Context, id model.TrailerID, status model.TrailerStatus) error {
	prev, existed := e.store.SetTrailerStatus(id, status)

	delta, err := e.gw.SetTrailerState(ctx, id, status)
	if err != nil {
		if existed {
			e.store.RestoreTrailer(prev)
		}
		e.store.SetError(store.SliceTrailers, err)
		return err
	}
	e.store.SetError(store.SliceTrailers, nil)

	// The confirmed record is authoritative except for permissions, which
	// only full snapshot fetches may change.
	delta.Permissions = nil
	e.store.UpsertTrailers([]*model.TrailerDelta{delta})

	go func() {
		if err := e.RefreshEvents(context.WithoutCancel(ctx), id); err != nil {
			e.logger.Error(err, "event refresh after status change failed", "trailer", id)
		}
	}()
	return nil
}

// ResolveAlarm marks an alarm event resolved and replaces its interaction
// list with the backend's, deduplicated per type keeping the earliest.
func (e *Engine) ResolveAlarm(ctx context.Context, id model.TrailerEventID) error {
	ev, err := e.gw.ResolveAlarm(ctx, id)
	if err != nil {
		e.store.SetError(store.SliceEvents, err)
		return err
	}
	e.store.SetError(store.SliceEvents, nil)

	sorted := state.SortInteractions(ev.Interactions)
	e.store.SetEventInteractions(ev.ID, state.DedupeInteractions(sorted))
	return nil
}

// SelectTrailer focuses a trailer and starts its 10-second read-state
// ticker. The previous trailer's ticker is always cancelled first. An
// empty id clears the selection.
func (e *Engine) SelectTrailer(ctx context.Context, id model.TrailerID) {
	e.mu.Lock()
	if e.stopTicker != nil {
		e.stopTicker()
		e.stopTicker = nil
	}
	var tickCtx context.Context
	if id != "" {
		tickCtx, e.stopTicker = context.WithCancel(context.WithoutCancel(ctx))
	}
	e.mu.Unlock()

	e.store.SelectTrailer(id)
	if id == "" {
		return
	}

	go e.readStateLoop(tickCtx, id)
}

func (e *Engine) readStateLoop(ctx context.Context, id model.TrailerID) {
	ticker := time.NewTicker(e.readInterval)
	defer ticker.Stop()

	e.pokeReadState(ctx, id)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pokeReadState(ctx, id)
		}
	}
}

func (e *Engine) pokeReadState(ctx context.Context, id model.TrailerID) {
	if err := e.gw.ReadTrailerState(ctx, id); err != nil {
		e.logger.Debug("read-state poke failed", "trailer", id, "error", err)
	}
}

// FilterTrailers stores the query and returns the matching trailers in
// display order.
func (e *Engine) FilterTrailers(query string) []model.Trailer {
	e.store.SetQuery(query)
	return e.store.FilterTrailers()
}

// DownloadMedia forwards to the media workflow.
func (e *Engine) DownloadMedia(ctx context.Context, trailer model.TrailerID, camera model.CameraID, at time.Time, kind model.MediaKind) error {
	return e.media.DownloadMedia(ctx, trailer, camera, at, kind)
}

// Media returns the workflow for in-progress inspection.
func (e *Engine) Media() *media.Workflow {
	return e.media
}
