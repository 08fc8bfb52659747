// Package session implements the per-connection subscription state machine.
//
// A Session owns three pieces of state: the active selection (a watch
// list copy, or nil meaning "all instruments"), the current refresh
// interval, and the single outstanding delivery task. Commands and
// delivery ticks are serialized on one goroutine, so a command always
// runs to completion before the next event is processed and at most one
// delivery task is ever live.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickstream/tickstream/internal/catalog"
	"github.com/tickstream/tickstream/internal/quote"
	"github.com/tickstream/tickstream/internal/scheduler"
	"github.com/tickstream/tickstream/internal/watchlist"
)

// DefaultInterval is the delivery period used by the start command.
const DefaultInterval = 5 * time.Second

// Emitter delivers outbound events to the connected client.
type Emitter interface {
	Emit(event string, data any) error
}

// Config holds session settings.
type Config struct {
	DefaultInterval time.Duration
}

// command is one inbound event queued for the session loop.
type command struct {
	event string
	data  json.RawMessage
}

// Session is the state machine for a single connected client.
type Session struct {
	id      string
	cfg     Config
	store   *watchlist.Store
	catalog *catalog.Catalog
	quotes  *quote.Generator
	emitter Emitter
	logger  *slog.Logger

	cmds  chan command
	ticks chan uint64

	// Loop-owned state. Touched only from run().
	active   *watchlist.WatchList // nil means all instruments
	interval time.Duration
	task     *scheduler.Task
	epoch    uint64
	started  bool

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a session bound to one client connection.
func New(cfg Config, store *watchlist.Store, cat *catalog.Catalog, quotes *quote.Generator, emitter Emitter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = DefaultInterval
	}

	id := uuid.NewString()
	return &Session{
		id:      id,
		cfg:     cfg,
		store:   store,
		catalog: cat,
		quotes:  quotes,
		emitter: emitter,
		logger:  logger.With("session", id),
		cmds:    make(chan command, 16),
		ticks:   make(chan uint64, 1),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Start launches the session loop.
func (s *Session) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Debug("session started")
	return nil
}

// Close terminates the session: the delivery task is cancelled and no
// further events are emitted. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.logger.Debug("session closed")
	})
}

// Dispatch queues one inbound event for the session loop. Events from a
// single connection are processed in the order dispatched. Dispatch is a
// no-op once the session is closed.
func (s *Session) Dispatch(event string, data json.RawMessage) {
	select {
	case s.cmds <- command{event: event, data: data}:
	case <-s.ctx.Done():
	}
}

// run serializes commands and delivery ticks.
func (s *Session) run() {
	defer s.wg.Done()
	defer s.task.Cancel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case cmd := <-s.cmds:
			s.handle(cmd)
		case epoch := <-s.ticks:
			// Ticks are epoch-tagged so one queued by a task that has
			// since been cancelled can never reach the client.
			if epoch == s.epoch {
				s.deliver()
			}
		}
	}
}

// handle runs one command to completion. A rejected command leaves all
// session state unchanged.
func (s *Session) handle(cmd command) {
	switch cmd.event {
	case EventStart:
		s.handleStart()
	case EventChangeUptime:
		s.handleChangeUptime(cmd.data)
	case EventCreateWatchList:
		s.handleCreate(cmd.data)
	case EventSelectWatchList:
		s.handleSelect(cmd.data)
	case EventSelectAll:
		s.handleSelectAll(cmd.data)
	case EventDeleteWatchList:
		s.handleDelete(cmd.data)
	default:
		s.emitError(CodeInvalidCommand, fmt.Sprintf("unknown event %q", cmd.event))
	}
}

func (s *Session) handleStart() {
	if s.started {
		s.logger.Warn("start ignored, delivery already running")
		return
	}

	s.active = nil
	s.restart(s.cfg.DefaultInterval)
	s.emitInit(true)
}

func (s *Session) handleChangeUptime(data json.RawMessage) {
	var p ChangeUptimePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.emitError(CodeInvalidCommand, "change-uptime: "+err.Error())
		return
	}
	if p.Uptime <= 0 {
		s.emitError(CodeInvalidCommand, "change-uptime: uptime must be positive")
		return
	}

	// Uptime arrives in seconds; the selection is left unchanged.
	s.restart(time.Duration(p.Uptime * float64(time.Second)))
}

func (s *Session) handleCreate(data json.RawMessage) {
	var wl watchlist.WatchList
	if err := json.Unmarshal(data, &wl); err != nil {
		s.emitError(CodeInvalidCommand, "create-watching-list: "+err.Error())
		return
	}
	if wl.Interval.Duration() <= 0 {
		s.emitError(CodeInvalidCommand, "create-watching-list: interval must be positive")
		return
	}

	stored, err := s.store.Create(wl)
	if err != nil {
		s.emitError(CodeDuplicateID, fmt.Sprintf("watch list %q already exists", wl.ID))
		return
	}

	s.active = &stored
	s.emitInit(false)
	s.restart(stored.Interval.Duration())
}

func (s *Session) handleSelect(data json.RawMessage) {
	var p SelectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.emitError(CodeInvalidCommand, "select-watching-list: "+err.Error())
		return
	}
	if p.ID == "" {
		s.emitError(CodeInvalidCommand, "select-watching-list: id is required")
		return
	}
	if p.Interval.Duration() <= 0 {
		s.emitError(CodeInvalidCommand, "select-watching-list: interval must be positive")
		return
	}

	wl, ok := s.store.FindByID(p.ID)
	if !ok {
		s.emitError(CodeNotFound, fmt.Sprintf("watch list %q does not exist", p.ID))
		return
	}

	s.active = &wl
	s.restart(p.Interval.Duration())
}

func (s *Session) handleSelectAll(data json.RawMessage) {
	var p SelectAllPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.emitError(CodeInvalidCommand, "select-all-tickers: "+err.Error())
		return
	}
	if p.Interval.Duration() <= 0 {
		s.emitError(CodeInvalidCommand, "select-all-tickers: interval must be positive")
		return
	}

	s.active = nil
	s.restart(p.Interval.Duration())
}

func (s *Session) handleDelete(data json.RawMessage) {
	var p DeletePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.emitError(CodeInvalidCommand, "delete-watching-list: "+err.Error())
		return
	}
	if p.ID == "" {
		s.emitError(CodeInvalidCommand, "delete-watching-list: id is required")
		return
	}
	if p.Interval.Duration() <= 0 {
		s.emitError(CodeInvalidCommand, "delete-watching-list: interval must be positive")
		return
	}

	removed := s.store.Delete(p.ID)
	s.emitInit(false)

	// Deleting a list that is not this session's active selection leaves
	// delivery untouched. Other sessions keep their own copies and fall
	// back only when they process a delete themselves.
	if s.active != nil && s.active.ID == p.ID {
		s.active = nil
		s.restart(p.Interval.Duration())
	}

	if !removed {
		s.logger.Debug("delete of unknown watch list", "id", p.ID)
	}
}

// restart cancels the running delivery task, emits one snapshot
// synchronously, and schedules a new task with the given period.
func (s *Session) restart(interval time.Duration) {
	s.task.Cancel()

	s.interval = interval
	s.started = true
	s.epoch++
	epoch := s.epoch

	s.deliver()

	s.task = scheduler.Schedule(interval, func() {
		// Non-blocking: a tick already queued coalesces with this one.
		select {
		case s.ticks <- epoch:
		default:
		}
	})

	s.logger.Debug("delivery restarted", "interval", interval, "all_instruments", s.active == nil)
}

// deliver emits one quote snapshot over the current selection.
func (s *Session) deliver() {
	instruments := s.resolve()
	s.emit(EventTicker, s.quotes.Snapshot(instruments))
}

// resolve returns the instrument set governed by the active selection,
// dropping ids the catalog no longer knows.
func (s *Session) resolve() []catalog.Instrument {
	if s.active != nil {
		return s.catalog.Resolve(s.active.SelectedTickers)
	}
	return s.catalog.All()
}

func (s *Session) emitInit(withInterval bool) {
	p := InitPayload{WatchLists: s.store.ListAll()}
	if withInterval {
		iv := watchlist.Millis(s.interval)
		p.Interval = &iv
	}
	s.emit(EventInit, p)
}

func (s *Session) emitError(code, message string) {
	s.logger.Warn("command rejected", "code", code, "reason", message)
	s.emit(EventError, ErrorPayload{Code: code, Message: message})
}

func (s *Session) emit(event string, data any) {
	if err := s.emitter.Emit(event, data); err != nil {
		s.logger.Warn("emit failed", "event", event, "error", err)
	}
}
