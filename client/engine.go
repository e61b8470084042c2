package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// ErrStopped is returned by commands submitted after Run has returned.
var ErrStopped = errors.New("engine stopped")

// Options configures an Engine.
type Options struct {
	Username  string
	Password  string
	Character string // name or id; empty picks the first character
	Version   protocol.Version
	HDID      string
	Challenge int

	// LoginDelay postpones the login request after the connection
	// accept. Zero sends it as soon as the accept is written.
	LoginDelay time.Duration

	CyclicSequence bool
	FetchMaps      bool

	Now     func() time.Time
	Logger  *zap.SugaredLogger
	Metrics *Metrics

	OnStatus     func(Status)
	OnCharacters func([]protocol.CharacterSummary)
	OnChat       func(ChatLine)
}

// ChatLine is something a nearby player said.
type ChatLine struct {
	PlayerID int
	Name     string
	Message  string
}

type command struct {
	fn     func(*Engine) error
	result chan error
}

// Engine runs one client session. All protocol and world state is owned
// by the goroutine in Run; everything else talks to it through Submit.
type Engine struct {
	opts    Options
	dialer  Dialer
	log     *zap.SugaredLogger
	now     func() time.Time
	metrics *Metrics

	events   chan Event
	commands chan command
	done     chan struct{}

	gen       uint64
	transport Transport

	session    Session
	cyclicBase int
	seq        *protocol.Sequencer
	world      *World
	throttle   *Throttle
}

// New returns an engine that opens transports with dialer.
func New(dialer Dialer, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		opts:     opts,
		dialer:   dialer,
		log:      log,
		now:      now,
		metrics:  opts.Metrics,
		events:   make(chan Event, 64),
		commands: make(chan command),
		done:     make(chan struct{}),
		seq:      protocol.NewSequencer(),
		world:    NewWorld(log),
		throttle: NewThrottle(),
	}
	if opts.CyclicSequence {
		e.seq.UseCyclic(0)
	}
	return e
}

// Run connects and processes events and commands until ctx is done. A
// failed dial leaves the engine disconnected; Reconnect retries.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	if err := e.connect(ctx); err != nil {
		e.log.Warnw("initial connect failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			e.session.State = StateDisconnected
			return ctx.Err()
		case ev := <-e.events:
			e.handleEvent(ev)
		case cmd := <-e.commands:
			cmd.result <- cmd.fn(e)
		}
	}
}

// Submit runs fn on the engine goroutine and returns its error.
func (e *Engine) Submit(ctx context.Context, fn func(*Engine) error) error {
	cmd := command{fn: fn, result: make(chan error, 1)}
	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) post(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// connect dials a new transport under a fresh generation. The handshake
// starts when the transport reports open.
func (e *Engine) connect(ctx context.Context) error {
	e.gen++
	gen := e.gen
	emit := func(ev Event) {
		ev.Gen = gen
		e.post(ev)
	}

	t, err := e.dialer.Dial(ctx, emit)
	if err != nil {
		err = fmt.Errorf("%w: dial: %v", ErrTransportError, err)
		e.session.State = StateDisconnected
		e.report(Status{Text: "connection failed", CanReconnect: true, Err: err})
		return err
	}
	e.transport = t
	e.log.Debugw("transport dialed", "gen", gen)
	return nil
}

// teardown closes the current transport. Bumping the generation first
// makes anything it still reports stale.
func (e *Engine) teardown() {
	e.gen++
	if e.transport != nil {
		_ = e.transport.Close()
		e.transport = nil
	}
}

// reset returns session, sequence and world state to their initial
// values.
func (e *Engine) reset() {
	e.session = Session{}
	e.cyclicBase = 0
	e.seq.Reset()
	e.world.Reset()
	e.throttle.Reset()
	e.metrics.setInWorld(false)
}

func (e *Engine) reconnect(ctx context.Context) error {
	e.log.Infow("reconnecting")
	e.metrics.incReconnects()
	e.teardown()
	e.reset()
	e.report(Status{Text: "reconnecting"})
	return e.connect(ctx)
}

// terminate ends the session after a failure that leaves it unusable.
func (e *Engine) terminate(text string, err error) {
	e.teardown()
	e.session.State = StateDisconnected
	e.session.HasEnteredGame = false
	e.metrics.setInWorld(false)
	e.report(Status{Text: text, CanReconnect: true, Err: err})
}

func (e *Engine) setState(s State) {
	if e.session.State == s {
		return
	}
	e.log.Debugw("state", "from", e.session.State, "to", s)
	e.session.State = s
	e.metrics.setInWorld(s == StateInWorld)
}

func (e *Engine) report(st Status) {
	st.State = e.session.State
	if st.Err != nil {
		e.log.Warnw(st.Text, "state", st.State, "err", st.Err)
	} else {
		e.log.Infow(st.Text, "state", st.State)
	}
	if e.opts.OnStatus != nil {
		e.opts.OnStatus(st)
	}
}

// send frames msg with the next sequence value and writes it. A write
// failure ends the session.
func (e *Engine) send(msg protocol.Message) error {
	name := msg.Family().String() + "_" + msg.Action().String()
	if e.transport == nil {
		return fmt.Errorf("send %s: %w", name, ErrNotConnected)
	}

	frame, err := protocol.EncodeFrame(msg, e.seq, e.session.ClientEncryptionMultiple)
	if err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	if err := e.transport.Send(frame); err != nil {
		err = fmt.Errorf("send %s: %w: %v", name, ErrTransportError, err)
		e.terminate("connection lost", err)
		return err
	}

	e.metrics.incSent(name)
	if msg.Action() != protocol.ActionPing {
		e.log.Debugw("sent", "message", name, "bytes", len(frame))
	}
	return nil
}

func (e *Engine) handleEvent(ev Event) {
	if ev.Gen != e.gen {
		e.log.Debugw("stale transport event dropped", "kind", ev.Kind, "gen", ev.Gen, "current", e.gen)
		return
	}

	switch ev.Kind {
	case EventOpen:
		e.onOpen()
	case EventMessage:
		e.onMessage(ev.Data)
	case EventClose:
		e.terminate("connection closed", withCause(ErrTransportClosed, ev.Err))
	case EventError:
		e.terminate("connection error", withCause(ErrTransportError, ev.Err))
	case eventLoginDue:
		e.sendLogin()
	}
}

func withCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

func (e *Engine) onOpen() {
	e.setState(StateAwaitingHandshake)
	e.report(Status{Text: "connected, sending handshake"})
	msg := protocol.InitInit{
		Challenge: e.opts.Challenge,
		Version:   e.opts.Version,
		HDID:      e.opts.HDID,
	}
	if err := e.send(msg); err != nil {
		e.log.Warnw("handshake send failed", "err", err)
	}
}

// scheduleLogin sends the login request once the accept has been
// written, either straight away or after LoginDelay.
func (e *Engine) scheduleLogin() {
	if e.opts.LoginDelay <= 0 {
		e.sendLogin()
		return
	}
	gen := e.gen
	time.AfterFunc(e.opts.LoginDelay, func() {
		e.post(Event{Gen: gen, Kind: eventLoginDue})
	})
}

func (e *Engine) sendLogin() {
	if e.session.State != StateAwaitingLogin {
		return
	}
	req := protocol.LoginRequest{Username: e.opts.Username, Password: e.opts.Password}
	if err := e.send(req); err != nil {
		e.log.Warnw("login send failed", "err", err)
		return
	}
	e.setState(StateAwaitingCharacterList)
	e.report(Status{Text: "logging in as " + e.opts.Username})
}
