package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// View is a copy of the session and world for display.
type View struct {
	Session  Session
	Player   Position
	Nearby   []NearbyEntity
	Cyclic   bool
	Sequence protocol.SequenceStrategy
}

// Walk steps one tile in dir.
func (e *Engine) Walk(ctx context.Context, dir protocol.Direction) error {
	return e.Submit(ctx, func(e *Engine) error { return e.walk(dir) })
}

// Attack swings in dir.
func (e *Engine) Attack(ctx context.Context, dir protocol.Direction) error {
	return e.Submit(ctx, func(e *Engine) error { return e.attack(dir) })
}

// AttackFacing swings in the direction the player currently faces.
func (e *Engine) AttackFacing(ctx context.Context) error {
	return e.Submit(ctx, func(e *Engine) error { return e.attack(e.world.Player.Direction) })
}

// Face turns the player without moving.
func (e *Engine) Face(ctx context.Context, dir protocol.Direction) error {
	return e.Submit(ctx, func(e *Engine) error { return e.face(dir) })
}

// Say sends a local chat line.
func (e *Engine) Say(ctx context.Context, message string) error {
	return e.Submit(ctx, func(e *Engine) error { return e.say(message) })
}

// Refresh asks the server for a complete nearby snapshot.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Submit(ctx, func(e *Engine) error { return e.refresh() })
}

// SelectCharacter picks a character from the list the login reply
// delivered.
func (e *Engine) SelectCharacter(ctx context.Context, id int) error {
	return e.Submit(ctx, func(e *Engine) error { return e.selectCharacter(id) })
}

// UseCyclicSequence switches between the cyclic and seeded sequence
// strategies.
func (e *Engine) UseCyclicSequence(ctx context.Context, cyclic bool) error {
	return e.Submit(ctx, func(e *Engine) error {
		e.useCyclic(cyclic)
		return nil
	})
}

// ResetSequenceCounter zeroes the cyclic counter.
func (e *Engine) ResetSequenceCounter(ctx context.Context) error {
	return e.Submit(ctx, func(e *Engine) error {
		e.seq.ResetCounter()
		e.log.Infow("sequence counter reset")
		return nil
	})
}

// Reconnect drops the current connection and all session state, then
// dials again.
func (e *Engine) Reconnect(ctx context.Context) error {
	return e.Submit(ctx, func(e *Engine) error { return e.reconnect(ctx) })
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := e.Submit(ctx, func(e *Engine) error {
		v = e.view()
		return nil
	})
	return v, err
}

func (e *Engine) view() View {
	s := e.session
	s.pendingWarp = nil
	return View{
		Session:  s,
		Player:   e.world.Player,
		Nearby:   e.world.Entities(),
		Cyclic:   e.seq.Cyclic(),
		Sequence: e.seq.Strategy(),
	}
}

// requireInGame gates gameplay commands.
func (e *Engine) requireInGame(cmd string) error {
	if e.transport == nil || e.session.State == StateDisconnected {
		e.metrics.incRejected(cmd, "not_connected")
		return fmt.Errorf("%s: %w", cmd, ErrNotConnected)
	}
	if !e.session.HasEnteredGame {
		e.metrics.incRejected(cmd, "not_in_game")
		e.log.Infow("command rejected, not in game yet", "command", cmd)
		return fmt.Errorf("%s: %w", cmd, ErrNotInGame)
	}
	return nil
}

func (e *Engine) walk(dir protocol.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("walk: invalid direction %d", int(dir))
	}
	if err := e.requireInGame("walk"); err != nil {
		return err
	}

	now := e.now()
	if ok, since := e.throttle.Check(ActionWalk, now); !ok {
		e.metrics.incRejected("walk", "throttled")
		return fmt.Errorf("walk %v after %v: %w", dir, since, ErrThrottled)
	}

	x, y := dir.Step(e.world.Player.X, e.world.Player.Y)
	if !onMap(x, y) {
		e.metrics.incRejected("walk", "off_map")
		return fmt.Errorf("walk %v to (%d,%d): %w", dir, x, y, ErrOffMap)
	}
	msg := protocol.WalkPlayer{Direction: dir, Timestamp: Timestamp(now), X: x, Y: y}
	if err := e.send(msg); err != nil {
		return err
	}
	e.throttle.Stamp(ActionWalk, now)
	e.world.PredictWalk(dir)
	return nil
}

// onMap reports whether a tile fits the one-byte coordinates of a walk.
func onMap(x, y int) bool {
	return x >= 0 && y >= 0 && x < protocol.CharMax && y < protocol.CharMax
}

func (e *Engine) attack(dir protocol.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("attack: invalid direction %d", int(dir))
	}
	if err := e.requireInGame("attack"); err != nil {
		return err
	}

	now := e.now()
	if ok, since := e.throttle.Check(ActionAttack, now); !ok {
		e.metrics.incRejected("attack", "throttled")
		e.log.Debugw("attack throttled", "since", since)
		return fmt.Errorf("attack after %v: %w", since, ErrThrottled)
	}

	if err := e.send(protocol.AttackUse{Direction: dir, Timestamp: Timestamp(now)}); err != nil {
		return err
	}
	e.throttle.Stamp(ActionAttack, now)
	e.session.AttackCount++
	e.log.Infow("attack", "dir", dir, "count", e.session.AttackCount)
	return nil
}

func (e *Engine) face(dir protocol.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("face: invalid direction %d", int(dir))
	}
	if err := e.requireInGame("face"); err != nil {
		return err
	}
	if err := e.send(protocol.FacePlayer{Direction: dir}); err != nil {
		return err
	}
	e.world.PredictFace(dir)
	return nil
}

var errEmptyMessage = errors.New("say: empty message")

func (e *Engine) say(message string) error {
	if message == "" {
		return errEmptyMessage
	}
	if err := e.requireInGame("say"); err != nil {
		return err
	}
	if err := e.send(protocol.TalkReport{Message: message}); err != nil {
		return err
	}
	e.log.Infow("said", "message", message)
	return nil
}

func (e *Engine) refresh() error {
	if err := e.requireInGame("refresh"); err != nil {
		return err
	}
	return e.send(protocol.RefreshRequest{})
}

func (e *Engine) selectCharacter(id int) error {
	if e.session.State != StateAwaitingCharacterList {
		return fmt.Errorf("select character in %s: %w", e.session.State, ErrUnexpectedState)
	}
	if err := e.send(protocol.WelcomeRequest{CharacterID: id}); err != nil {
		return err
	}
	e.session.SelectedCharacterID = id
	e.setState(StateAwaitingWelcome)
	e.report(Status{Text: "selected character " + fmt.Sprint(id)})
	return nil
}

func (e *Engine) useCyclic(cyclic bool) {
	if cyclic == e.seq.Cyclic() {
		return
	}
	if e.session.State != StateDisconnected {
		e.log.Warnw("switching sequence strategy mid-session; the server expects the seeded sequence",
			"cyclic", cyclic)
	}
	if cyclic {
		e.seq.UseCyclic(e.cyclicBase)
	} else {
		e.seq.UseSeeded()
	}
}
