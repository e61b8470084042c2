package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// onMessage decodes one inbound frame and dispatches it by kind. Handlers
// parse the whole message before touching any state, so a malformed
// message is dropped without side effects.
func (e *Engine) onMessage(data []byte) {
	pkt, err := protocol.DecodeFrame(data, e.session.ServerEncryptionMultiple)
	if err != nil {
		e.metrics.incMalformed(protocol.KindUnknown.String())
		e.log.Warnw("undecodable frame dropped", "bytes", len(data), "err", err)
		return
	}

	kind := pkt.Kind()
	e.metrics.incReceived(kind.String())
	if kind != protocol.KindConnectionPlayer {
		e.log.Debugw("received", "packet", pkt.String())
	}

	if steadyState(kind) && e.session.State != StateInWorld {
		e.log.Debugw("message outside the world dropped", "kind", kind, "state", e.session.State)
		return
	}

	switch kind {
	case protocol.KindInitReply:
		err = e.handleInitReply(pkt)
	case protocol.KindLoginReply:
		err = e.handleLoginReply(pkt)
	case protocol.KindWelcomeReply:
		err = e.handleWelcomeReply(pkt)
	case protocol.KindConnectionPlayer:
		err = e.handlePing(pkt)
	case protocol.KindPlayersAgree, protocol.KindRefreshReply, protocol.KindRangeReply:
		err = e.handleNearby(kind, pkt)
	case protocol.KindPlayersRemove, protocol.KindAvatarRemove:
		err = e.handleRemove(kind, pkt)
	case protocol.KindNpcPlayer:
		err = e.handleNpcPlayer(pkt)
	case protocol.KindWarpRequest:
		err = e.handleWarpRequest(pkt)
	case protocol.KindWarpCreate:
		e.onMapData("warp create")
	case protocol.KindWalkPlayer:
		err = e.handleWalkPlayer(pkt)
	case protocol.KindFacePlayer:
		err = e.handleFacePlayer(pkt)
	case protocol.KindTalkPlayer:
		err = e.handleTalkPlayer(pkt)
	default:
		e.log.Debugw("unrecognized message ignored", "family", pkt.Family, "action", pkt.Action)
		return
	}

	if err != nil {
		if errors.Is(err, protocol.ErrTruncatedData) {
			e.metrics.incMalformed(kind.String())
		}
		e.log.Warnw("message dropped", "kind", kind, "err", err)
	}
}

// steadyState reports whether kind is only meaningful once in the world.
func steadyState(kind protocol.MessageKind) bool {
	switch kind {
	case protocol.KindConnectionPlayer,
		protocol.KindPlayersAgree, protocol.KindPlayersRemove, protocol.KindAvatarRemove,
		protocol.KindRefreshReply, protocol.KindRangeReply, protocol.KindNpcPlayer,
		protocol.KindWarpRequest, protocol.KindWarpCreate,
		protocol.KindWalkPlayer, protocol.KindFacePlayer, protocol.KindTalkPlayer:
		return true
	}
	return false
}

func (e *Engine) handleInitReply(pkt protocol.Packet) error {
	reply, err := protocol.ParseInitReply(pkt.Reader())
	if err != nil {
		return fmt.Errorf("init reply: %w", err)
	}

	if e.session.State != StateAwaitingHandshake {
		if reply.Code.MapData() {
			e.onMapData("init reply " + strconv.Itoa(int(reply.Code)))
			return nil
		}
		e.log.Debugw("init reply outside handshake ignored", "code", reply.Code, "state", e.session.State)
		return nil
	}

	if reply.Code != protocol.InitReplyOk || reply.Ok == nil {
		err := &ReplyError{Op: "handshake", Code: int(reply.Code), Err: ErrHandshakeRejected}
		e.terminate("handshake rejected", err)
		return nil
	}

	ok := reply.Ok
	e.session.ClientEncryptionMultiple = ok.ClientEncryptionMultiple
	e.session.ServerEncryptionMultiple = ok.ServerEncryptionMultiple
	e.session.PlayerID = ok.PlayerID

	e.seq.Seed(protocol.InitSequenceStart(ok.Seq1, ok.Seq2))
	e.cyclicBase = int(e.seq.Peek())
	if e.seq.Cyclic() {
		e.seq.UseCyclic(e.cyclicBase)
	} else {
		e.seq.SetCyclicBase(e.cyclicBase)
	}
	e.log.Infow("handshake accepted", "player", ok.PlayerID,
		"client_multiple", ok.ClientEncryptionMultiple, "server_multiple", ok.ServerEncryptionMultiple)

	accept := protocol.ConnectionAccept{
		ClientEncryptionMultiple: ok.ClientEncryptionMultiple,
		ServerEncryptionMultiple: ok.ServerEncryptionMultiple,
		PlayerID:                 ok.PlayerID,
	}
	if err := e.send(accept); err != nil {
		return err
	}
	e.setState(StateAwaitingLogin)
	e.scheduleLogin()
	return nil
}

func (e *Engine) handleLoginReply(pkt protocol.Packet) error {
	reply, err := protocol.ParseLoginReply(pkt.Reader())
	if err != nil {
		return fmt.Errorf("login reply: %w", err)
	}
	if e.session.State != StateAwaitingCharacterList {
		e.log.Debugw("login reply ignored", "state", e.session.State)
		return nil
	}

	if reply.Code != protocol.LoginReplyOk {
		err := &ReplyError{Op: "login", Code: int(reply.Code), Err: ErrAuthenticationFailed}
		e.terminate("login failed", err)
		return nil
	}

	e.report(Status{Text: fmt.Sprintf("login ok, %d characters", len(reply.Characters))})
	if e.opts.OnCharacters != nil {
		e.opts.OnCharacters(reply.Characters)
	}

	id, found := e.chooseCharacter(reply.Characters)
	if !found {
		e.report(Status{Text: "no matching character, waiting for selection"})
		return nil
	}
	return e.selectCharacter(id)
}

func (e *Engine) chooseCharacter(chars []protocol.CharacterSummary) (int, bool) {
	if len(chars) == 0 {
		return 0, false
	}
	want := e.opts.Character
	if want == "" {
		return chars[0].ID, true
	}
	for _, c := range chars {
		if strings.EqualFold(c.Name, want) || strconv.Itoa(c.ID) == want {
			return c.ID, true
		}
	}
	return 0, false
}

func (e *Engine) handleWelcomeReply(pkt protocol.Packet) error {
	reply, err := protocol.ParseWelcomeReply(pkt.Reader())
	if err != nil {
		return fmt.Errorf("welcome reply: %w", err)
	}
	if e.session.State != StateAwaitingWelcome {
		e.log.Debugw("welcome reply ignored", "state", e.session.State)
		return nil
	}

	switch {
	case reply.SelectCharacter != nil:
		sc := reply.SelectCharacter
		e.session.SessionID = sc.SessionID
		e.world.Player.MapID = sc.MapID
		e.log.Infow("character selected", "name", sc.Name, "session", sc.SessionID,
			"character", sc.CharacterID, "map", sc.MapID, "map_size", sc.MapFileSize)
		return e.send(protocol.WelcomeMsg{SessionID: sc.SessionID, CharacterID: sc.CharacterID})

	case reply.EnterGame != nil:
		eg := reply.EnterGame
		for _, line := range eg.News {
			e.log.Infow("news", "line", line)
		}
		e.world.Apply(eg.Nearby, e.session.PlayerID)
		e.session.HasEnteredGame = true
		e.setState(StateInWorld)
		e.report(Status{Text: "entered game"})
		return e.send(protocol.RefreshRequest{})
	}

	e.log.Debugw("welcome reply with unknown code ignored", "code", reply.Code)
	return nil
}

func (e *Engine) handlePing(pkt protocol.Packet) error {
	ping, err := protocol.ParseConnectionPlayer(pkt.Reader())
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	e.seq.Seed(protocol.PingSequenceStart(ping.Seq1, ping.Seq2))
	return e.send(protocol.ConnectionPing{})
}

func (e *Engine) handleNearby(kind protocol.MessageKind, pkt protocol.Packet) error {
	update, err := protocol.ParseNearbyUpdate(kind, pkt.Reader())
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	res := e.world.Apply(update.Nearby, e.session.PlayerID)
	e.log.Debugw("nearby applied", "kind", kind, "self", res.SelfUpdated,
		"players", res.Upserted, "npcs", res.Npcs, "items", res.Items)
	return nil
}

func (e *Engine) handleRemove(kind protocol.MessageKind, pkt protocol.Packet) error {
	removed, err := protocol.ParsePlayerRemoved(kind, pkt.Reader())
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	e.world.Remove(removed.PlayerID)
	return nil
}

func (e *Engine) handleNpcPlayer(pkt protocol.Packet) error {
	npc, err := protocol.ParseNpcPlayer(pkt.Reader())
	if err != nil {
		return fmt.Errorf("npc update: %w", err)
	}
	for _, a := range npc.Attacks {
		if a.PlayerID == e.session.PlayerID {
			e.log.Infow("hit by npc", "npc", a.Index, "damage", a.Damage, "hp_percent", a.HPPercentage)
		}
	}
	e.log.Debugw("npc update", "positions", len(npc.Positions), "attacks", len(npc.Attacks),
		"chats", len(npc.Chats), "hp", npc.HP, "tp", npc.TP)
	return nil
}

func (e *Engine) handleWarpRequest(pkt protocol.Packet) error {
	req, err := protocol.ParseWarpRequest(pkt.Reader())
	if err != nil {
		return fmt.Errorf("warp request: %w", err)
	}

	if req.Type == protocol.WarpMapSwitch && e.opts.FetchMaps {
		e.session.MapLoaded = false
		e.session.pendingWarp = &pendingWarp{MapID: req.MapID, SessionID: req.SessionID}
		e.log.Infow("fetching map for warp", "map", req.MapID)
		return e.send(protocol.WarpTake{MapID: req.MapID, SessionID: req.SessionID})
	}
	return e.acceptWarp(req.MapID, req.SessionID)
}

func (e *Engine) acceptWarp(mapID, sessionID int) error {
	e.log.Infow("accepting warp", "map", mapID)
	return e.send(protocol.WarpAccept{MapID: mapID, SessionID: sessionID})
}

// onMapData records that map contents arrived and completes a warp that
// was waiting for them.
func (e *Engine) onMapData(source string) {
	e.session.MapLoaded = true
	e.log.Debugw("map data received", "source", source)

	if w := e.session.pendingWarp; w != nil {
		e.session.pendingWarp = nil
		if err := e.acceptWarp(w.MapID, w.SessionID); err != nil {
			e.log.Warnw("warp accept failed", "err", err)
		}
	}
}

func (e *Engine) handleWalkPlayer(pkt protocol.Packet) error {
	m, err := protocol.ParsePlayerWalked(pkt.Reader())
	if err != nil {
		return fmt.Errorf("walk broadcast: %w", err)
	}
	e.world.MoveEntity(m.PlayerID, m.X, m.Y, m.Direction)
	return nil
}

func (e *Engine) handleFacePlayer(pkt protocol.Packet) error {
	m, err := protocol.ParsePlayerFaced(pkt.Reader())
	if err != nil {
		return fmt.Errorf("face broadcast: %w", err)
	}
	e.world.TurnEntity(m.PlayerID, m.Direction)
	return nil
}

func (e *Engine) handleTalkPlayer(pkt protocol.Packet) error {
	m, err := protocol.ParsePlayerTalked(pkt.Reader())
	if err != nil {
		return fmt.Errorf("talk broadcast: %w", err)
	}
	line := ChatLine{PlayerID: m.PlayerID, Message: m.Message}
	if ent, ok := e.world.Nearby[m.PlayerID]; ok {
		line.Name = ent.Name
	}
	e.log.Infow("chat", "player", m.PlayerID, "name", line.Name, "message", m.Message)
	if e.opts.OnChat != nil {
		e.opts.OnChat(line)
	}
	return nil
}
