package session

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/engine"
	"github.com/classlab/gerrymander/internal/grid"
	"github.com/classlab/gerrymander/internal/protocol"
	"github.com/classlab/gerrymander/internal/timer"
)

type Phase string

const (
	PhaseLogin   Phase = "LOGIN"
	PhaseVote    Phase = "VOTE"
	PhaseGame    Phase = "GAME"
	PhaseResults Phase = "RESULTS"
)

// NoSeat marks an unseated session.
const NoSeat = -1

// Session is the client-side authority mirror: seat, phase, round config,
// grid, districts, and timer, reconciled against server declarations. It is
// not goroutine-safe; every method must be called from the one event loop
// (see Loop), matching the single-threaded model the protocol assumes.
type Session struct {
	log      *zap.Logger
	clientID string
	surface  Surface
	sender   Sender
	timer    *timer.Countdown

	// coin breaks the tie for players who enter play without voting.
	// Injected so tests are deterministic.
	coin func() int

	phase       Phase
	seatID      int
	name        string
	config      *protocol.RoundConfig
	party       int
	voted       bool
	pendingSeat int
	takenSeats  []int

	grid      *grid.Grid
	eng       *engine.Engine
	mapData   []int
	submitted bool
	percent   int

	roundSeconds int
}

func New(log *zap.Logger, clientID string, surface Surface, sender Sender, countdown *timer.Countdown, roundSeconds int) *Session {
	if roundSeconds <= 0 {
		roundSeconds = timer.RoundSeconds
	}
	return &Session{
		log:          log,
		clientID:     clientID,
		surface:      surface,
		sender:       sender,
		timer:        countdown,
		coin:         func() int { return rand.Intn(2) },
		phase:        PhaseLogin,
		seatID:       NoSeat,
		party:        -1,
		pendingSeat:  NoSeat,
		roundSeconds: roundSeconds,
	}
}

func (s *Session) Phase() Phase  { return s.phase }
func (s *Session) SeatID() int   { return s.seatID }
func (s *Session) Party() int    { return s.party }
func (s *Session) Seated() bool  { return s.seatID != NoSeat }
func (s *Session) Percent() int  { return s.percent }

// Engine exposes the districting engine for render adapters.
func (s *Session) Engine() *engine.Engine { return s.eng }

// OnConnect runs once per channel open: identify, then show the login grid
// until the server says otherwise.
func (s *Session) OnConnect() {
	s.sender.Send(protocol.ClientMessage{Type: protocol.KindIdentify, ClientID: s.clientID})
	if !s.Seated() {
		s.surface.ShowScreen(ScreenLogin)
		s.surface.RenderSeatMap(s.takenSeats, s.seatID)
	}
}

// HandleRaw decodes and dispatches one inbound frame. Malformed frames are
// dropped: a protocol error must never take the session down.
func (s *Session) HandleRaw(data []byte) {
	msg, err := protocol.DecodeServer(data)
	if err != nil {
		s.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}
	s.Handle(msg)
}

// Handle applies one server message. Unrecognized kinds are ignored.
func (s *Session) Handle(msg protocol.ServerMessage) {
	switch msg.Type {
	case protocol.KindRestoreSession:
		s.handleRestore(msg)
	case protocol.KindLoginSuccess:
		s.handleLoginSuccess(msg)
	case protocol.KindGameReset:
		s.handleGameReset()
	case protocol.KindRoundSetup:
		if msg.Config != nil {
			s.applyRoundConfig(*msg.Config)
		}
	case protocol.KindSeatMapUpdate:
		s.takenSeats = msg.TakenSeats
		s.surface.RenderSeatMap(s.takenSeats, s.seatID)
	case protocol.KindError:
		s.handleServerError(msg)
	case protocol.KindPhaseChange:
		s.applyPhase(Phase(msg.Phase), msg.MapData, msg.Leaderboard)
	case protocol.KindGameOver:
		s.surface.ShowWaiting("That's the end of the game. Thanks for playing!")
	case protocol.KindKicked:
		s.surface.Notify("You were removed from the session.")
		s.handleGameReset()
	default:
		s.log.Debug("ignoring unknown message kind", zap.String("type", msg.Type))
	}
}

// handleRestore resynchronizes a reconnecting client in one shot: seat,
// round config, then a replay of the server's current phase. It is
// idempotent; a second identical restore changes nothing.
func (s *Session) handleRestore(msg protocol.ServerMessage) {
	if msg.SeatID == nil {
		s.log.Warn("restore_session without seatId")
		return
	}
	s.seatID = *msg.SeatID
	s.name = msg.Name
	s.pendingSeat = NoSeat
	s.surface.SetBadge(msg.Name)
	s.surface.Notify(fmt.Sprintf("Welcome back, %s", msg.Name))

	if msg.RoundInfo != nil {
		s.applyRoundConfig(*msg.RoundInfo)
	}
	s.applyPhase(Phase(msg.Phase), msg.MapData, msg.Leaderboard)
}

func (s *Session) handleLoginSuccess(msg protocol.ServerMessage) {
	if msg.SeatID == nil {
		s.log.Warn("login_success without seatId")
		return
	}
	s.seatID = *msg.SeatID
	s.name = msg.Name
	s.pendingSeat = NoSeat
	s.surface.SetBadge(msg.Name)
	s.surface.Notify(fmt.Sprintf("Logged in as %s", msg.Name))
	s.surface.ShowWaiting("Seat secured. Waiting for the host...")
}

// handleGameReset discards every in-memory structure and starts over at
// LOGIN, unconditionally.
func (s *Session) handleGameReset() {
	s.timer.Stop()
	s.phase = PhaseLogin
	s.seatID = NoSeat
	s.name = ""
	s.config = nil
	s.party = -1
	s.voted = false
	s.pendingSeat = NoSeat
	s.takenSeats = nil
	s.grid = nil
	s.eng = nil
	s.mapData = nil
	s.submitted = false
	s.percent = 0
	s.surface.Reload()
	s.surface.ShowScreen(ScreenLogin)
	s.surface.RenderSeatMap(nil, NoSeat)
}

func (s *Session) handleServerError(msg protocol.ServerMessage) {
	// Display-only; a pending seat claim is considered rejected.
	if s.pendingSeat != NoSeat {
		s.pendingSeat = NoSeat
	}
	s.surface.Notify(msg.Message)
}

// applyRoundConfig replaces the round config wholesale. A config for the
// round already loaded is a no-op so restore replays stay idempotent.
func (s *Session) applyRoundConfig(cfg protocol.RoundConfig) {
	if s.config != nil && s.config.ID == cfg.ID {
		return
	}
	c := cfg
	s.config = &c
	s.party = -1
	s.voted = false
	s.surface.ApplyRoundConfig(cfg)
}

// applyPhase reacts to a server phase declaration. The session never assumes
// it saw the intermediate phases; each branch rebuilds whatever view the
// declared phase needs.
func (s *Session) applyPhase(phase Phase, mapData []int, leaderboard []protocol.LeaderboardEntry) {
	switch phase {
	case PhaseLogin:
		s.phase = phase
		s.surface.ShowScreen(ScreenLogin)
		if s.Seated() {
			s.surface.ShowWaiting("New round starting. Waiting for instructions...")
		} else {
			s.surface.RenderSeatMap(s.takenSeats, s.seatID)
		}
	case PhaseVote:
		s.phase = phase
		if s.Seated() {
			s.surface.ShowScreen(ScreenVote)
		}
	case PhaseGame:
		if s.Seated() {
			s.startGame(mapData)
		}
		s.phase = phase
	case PhaseResults:
		s.phase = phase
		if s.Seated() {
			s.surface.ShowScreen(ScreenResults)
			s.surface.RenderResults(leaderboard, s.percent)
		}
	default:
		s.log.Warn("ignoring unknown phase", zap.String("phase", string(phase)))
	}
}

// startGame loads the map, fixes party affiliation, and arms the countdown.
// A repeated declaration with the same map (a restore replay) is a no-op so
// the grid is never double-initialized and the timer never double-armed.
func (s *Session) startGame(mapData []int) {
	if s.phase == PhaseGame && s.grid != nil && slices.Equal(s.mapData, mapData) {
		return
	}

	g, err := grid.New(mapData)
	if err != nil {
		s.log.Warn("dropping GAME declaration with bad map payload", zap.Error(err))
		return
	}

	if s.party != 0 && s.party != 1 {
		s.party = s.coin()
	}

	s.grid = g
	s.mapData = slices.Clone(mapData)
	s.eng = engine.New(g, s.party)
	s.submitted = false
	s.percent = 0

	s.timer.Start(s.roundSeconds)
	s.surface.ShowScreen(ScreenGame)
	s.surface.RenderGrid(g.Cells(), nil, nil)
	s.surface.RenderScore(s.eng.Score(), 0, false)
	s.surface.RenderTimer(s.roundSeconds)
}

// HandleTimer applies one countdown event from the loop.
func (s *Session) HandleTimer(ev timer.Event) {
	if ev.Done {
		s.FinishRound()
		return
	}
	s.surface.RenderTimer(ev.Remaining)
}

// ClaimSeat asks the server for a seat. Nothing is reserved locally; the
// claim stays pending until login_success or error arrives.
func (s *Session) ClaimSeat(seat int) {
	if s.Seated() {
		return
	}
	if slices.Contains(s.takenSeats, seat) {
		s.surface.Notify("Seat is already occupied.")
		return
	}
	s.pendingSeat = seat
	s.sender.Send(protocol.ClientMessage{
		Type:     protocol.KindClaimSeat,
		SeatID:   protocol.Int(seat),
		ClientID: s.clientID,
	})
}

// CastVote records the side choice and reports it to the server. One vote
// per round; affiliation locks for good once play begins.
func (s *Session) CastVote(option int) {
	if s.config == nil || s.voted || !s.Seated() {
		return
	}
	if option != 0 && option != 1 {
		s.log.DPanic("vote for impossible option", zap.Int("option", option))
		return
	}
	s.party = option
	s.voted = true
	label := s.config.Options[option]
	s.surface.Notify(fmt.Sprintf("Voted %s. Waiting for the game...", label))
	s.sender.Send(protocol.ClientMessage{Type: protocol.KindVote, Party: label})
}

// Selection gestures. Out-of-range indices mean the input adapter and the
// model have desynchronized, which is a defect, not a user error; DPanic
// makes that loud in development without killing a production session.

func (s *Session) BeginSelection(index int) {
	if !s.playing() {
		return
	}
	if err := s.eng.BeginSelection(index); err != nil {
		if errors.Is(err, engine.ErrAlreadyAssigned) {
			return
		}
		s.log.DPanic("begin selection", zap.Int("index", index), zap.Error(err))
		return
	}
	s.renderGame()
}

func (s *Session) ExtendSelection(index int) {
	if !s.playing() {
		return
	}
	added, err := s.eng.ExtendSelection(index)
	if err != nil {
		s.log.DPanic("extend selection", zap.Int("index", index), zap.Error(err))
		return
	}
	if added {
		s.renderGame()
	}
}

func (s *Session) EndSelection() {
	if !s.playing() {
		return
	}
	s.eng.EndSelection()
	s.renderGame()
}

func (s *Session) DissolveDistrict(index int) {
	if !s.playing() {
		return
	}
	id, err := s.grid.DistrictContaining(index)
	if err != nil {
		s.log.DPanic("dissolve district", zap.Int("index", index), zap.Error(err))
		return
	}
	if id == grid.NoDistrict {
		return
	}
	if err := s.eng.DissolveDistrict(id); err != nil {
		s.log.DPanic("dissolve district", zap.Int("district", id), zap.Error(err))
		return
	}
	s.renderGame()
}

// FinishRound submits the round score. Driven by timer expiry, or by the
// player once all districts are drawn. Exactly once per round.
func (s *Session) FinishRound() {
	if s.eng == nil || s.submitted || !s.Seated() {
		return
	}
	s.submitted = true
	s.timer.Stop()

	score := s.eng.Score()
	s.percent = score.Percent
	s.sender.Send(protocol.ClientMessage{
		Type:   protocol.KindFinishRound,
		SeatID: protocol.Int(s.seatID),
		Score:  protocol.Int(score.Percent),
	})
	s.surface.ShowWaiting("Round finished. Waiting for results...")
}

func (s *Session) playing() bool {
	return s.phase == PhaseGame && s.eng != nil && !s.submitted
}

func (s *Session) renderGame() {
	districts := s.eng.Districts()
	s.surface.RenderGrid(s.grid.Cells(), districts, s.eng.Selection())
	s.surface.RenderScore(s.eng.Score(), len(districts), s.eng.Complete())
}
