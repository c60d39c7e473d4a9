package server

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/grid"
	"github.com/classlab/gerrymander/internal/protocol"
)

type Msg interface{ isManagerMsg() }

type Join struct {
	ID     string
	Outbox chan protocol.ServerMessage
}

type Leave struct{ ID string }

type FromPlayer struct {
	ID  string
	Msg protocol.ClientMessage
}

type AdminJoin struct {
	Outbox chan protocol.AdminMessage
}

type AdminLeave struct{}

type FromAdmin struct {
	Msg protocol.AdminMessage
}

type Shutdown struct{}

// GetView reflects internal state without data races; test-only.
type GetView struct {
	Reply chan View
}

func (Join) isManagerMsg()       {}
func (Leave) isManagerMsg()      {}
func (FromPlayer) isManagerMsg() {}
func (AdminJoin) isManagerMsg()  {}
func (AdminLeave) isManagerMsg() {}
func (FromAdmin) isManagerMsg()  {}
func (Shutdown) isManagerMsg()   {}
func (GetView) isManagerMsg()    {}

type View struct {
	Phase      string
	RoundID    string
	NumConns   int
	NumSeats   int
	VoteCounts [2]int
	GlobalMap  []int
	Seats      map[int]SeatView
}

type SeatView struct {
	ClientID   string
	Name       string
	Online     bool
	TotalScore int
	RoundScore int
	Vote       int // -1 when not cast
}

type seat struct {
	connID     string // "" while offline; the seat survives disconnects
	clientID   string
	name       string
	totalScore int
	roundScore int
	vote       int // -1 until cast
}

// Manager is the authoritative session: seats, phases, votes, the shared
// map, and the leaderboard. One goroutine owns all of it; every connection
// talks to it through the inbox.
type Manager struct {
	log    *zap.Logger
	inbox  chan Msg
	conns  map[string]chan protocol.ServerMessage
	admin  chan protocol.AdminMessage
	seats  map[int]*seat
	phase  string
	round  int // index into Playlist
	global []int
	rng    *rand.Rand
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(parent context.Context, log *zap.Logger, rng *rand.Rand) *Manager {
	ctx, cancel := context.WithCancel(parent)
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	m := &Manager{
		log:    log,
		inbox:  make(chan Msg, 64),
		conns:  make(map[string]chan protocol.ServerMessage),
		seats:  make(map[int]*seat),
		phase:  protocol.PhaseLogin,
		rng:    rng,
		ctx:    ctx,
		cancel: cancel,
	}
	go m.loop()
	return m
}

func (m *Manager) Inbox() chan<- Msg { return m.inbox }

func (m *Manager) roundConfig() protocol.RoundConfig {
	return Catalog[Playlist[m.round]]
}

func (m *Manager) loop() {
	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case raw := <-m.inbox:
			switch msg := raw.(type) {
			case Join:
				m.conns[msg.ID] = msg.Outbox
				cfg := m.roundConfig()
				m.sendTo(msg.ID, protocol.ServerMessage{
					Type:       protocol.KindSeatMapUpdate,
					TakenSeats: m.takenSeats(),
				})
				m.sendTo(msg.ID, protocol.ServerMessage{
					Type:   protocol.KindRoundSetup,
					Config: &cfg,
				})

			case Leave:
				delete(m.conns, msg.ID)
				// The seat survives so the client can reconnect.
				for _, st := range m.seats {
					if st.connID == msg.ID {
						st.connID = ""
						break
					}
				}
				m.adminUpdate()

			case FromPlayer:
				m.handlePlayer(msg.ID, msg.Msg)

			case AdminJoin:
				m.admin = msg.Outbox
				m.adminUpdate()

			case AdminLeave:
				m.admin = nil

			case FromAdmin:
				m.handleAdmin(msg.Msg)

			case GetView:
				msg.Reply <- m.view()

			case Shutdown:
				m.shutdown()
				return
			}
		}
	}
}

func (m *Manager) handlePlayer(connID string, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.KindIdentify:
		m.handleIdentify(connID, msg.ClientID)

	case protocol.KindClaimSeat:
		if msg.SeatID == nil {
			return
		}
		m.handleSeatClaim(connID, *msg.SeatID, msg.ClientID)

	case protocol.KindVote:
		m.handleVote(connID, msg.Party)

	case protocol.KindFinishRound:
		if msg.SeatID == nil || msg.Score == nil {
			return
		}
		m.handleScore(*msg.SeatID, *msg.Score)

	default:
		m.log.Debug("ignoring player message", zap.String("type", msg.Type))
	}
}

// handleIdentify reattaches a returning client and replays the full current
// state in one restore_session message.
func (m *Manager) handleIdentify(connID, clientID string) {
	for seatID, st := range m.seats {
		if st.clientID != clientID {
			continue
		}
		st.connID = connID
		cfg := m.roundConfig()
		restore := protocol.ServerMessage{
			Type:      protocol.KindRestoreSession,
			SeatID:    protocol.Int(seatID),
			Name:      st.name,
			Phase:     m.phase,
			RoundInfo: &cfg,
		}
		if len(m.global) > 0 {
			restore.MapData = m.global
		}
		m.sendTo(connID, restore)
		m.adminUpdate()
		return
	}
}

func (m *Manager) handleSeatClaim(connID string, seatID int, clientID string) {
	if seatID < 0 || seatID >= grid.CellCount {
		m.sendTo(connID, protocol.ServerMessage{Type: protocol.KindError, Message: "No such seat"})
		return
	}
	if st, ok := m.seats[seatID]; ok {
		if st.clientID == clientID {
			st.connID = connID
			return
		}
		m.sendTo(connID, protocol.ServerMessage{Type: protocol.KindError, Message: "Seat Already Taken"})
		return
	}

	// One seat per client.
	for id, st := range m.seats {
		if st.clientID == clientID {
			delete(m.seats, id)
			break
		}
	}

	name := fmt.Sprintf("Desk #%d", seatID+1)
	m.seats[seatID] = &seat{connID: connID, clientID: clientID, name: name, vote: -1}

	m.sendTo(connID, protocol.ServerMessage{
		Type:   protocol.KindLoginSuccess,
		SeatID: protocol.Int(seatID),
		Name:   name,
	})
	m.broadcastSeatMap()
}

func (m *Manager) handleVote(connID, party string) {
	seatID, st := m.seatByConn(connID)
	if st == nil {
		return
	}
	cfg := m.roundConfig()
	switch party {
	case cfg.Options[0]:
		st.vote = 0
	case cfg.Options[1]:
		st.vote = 1
	default:
		m.log.Warn("vote for unknown party", zap.Int("seat", seatID), zap.String("party", party))
		return
	}
	m.adminUpdate()
}

func (m *Manager) handleScore(seatID, score int) {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if st, ok := m.seats[seatID]; ok {
		st.roundScore = score
		st.totalScore += score
	}
	m.adminUpdate()
}

func (m *Manager) handleAdmin(msg protocol.AdminMessage) {
	switch msg.Type {
	case protocol.KindAdminNext:
		switch m.phase {
		case protocol.PhaseLogin:
			m.changePhase(protocol.PhaseVote)
		case protocol.PhaseVote:
			m.changePhase(protocol.PhaseGame)
		case protocol.PhaseGame:
			m.changePhase(protocol.PhaseResults)
		case protocol.PhaseResults:
			m.advanceRound()
		}

	case protocol.KindAdminKick:
		if msg.SeatID != nil {
			m.kick(*msg.SeatID)
		}

	case protocol.KindAdminReset:
		m.reset()

	default:
		m.log.Debug("ignoring admin message", zap.String("type", msg.Type))
	}
}

func (m *Manager) changePhase(phase string) {
	m.phase = phase
	out := protocol.ServerMessage{Type: protocol.KindPhaseChange, Phase: phase}

	switch phase {
	case protocol.PhaseLogin:
		m.clearRoundState()
	case protocol.PhaseGame:
		m.global = m.generateMap()
		out.MapData = m.global
	case protocol.PhaseResults:
		out.Leaderboard = m.leaderboard()
	}

	m.broadcast(out)
	m.adminUpdate()
}

func (m *Manager) advanceRound() {
	if m.round < len(Playlist)-1 {
		m.round++
		m.clearRoundState()
		m.global = nil

		cfg := m.roundConfig()
		m.broadcast(protocol.ServerMessage{Type: protocol.KindRoundSetup, Config: &cfg})
		m.changePhase(protocol.PhaseVote)
		return
	}
	m.broadcast(protocol.ServerMessage{Type: protocol.KindGameOver})
	m.changePhase(protocol.PhaseResults)
}

func (m *Manager) clearRoundState() {
	for _, st := range m.seats {
		st.vote = -1
		st.roundScore = 0
	}
}

// generateMap seeds each cell from its seat's vote when one exists, and
// flips a coin for empty or silent seats.
func (m *Manager) generateMap() []int {
	out := make([]int, grid.CellCount)
	for i := 0; i < grid.CellCount; i++ {
		if st, ok := m.seats[i]; ok && st.vote >= 0 {
			out[i] = st.vote
			continue
		}
		out[i] = m.rng.Intn(2)
	}
	return out
}

func (m *Manager) leaderboard() []protocol.LeaderboardEntry {
	entries := make([]protocol.LeaderboardEntry, 0, len(m.seats))
	for _, st := range m.seats {
		entries = append(entries, protocol.LeaderboardEntry{
			Name:  st.name,
			Score: st.totalScore,
			Round: st.roundScore,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries
}

func (m *Manager) kick(seatID int) {
	st, ok := m.seats[seatID]
	if !ok {
		return
	}
	if st.connID != "" {
		m.sendTo(st.connID, protocol.ServerMessage{Type: protocol.KindKicked})
	}
	delete(m.seats, seatID)
	m.broadcastSeatMap()
}

func (m *Manager) reset() {
	m.seats = make(map[int]*seat)
	m.phase = protocol.PhaseLogin
	m.round = 0
	m.global = nil
	m.broadcast(protocol.ServerMessage{Type: protocol.KindGameReset})
	m.adminUpdate()
}

func (m *Manager) seatByConn(connID string) (int, *seat) {
	for id, st := range m.seats {
		if st.connID == connID {
			return id, st
		}
	}
	return -1, nil
}

func (m *Manager) takenSeats() []int {
	out := make([]int, 0, len(m.seats))
	for id := range m.seats {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (m *Manager) voteCounts() [2]int {
	var counts [2]int
	for _, st := range m.seats {
		if st.vote >= 0 {
			counts[st.vote]++
		}
	}
	return counts
}

func (m *Manager) broadcastSeatMap() {
	m.broadcast(protocol.ServerMessage{
		Type:       protocol.KindSeatMapUpdate,
		TakenSeats: m.takenSeats(),
	})
	m.adminUpdate()
}

func (m *Manager) sendTo(connID string, msg protocol.ServerMessage) {
	ch, ok := m.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		// Slow consumer; drop the connection.
		close(ch)
		delete(m.conns, connID)
	}
}

func (m *Manager) broadcast(msg protocol.ServerMessage) {
	for id, ch := range m.conns {
		select {
		case ch <- msg:
		default:
			close(ch)
			delete(m.conns, id)
		}
	}
}

func (m *Manager) adminUpdate() {
	if m.admin == nil {
		return
	}

	cfg := m.roundConfig()
	players := make([]protocol.AdminPlayer, 0, len(m.seats))
	voted := 0
	online := 0
	for id, st := range m.seats {
		if st.vote >= 0 {
			voted++
		}
		if st.connID != "" {
			online++
		}
		players = append(players, protocol.AdminPlayer{
			Seat:       id,
			Name:       st.name,
			TotalScore: st.totalScore,
			RoundScore: st.roundScore,
			Online:     st.connID != "",
			HasVoted:   st.vote >= 0,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].TotalScore > players[j].TotalScore })

	counts := m.voteCounts()
	canProgress := false
	switch m.phase {
	case protocol.PhaseLogin:
		canProgress = len(m.seats) > 0
	case protocol.PhaseVote:
		canProgress = voted > 0 && voted == online
	case protocol.PhaseGame, protocol.PhaseResults:
		canProgress = true
	}

	update := protocol.AdminMessage{
		Type:        protocol.KindAdminUpdate,
		Phase:       m.phase,
		RoundID:     cfg.ID,
		RoundIndex:  m.round,
		TotalRounds: len(Playlist),
		PlayerCount: len(m.seats),
		Players:     players,
		Votes:       map[string]int{cfg.Options[0]: counts[0], cfg.Options[1]: counts[1]},
		CanProgress: canProgress,
		RoundInfo:   &cfg,
	}
	select {
	case m.admin <- update:
	default:
		close(m.admin)
		m.admin = nil
	}
}

func (m *Manager) view() View {
	v := View{
		Phase:      m.phase,
		RoundID:    m.roundConfig().ID,
		NumConns:   len(m.conns),
		NumSeats:   len(m.seats),
		VoteCounts: m.voteCounts(),
		GlobalMap:  append([]int(nil), m.global...),
		Seats:      make(map[int]SeatView, len(m.seats)),
	}
	for id, st := range m.seats {
		v.Seats[id] = SeatView{
			ClientID:   st.clientID,
			Name:       st.name,
			Online:     st.connID != "",
			TotalScore: st.totalScore,
			RoundScore: st.roundScore,
			Vote:       st.vote,
		}
	}
	return v
}

func (m *Manager) shutdown() {
	for id, ch := range m.conns {
		close(ch)
		delete(m.conns, id)
	}
	if m.admin != nil {
		close(m.admin)
		m.admin = nil
	}
	m.cancel()
}
