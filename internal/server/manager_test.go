package server

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/grid"
	"github.com/classlab/gerrymander/internal/protocol"
)

// helper: receive one message with a timeout so tests never hang
func recvMsg(t *testing.T, ch <-chan protocol.ServerMessage, within time.Duration) protocol.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return protocol.ServerMessage{} // unreachable
	}
}

func recvKind(t *testing.T, ch <-chan protocol.ServerMessage, kind string) protocol.ServerMessage {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatalf("outbox closed while waiting for %q", kind)
			}
			if msg.Type == kind {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", kind)
		}
	}
}

func recvView(t *testing.T, m *Manager) View {
	t.Helper()
	reply := make(chan View, 1)
	m.Inbox() <- GetView{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewManager(ctx, zap.NewNop(), rand.New(rand.NewSource(1)))
}

func join(t *testing.T, m *Manager, id string) chan protocol.ServerMessage {
	t.Helper()
	out := make(chan protocol.ServerMessage, 64)
	m.Inbox() <- Join{ID: id, Outbox: out}

	// Every join is greeted with the seat map and the current round.
	if msg := recvMsg(t, out, time.Second); msg.Type != protocol.KindSeatMapUpdate {
		t.Fatalf("first message %q, want seat_map_update", msg.Type)
	}
	if msg := recvMsg(t, out, time.Second); msg.Type != protocol.KindRoundSetup {
		t.Fatalf("second message %q, want round_setup", msg.Type)
	}
	return out
}

func claim(t *testing.T, m *Manager, connID string, seat int, clientID string) {
	t.Helper()
	m.Inbox() <- FromPlayer{ID: connID, Msg: protocol.ClientMessage{
		Type:     protocol.KindClaimSeat,
		SeatID:   protocol.Int(seat),
		ClientID: clientID,
	}}
}

func TestSeatClaimConfirmedAndBroadcast(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")

	claim(t, m, "c1", 4, "user_a")

	success := recvKind(t, out, protocol.KindLoginSuccess)
	if success.SeatID == nil || *success.SeatID != 4 || success.Name != "Desk #5" {
		t.Fatalf("login_success=%+v", success)
	}

	update := recvKind(t, out, protocol.KindSeatMapUpdate)
	if len(update.TakenSeats) != 1 || update.TakenSeats[0] != 4 {
		t.Fatalf("taken_seats=%v", update.TakenSeats)
	}
}

func TestSeatContentionDefersToServer(t *testing.T) {
	m := newTestManager(t)
	out1 := join(t, m, "c1")
	out2 := join(t, m, "c2")

	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out1, protocol.KindLoginSuccess)

	claim(t, m, "c2", 0, "user_b")
	errMsg := recvKind(t, out2, protocol.KindError)
	if errMsg.Message != "Seat Already Taken" {
		t.Fatalf("message=%q", errMsg.Message)
	}

	v := recvView(t, m)
	if v.NumSeats != 1 || v.Seats[0].ClientID != "user_a" {
		t.Fatalf("view=%+v", v)
	}
}

func TestOneSeatPerClient(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")

	claim(t, m, "c1", 1, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	claim(t, m, "c1", 2, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	v := recvView(t, m)
	if v.NumSeats != 1 {
		t.Fatalf("client holds %d seats", v.NumSeats)
	}
	if _, ok := v.Seats[2]; !ok {
		t.Fatalf("expected the newer seat to win: %+v", v.Seats)
	}
}

func TestIdentifyRestoresReturningClient(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 3, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	// Connection drops; the seat survives.
	m.Inbox() <- Leave{ID: "c1"}
	v := recvView(t, m)
	if v.NumSeats != 1 || v.Seats[3].Online {
		t.Fatalf("seat should survive offline: %+v", v)
	}

	// A fresh connection identifying with the same token is restored.
	out2 := join(t, m, "c2")
	m.Inbox() <- FromPlayer{ID: "c2", Msg: protocol.ClientMessage{
		Type:     protocol.KindIdentify,
		ClientID: "user_a",
	}}

	restore := recvKind(t, out2, protocol.KindRestoreSession)
	if restore.SeatID == nil || *restore.SeatID != 3 {
		t.Fatalf("restore=%+v", restore)
	}
	if restore.Name != "Desk #4" || restore.Phase != protocol.PhaseLogin {
		t.Fatalf("restore=%+v", restore)
	}
	if restore.RoundInfo == nil {
		t.Fatalf("restore missing round_info")
	}
	if restore.MapData != nil {
		t.Fatalf("no map exists yet, got %v", restore.MapData)
	}

	// An unknown token gets nothing.
	m.Inbox() <- FromPlayer{ID: "c2", Msg: protocol.ClientMessage{
		Type:     protocol.KindIdentify,
		ClientID: "user_unknown",
	}}
	v = recvView(t, m)
	if v.NumSeats != 1 {
		t.Fatalf("identify must never create seats")
	}
}

func TestVotesSeedTheGeneratedMap(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminNext}} // -> VOTE
	recvKind(t, out, protocol.KindPhaseChange)

	m.Inbox() <- FromPlayer{ID: "c1", Msg: protocol.ClientMessage{
		Type:  protocol.KindVote,
		Party: "PlayStation",
	}}
	v := recvView(t, m)
	if v.VoteCounts != [2]int{0, 1} {
		t.Fatalf("vote counts=%v", v.VoteCounts)
	}

	m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminNext}} // -> GAME
	game := recvKind(t, out, protocol.KindPhaseChange)
	if game.Phase != protocol.PhaseGame {
		t.Fatalf("phase=%q", game.Phase)
	}
	if len(game.MapData) != grid.CellCount {
		t.Fatalf("map has %d cells", len(game.MapData))
	}
	if game.MapData[0] != 1 {
		t.Fatalf("seat 0 voted index 1, map[0]=%d", game.MapData[0])
	}
	for _, side := range game.MapData {
		if side != 0 && side != 1 {
			t.Fatalf("bad side value %d", side)
		}
	}
}

func TestUnknownVoteLabelIgnored(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	m.Inbox() <- FromPlayer{ID: "c1", Msg: protocol.ClientMessage{
		Type:  protocol.KindVote,
		Party: "Sega",
	}}
	v := recvView(t, m)
	if v.VoteCounts != [2]int{0, 0} {
		t.Fatalf("vote counts=%v", v.VoteCounts)
	}
}

func TestScoresAccumulateAndRankLeaderboard(t *testing.T) {
	m := newTestManager(t)
	out1 := join(t, m, "c1")
	out2 := join(t, m, "c2")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out1, protocol.KindLoginSuccess)
	claim(t, m, "c2", 1, "user_b")
	recvKind(t, out2, protocol.KindLoginSuccess)

	finish := func(connID string, seat, score int) {
		m.Inbox() <- FromPlayer{ID: connID, Msg: protocol.ClientMessage{
			Type:   protocol.KindFinishRound,
			SeatID: protocol.Int(seat),
			Score:  protocol.Int(score),
		}}
	}
	finish("c1", 0, 17)
	finish("c2", 1, 50)

	// LOGIN -> VOTE -> GAME -> RESULTS
	for i := 0; i < 3; i++ {
		m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminNext}}
	}
	results := recvKind(t, out1, protocol.KindPhaseChange)
	for results.Phase != protocol.PhaseResults {
		results = recvKind(t, out1, protocol.KindPhaseChange)
	}

	lb := results.Leaderboard
	if len(lb) != 2 {
		t.Fatalf("leaderboard=%+v", lb)
	}
	if lb[0].Name != "Desk #2" || lb[0].Score != 50 || lb[1].Score != 17 {
		t.Fatalf("leaderboard not ranked: %+v", lb)
	}
}

func TestAdvanceRoundReplacesConfigAndClearsVotes(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	m.Inbox() <- FromPlayer{ID: "c1", Msg: protocol.ClientMessage{
		Type:  protocol.KindVote,
		Party: "Xbox",
	}}

	// Walk to RESULTS, then advance to the next round.
	for i := 0; i < 4; i++ {
		m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminNext}}
	}

	setup := recvKind(t, out, protocol.KindRoundSetup)
	if setup.Config == nil || setup.Config.ID != Playlist[1] {
		t.Fatalf("round_setup=%+v", setup.Config)
	}

	v := recvView(t, m)
	if v.Phase != protocol.PhaseVote || v.RoundID != Playlist[1] {
		t.Fatalf("view=%+v", v)
	}
	if v.VoteCounts != [2]int{0, 0} {
		t.Fatalf("votes not cleared: %v", v.VoteCounts)
	}
	if v.Seats[0].RoundScore != 0 {
		t.Fatalf("round score not cleared")
	}
}

func TestGameOverAfterLastRound(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	// Each round is 4 advances; the playlist ends with game_over.
	for i := 0; i < 4*len(Playlist); i++ {
		m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminNext}}
	}
	recvKind(t, out, protocol.KindGameOver)
}

func TestKickRemovesSeatAndNotifiesVictim(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 5, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{
		Type:   protocol.KindAdminKick,
		SeatID: protocol.Int(5),
	}}

	recvKind(t, out, protocol.KindKicked)
	update := recvKind(t, out, protocol.KindSeatMapUpdate)
	if len(update.TakenSeats) != 0 {
		t.Fatalf("taken_seats=%v", update.TakenSeats)
	}
}

func TestResetBroadcastsAndClearsState(t *testing.T) {
	m := newTestManager(t)
	out := join(t, m, "c1")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	for i := 0; i < 2; i++ { // -> VOTE -> GAME
		m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminNext}}
	}

	m.Inbox() <- FromAdmin{Msg: protocol.AdminMessage{Type: protocol.KindAdminReset}}
	recvKind(t, out, protocol.KindGameReset)

	v := recvView(t, m)
	if v.Phase != protocol.PhaseLogin || v.NumSeats != 0 || v.GlobalMap != nil || v.RoundID != Playlist[0] {
		t.Fatalf("view after reset=%+v", v)
	}
}

func TestAdminSeesVoteProgress(t *testing.T) {
	m := newTestManager(t)
	adminOut := make(chan protocol.AdminMessage, 16)
	m.Inbox() <- AdminJoin{Outbox: adminOut}

	first := <-adminOut
	if first.Type != protocol.KindAdminUpdate || first.CanProgress {
		t.Fatalf("initial update=%+v", first)
	}

	out := join(t, m, "c1")
	claim(t, m, "c1", 0, "user_a")
	recvKind(t, out, protocol.KindLoginSuccess)

	var update protocol.AdminMessage
	for update = range adminOut {
		if update.PlayerCount == 1 {
			break
		}
	}
	if !update.CanProgress {
		t.Fatalf("one seated player should allow progress: %+v", update)
	}
}
