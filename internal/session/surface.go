package session

import (
	"github.com/classlab/gerrymander/internal/engine"
	"github.com/classlab/gerrymander/internal/grid"
	"github.com/classlab/gerrymander/internal/protocol"
)

type Screen string

const (
	ScreenLogin   Screen = "login"
	ScreenVote    Screen = "vote"
	ScreenGame    Screen = "game"
	ScreenResults Screen = "results"
)

// Surface is the rendering target for session commands. Implementations draw
// however they like (the session never imports a UI toolkit) and must treat
// every call as replacing whatever the previous call of the same kind drew.
type Surface interface {
	ShowScreen(Screen)
	ShowWaiting(text string)
	Notify(text string)
	SetBadge(name string)
	ApplyRoundConfig(cfg protocol.RoundConfig)
	RenderSeatMap(taken []int, mine int)
	RenderGrid(cells []grid.Cell, districts []engine.District, selection []int)
	RenderScore(score engine.Score, districtCount int, complete bool)
	RenderTimer(remaining int)
	RenderResults(entries []protocol.LeaderboardEntry, percent int)
	// Reload discards everything client-side, the hard-reset equivalent of
	// reloading the page.
	Reload()
}

// Sender pushes one message toward the server, fire-and-forget. Failures are
// the adapter's to log; the session never waits on a send.
type Sender interface {
	Send(protocol.ClientMessage)
}
