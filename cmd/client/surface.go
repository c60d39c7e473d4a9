package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/classlab/gerrymander/internal/engine"
	"github.com/classlab/gerrymander/internal/grid"
	"github.com/classlab/gerrymander/internal/protocol"
	"github.com/classlab/gerrymander/internal/session"
)

// termSurface renders session commands as plain terminal output. It is the
// only code in the client that knows what anything looks like.
type termSurface struct {
	badge string
	cfg   *protocol.RoundConfig
}

func (t *termSurface) ShowScreen(s session.Screen) {
	fmt.Printf("\n=== %s ===\n", strings.ToUpper(string(s)))
	switch s {
	case session.ScreenLogin:
		fmt.Println("pick a seat with: seat <0-29>")
	case session.ScreenVote:
		if t.cfg != nil {
			fmt.Printf("%s\n  [0] %s\n  [1] %s\nvote with: vote <0|1>\n",
				t.cfg.Question, t.cfg.Options[0], t.cfg.Options[1])
		}
	case session.ScreenGame:
		fmt.Println("draw districts with: draw <i> <i> <i> <i> <i>, dissolve with: clear <i>, submit with: finish")
	}
}

func (t *termSurface) ShowWaiting(text string) { fmt.Println("... " + text) }
func (t *termSurface) Notify(text string)      { fmt.Println("[!] " + text) }
func (t *termSurface) SetBadge(name string)    { t.badge = name }

func (t *termSurface) ApplyRoundConfig(cfg protocol.RoundConfig) {
	c := cfg
	t.cfg = &c
	fmt.Printf("--- new round: %s ---\n", cfg.Question)
}

func (t *termSurface) RenderSeatMap(taken []int, mine int) {
	fmt.Print("seats: ")
	for i := 0; i < grid.CellCount; i++ {
		switch {
		case i == mine:
			fmt.Print("M")
		case slices.Contains(taken, i):
			fmt.Print("x")
		default:
			fmt.Print(".")
		}
	}
	fmt.Println()
}

func (t *termSurface) RenderGrid(cells []grid.Cell, districts []engine.District, selection []int) {
	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			c := cells[y*grid.Cols+x]
			mark := fmt.Sprintf("%d", c.Side)
			if c.District != grid.NoDistrict {
				mark = strings.ToUpper(mark)
			}
			if slices.Contains(selection, c.Index) {
				mark = "*"
			}
			fmt.Printf("%s ", mark)
		}
		fmt.Println()
	}
}

func (t *termSurface) RenderScore(score engine.Score, districtCount int, complete bool) {
	fmt.Printf("baseline %d | wins %d | districts %d/%d | +%d%%\n",
		score.BaselineWins, score.CurrentWins, districtCount, engine.DistrictSlots, score.Percent)
	if complete {
		fmt.Println("all districts drawn; type finish to submit early")
	}
}

func (t *termSurface) RenderTimer(remaining int) {
	if remaining%10 == 0 || remaining <= 5 {
		fmt.Printf("0%d:%02d left\n", remaining/60, remaining%60)
	}
}

func (t *termSurface) RenderResults(entries []protocol.LeaderboardEntry, percent int) {
	fmt.Printf("your round score: +%d%%\n", percent)
	for i, e := range entries {
		if i >= 5 {
			break
		}
		me := ""
		if e.Name == t.badge {
			me = "  <- you"
		}
		fmt.Printf("%d. %s  +%d%% (round +%d%%)%s\n", i+1, e.Name, e.Score, e.Round, me)
	}
}

func (t *termSurface) Reload() {
	t.cfg = nil
	t.badge = ""
	fmt.Println("\n*** session reset by the host ***")
}
