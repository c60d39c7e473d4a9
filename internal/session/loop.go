package session

import (
	"context"
)

// Gesture is one user input, already translated by the input adapter.
type Gesture interface{ isGesture() }

type ClaimSeat struct{ Seat int }
type CastVote struct{ Option int }
type BeginSelect struct{ Index int }
type ExtendSelect struct{ Index int }
type EndSelect struct{}
type Dissolve struct{ Index int }
type Finish struct{}

func (ClaimSeat) isGesture()    {}
func (CastVote) isGesture()     {}
func (BeginSelect) isGesture()  {}
func (ExtendSelect) isGesture() {}
func (EndSelect) isGesture()    {}
func (Dissolve) isGesture()     {}
func (Finish) isGesture()       {}

// Loop serializes inbound frames, user gestures and timer ticks onto the
// session, so no handler ever runs concurrently with another. It owns the
// only goroutine that touches the Session after start.
type Loop struct {
	session  *Session
	inbound  <-chan []byte
	gestures chan Gesture
}

func NewLoop(s *Session, inbound <-chan []byte) *Loop {
	return &Loop{
		session:  s,
		inbound:  inbound,
		gestures: make(chan Gesture, 16),
	}
}

// Gestures is where the input adapter posts. Posting never blocks the UI:
// if the loop is behind, the gesture is dropped (a redraw will catch up).
func (l *Loop) Gestures() chan<- Gesture { return l.gestures }

func (l *Loop) Post(g Gesture) {
	select {
	case l.gestures <- g:
	default:
	}
}

// Run applies events until the context ends or the inbound channel closes.
func (l *Loop) Run(ctx context.Context) {
	l.session.OnConnect()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-l.inbound:
			if !ok {
				return
			}
			l.session.HandleRaw(frame)
		case g := <-l.gestures:
			l.apply(g)
		case ev := <-l.session.timer.C():
			l.session.HandleTimer(ev)
		}
	}
}

func (l *Loop) apply(g Gesture) {
	switch g := g.(type) {
	case ClaimSeat:
		l.session.ClaimSeat(g.Seat)
	case CastVote:
		l.session.CastVote(g.Option)
	case BeginSelect:
		l.session.BeginSelection(g.Index)
	case ExtendSelect:
		l.session.ExtendSelection(g.Index)
	case EndSelect:
		l.session.EndSelection()
	case Dissolve:
		l.session.DissolveDistrict(g.Index)
	case Finish:
		l.session.FinishRound()
	}
}
