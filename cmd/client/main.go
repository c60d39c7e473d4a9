package main

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/config"
	"github.com/classlab/gerrymander/internal/identity"
	"github.com/classlab/gerrymander/internal/session"
	"github.com/classlab/gerrymander/internal/timer"
	"github.com/classlab/gerrymander/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.Debug)
	defer log.Sync() //nolint:errcheck

	idPath := cfg.IdentityFile
	if idPath == "" {
		idPath, err = identity.DefaultPath()
		if err != nil {
			log.Fatal("resolve identity path", zap.Error(err))
		}
	}
	clientID, err := identity.NewProvider(idPath).GetOrCreate()
	if err != nil {
		log.Fatal("load identity", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := ws.Dial(ctx, log.Named("ws"), cfg.ServerURL)
	if err != nil {
		log.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	countdown := timer.New(clockwork.NewRealClock())
	surface := &termSurface{}
	sess := session.New(log.Named("session"), clientID, surface, conn, countdown, cfg.RoundSeconds)
	loop := session.NewLoop(sess, conn.Inbound())

	go conn.ReadLoop(ctx)
	go readInput(loop, cancel)

	loop.Run(ctx)
}

// readInput is the input adapter: it turns terminal lines into gestures and
// posts them to the loop. A drag is expressed as one "draw" line listing the
// cells in selection order.
func readInput(loop *session.Loop, cancel context.CancelFunc) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "seat":
			if n, ok := atoi(fields, 1); ok {
				loop.Post(session.ClaimSeat{Seat: n})
			}
		case "vote":
			if n, ok := atoi(fields, 1); ok {
				loop.Post(session.CastVote{Option: n})
			}
		case "draw":
			if len(fields) < 2 {
				continue
			}
			if n, ok := atoi(fields, 1); ok {
				loop.Post(session.BeginSelect{Index: n})
			}
			for i := 2; i < len(fields); i++ {
				if n, ok := atoi(fields, i); ok {
					loop.Post(session.ExtendSelect{Index: n})
				}
			}
			loop.Post(session.EndSelect{})
		case "clear":
			if n, ok := atoi(fields, 1); ok {
				loop.Post(session.Dissolve{Index: n})
			}
		case "finish":
			loop.Post(session.Finish{})
		case "quit", "exit":
			cancel()
			return
		}
	}
	cancel()
}

func atoi(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
