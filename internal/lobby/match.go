package lobby

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rts-session/internal/player"
	"github.com/DoyleJ11/rts-session/internal/registry"
)

// minRoster is the floor under Config.MinPlayers: a match needs opponents.
const minRoster = 2

// startMatch begins the lobby to match transition. Ineligible requests are
// dropped without telling the requester why.
func (l *Lobby) startMatch(connID string) {
	p, ok := l.byConn[connID]
	switch {
	case !ok:
		return
	case !p.IsPartyOwner():
		l.log.Debug("start ignored: not party owner", zap.String("conn", connID))
		return
	case len(l.roster) < max(l.cfg.MinPlayers, minRoster):
		l.log.Debug("start ignored: not enough participants", zap.String("conn", connID), zap.Int("roster", len(l.roster)))
		return
	case l.inProgress:
		return
	}

	l.inProgress = true
	l.mapID = l.cfg.MapID
	l.lastStartErr = nil
	l.startGen++
	gen, mapID := l.startGen, l.mapID

	l.log.Info("match starting", zap.String("map", mapID), zap.Int("participants", len(l.roster)))
	l.broadcast(player.Notice{Type: player.NoticeMatchStarted, MapID: mapID})

	// The transition has no timeout: a loader that never returns leaves the
	// session in progress until it is reset.
	go func() {
		m, err := l.loader.Load(l.ctx, mapID)
		select {
		case l.inbox <- mapLoaded{gen: gen, m: m, err: err}:
		case <-l.ctx.Done():
		}
	}()
}

// finishTransition spawns one base per participant still in the roster.
// Start positions are reused in order once every slot is taken. It is a
// best-effort fan-out: a failed spawn leaves that participant without a
// base and is reported, the rest proceed.
func (l *Lobby) finishTransition(msg mapLoaded) {
	if msg.gen != l.startGen || !l.inProgress {
		return
	}
	if msg.err != nil {
		l.lastStartErr = fmt.Errorf("load map %s: %w", l.mapID, msg.err)
		l.log.Error("map transition failed", zap.String("map", l.mapID), zap.Error(msg.err))
		return
	}

	l.obstacles = msg.m.Obstacles
	base := l.catalog.Base()

	var errs error
	starts := msg.m.StartPositions
	for i, p := range l.roster {
		if len(starts) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("participant %s: %w", p.ConnID(), ErrNoStartPosition))
			continue
		}
		_, err := l.registry.Spawn(registry.KindBase, p.ConnID(), starts[i%len(starts)],
			registry.WithFootprint(base.Footprint),
			registry.WithHealth(base.Health),
		)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("participant %s: %w", p.ConnID(), err))
		}
	}

	l.lastStartErr = errs
	if errs != nil {
		l.log.Error("base spawn incomplete",
			zap.Int("failed", len(multierr.Errors(errs))),
			zap.Int("participants", len(l.roster)),
			zap.Error(errs),
		)
	}
	l.listener.MatchStarted(l.code, l.mapID)
}

// handleEntityEvent sees every registry event. Dead entities are despawned;
// a dead base also eliminates its owner.
func (l *Lobby) handleEntityEvent(ev registry.Event) {
	if ev.Type != registry.EventDied {
		return
	}
	if ev.Entity.Kind == registry.KindBase {
		l.eliminate(ev.Entity.Owner)
	}
	l.registry.Despawn(ev.Entity.ID)
}

func (l *Lobby) eliminate(connID string) {
	l.log.Info("participant eliminated", zap.String("conn", connID))
	l.listener.ParticipantEliminated(l.code, connID)
	l.broadcast(player.Notice{Type: player.NoticeEliminated, ConnID: connID})
}
