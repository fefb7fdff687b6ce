package room

import (
	"math"
	"time"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
)

// MinPursuitDistance stops enemies from crowding their target; inside it
// they hold position but keep facing the player.
const MinPursuitDistance = 2.0

// AITick advances every live enemy by one 100 ms step: target selection,
// pursuit movement, and the per-enemy movement broadcast.
func (r *Room) AITick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || len(r.players) == 0 {
		return
	}

	dt := AITickInterval.Seconds()

	for _, e := range r.enemies {
		if e.IsDying {
			continue
		}

		target := r.acquireTargetLocked(e, now)
		if target == nil {
			continue
		}

		dist := geom.Dist(e.Position, target.Position)
		speed := r.catalog.MoveSpeed(e.Type)
		if speed > 0 && dist >= MinPursuitDistance {
			e.Position = geom.StepToward(e.Position, target.Position, speed*dt)
		}
		e.Rotation = geom.YawTo(e.Position, target.Position)

		r.emitLocked(Outbound{
			Event: events.SEnemyMoved,
			Payload: &events.EnemyMoved{
				EnemyID:  e.ID,
				Position: e.Position,
				Rotation: e.Rotation,
			},
		})
	}
}

// acquireTargetLocked resolves the player an enemy is pursuing, creating or
// repairing the aggro entry when the current target is missing. Caller must
// hold r.mu.
func (r *Room) acquireTargetLocked(e *entity.Enemy, now time.Time) *entity.Player {
	a, ok := r.aggro[e.ID]
	if !ok {
		a = &entity.Aggro{}
		r.aggro[e.ID] = a
	}
	if target, ok := r.players[a.TargetPlayerID]; ok {
		return target
	}

	closest := r.closestPlayerLocked(e.Position)
	if closest == nil {
		return nil
	}
	a.TargetPlayerID = closest.ID
	a.LastUpdate = now
	return closest
}

// closestPlayerLocked returns the player nearest to pos by 3D distance, or
// nil when the room is empty. Caller must hold r.mu.
func (r *Room) closestPlayerLocked(pos geom.Vector3) *entity.Player {
	var closest *entity.Player
	best := math.MaxFloat64
	for _, p := range r.players {
		d := geom.Dist(pos, p.Position)
		if d < best {
			best = d
			closest = p
		}
	}
	return closest
}

// AggroTarget reports which player an enemy is currently pursuing.
func (r *Room) AggroTarget(enemyID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.aggro[enemyID]
	if !ok {
		return "", false
	}
	return a.TargetPlayerID, true
}
