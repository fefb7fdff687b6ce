package room

import (
	"time"

	"github.com/voidhaven/arena/internal/game/entity"
)

// Pending kills gate PvP experience on the victim actually respawning, so
// an unacknowledged kill never awards twice or at all.

// setPendingKillLocked stores a pending kill for a victim, overwriting any
// existing entry, and prunes stale entries as a side effect. Caller must
// hold r.mu.
func (r *Room) setPendingKillLocked(victimID string, pk *entity.PendingKill) {
	r.prunePendingKillsLocked(pk.At)
	r.pendingKills[victimID] = pk
}

// prunePendingKillsLocked discards pending kills older than PendingKillTTL.
// Caller must hold r.mu.
func (r *Room) prunePendingKillsLocked(now time.Time) {
	for victimID, pk := range r.pendingKills {
		if now.Sub(pk.At) > entity.PendingKillTTL {
			delete(r.pendingKills, victimID)
		}
	}
}

// PendingKillFor returns a copy of the pending kill awaiting a victim's
// respawn, pruning stale entries first.
func (r *Room) PendingKillFor(victimID string) (entity.PendingKill, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prunePendingKillsLocked(r.clock())
	pk, ok := r.pendingKills[victimID]
	if !ok {
		return entity.PendingKill{}, false
	}
	return *pk, true
}

// ClearPendingKill drops a victim's pending kill without awarding anything.
func (r *Room) ClearPendingKill(victimID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pendingKills, victimID)
}
