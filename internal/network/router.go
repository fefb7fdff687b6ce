package network

import (
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/room"
	"github.com/voidhaven/arena/internal/observability"
)

// passthroughNames maps visual-only client events to the server event they
// re-broadcast as. Most names are identical on both sides.
var passthroughNames = map[string]string{
	events.CPlayerAttack:      events.SPlayerAttacked,
	events.CPlayerAbility:     events.SPlayerUsedAbility,
	events.CPlayerAnimation:   events.SPlayerAnimation,
	events.CPlayerEffect:      events.SPlayerEffect,
	events.CPlayerDebuff:      events.SPlayerDebuff,
	events.CPlayerStealth:     events.SPlayerStealth,
	events.CPlayerKnockback:   events.SPlayerKnockback,
	events.CPlayerTornado:     events.SPlayerTornado,
	events.CPlayerDeathEffect: events.SPlayerDeathEffect,
	events.CPlayerHealing:     events.SPlayerHealing,
	events.CPlayerRespawned:   events.SPlayerRespawned,
}

// includeSender lists pass-through events echoed back to their sender. The
// client-side effects for these are driven by the broadcast, so the sender
// needs its own copy.
var includeSender = map[string]bool{
	events.CPlayerStealth:   true,
	events.CPlayerKnockback: true,
	events.CPlayerTornado:   true,
	events.CPlayerHealing:   true,
}

// Router dispatches inbound client frames to room operations.
type Router struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	hub     *Hub
	rooms   *room.Manager
	clock   func() time.Time
}

// NewRouter creates the inbound dispatcher.
func NewRouter(logger *zap.Logger, metrics *observability.Metrics, hub *Hub, rooms *room.Manager) *Router {
	return &Router{
		logger:  logger,
		metrics: metrics,
		hub:     hub,
		rooms:   rooms,
		clock:   time.Now,
	}
}

// Handle processes one inbound frame. A panicking handler must not take the
// server down; the frame is dropped and the connection survives.
func (r *Router) Handle(c *Client, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.MessagesDropped.WithLabelValues("panic").Inc()
			r.logger.Error("handler panicked",
				zap.String("conn_id", c.ID),
				zap.Any("panic", rec),
			)
		}
	}()

	env, err := events.Decode(frame)
	if err != nil {
		r.metrics.MessagesDropped.WithLabelValues("bad_frame").Inc()
		r.logger.Debug("dropping malformed frame", zap.String("conn_id", c.ID), zap.Error(err))
		return
	}
	r.metrics.MessagesReceived.WithLabelValues(env.Event).Inc()

	// Any inbound traffic proves liveness.
	c.Heartbeat(r.clock())

	payload, err := events.ParseClient(env.Event, env.Data)
	if err != nil {
		r.metrics.MessagesDropped.WithLabelValues("bad_payload").Inc()
		r.logger.Debug("dropping unparseable event",
			zap.String("conn_id", c.ID),
			zap.String("event", env.Event),
			zap.Error(err),
		)
		return
	}

	switch env.Event {
	case events.CHeartbeat:
		// Liveness already recorded above.
	case events.CPing:
		r.hub.SendTo(c, events.SPong, &events.Pong{})
	case events.CJoinRoom:
		r.handleJoin(c, payload.(*events.JoinRoom))
	case events.CLeaveRoom:
		r.handleLeave(c)
	case events.CPreviewRoom:
		r.handlePreview(c, payload.(*events.PreviewRoom))
	default:
		r.dispatchRoomEvent(c, env, payload)
	}
}

// handleJoin creates the room on demand, adds the player, and replies with
// the join snapshot. The connection id doubles as the player id.
func (r *Router) handleJoin(c *Client, p *events.JoinRoom) {
	if p.RoomID == "" || p.PlayerName == "" {
		r.metrics.MessagesDropped.WithLabelValues("bad_payload").Inc()
		return
	}
	if _, roomID := c.Session(); roomID != "" {
		// Already in a room; leave first.
		r.metrics.MessagesDropped.WithLabelValues("already_joined").Inc()
		return
	}

	rm := r.rooms.GetOrCreate(p.RoomID)
	_, err := rm.AddPlayer(c.ID, p.PlayerName, p.Weapon, p.Subclass, entity.GameMode(p.GameMode))
	switch {
	case errors.Is(err, room.ErrRoomFull):
		r.hub.SendTo(c, events.SRoomFull, &events.RoomFull{RoomID: p.RoomID})
		if rm.Empty() {
			r.rooms.Remove(p.RoomID)
		}
		return
	case err != nil:
		r.metrics.MessagesDropped.WithLabelValues("join_rejected").Inc()
		r.logger.Debug("join rejected",
			zap.String("conn_id", c.ID),
			zap.String("room_id", p.RoomID),
			zap.Error(err),
		)
		if rm.Empty() {
			r.rooms.Remove(p.RoomID)
		}
		return
	}

	c.SetSession(c.ID, p.RoomID)
	r.hub.SendTo(c, events.SRoomJoined, rm.Snapshot(c.ID))
	r.syncGauges()

	r.logger.Info("player joined room",
		zap.String("player_id", c.ID),
		zap.String("room_id", p.RoomID),
		zap.String("mode", string(rm.Mode())),
	)
}

// handleLeave removes the player from its room and drops the room when it
// empties.
func (r *Router) handleLeave(c *Client) {
	playerID, roomID := c.Session()
	if roomID == "" {
		return
	}
	if rm, ok := r.rooms.Get(roomID); ok {
		_ = rm.RemovePlayer(playerID)
		if rm.Empty() {
			r.rooms.Remove(roomID)
		}
	}
	c.ClearSession()
	r.syncGauges()

	r.logger.Info("player left room",
		zap.String("player_id", playerID),
		zap.String("room_id", roomID),
	)
}

// handlePreview answers a lobby query. Works without membership; a missing
// room answers with Exists false rather than an error.
func (r *Router) handlePreview(c *Client, p *events.PreviewRoom) {
	if rm, ok := r.rooms.Get(p.RoomID); ok {
		r.hub.SendTo(c, events.SRoomPreview, rm.Preview())
		return
	}
	r.hub.SendTo(c, events.SRoomPreview, &events.RoomPreview{RoomID: p.RoomID})
}

// dispatchRoomEvent handles every event that requires room membership.
func (r *Router) dispatchRoomEvent(c *Client, env events.Envelope, payload any) {
	playerID, sessionRoom := c.Session()
	if sessionRoom == "" {
		r.metrics.MessagesDropped.WithLabelValues("no_session").Inc()
		return
	}
	rm, ok := r.rooms.Get(sessionRoom)
	if !ok || !rm.HasPlayer(playerID) {
		r.metrics.MessagesDropped.WithLabelValues("not_member").Inc()
		return
	}

	if server, isPassthrough := passthroughNames[env.Event]; isPassthrough {
		r.handlePassthrough(rm, playerID, env, server)
		return
	}

	switch p := payload.(type) {
	case *events.StartGame:
		if err := rm.StartGame(playerID); err != nil {
			r.hub.SendTo(c, events.SStartGameFailed, &events.StartGameFailed{
				RoomID: sessionRoom,
				Error:  err.Error(),
			})
			return
		}
		r.hub.SendTo(c, events.SStartGameSuccess, &events.StartGameSuccess{RoomID: sessionRoom})
	case *events.PlayerUpdate:
		rm.UpdatePlayerPosition(playerID, p.Position, p.Rotation, p.Weapon, p.Health, p.MovementDirection)
	case *events.WeaponChanged:
		rm.UpdatePlayerWeapon(playerID, p.Weapon, p.Subclass)
	case *events.PlayerHealthChanged:
		rm.UpdatePlayerHealth(playerID, p.Health)
	case *events.PlayerShieldChanged:
		rm.UpdatePlayerShield(playerID, p.Shield)
	case *events.PlayerEssenceChanged:
		rm.UpdatePlayerEssence(playerID, p.Essence)
	case *events.PlayerLevelChanged:
		rm.UpdatePlayerLevel(playerID, p.Level)
	case *events.PlayerPurchase:
		rm.RecordPurchase(playerID, p.ItemID)
	case *events.PlayerDied:
		rm.ReportPlayerDeath(playerID, p.DamageType)
	case *events.PlayerRespawn:
		rm.RespawnPlayer(playerID, p.Position)
	case *events.PlayerDamage:
		rm.DamagePlayer(p.TargetPlayerID, p.Damage, playerID, p.DamageType, p.IsCritical)
	case *events.HealAllies:
		rm.HealAllies(playerID, p.Amount)
	case *events.HealNearbyAllies:
		rm.HealNearbyAllies(playerID, p.Radius, p.Amount)
	case *events.EnemyDamage:
		rm.DamageEnemy(p.EnemyID, p.Damage, playerID)
	case *events.EnemyPositionUpdate:
		rm.UpdateEnemyPosition(p.EnemyID, p.Position, p.Rotation, playerID)
	case *events.ApplyStatusEffect:
		rm.ApplyStatusEffect(p.EnemyID, entity.StatusEffectType(p.EffectType), time.Duration(p.DurationMs)*time.Millisecond)
	case *events.GetEnemyStatus:
		r.hub.SendTo(c, events.SEnemyStatusResponse, &events.EnemyStatusResponse{
			EnemyID: p.EnemyID,
			Effects: rm.StatusEffects(p.EnemyID),
		})
	case *events.TowerDamage:
		rm.DamageTower(p.TowerID, p.Damage, playerID, p.DamageType)
	case *events.PillarDamage:
		rm.DamagePillar(p.PillarID, p.Damage, playerID)
	case *events.SummonedUnitDamage:
		rm.DamageSummonedUnit(p.UnitID, p.Damage, playerID)
	case *events.ChatMessage:
		name := playerID
		if player, ok := rm.Player(playerID); ok {
			name = player.Name
		}
		r.hub.Deliver(sessionRoom, room.Outbound{
			Event: events.SChatMessage,
			Payload: &events.ChatMessageEvt{
				PlayerID:   playerID,
				PlayerName: name,
				Message:    p.Message,
			},
		})
	default:
		r.metrics.MessagesDropped.WithLabelValues("unknown_event").Inc()
	}
}

// handlePassthrough re-broadcasts a visual event's original body. The body is
// not modeled server side beyond the roomId membership check; it goes back
// out verbatim with a fresh timestamp.
func (r *Router) handlePassthrough(rm *room.Room, playerID string, env events.Envelope, serverEvent string) {
	if env.Event == events.CPlayerStealth {
		// Stealth flags feed the join snapshot, so mirror them into state.
		var flags struct {
			IsStealthed bool `json:"isStealthed"`
			IsInvisible bool `json:"isInvisible"`
		}
		if err := json.Unmarshal(env.Data, &flags); err == nil {
			rm.SetPlayerStealth(playerID, flags.IsStealthed, flags.IsInvisible)
		}
	}

	out := room.Outbound{Event: serverEvent, Payload: json.RawMessage(env.Data)}
	if !includeSender[env.Event] {
		out.ExcludePlayerID = playerID
	}
	r.hub.Deliver(rm.ID, out)
}

// syncGauges refreshes the room and player gauges from the manager.
func (r *Router) syncGauges() {
	details, totalPlayers := r.rooms.Details()
	r.metrics.RoomsActive.Set(float64(len(details)))
	r.metrics.PlayersActive.Set(float64(totalPlayers))
}
