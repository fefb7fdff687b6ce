package events

// Client → server event names.
const (
	CJoinRoom           = "join-room"
	CStartGame          = "start-game"
	CLeaveRoom          = "leave-room"
	CHeartbeat          = "heartbeat"
	CPing               = "ping"
	CPlayerUpdate       = "player-update"
	CWeaponChanged      = "weapon-changed"
	CPlayerAttack       = "player-attack"
	CPlayerAbility      = "player-ability"
	CPlayerAnimation    = "player-animation-state"
	CPlayerEffect       = "player-effect"
	CPlayerDebuff       = "player-debuff"
	CPlayerStealth      = "player-stealth"
	CPlayerKnockback    = "player-knockback"
	CPlayerTornado      = "player-tornado-effect"
	CPlayerDeathEffect  = "player-death-effect"
	CPlayerHealthChange = "player-health-changed"
	CPlayerShieldChange = "player-shield-changed"
	CPlayerEssence      = "player-essence-changed"
	CPlayerLevelChange  = "player-level-changed"
	CPlayerPurchase     = "player-purchase"
	CPlayerDied         = "player-died"
	CPlayerRespawn      = "player-respawn"
	CPlayerRespawned    = "player-respawned"
	CPlayerDamage       = "player-damage"
	CHealAllies         = "heal-allies"
	CHealNearbyAllies   = "heal-nearby-allies"
	CPlayerHealing      = "player-healing"
	CEnemyDamage        = "enemy-damage"
	CEnemyPosition      = "enemy-position-update"
	CApplyStatusEffect  = "apply-status-effect"
	CGetEnemyStatus     = "get-enemy-status"
	CTowerDamage        = "tower-damage"
	CPillarDamage       = "pillar-damage"
	CSummonedUnitDamage = "summoned-unit-damage"
	CChatMessage        = "chat-message"
	CPreviewRoom        = "preview-room"
)

// Server → client event names.
const (
	SRoomJoined          = "room-joined"
	SRoomPreview         = "room-preview"
	SRoomFull            = "room-full"
	SPlayerJoined        = "player-joined"
	SPlayerLeft          = "player-left"
	SPlayerMoved         = "player-moved"
	SPlayerWeaponChanged = "player-weapon-changed"
	SPlayerAttacked      = "player-attacked"
	SPlayerUsedAbility   = "player-used-ability"
	SPlayerAnimation     = "player-animation-state"
	SPlayerEffect        = "player-effect"
	SPlayerDebuff        = "player-debuff"
	SPlayerStealth       = "player-stealth"
	SPlayerKnockback     = "player-knockback"
	SPlayerTornado       = "player-tornado-effect"
	SPlayerDeathEffect   = "player-death-effect"
	SPlayerHealthUpdated = "player-health-updated"
	SPlayerShieldChanged = "player-shield-changed"
	SPlayerEssence       = "player-essence-changed"
	SPlayerLevelChanged  = "player-level-changed"
	SPlayerPurchase      = "player-purchase"
	SPlayerDied          = "player-died"
	SPlayerRespawned     = "player-respawned"
	SPlayerDamaged       = "player-damaged"
	SPlayerHealing       = "player-healing"
	SPlayerKill          = "player-kill"
	SPlayerExperience    = "player-experience-gained"
	SAllyHealed          = "ally-healed"
	SEnemySpawned        = "enemy-spawned"
	SEnemyMoved          = "enemy-moved"
	SEnemyDamaged        = "enemy-damaged"
	SEnemyRemoved        = "enemy-removed"
	SEnemyStatusEffect   = "enemy-status-effect"
	SEnemyStatusResponse = "enemy-status-response"
	STowerSpawned        = "tower-spawned"
	STowerDamaged        = "tower-damaged"
	STowerDestroyed      = "tower-destroyed"
	SPillarSpawned       = "pillar-spawned"
	SPillarDamaged       = "pillar-damaged"
	SPillarDestroyed     = "pillar-destroyed"
	SSummonedUnits       = "summoned-units-updated"
	SSummonedUnitDamaged = "summoned-unit-damaged"
	SWaveCompleted       = "wave-completed"
	SGameStarted         = "game-started"
	SKillCountUpdated    = "kill-count-updated"
	SBossSpawned         = "boss-spawned"
	SBossDefeated        = "boss-defeated"
	SChatMessage         = "chat-message"
	SStartGameSuccess    = "start-game-success"
	SStartGameFailed     = "start-game-failed"
	SPong                = "pong"
)

// Experience source labels carried by player-experience-gained.
const (
	XPSourcePvPKill        = "pvp_player_kill"
	XPSourceWaveCompletion = "pvp_wave_completion"
	XPSourceUnitKill       = "pvp_unit_kill"
	XPSourceBossKill       = "boss_kill"
	XPSourceBossSkeleton   = "boss_skeleton_kill"
)
