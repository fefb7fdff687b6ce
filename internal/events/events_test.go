package events_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidhaven/arena/internal/events"
)

func TestDecode_ValidFrame(t *testing.T) {
	env, err := events.Decode([]byte(`{"event":"ping","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "ping", env.Event)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := events.Decode([]byte(`{"event":`))
	assert.Error(t, err)
}

func TestDecode_MissingEventName(t *testing.T) {
	_, err := events.Decode([]byte(`{"data":{"x":1}}`))
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	payload := &events.Pong{}
	payload.SetTimestamp(1234)

	frame, err := events.Encode(events.SPong, payload)
	require.NoError(t, err)

	env, err := events.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, events.SPong, env.Event)

	var decoded events.Pong
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, int64(1234), decoded.Timestamp)
}

func TestStampRaw_AddsTimestamp(t *testing.T) {
	out, err := events.StampRaw(json.RawMessage(`{"abilityType":"tornado"}`), 99)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, "tornado", body["abilityType"])
	assert.Equal(t, float64(99), body["timestamp"])
}

func TestStampRaw_EmptyBody(t *testing.T) {
	out, err := events.StampRaw(nil, 42)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, float64(42), body["timestamp"])
}

func TestStampRaw_RejectsNonObject(t *testing.T) {
	_, err := events.StampRaw(json.RawMessage(`[1,2,3]`), 1)
	assert.Error(t, err)
}

func TestParseClient_TypedPayload(t *testing.T) {
	raw := json.RawMessage(`{"roomId":"r1","enemyId":"e1","damage":50,"sourcePlayerId":"p1"}`)
	payload, err := events.ParseClient(events.CEnemyDamage, raw)
	require.NoError(t, err)

	dmg, ok := payload.(*events.EnemyDamage)
	require.True(t, ok)
	assert.Equal(t, "r1", dmg.RoomID)
	assert.Equal(t, "e1", dmg.EnemyID)
	assert.Equal(t, 50, dmg.Damage)
	assert.Equal(t, "p1", dmg.SourcePlayerID)
}

func TestParseClient_PassthroughCarriesRoomID(t *testing.T) {
	raw := json.RawMessage(`{"roomId":"r1","effect":"sparkles"}`)
	payload, err := events.ParseClient(events.CPlayerEffect, raw)
	require.NoError(t, err)

	pt, ok := payload.(*events.Passthrough)
	require.True(t, ok)
	assert.Equal(t, "r1", pt.RoomID)
}

func TestParseClient_UnknownEventRejected(t *testing.T) {
	_, err := events.ParseClient("teleport-hack", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestParseClient_BodylessEvents(t *testing.T) {
	for _, evt := range []string{events.CHeartbeat, events.CPing, events.CLeaveRoom} {
		payload, err := events.ParseClient(evt, nil)
		require.NoError(t, err, evt)
		assert.Nil(t, payload, evt)
	}
}

func TestParseClient_MalformedBody(t *testing.T) {
	_, err := events.ParseClient(events.CJoinRoom, json.RawMessage(`"not-an-object"`))
	assert.Error(t, err)
}
