package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetsJSON(t *testing.T) {
	t.Run("sentinels", func(t *testing.T) {
		data, err := json.Marshal(TargetsAll())
		require.NoError(t, err)
		assert.Equal(t, `"All"`, string(data))

		var targets Targets
		require.NoError(t, json.Unmarshal([]byte(`"Server"`), &targets))
		assert.True(t, targets.IsServer())
	})

	t.Run("id list", func(t *testing.T) {
		data, err := json.Marshal(TargetsFor("p1", "p2"))
		require.NoError(t, err)
		assert.Equal(t, `["p1","p2"]`, string(data))

		var targets Targets
		require.NoError(t, json.Unmarshal(data, &targets))
		assert.Equal(t, []string{"p1", "p2"}, targets.IDs)
	})

	t.Run("unknown sentinel rejected", func(t *testing.T) {
		var targets Targets
		assert.Error(t, json.Unmarshal([]byte(`"Everyone"`), &targets))
	})

	t.Run("non-addressing shape rejected", func(t *testing.T) {
		var targets Targets
		assert.Error(t, json.Unmarshal([]byte(`42`), &targets))
	})
}

func TestTargetedEventRequiresRecipient(t *testing.T) {
	_, err := NewNewRelationships("", "f", "e")
	require.Error(t, err)

	_, err = NewSupplyShowcase("", nil)
	require.Error(t, err)
}

func TestDecodePlayerEvent(t *testing.T) {
	t.Run("defaults and stamping", func(t *testing.T) {
		event, err := DecodePlayerEvent([]byte(`{"type":"PlayerConnect"}`), "p1")
		require.NoError(t, err)
		assert.Equal(t, "PlayerConnect", event.EventType())
		assert.Equal(t, "p1", event.Player())
		assert.True(t, event.EventTargets().IsAll())
	})

	t.Run("client cannot claim another identity", func(t *testing.T) {
		event, err := DecodePlayerEvent([]byte(`{"type":"NameChange","new_name":"Ada","client_id":"p9"}`), "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", event.Player())
		assert.Equal(t, "Ada", event.(*NameChange).NewName)
	})

	t.Run("explicit targets survive decoding", func(t *testing.T) {
		event, err := DecodePlayerEvent([]byte(`{"type":"NameChange","new_name":"Ada","targets":["p2"]}`), "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p2"}, event.EventTargets().IDs)
	})

	t.Run("malformed frame", func(t *testing.T) {
		_, err := DecodePlayerEvent([]byte(`{`), "p1")
		assertErrorCode(t, err, "DECODING_ERROR")
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := DecodePlayerEvent([]byte(`{"new_name":"Ada"}`), "p1")
		assertErrorCode(t, err, "DECODING_ERROR")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := DecodePlayerEvent([]byte(`{"type":"SelfDestruct"}`), "p1")
		assertErrorCode(t, err, "DECODING_ERROR")
	})

	t.Run("server events are not inbound", func(t *testing.T) {
		_, err := DecodePlayerEvent([]byte(`{"type":"HostChange","new_host":"p1"}`), "p1")
		assertErrorCode(t, err, "DECODING_ERROR")
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := DecodePlayerEvent([]byte(`{"type":"NameChange","new_name":7}`), "p1")
		assertErrorCode(t, err, "DECODING_ERROR")
	})

	t.Run("emptied targets rejected", func(t *testing.T) {
		_, err := DecodePlayerEvent([]byte(`{"type":"TakeSupply","targets":[]}`), "p1")
		assertErrorCode(t, err, "DECODING_ERROR")
	})
}

func TestPlayerEventTypes(t *testing.T) {
	types := PlayerEventTypes()
	assert.ElementsMatch(t, []string{
		"PlayerConnect", "NameChange", "StartRequest",
		"TakeSupply", "NavigationRequest", "NavigationChoice",
	}, types)
}

func TestRegisterPlayerEventDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		registerPlayerEvent("PlayerConnect", func() PlayerEvent { return NewPlayerConnect() })
	})
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*AppError)
	require.True(t, ok, "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}
