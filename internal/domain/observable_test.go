package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHiddenJSON(t *testing.T) {
	t.Run("known marshals the value", func(t *testing.T) {
		data, err := json.Marshal(Known(Supply{Type: "water", Points: 2}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"water","points":2}`, string(data))
	})

	t.Run("unknown marshals the placeholder", func(t *testing.T) {
		data, err := json.Marshal(Unknown[Supply]())
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))
	})

	t.Run("placeholder unmarshals as unknown", func(t *testing.T) {
		var h Hidden[Supply]
		require.NoError(t, json.Unmarshal([]byte("{}"), &h))
		assert.False(t, h.IsKnown())
	})

	t.Run("value unmarshals as known", func(t *testing.T) {
		var h Hidden[Supply]
		require.NoError(t, json.Unmarshal([]byte(`{"type":"oar","points":1}`), &h))
		supply, known := h.Value()
		require.True(t, known)
		assert.Equal(t, "oar", supply.Type)
	})
}

func TestConcealAllKeepsLength(t *testing.T) {
	xs := knownAll([]Supply{{Type: "water"}, {Type: "oar"}, {Type: "knife"}})

	concealed := concealAll(xs)

	require.Len(t, concealed, 3)
	for _, h := range concealed {
		assert.False(t, h.IsKnown())
	}
	// The source is untouched.
	for _, h := range xs {
		assert.True(t, h.IsKnown())
	}
}

func TestConcealAllNil(t *testing.T) {
	assert.Nil(t, concealAll[Supply](nil))
}

func TestConcealedEvent(t *testing.T) {
	original, err := NewNewSupplies("player-1", []Supply{{Type: "water", Points: 2}})
	require.NoError(t, err)

	concealed := original.Concealed().(*NewSupplies)

	assert.True(t, concealed.IsObserved())
	assert.Len(t, concealed.Supplies, 1)
	assert.False(t, concealed.Supplies[0].IsKnown())

	// The original stays fully visible.
	assert.False(t, original.IsObserved())
	assert.True(t, original.Supplies[0].IsKnown())

	// Concealing an already concealed copy changes nothing further.
	twice := concealed.Concealed().(*NewSupplies)
	assert.True(t, twice.IsObserved())
	assert.False(t, twice.Supplies[0].IsKnown())
}

func TestProjectEvent(t *testing.T) {
	event, err := NewSupplyShowcase("player-1", knownAll([]Supply{{Type: "rope"}}))
	require.NoError(t, err)

	assert.Same(t, event, ProjectEvent(event, true).(*SupplyShowcase))

	projected := ProjectEvent(event, false).(*SupplyShowcase)
	assert.True(t, projected.IsObserved())
	assert.False(t, projected.Supplies[0].IsKnown())
}
