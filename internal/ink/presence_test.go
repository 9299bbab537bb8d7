package ink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
)

func TestPresenceManager(t *testing.T) {
	pm := NewPresenceManager()
	assert.Nil(t, pm.StateMessage(), "no replay before anyone reports a pose")

	pm.Update("user_a", PresencePayload{
		DisplayName: "Ada",
		Stylus:      &StylusPose{Position: geom.Point{X: 1}, Pressed: true},
	})
	pm.Update("user_a", PresencePayload{
		DisplayName: "Ada",
		Stylus:      &StylusPose{Position: geom.Point{X: 2}},
	})
	pm.Update("user_b", PresencePayload{DisplayName: "Ben"})

	snap := pm.Snapshot()
	require.Len(t, snap, 2)
	require.NotNil(t, snap["user_a"].Stylus)
	assert.Equal(t, 2.0, snap["user_a"].Stylus.Position.X, "only the latest pose survives")
	assert.False(t, snap["user_a"].Stylus.Pressed)

	msg := pm.StateMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)
	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Len(t, state.Presences, 2)
	assert.Equal(t, "Ben", state.Presences["user_b"].DisplayName)

	pm.Remove("user_b")
	assert.Len(t, pm.Snapshot(), 1)
}
