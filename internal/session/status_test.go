package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_TextRoundTrip(t *testing.T) {
	for _, st := range []State{StateIdle, StateAwaitingFix, StateRunning} {
		data, err := json.Marshal(st)
		require.NoError(t, err)

		var got State
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, st, got)
	}

	var st State
	assert.Error(t, st.UnmarshalText([]byte("stopped")))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "PT0S", formatElapsed(0))
	assert.Equal(t, "PT59S", formatElapsed(59))
	assert.Equal(t, "PT1H1M5S", formatElapsed(3665))
}
