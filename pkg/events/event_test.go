package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := BaseEvent{
		Type:       TypeChatTurnCompleted,
		Data:       map[string]interface{}{"intent": "size_recommendation", "user_id": "u1"},
		OccurredAt: at,
	}

	b, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, TypeChatTurnCompleted, out.EventType())
	assert.Equal(t, "size_recommendation", out.String("intent"))
	assert.Equal(t, "", out.String("missing"))
	assert.True(t, at.Equal(out.Timestamp()))
}

func TestUnmarshalRejectsUntyped(t *testing.T) {
	_, err := Unmarshal([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}
