package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasurementsMerge(t *testing.T) {
	m := Measurements{Height: 170, UsualSize: "M"}
	m.Merge(Measurements{Weight: 65})
	m.Merge(Measurements{Height: 175})

	assert.Equal(t, Measurements{Height: 175, Weight: 65, UsualSize: "M"}, m)
	assert.Empty(t, m.Missing())
	assert.Equal(t, []string{"height", "weight"}, Measurements{}.Missing())
	assert.Equal(t, []string{"weight"}, Measurements{Height: 160}.Missing())
}

func TestAppendTurnsCapsHistory(t *testing.T) {
	cc := NewConversationContext("s1", "u1")
	for i := 0; i < 14; i++ {
		cc.AppendTurns(10, Turn{Role: RoleUser, Text: fmt.Sprint(i)})
	}

	assert.Len(t, cc.Turns, 10)
	assert.Equal(t, "4", cc.Turns[0].Text)
	assert.Equal(t, "13", cc.Turns[9].Text)

	recent := cc.RecentTurns(5)
	assert.Len(t, recent, 5)
	assert.Equal(t, "9", recent[0].Text)
}

func TestLastUserTurn(t *testing.T) {
	cc := NewConversationContext("s1", "u1")
	assert.Nil(t, cc.LastUserTurn())

	cc.AppendTurns(10,
		Turn{Role: RoleUser, Text: "tồn kho thấp"},
		Turn{Role: RoleAssistant, Text: "..."},
	)
	assert.Equal(t, "tồn kho thấp", cc.LastUserTurn().Text)
}

func TestIsGuest(t *testing.T) {
	tests := map[string]bool{
		"":            true,
		"anonymous":   true,
		"guest_8f2c1": true,
		"b0d5c1e2":    false,
	}
	for id, want := range tests {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, want, IsGuest(id))
		})
	}
}
