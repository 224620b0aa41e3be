package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"start", StartMessage(at), "chore: session start – 2024-01-01 12:00"},
		{"end", EndMessage(at), "chore: session end – 2024-01-01 12:00"},
		{"autosave many", AutosaveMessage(3, at), "wip: auto-saving 3 files – 2024-01-01 12:00"},
		{"autosave one", AutosaveMessage(1, at), "wip: auto-saving 1 file – 2024-01-01 12:00"},
		{"autosave none", AutosaveMessage(0, at), "wip: auto-saving 0 files – 2024-01-01 12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestMessagesUseLocalTimeOfArgument(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC).In(tokyo)
	assert.Equal(t, "chore: session start – 2024-01-02 08:30", StartMessage(at))
}
