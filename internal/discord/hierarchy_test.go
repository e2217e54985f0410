package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanModerate(t *testing.T) {
	positions := map[string]int{"admin": 10, "bot": 7, "mod": 5, "member": 1}

	tests := []struct {
		name        string
		targetID    string
		botRoles    []string
		targetRoles []string
		want        bool
	}{
		{"below the bot", "t", []string{"bot"}, []string{"mod", "member"}, true},
		{"no roles at all", "t", []string{"bot"}, nil, true},
		{"above the bot", "t", []string{"bot"}, []string{"admin"}, false},
		{"same top role", "t", []string{"mod"}, []string{"mod"}, false},
		{"owner is untouchable", "owner", []string{"bot", "admin"}, nil, false},
		{"unknown roles count as everyone", "t", []string{"bot"}, []string{"deleted-role"}, true},
		{"bot without roles", "t", nil, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, canModerate("owner", tc.targetID, positions, tc.botRoles, tc.targetRoles))
		})
	}
}
