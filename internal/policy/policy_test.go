package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitalforms/formlink/internal/model"
)

func TestCanAccess(t *testing.T) {
	admin := model.Principal{ID: 1, Username: "admin", Role: model.RoleAdmin}
	agent := model.Principal{ID: 7, Username: "agent7", Role: model.RoleAgent}

	tests := []struct {
		name    string
		p       model.Principal
		ownerID uint64
		want    bool
	}{
		{"agent owns resource", agent, 7, true},
		{"agent denied on other owner", agent, 8, false},
		{"admin bypasses ownership", admin, 8, true},
		{"admin owns resource", admin, 1, true},
		{"zero owner never matches agent", agent, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.p, tt.ownerID))
		})
	}
}
