package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status LinkStatus
		days   int
		now    time.Time
		want   EffectiveLinkStatus
	}{
		{
			name:   "active before expiry",
			status: LinkActive,
			days:   14,
			now:    created.AddDate(0, 0, 13),
			want:   LinkEffectiveActive,
		},
		{
			name:   "expired exactly at expiry instant",
			status: LinkActive,
			days:   14,
			now:    created.AddDate(0, 0, 14),
			want:   LinkEffectiveExpired,
		},
		{
			name:   "expired after expiry",
			status: LinkActive,
			days:   14,
			now:    created.AddDate(0, 0, 15),
			want:   LinkEffectiveExpired,
		},
		{
			name:   "zero expiry days is born expired",
			status: LinkActive,
			days:   0,
			now:    created,
			want:   LinkEffectiveExpired,
		},
		{
			name:   "deleted wins over active window",
			status: LinkDeleted,
			days:   14,
			now:    created.AddDate(0, 0, 1),
			want:   LinkEffectiveDeleted,
		},
		{
			name:   "deleted wins over expiry",
			status: LinkDeleted,
			days:   14,
			now:    created.AddDate(0, 0, 30),
			want:   LinkEffectiveDeleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := FormLink{
				Status:     tt.status,
				ExpiryDays: tt.days,
				CreatedAt:  created,
				ExpiresAt:  created.AddDate(0, 0, tt.days),
			}
			assert.Equal(t, tt.want, l.EffectiveStatus(tt.now))
		})
	}
}

func TestAcceptsSubmissions(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := FormLink{Status: LinkActive, CreatedAt: created, ExpiresAt: created.AddDate(0, 0, 7)}

	assert.True(t, l.AcceptsSubmissions(created.AddDate(0, 0, 6)))
	assert.False(t, l.AcceptsSubmissions(created.AddDate(0, 0, 7)))

	l.Status = LinkDeleted
	assert.False(t, l.AcceptsSubmissions(created))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAgent, ParseRole("agent"))
	// Unknown input never grants admin.
	assert.Equal(t, RoleAgent, ParseRole("superuser"))
	assert.Equal(t, RoleAgent, ParseRole(""))
}

func TestValidSubmissionStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected"} {
		assert.True(t, ValidSubmissionStatus(s), s)
	}
	for _, s := range []string{"", "deleted", "APPROVED", "done"} {
		assert.False(t, ValidSubmissionStatus(s), s)
	}
}
