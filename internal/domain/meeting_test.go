package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := GenerateRoomID()
		require.True(t, ValidRoomID(id), "generated id %q must be valid", id)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 90, "ids should be effectively unique")
}

func TestValidRoomID(t *testing.T) {
	assert.True(t, ValidRoomID("abcd-efgh-ijkl"))
	assert.False(t, ValidRoomID(""))
	assert.False(t, ValidRoomID("abcd-efgh"))
	assert.False(t, ValidRoomID("abcd-efgh-ijklm"))
	assert.False(t, ValidRoomID("ABCD-efgh-ijkl"))
	assert.False(t, ValidRoomID("abc1-efgh-ijkl"))
	assert.False(t, ValidRoomID("abcd_efgh_ijkl"))
}

func TestMeetingRoleOf(t *testing.T) {
	m := NewMeeting("abcd-efgh-ijkl", "uidA", 0)

	assert.Equal(t, RoleHost, m.RoleOf("uidA"))
	assert.Equal(t, RoleGuest, m.RoleOf("uidB"))
}

func TestMeetingIsExpired(t *testing.T) {
	assert.False(t, NewMeeting("abcd-efgh-ijkl", "uidA", 0).IsExpired(), "zero lifetime never expires")
	assert.False(t, NewMeeting("abcd-efgh-ijkl", "uidA", time.Hour).IsExpired())

	expired := NewMeeting("abcd-efgh-ijkl", "uidA", time.Hour)
	expired.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	assert.True(t, expired.IsExpired())

	var nilMeeting *Meeting
	assert.True(t, nilMeeting.IsExpired())
}

func TestCandidateSideOpposite(t *testing.T) {
	assert.Equal(t, SideAnswer, SideOffer.Opposite())
	assert.Equal(t, SideOffer, SideAnswer.Opposite())
}
