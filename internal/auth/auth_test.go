package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	ident := Identity{UserID: "u-1", Role: RoleCounselor, Verified: true}

	raw, err := SignToken(ident, secret, time.Hour)
	req.NoError(err)

	got, err := ParseToken(raw, secret)
	req.NoError(err)
	req.Equal(ident, got)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	raw, err := SignToken(Identity{UserID: "u-1", Role: RoleClient}, secret, time.Hour)
	req.NoError(err)

	_, err = ParseToken(raw, []byte("other-secret"))
	req.Error(err)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	req := require.New(t)
	raw, err := SignToken(Identity{UserID: "u-1", Role: RoleClient}, secret, -time.Minute)
	req.NoError(err)

	_, err = ParseToken(raw, secret)
	req.Error(err)
}

func TestPrivileged(t *testing.T) {
	req := require.New(t)
	req.False(Identity{Role: RoleClient}.Privileged())
	req.True(Identity{Role: RoleCounselor}.Privileged())
	req.True(Identity{Role: RoleAdmin}.Privileged())
}
