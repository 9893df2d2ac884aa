package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("export-1", "coach-pack/coach-pack-2024-03-01.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	grant, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "export-1", grant.ExportID)
	assert.Equal(t, "coach-pack/coach-pack-2024-03-01.csv", grant.Path)
	assert.True(t, expiresAt.Equal(grant.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }
	token, _, err := signer.Sign("export-1", "backup.json")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	grant, err := signer.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "backup.json", grant.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("export-1", "backup.json")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify("not-a-token")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = signer.Sign("bad.id", "backup.json")
	require.Error(t, err)
}
