package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "lesson_plans/file.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	parsed, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", parsed.JobID)
	require.Equal(t, "lesson_plans/file.csv", parsed.Path)
	require.True(t, expiresAt.Equal(parsed.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.now = func() time.Time { return now }
	token, _, err := signer.Generate("job-1", "lesson_plans/file.csv")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	parsed, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-1", parsed.JobID)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "lesson_plans/file.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "job-2"
	_, err = signer.Parse(strings.Join(parts, "."), false)
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewSignedURLSigner("different", time.Hour)
	_, err = other.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("garbage", false)
	require.ErrorIs(t, err, ErrInvalidToken)
}
