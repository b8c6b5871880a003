package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", "attachments", time.Hour)
	token, expiresAt, err := signer.Generate("att-1", "attachments/rfq/file.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	id, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "att-1", id)
	require.Equal(t, "attachments/rfq/file.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", "reports", time.Hour)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := signer.Generate("report-1", "reports/balance.pdf")
	require.NoError(t, err)
	signer.now = time.Now

	_, _, _, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	id, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "report-1", id)
	require.Equal(t, "reports/balance.pdf", path)
}

func TestSignedURLSignerRejectsOtherScope(t *testing.T) {
	attachments := NewSignedURLSigner("secret", "attachments", time.Hour)
	reports := NewSignedURLSigner("secret", "reports", time.Hour)
	token, _, err := attachments.Generate("att-1", "a.pdf")
	require.NoError(t, err)

	_, _, _, err = reports.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)
}
