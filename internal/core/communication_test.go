package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommunicationService_ErrorRateSince(t *testing.T) {
	db := &mockDB{}
	svc := NewCommunicationService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 20
		*(dest[1].(*int)) = 5
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rate, err := svc.ErrorRateSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, rate, 1e-9)
}

// No activity in the window must not read as a failure signal.
func TestCommunicationService_ErrorRateSince_ZeroActivity(t *testing.T) {
	db := &mockDB{}
	svc := NewCommunicationService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		*(dest[1].(*int)) = 0
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rate, err := svc.ErrorRateSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, rate)
}

func TestCommunicationService_DeleteOlderThan(t *testing.T) {
	db := &mockDB{}
	svc := NewCommunicationService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 12"), nil)

	n, err := svc.DeleteOlderThan(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
}
