package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAgentService_RecomputeStatuses(t *testing.T) {
	db := &mockDB{}
	svc := NewAgentService(db)
	ctx := context.Background()

	// First UPDATE activates, second idles.
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 3"), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 2"), nil).Once()

	activated, idled, err := svc.RecomputeStatuses(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, activated)
	assert.EqualValues(t, 2, idled)
	db.AssertExpectations(t)
}

func TestAgentService_RecomputeStatuses_ActivateError(t *testing.T) {
	db := &mockDB{}
	svc := NewAgentService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("db error")).Once()

	_, _, err := svc.RecomputeStatuses(ctx, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activate agents")
	db.AssertNumberOfCalls(t, "Exec", 1)
}

func TestAgentService_ResetFailing(t *testing.T) {
	db := &mockDB{}
	svc := NewAgentService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 4"), nil)

	reset, err := svc.ResetFailing(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, reset)
}

func TestAgentService_List_ScanError(t *testing.T) {
	db := &mockDB{}
	svc := NewAgentService(db)
	ctx := context.Background()

	rows := newMockRows(func(dest ...any) error { return errors.New("bad column") })
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := svc.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan agent")
}
