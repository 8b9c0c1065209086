package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlatformConfigService_Get(t *testing.T) {
	db := &mockDB{}
	svc := NewPlatformConfigService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "custom prompt"
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	value, err := svc.Get(ctx, "chat.system_prompt")
	require.NoError(t, err)
	assert.Equal(t, "custom prompt", value)
}

// Absent keys read as empty, not as an error.
func TestPlatformConfigService_Get_MissingKey(t *testing.T) {
	db := &mockDB{}
	svc := NewPlatformConfigService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	value, err := svc.Get(ctx, "no.such.key")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestPlatformConfigService_Get_DBError(t *testing.T) {
	db := &mockDB{}
	svc := NewPlatformConfigService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return errors.New("db error") }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.Get(ctx, "chat.system_prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get platform config")
}

func TestPlatformConfigService_Set(t *testing.T) {
	db := &mockDB{}
	svc := NewPlatformConfigService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, svc.Set(ctx, "chat.system_prompt", "hola"))
	db.AssertExpectations(t)
}
