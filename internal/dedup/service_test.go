package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/config"
	"docket/internal/logger"
	"docket/pkg/models"
)

type stubRepo struct {
	inserted bool
	err      error
	calls    int
}

func (r *stubRepo) InsertKey(_ context.Context, _ string, _ models.ChangeEvent) (bool, error) {
	r.calls++
	return r.inserted, r.err
}

func TestAdmitFirstPass(t *testing.T) {
	svc := NewService(&stubRepo{inserted: true}, config.DedupConfig{}, logger.NopLogger())

	admitted, err := svc.Admit(context.Background(), testEvent())

	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestAdmitDuplicate(t *testing.T) {
	svc := NewService(&stubRepo{inserted: false}, config.DedupConfig{}, logger.NopLogger())

	admitted, err := svc.Admit(context.Background(), testEvent())

	require.NoError(t, err)
	assert.False(t, admitted)
}

func TestAdmitStoreErrorFailsOpenByDefault(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	svc := NewService(repo, config.DedupConfig{}, logger.NopLogger())

	admitted, err := svc.Admit(context.Background(), testEvent())

	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestAdmitStoreErrorDeniesWhenConfigured(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	svc := NewService(repo, config.DedupConfig{OnStoreError: "deny"}, logger.NopLogger())

	admitted, err := svc.Admit(context.Background(), testEvent())

	require.Error(t, err)
	assert.False(t, admitted)
}

func TestAdmitCancelledContext(t *testing.T) {
	repo := &stubRepo{inserted: true}
	svc := NewService(repo, config.DedupConfig{}, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Admit(ctx, testEvent())

	require.Error(t, err)
	assert.Zero(t, repo.calls)
}
