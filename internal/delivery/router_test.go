package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/constants"
	"docket/internal/logger"
	"docket/internal/preference"
	"docket/pkg/models"
)

type stubProvider struct {
	enabled bool
	err     error
	calls   int
}

func (p *stubProvider) Enabled() bool { return p.enabled }

func (p *stubProvider) Trigger(_ context.Context, _ []string, _ models.NotificationPayload) error {
	p.calls++
	return p.err
}

type stubStore struct {
	inserted []models.Notification
	failFor  map[string]error
}

func (s *stubStore) Insert(_ context.Context, n models.Notification) error {
	if err, ok := s.failFor[n.RecipientID]; ok {
		return err
	}
	s.inserted = append(s.inserted, n)
	return nil
}

type stubPrefsRepo struct {
	prefs map[string]models.UserPreferences
}

func (r *stubPrefsRepo) Get(_ context.Context, userID string) (models.UserPreferences, error) {
	if prefs, ok := r.prefs[userID]; ok {
		return prefs, nil
	}
	return models.UserPreferences{}, preference.ErrNotFound
}

func newTestRouter(provider Provider, store NotificationStore, prefs map[string]models.UserPreferences) *Router {
	engine := preference.NewEngine(&stubPrefsRepo{prefs: prefs}, logger.NopLogger())
	return NewRouter(provider, engine, store, logger.NopLogger())
}

func TestDeliverViaProvider(t *testing.T) {
	provider := &stubProvider{enabled: true}
	store := &stubStore{}
	router := newTestRouter(provider, store, nil)

	result := router.Deliver(context.Background(), []string{"u1", "u2"}, testPayload())

	assert.Equal(t, constants.DeliveryMethodProvider, result.Method)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 1, provider.calls)
	// Provider owns persistence on its path; nothing is written locally.
	assert.Empty(t, store.inserted)
}

func TestDeliverFallsBackWhenProviderFails(t *testing.T) {
	provider := &stubProvider{enabled: true, err: errors.New("provider down")}
	store := &stubStore{}
	router := newTestRouter(provider, store, nil)

	result := router.Deliver(context.Background(), []string{"u1", "u2"}, testPayload())

	assert.Equal(t, constants.DeliveryMethodDirect, result.Method)
	assert.Equal(t, 2, result.Count)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, models.StatusDelivered, store.inserted[0].DeliveryStatus)
}

func TestDeliverDirectWhenProviderDisabled(t *testing.T) {
	provider := &stubProvider{enabled: false}
	store := &stubStore{}
	router := newTestRouter(provider, store, nil)

	result := router.Deliver(context.Background(), []string{"u1"}, testPayload())

	assert.Equal(t, constants.DeliveryMethodDirect, result.Method)
	assert.Equal(t, 0, provider.calls)
	require.Len(t, store.inserted, 1)

	n := store.inserted[0]
	assert.Equal(t, "u1", n.RecipientID)
	assert.Equal(t, "task_assigned", n.NotificationType)
	assert.Equal(t, "New Task Assigned", n.Title)
	assert.Equal(t, models.CategoryTask, n.Category)
}

func TestDeliverDirectHonorsPreferences(t *testing.T) {
	store := &stubStore{}
	prefs := map[string]models.UserPreferences{
		"u2": {
			UserID:        "u2",
			GlobalEnabled: true,
			Categories: map[models.Category]models.CategoryPreference{
				models.CategoryTask: {Enabled: false},
			},
		},
	}
	router := newTestRouter(&stubProvider{}, store, prefs)

	result := router.Deliver(context.Background(), []string{"u1", "u2"}, testPayload())

	assert.Equal(t, 1, result.Count)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "u1", store.inserted[0].RecipientID)
}

func TestDeliverDirectSkipsFailedRecipient(t *testing.T) {
	store := &stubStore{failFor: map[string]error{"u2": errors.New("insert failed")}}
	router := newTestRouter(&stubProvider{}, store, nil)

	result := router.Deliver(context.Background(), []string{"u1", "u2", "u3"}, testPayload())

	assert.Equal(t, 2, result.Count)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, "u1", store.inserted[0].RecipientID)
	assert.Equal(t, "u3", store.inserted[1].RecipientID)
}

func TestDeliverNilProviderGoesDirect(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(nil, store, nil)

	result := router.Deliver(context.Background(), []string{"u1"}, testPayload())

	assert.Equal(t, constants.DeliveryMethodDirect, result.Method)
	assert.Equal(t, 1, result.Count)
}
