package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aqiwatch/lib/models"
)

func newTestStore(t *testing.T) Subscribers {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Subscriber{}))
	return NewSubscribers(db, zap.NewNop())
}

func newSubscriber(email, device string, threshold float64) *models.Subscriber {
	return &models.Subscriber{
		Email:         email,
		Device:        device,
		ChannelID:     "2873817",
		FieldNum:      6,
		Threshold:     threshold,
		LastAQIStatus: models.StatusBelow,
	}
}

func TestUpsert_InsertThenOverwrite(t *testing.T) {
	ctx := context.Background()
	subs := newTestStore(t)

	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 100)))

	all, err := subs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Mark the subscriber as already alerted, then re-signup with a new
	// threshold. The record is overwritten, not duplicated, and the alert
	// state is re-armed.
	claimed, err := subs.CompareAndSetStatus(ctx, all[0].ID, models.StatusBelow, models.StatusAbove, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 150)))

	all, err = subs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, float64(150), all[0].Threshold)
	assert.Equal(t, models.StatusBelow, all[0].LastAQIStatus)
	assert.False(t, all[0].LastAlertSentAt.Valid)
}

func TestUpsert_DistinctDevicesCoexist(t *testing.T) {
	ctx := context.Background()
	subs := newTestStore(t)

	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 100)))
	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "basement", 100)))
	require.NoError(t, subs.Upsert(ctx, newSubscriber("b@example.com", "rooftop", 100)))

	all, err := subs.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDelete_MatchesEmailAndDevice(t *testing.T) {
	ctx := context.Background()
	subs := newTestStore(t)

	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 100)))

	// Mismatched device leaves the record intact.
	err := subs.Delete(ctx, "a@example.com", "basement")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := subs.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, subs.Delete(ctx, "a@example.com", "rooftop"))

	all, err = subs.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = subs.Delete(ctx, "a@example.com", "rooftop")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsert_ResignupAfterUnsubscribe(t *testing.T) {
	ctx := context.Background()
	subs := newTestStore(t)

	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 100)))
	require.NoError(t, subs.Delete(ctx, "a@example.com", "rooftop"))

	// A returning subscriber gets a live subscription again; the deleted
	// row must not linger in the (email, device) unique-index slot and
	// swallow the new signup.
	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 120)))

	all, err := subs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, float64(120), all[0].Threshold)
	assert.Equal(t, models.StatusBelow, all[0].LastAQIStatus)
}

func TestCompareAndSetStatus(t *testing.T) {
	ctx := context.Background()
	subs := newTestStore(t)

	require.NoError(t, subs.Upsert(ctx, newSubscriber("a@example.com", "rooftop", 100)))
	all, err := subs.FindAll(ctx)
	require.NoError(t, err)
	id := all[0].ID

	sentAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	claimed, err := subs.CompareAndSetStatus(ctx, id, models.StatusBelow, models.StatusAbove, sentAt)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second attempt loses: status is no longer `below`.
	claimed, err = subs.CompareAndSetStatus(ctx, id, models.StatusBelow, models.StatusAbove, sentAt)
	require.NoError(t, err)
	assert.False(t, claimed)

	all, err = subs.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbove, all[0].LastAQIStatus)
	require.True(t, all[0].LastAlertSentAt.Valid)
	assert.WithinDuration(t, sentAt, all[0].LastAlertSentAt.Time, time.Second)

	// Silent recovery: above→below keeps the last sent timestamp.
	claimed, err = subs.CompareAndSetStatus(ctx, id, models.StatusAbove, models.StatusBelow, time.Time{})
	require.NoError(t, err)
	assert.True(t, claimed)

	all, err = subs.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBelow, all[0].LastAQIStatus)
	assert.True(t, all[0].LastAlertSentAt.Valid)
}
