// Package store gives the rest of the app a narrow repository over the
// subscriber table.
package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aqiwatch/lib/models"
)

var ErrNotFound = errors.New("store: subscriber not found")

type Subscribers interface {
	FindAll(ctx context.Context) (models.Subscribers, error)
	// Upsert inserts a subscription or, when the (email, device) key already
	// exists, overwrites its channel, field and threshold and re-arms the
	// alert state.
	Upsert(ctx context.Context, sub *models.Subscriber) error
	// Delete removes the subscription matching (email, device) exactly;
	// ErrNotFound when nothing matched.
	Delete(ctx context.Context, email, device string) error
	// CompareAndSetStatus transitions last_aqi_status from→to only if the
	// stored status still equals from. Returns false when another evaluation
	// already claimed the transition. sentAt is recorded only on transitions
	// to StatusAbove.
	CompareAndSetStatus(ctx context.Context, id uint, from, to models.AlertStatus, sentAt time.Time) (bool, error)
}

type subscribers struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSubscribers(db *gorm.DB, log *zap.Logger) Subscribers {
	return &subscribers{db, log}
}

func (s *subscribers) FindAll(ctx context.Context) (models.Subscribers, error) {
	var subs models.Subscribers
	tx := s.db.WithContext(ctx).Find(&subs)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *subscribers) Upsert(ctx context.Context, sub *models.Subscriber) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}, {Name: "device"}},
			DoUpdates: clause.Assignments(map[string]any{
				"channel_id":         sub.ChannelID,
				"field_num":          sub.FieldNum,
				"threshold":          sub.Threshold,
				"last_aqi_status":    models.StatusBelow,
				"last_alert_sent_at": nil,
				"updated_at":         time.Now().UTC(),
			}),
		}).
		Create(sub)
	return tx.Error
}

func (s *subscribers) Delete(ctx context.Context, email, device string) error {
	// Hard delete: a soft-deleted row would keep occupying the
	// (email, device) unique-index slot and make a later re-signup upsert
	// resurrect nothing.
	tx := s.db.WithContext(ctx).
		Unscoped().
		Where("email = ?", email).
		Where("device = ?", device).
		Delete(&models.Subscriber{})
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *subscribers) CompareAndSetStatus(ctx context.Context, id uint, from, to models.AlertStatus, sentAt time.Time) (bool, error) {
	updates := map[string]any{"last_aqi_status": to}
	if to == models.StatusAbove {
		updates["last_alert_sent_at"] = sentAt
	}

	tx := s.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("id = ?", id).
		Where("last_aqi_status = ?", from).
		Updates(updates)
	if err := tx.Error; err != nil {
		return false, err
	}
	return tx.RowsAffected > 0, nil
}
