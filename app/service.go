package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"aqiwatch/config"
	"aqiwatch/lib/models"
	"aqiwatch/lib/store"
)

type Service struct {
	cfg  *config.Config
	log  *zap.Logger
	subs store.Subscribers
}

func NewService(cfg *config.Config, log *zap.Logger, subs store.Subscribers) *Service {
	return &Service{cfg, log, subs}
}

type SignupRequest struct {
	Email     string  `json:"email"`
	Device    string  `json:"device"`
	Threshold float64 `json:"threshold"`
	ChannelID string  `json:"channelId"`
	FieldNum  int     `json:"fieldNum"`
}

func (r SignupRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if r.Device == "" {
		return errors.New("device is required")
	}
	if r.ChannelID == "" {
		return errors.New("channelId is required")
	}
	if r.FieldNum < 1 {
		return errors.New("fieldNum must be a positive integer")
	}
	if r.Threshold <= 0 {
		return errors.New("threshold must be a positive number")
	}
	return nil
}

type UnsubscribeRequest struct {
	Email  string `json:"email"`
	Device string `json:"device"`
}

func (r UnsubscribeRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if r.Device == "" {
		return errors.New("device is required")
	}
	return nil
}

// Signup upserts by (email, device): re-signup with an existing key
// overwrites the subscription and re-arms its alert state instead of
// creating a duplicate.
func (svc *Service) Signup(ctx context.Context, req SignupRequest) (*models.Subscriber, error) {
	sub := &models.Subscriber{
		Email:         req.Email,
		Device:        req.Device,
		ChannelID:     req.ChannelID,
		FieldNum:      req.FieldNum,
		Threshold:     req.Threshold,
		LastAQIStatus: models.StatusBelow,
	}
	if err := svc.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	svc.log.Sugar().Infow("Subscribed for alerts",
		"email", req.Email, "device", req.Device, "threshold", req.Threshold)
	return sub, nil
}

func (svc *Service) Unsubscribe(ctx context.Context, req UnsubscribeRequest) error {
	if err := svc.subs.Delete(ctx, req.Email, req.Device); err != nil {
		return err
	}
	svc.log.Sugar().Infow("Unsubscribed", "email", req.Email, "device", req.Device)
	return nil
}
