package service

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"pet_feeder/internal/notification"
)

type PushService struct {
	subs      *notification.Subscriptions
	publicKey string
}

func NewPushService(subs *notification.Subscriptions, publicKey string) *PushService {
	return &PushService{subs: subs, publicKey: publicKey}
}

func (s *PushService) Subscribe(_ context.Context, sub webpush.Subscription) error {
	if err := s.subs.Add(sub); err != nil {
		return invalid("subscription", err.Error())
	}
	return nil
}

func (s *PushService) PublicKey() string { return s.publicKey }
