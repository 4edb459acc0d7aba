// internal/service/notify.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"backcheck-service/internal/email/templates"
	"backcheck-service/internal/events"
	"backcheck-service/internal/fcm"
	"backcheck-service/internal/guard"
	"backcheck-service/internal/profile"
	"backcheck-service/internal/sse"
)

// Mailer is satisfied by *email.Sender.
type Mailer interface {
	SendWelcome(ctx context.Context, to string, data templates.WelcomeData) error
	SendProfileViewed(ctx context.Context, to string, data templates.ProfileViewedData) error
}

// Pusher is satisfied by *fcm.Client.
type Pusher interface {
	SendToTokens(ctx context.Context, tokens []string, n fcm.Notification) ([]string, error)
}

// Subscriber is satisfied by *events.Bus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Broadcaster is satisfied by *sse.Broker.
type Broadcaster interface {
	Broadcast(event sse.Event)
}

// NotifyService turns domain events into emails, pushes and live stream
// events. Every channel is optional and best-effort.
type NotifyService struct {
	profiles *profile.Repository
	mailer   Mailer
	pusher   Pusher
	streams  Broadcaster
	appURL   string
	wg       sync.WaitGroup
}

func NewNotifyService(profiles *profile.Repository, mailer Mailer, pusher Pusher, streams Broadcaster, appURL string) *NotifyService {
	return &NotifyService{
		profiles: profiles,
		mailer:   mailer,
		pusher:   pusher,
		streams:  streams,
		appURL:   strings.TrimRight(appURL, "/"),
	}
}

// Start subscribes to the bus and handles events until ctx is done.
func (s *NotifyService) Start(ctx context.Context, bus Subscriber) error {
	registered, err := bus.Subscribe(ctx, events.TopicPrincipalRegistered)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicPrincipalRegistered, err)
	}
	verified, err := bus.Subscribe(ctx, events.TopicVerificationRecorded)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicVerificationRecorded, err)
	}

	s.consume(ctx, registered, func(msg *message.Message) error {
		var evt events.PrincipalRegistered
		if err := events.Decode(msg, &evt); err != nil {
			return err
		}
		return s.HandleRegistered(msg.Context(), evt)
	})
	s.consume(ctx, verified, func(msg *message.Message) error {
		var evt events.VerificationRecorded
		if err := events.Decode(msg, &evt); err != nil {
			return err
		}
		return s.HandleVerification(msg.Context(), evt)
	})
	log.Println("✅ [NOTIFY] Subscribed to registration and verification events")
	return nil
}

// Wait blocks until both consumers have drained after ctx is cancelled.
func (s *NotifyService) Wait() {
	s.wg.Wait()
}

func (s *NotifyService) consume(ctx context.Context, msgs <-chan *message.Message, handle func(*message.Message) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if err := handle(msg); err != nil {
					log.Printf("⚠️ [NOTIFY] %s failed: %v", msg.Metadata.Get("event"), err)
				}
				// Delivery is best-effort; failed sends are not redelivered.
				msg.Ack()
			}
		}
	}()
}

// HandleRegistered sends the welcome email.
func (s *NotifyService) HandleRegistered(ctx context.Context, evt events.PrincipalRegistered) error {
	if s.mailer == nil || evt.Email == "" {
		return nil
	}
	role := strings.ToLower(evt.Role)
	data := templates.WelcomeData{
		Name:     evt.DisplayName,
		Role:     role,
		PublicID: evt.PublicID,
		HomeURL:  s.appURL + guard.SignInRoute,
	}
	if err := s.mailer.SendWelcome(ctx, evt.Email, data); err != nil {
		return fmt.Errorf("welcome email for %s: %w", evt.UID, err)
	}
	log.Printf("📧 [NOTIFY] Welcome email sent to %s", evt.UID)
	return nil
}

// HandleVerification tells the talent their profile was viewed: a live
// stream event, an email and a push to registered devices. Stale device
// tokens are pruned from the profile.
func (s *NotifyService) HandleVerification(ctx context.Context, evt events.VerificationRecorded) error {
	if s.streams != nil {
		s.streams.Broadcast(sse.Event{
			Type: sse.EventProfileViewed,
			UID:  evt.TalentID,
			Data: map[string]interface{}{
				"recordId":     evt.RecordID,
				"employerName": evt.EmployerName,
				"searchedAt":   evt.SearchedAt,
			},
		})
	}

	p, err := s.profiles.Get(ctx, evt.TalentID)
	if err != nil {
		return fmt.Errorf("load talent %s: %w", evt.TalentID, err)
	}
	if p.Talent == nil {
		return profile.ErrNotTalent
	}
	talent := p.Talent

	var errs []string
	if s.mailer != nil && talent.Email != "" {
		data := templates.ProfileViewedData{
			TalentName:   talent.FullName,
			EmployerName: evt.EmployerName,
			PublicID:     talent.PublicID,
			ViewedAt:     evt.SearchedAt.Format("2 Jan 2006 15:04 MST"),
		}
		if err := s.mailer.SendProfileViewed(ctx, talent.Email, data); err != nil {
			errs = append(errs, fmt.Sprintf("email: %v", err))
		}
	}

	if s.pusher != nil && len(talent.DeviceTokens) > 0 {
		employer := evt.EmployerName
		if employer == "" {
			employer = "An employer"
		}
		stale, err := s.pusher.SendToTokens(ctx, talent.DeviceTokens, fcm.Notification{
			Title: "Your profile was viewed",
			Body:  employer + " looked up your BackCheck profile",
			Data: map[string]string{
				"type":     sse.EventProfileViewed,
				"recordId": evt.RecordID,
			},
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("push: %v", err))
		}
		for _, token := range stale {
			if err := s.profiles.RemoveDeviceToken(ctx, talent.UID, token); err != nil {
				log.Printf("⚠️ [NOTIFY] could not prune token %s: %v", fcm.MaskToken(token), err)
			} else {
				log.Printf("🧹 [NOTIFY] pruned stale token %s for %s", fcm.MaskToken(token), talent.UID)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("profile viewed notice for %s: %s", talent.UID, strings.Join(errs, "; "))
	}
	return nil
}
