package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/internal/email/templates"
	"backcheck-service/internal/events"
	"backcheck-service/internal/fcm"
	"backcheck-service/internal/profile"
	"backcheck-service/internal/sse"
	"backcheck-service/internal/store"
)

type fakeMailer struct {
	mu      sync.RWMutex
	welcome []templates.WelcomeData
	viewed  []templates.ProfileViewedData
	to      []string
}

func (f *fakeMailer) SendWelcome(_ context.Context, to string, data templates.WelcomeData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.welcome = append(f.welcome, data)
	return nil
}

func (f *fakeMailer) SendProfileViewed(_ context.Context, to string, data templates.ProfileViewedData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.viewed = append(f.viewed, data)
	return nil
}

func (f *fakeMailer) welcomeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.welcome)
}

type fakePusher struct {
	stale  []string
	sentTo []string
	last   fcm.Notification
}

func (f *fakePusher) SendToTokens(_ context.Context, tokens []string, n fcm.Notification) ([]string, error) {
	f.sentTo = append(f.sentTo, tokens...)
	f.last = n
	return f.stale, nil
}

type fakeStreams struct {
	events []sse.Event
}

func (f *fakeStreams) Broadcast(event sse.Event) {
	f.events = append(f.events, event)
}

func TestHandleVerificationNotifiesTalent(t *testing.T) {
	ctx := context.Background()
	repo := profile.NewRepository(store.NewMemory(), nil)
	putTalent(t, repo, "t1", "AB12CD34EF56", "Ada Obi", "Nurse", baseTime)
	require.NoError(t, repo.AddDeviceToken(ctx, "t1", "token-live"))
	require.NoError(t, repo.AddDeviceToken(ctx, "t1", "token-dead"))

	mailer := &fakeMailer{}
	pusher := &fakePusher{stale: []string{"token-dead"}}
	streams := &fakeStreams{}
	svc := NewNotifyService(repo, mailer, pusher, streams, "https://app.example/")

	err := svc.HandleVerification(ctx, events.VerificationRecorded{
		RecordID:     "rec1",
		EmployerID:   "e1",
		EmployerName: "Acme",
		TalentID:     "t1",
		SearchedAt:   baseTime,
	})
	require.NoError(t, err)

	require.Len(t, streams.events, 1)
	assert.Equal(t, sse.EventProfileViewed, streams.events[0].Type)
	assert.Equal(t, "t1", streams.events[0].UID)

	require.Len(t, mailer.viewed, 1)
	assert.Equal(t, "t1@example.com", mailer.to[0])
	assert.Equal(t, "Acme", mailer.viewed[0].EmployerName)
	assert.Equal(t, "AB12CD34EF56", mailer.viewed[0].PublicID)

	assert.ElementsMatch(t, []string{"token-live", "token-dead"}, pusher.sentTo)
	assert.Equal(t, "rec1", pusher.last.Data["recordId"])

	p, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"token-live"}, p.Talent.DeviceTokens)
}

func TestHandleVerificationWithoutChannels(t *testing.T) {
	repo := profile.NewRepository(store.NewMemory(), nil)
	putTalent(t, repo, "t1", "AB12CD34EF56", "Ada Obi", "Nurse", baseTime)
	svc := NewNotifyService(repo, nil, nil, nil, "")

	assert.NoError(t, svc.HandleVerification(context.Background(), events.VerificationRecorded{TalentID: "t1"}))
}

func TestHandleVerificationUnknownTalent(t *testing.T) {
	svc := NewNotifyService(profile.NewRepository(store.NewMemory(), nil), &fakeMailer{}, nil, nil, "")
	err := svc.HandleVerification(context.Background(), events.VerificationRecorded{TalentID: "ghost"})
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestStartDeliversWelcomeEmail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := events.NewBus(nil, "")
	require.NoError(t, err)
	defer bus.Close()

	mailer := &fakeMailer{}
	svc := NewNotifyService(profile.NewRepository(store.NewMemory(), nil), mailer, nil, nil, "https://app.example")
	require.NoError(t, svc.Start(ctx, bus))

	require.NoError(t, bus.Publish(ctx, events.TopicPrincipalRegistered, events.PrincipalRegistered{
		UID:         "t1",
		Email:       "ada@example.com",
		Role:        "talent",
		DisplayName: "Ada Obi",
		PublicID:    "AB12CD34EF56",
	}))

	assert.Eventually(t, func() bool { return mailer.welcomeCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	mailer.mu.RLock()
	assert.Equal(t, "https://app.example/login", mailer.welcome[0].HomeURL)
	assert.Equal(t, "AB12CD34EF56", mailer.welcome[0].PublicID)
	mailer.mu.RUnlock()

	cancel()
	svc.Wait()
}
