package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"backcheck-service/internal/email/templates"
)

type fakeDialer struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, m...)
	return nil
}

func newTestSender(d dialer) *Sender {
	return &Sender{fromName: "BackCheck", from: "no-reply@backcheck.app", dialer: d, baseDelay: time.Millisecond}
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	d := &fakeDialer{failures: 2}
	require.NoError(t, newTestSender(d).Send(context.Background(), "a@b.co", "Hi", "<p>x</p>"))
	assert.Equal(t, 3, d.calls)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"a@b.co"}, d.sent[0].GetHeader("To"))
}

func TestSendGivesUp(t *testing.T) {
	d := &fakeDialer{failures: 10}
	err := newTestSender(d).Send(context.Background(), "a@b.co", "Hi", "x")
	assert.Error(t, err)
	assert.Equal(t, maxAttempts, d.calls)
}

func TestSendHonoursCancellation(t *testing.T) {
	d := &fakeDialer{failures: 10}
	s := newTestSender(d)
	s.baseDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Send(ctx, "a@b.co", "Hi", "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderWelcomeForTalentShowsPublicID(t *testing.T) {
	body, err := templates.RenderWelcomeEmail(templates.WelcomeData{Name: "Ada", Role: "talent", PublicID: "ABCDEF123456"})
	require.NoError(t, err)
	assert.Contains(t, body, "ABCDEF123456")
	assert.Contains(t, body, "Welcome, Ada")
}

func TestRenderProfileViewedEscapesNames(t *testing.T) {
	body, err := templates.RenderProfileViewedEmail(templates.ProfileViewedData{
		TalentName:   "Ada",
		EmployerName: "<script>x</script>",
		PublicID:     "ABCDEF123456",
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(body, "<script>x</script>"))
	assert.Contains(t, body, "&lt;script&gt;")
}
