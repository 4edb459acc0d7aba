package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/internal/events"
	"backcheck-service/internal/profile"
	"backcheck-service/internal/store"
	"backcheck-service/pkg/models"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	sent   []interface{}
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.sent = append(r.sent, payload)
	return nil
}

func putTalent(t *testing.T, repo *profile.Repository, uid, publicID, name, profession string, created time.Time) *models.TalentProfile {
	t.Helper()
	talent := &models.TalentProfile{
		Principal: models.Principal{
			UID: uid, Email: uid + "@example.com", Role: models.RoleTalent,
			CreatedAt: created, UpdatedAt: created, DisplayName: name,
		},
		PublicID:   publicID,
		FullName:   name,
		Profession: profession,
	}
	require.NoError(t, repo.Put(context.Background(), uid, &models.Profile{Talent: talent}))
	return talent
}

func putEmployer(t *testing.T, repo *profile.Repository, uid, company string) *models.EmployerProfile {
	t.Helper()
	emp := &models.EmployerProfile{
		Principal: models.Principal{
			UID: uid, Email: uid + "@corp.com", Role: models.RoleEmployer,
			CreatedAt: baseTime, UpdatedAt: baseTime, DisplayName: company,
		},
		CompanyName:  company,
		Subscription: models.DefaultSubscription(),
	}
	require.NoError(t, repo.Put(context.Background(), uid, &models.Profile{Employer: emp}))
	return emp
}

func newSearchFixture() (*store.Memory, *profile.Repository, *SearchService, *recordingPublisher) {
	mem := store.NewMemory()
	repo := profile.NewRepository(mem, nil)
	pub := &recordingPublisher{}
	svc := NewSearchService(mem, pub)
	return mem, repo, svc, pub
}

func TestFindByPublicID(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, _ := newSearchFixture()
	putTalent(t, repo, "t1", "AB12CD34EF56", "Ada Obi", "Nurse", baseTime)

	got, err := svc.FindByPublicID(ctx, "AB12CD34EF56")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.UID)

	got, err = svc.FindByPublicID(ctx, "  ab12cd34ef56 ")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.UID)

	_, err = svc.FindByPublicID(ctx, "ZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, ErrTalentNotFound)

	_, err = svc.FindByPublicID(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFindByPublicIDIgnoresNonTalents(t *testing.T) {
	ctx := context.Background()
	mem, _, svc, _ := newSearchFixture()
	require.NoError(t, mem.Put(ctx, store.Users, "e1", store.Document{
		"uid": "e1", "role": "employer", "talentUID": "AB12CD34EF56", "createdAt": baseTime,
	}))

	_, err := svc.FindByPublicID(ctx, "AB12CD34EF56")
	assert.ErrorIs(t, err, ErrTalentNotFound)
}

func TestFindByPublicIDPrefersOldestOnDuplicate(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, _ := newSearchFixture()
	putTalent(t, repo, "newer", "DUPDUPDUPDUP", "Second", "Nurse", baseTime.Add(time.Hour))
	putTalent(t, repo, "older", "DUPDUPDUPDUP", "First", "Nurse", baseTime)

	got, err := svc.FindByPublicID(ctx, "DUPDUPDUPDUP")
	require.NoError(t, err)
	assert.Equal(t, "older", got.UID)
}

func TestFindByProfessionIgnoresNonTalents(t *testing.T) {
	ctx := context.Background()
	mem, repo, svc, _ := newSearchFixture()
	putTalent(t, repo, "t1", "AAAAAAAAAAA1", "One", "Nurse", baseTime)
	require.NoError(t, mem.Put(ctx, store.Users, "e1", store.Document{
		"uid": "e1", "role": "employer", "profession": "Nurse", "createdAt": baseTime.Add(time.Hour),
	}))
	require.NoError(t, mem.Put(ctx, store.Users, "a1", store.Document{
		"uid": "a1", "role": "admin", "profession": "Nurse", "createdAt": baseTime.Add(2 * time.Hour),
	}))

	got, err := svc.FindByProfession(ctx, "Nurse", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].UID)
}

func TestFindByProfessionNewestFirst(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, _ := newSearchFixture()
	putTalent(t, repo, "t1", "AAAAAAAAAAA1", "One", "Nurse", baseTime)
	putTalent(t, repo, "t2", "AAAAAAAAAAA2", "Two", "Nurse", baseTime.Add(time.Hour))
	putTalent(t, repo, "t3", "AAAAAAAAAAA3", "Three", "Nurse", baseTime.Add(2*time.Hour))
	putTalent(t, repo, "t4", "AAAAAAAAAAA4", "Four", "Welder", baseTime.Add(3*time.Hour))

	got, err := svc.FindByProfession(ctx, "Nurse", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{got[0].UID, got[1].UID, got[2].UID})

	got, err = svc.FindByProfession(ctx, "Nurse", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.FindByProfession(ctx, "nurse", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.FindByProfession(ctx, "", 10)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, _ := newSearchFixture()
	putTalent(t, repo, "t1", "AAAAAAAAAAA1", "John Smith", "Nurse", baseTime)
	putTalent(t, repo, "t2", "AAAAAAAAAAA2", "Jane Doe", "Nurse", baseTime)

	got, err := svc.FindByName(ctx, "SMITH")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].UID)

	_, err = svc.FindByName(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFindByNameOnlyScansFirstCandidates(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, _ := newSearchFixture()
	for i := 0; i < NameCandidateCap; i++ {
		putTalent(t, repo, fmt.Sprintf("a%02d", i), fmt.Sprintf("AAAAAAAAAA%02d", i), fmt.Sprintf("Aaron %02d", i), "Nurse", baseTime)
	}
	putTalent(t, repo, "js", "JJJJJJJJJJJJ", "John Smith", "Nurse", baseTime)

	got, err := svc.FindByName(ctx, "smith")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.FindByName(ctx, "aaron")
	require.NoError(t, err)
	assert.Len(t, got, NameCandidateCap)
}

func TestLookupRecordsVerification(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, pub := newSearchFixture()
	svc.now = func() time.Time { return baseTime.Add(time.Minute) }
	talent := putTalent(t, repo, "t1", "AB12CD34EF56", "Ada Obi", "Nurse", baseTime)
	emp := putEmployer(t, repo, "e1", "Acme")

	before, err := svc.GetSearchHistory(ctx, "e1", 0)
	require.NoError(t, err)
	require.Empty(t, before)

	res, err := svc.LookupForEmployer(ctx, emp, talent.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Talent.UID)
	assert.NotEmpty(t, res.VerificationID)

	history, err := svc.GetSearchHistory(ctx, "e1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	rec := history[0]
	assert.Equal(t, res.VerificationID, rec.ID)
	assert.Equal(t, "t1", rec.TalentID)
	assert.Equal(t, "AB12CD34EF56", rec.TalentPublicID)
	assert.Equal(t, models.VerificationStatusViewed, rec.Status)
	assert.Equal(t, "Acme", rec.EmployerName)
	assert.Equal(t, "Ada Obi", rec.TalentName)
	assert.True(t, rec.SearchedAt.Equal(baseTime.Add(time.Minute)))

	require.Len(t, pub.topics, 1)
	assert.Equal(t, events.TopicVerificationRecorded, pub.topics[0])
}

func TestLookupSurvivesRecordingFailure(t *testing.T) {
	ctx := context.Background()
	mem, repo, svc, pub := newSearchFixture()
	talent := putTalent(t, repo, "t1", "AB12CD34EF56", "Ada Obi", "Nurse", baseTime)
	emp := putEmployer(t, repo, "e1", "Acme")
	mem.FailWrites(store.Verifications, errors.New("quota exceeded"))

	res, err := svc.LookupForEmployer(ctx, emp, talent.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Talent.UID)
	assert.Empty(t, res.VerificationID)
	assert.Empty(t, pub.topics)
}

func TestSearchHistoryNewestFirstPerEmployer(t *testing.T) {
	ctx := context.Background()
	_, repo, svc, _ := newSearchFixture()
	talent := putTalent(t, repo, "t1", "AB12CD34EF56", "Ada Obi", "Nurse", baseTime)
	acme := putEmployer(t, repo, "e1", "Acme")
	other := putEmployer(t, repo, "e2", "Globex")

	clock := baseTime
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	for i := 0; i < 3; i++ {
		_, err := svc.LookupForEmployer(ctx, acme, talent.PublicID)
		require.NoError(t, err)
	}
	_, err := svc.LookupForEmployer(ctx, other, talent.PublicID)
	require.NoError(t, err)

	history, err := svc.GetSearchHistory(ctx, "e1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].SearchedAt.After(history[1].SearchedAt))
	assert.True(t, history[1].SearchedAt.After(history[2].SearchedAt))

	limited, err := svc.GetSearchHistory(ctx, "e1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
