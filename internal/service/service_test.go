package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minwoo-kang/localstar-service/internal/config"
	"github.com/minwoo-kang/localstar-service/internal/integrations/toss"
	"github.com/minwoo-kang/localstar-service/internal/models"
	"github.com/minwoo-kang/localstar-service/internal/regions"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testRegionsXML = `<?xml version="1.0" encoding="UTF-8"?>
<regions>
  <province code="11" name="서울특별시">
    <district code="11680" name="강남구"/>
  </province>
</regions>`

var errPendingNotFound = errors.New("pending registration not found")

// fakeStore is an in-memory Store keyed like the real tables
type fakeStore struct {
	members       map[string]*models.Member
	registrations map[string]*models.Registration
	influencers   []models.Influencer

	upsertErr  error
	deleteErr  error
	createErr  error
	listErr    error
	ranksCalls int

	deletedIDs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:       make(map[string]*models.Member),
		registrations: make(map[string]*models.Registration),
	}
}

func (f *fakeStore) UpsertMember(member *models.Member) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.members[member.TossID]; ok {
		member.CreatedAt = existing.CreatedAt
	} else {
		member.CreatedAt = "2026-01-01T00:00:00Z"
	}
	clone := *member
	f.members[member.TossID] = &clone
	return nil
}

func (f *fakeStore) DeleteMember(tossID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, tossID)
	delete(f.members, tossID)
	return nil
}

func (f *fakeStore) ListInfluencersByDistrict(districtCode string) ([]models.Influencer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Influencer
	for _, inf := range f.influencers {
		if inf.DistrictCode == districtCode {
			out = append(out, inf)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateRegistration(reg *models.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	reg.CreatedAt = "2026-01-01T00:00:00Z"
	clone := *reg
	f.registrations[reg.ID] = &clone
	return nil
}

func (f *fakeStore) ListRegistrationsByStatus(status string) ([]models.Registration, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Registration
	for _, reg := range f.registrations {
		if reg.Status == status {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (f *fakeStore) ApproveRegistration(id, imageURL string) (*models.Influencer, error) {
	reg, ok := f.registrations[id]
	if !ok || reg.Status != models.RegistrationPending {
		return nil, errPendingNotFound
	}
	reg.Status = models.RegistrationApproved
	inf := models.Influencer{
		ID:           int64(len(f.influencers) + 1),
		DistrictCode: reg.DistrictCode,
		Name:         reg.Name,
		Handle:       reg.Handle,
		ImageURL:     imageURL,
	}
	f.influencers = append(f.influencers, inf)
	return &inf, nil
}

func (f *fakeStore) RejectRegistration(id string) error {
	reg, ok := f.registrations[id]
	if !ok || reg.Status != models.RegistrationPending {
		return errPendingNotFound
	}
	reg.Status = models.RegistrationRejected
	return nil
}

func (f *fakeStore) GetRegistrationImageKey(id string) (string, error) {
	reg, ok := f.registrations[id]
	if !ok {
		return "", errPendingNotFound
	}
	return reg.ImageKey, nil
}

func (f *fakeStore) RecomputeRanks() error {
	f.ranksCalls++
	return nil
}

// fakeProvider records which provider calls were made
type fakeProvider struct {
	token       string
	exchangeErr error
	profile     *toss.Profile
	profileErr  error
	unlinkErr   error

	exchangeCalls int
	profileCalls  int
	unlinkCalls   int
}

func (f *fakeProvider) ExchangeAuthCode(ctx context.Context, code string, sandbox bool) (string, error) {
	f.exchangeCalls++
	return f.token, f.exchangeErr
}

func (f *fakeProvider) FetchProfile(ctx context.Context, accessToken string, sandbox bool) (*toss.Profile, error) {
	f.profileCalls++
	return f.profile, f.profileErr
}

func (f *fakeProvider) Unlink(ctx context.Context, userKey string, sandbox bool) error {
	f.unlinkCalls++
	return f.unlinkErr
}

type fakeMedia struct {
	presignErr error
}

func (f *fakeMedia) NewImageKey() string { return "registrations/test/image.jpg" }

func (f *fakeMedia) PresignUpload(ctx context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://media.test/upload/" + key, nil
}

func (f *fakeMedia) ObjectURL(key string) string {
	return "https://media.test/" + key
}

type fakeNotifier struct {
	sent    int
	sendErr error
}

func (f *fakeNotifier) SendRegistrationNotification(reg *models.Registration, districtName string) error {
	f.sent++
	return f.sendErr
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(t *testing.T, store *fakeStore, provider *fakeProvider, cfg *config.Config) (*Service, *fakeMedia, *fakeNotifier) {
	t.Helper()
	idx, err := regions.LoadBytes([]byte(testRegionsXML))
	require.NoError(t, err)

	if cfg == nil {
		cfg = &config.Config{
			JWTSecret:        "test-secret",
			TossClientID:     "client-id",
			TossClientSecret: "client-secret",
			TossAAD:          "TOSS",
		}
	}

	media := &fakeMedia{}
	notifier := &fakeNotifier{}
	return NewService(store, provider, media, notifier, idx, testLogger(), cfg), media, notifier
}
