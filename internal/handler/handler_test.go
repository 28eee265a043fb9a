package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/minwoo-kang/localstar-service/internal/apperrors"
	"github.com/minwoo-kang/localstar-service/internal/config"
	"github.com/minwoo-kang/localstar-service/internal/integrations/toss"
	"github.com/minwoo-kang/localstar-service/internal/middleware"
	"github.com/minwoo-kang/localstar-service/internal/models"
	"github.com/minwoo-kang/localstar-service/internal/regions"
	"github.com/minwoo-kang/localstar-service/internal/service"
	"github.com/minwoo-kang/localstar-service/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegionsXML = `<?xml version="1.0" encoding="UTF-8"?>
<regions>
  <province code="11" name="서울특별시">
    <district code="11680" name="강남구"/>
  </province>
</regions>`

// fakeStore implements service.Store in memory
type fakeStore struct {
	members     map[string]*models.Member
	upsertErr   error
	deleteCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[string]*models.Member)}
}

func (f *fakeStore) UpsertMember(member *models.Member) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	member.CreatedAt = "2026-01-01T00:00:00Z"
	clone := *member
	f.members[member.TossID] = &clone
	return nil
}

func (f *fakeStore) DeleteMember(tossID string) error {
	f.deleteCalls++
	delete(f.members, tossID)
	return nil
}

func (f *fakeStore) ListInfluencersByDistrict(string) ([]models.Influencer, error) {
	return nil, nil
}
func (f *fakeStore) CreateRegistration(reg *models.Registration) error { return nil }
func (f *fakeStore) ListRegistrationsByStatus(string) ([]models.Registration, error) {
	return nil, nil
}
func (f *fakeStore) ApproveRegistration(string, string) (*models.Influencer, error) {
	return &models.Influencer{}, nil
}
func (f *fakeStore) RejectRegistration(string) error                { return nil }
func (f *fakeStore) GetRegistrationImageKey(string) (string, error) { return "key", nil }
func (f *fakeStore) RecomputeRanks() error                          { return nil }

type fakeProvider struct {
	token         string
	exchangeErr   error
	profile       *toss.Profile
	profileCalls  int
	unlinkErr     error
	unlinkCalls   int
	exchangeCalls int
}

func (f *fakeProvider) ExchangeAuthCode(ctx context.Context, code string, sandbox bool) (string, error) {
	f.exchangeCalls++
	return f.token, f.exchangeErr
}
func (f *fakeProvider) FetchProfile(ctx context.Context, accessToken string, sandbox bool) (*toss.Profile, error) {
	f.profileCalls++
	return f.profile, nil
}
func (f *fakeProvider) Unlink(ctx context.Context, userKey string, sandbox bool) error {
	f.unlinkCalls++
	return f.unlinkErr
}

type fakeMedia struct{}

func (fakeMedia) NewImageKey() string { return "registrations/test/image.jpg" }
func (fakeMedia) PresignUpload(ctx context.Context, key string) (string, error) {
	return "https://media.test/upload/" + key, nil
}
func (fakeMedia) ObjectURL(key string) string { return "https://media.test/" + key }

type fakeNotifier struct{}

func (fakeNotifier) SendRegistrationNotification(*models.Registration, string) error { return nil }

func testRouter(t *testing.T, store *fakeStore, provider *fakeProvider, cfg *config.Config) *mux.Router {
	t.Helper()
	idx, err := regions.LoadBytes([]byte(testRegionsXML))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if cfg == nil {
		cfg = &config.Config{
			JWTSecret:         "test-secret",
			TossClientID:      "client-id",
			TossClientSecret:  "client-secret",
			TossAAD:           "TOSS",
			TossDecryptionKey: make([]byte, 32),
		}
	}

	svc := service.NewService(store, provider, fakeMedia{}, fakeNotifier{}, idx, logger, cfg)
	h := NewHandler(svc, logger)

	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware())
	r.HandleFunc("/auth/toss/login", h.TossLogin).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/toss/unlink", h.TossUnlink).Methods("POST", "OPTIONS")
	r.HandleFunc("/regions", h.Regions).Methods("GET", "OPTIONS")
	r.HandleFunc("/districts/{code}/influencers", h.Influencers).Methods("GET", "OPTIONS")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestTossLogin_EndToEnd(t *testing.T) {
	key := make([]byte, 32)
	name, err := utils.EncryptField("Kim", key, "TOSS")
	require.NoError(t, err)

	store := newFakeStore()
	provider := &fakeProvider{
		token:   "tok",
		profile: &toss.Profile{UserKey: json.Number("42"), Name: name},
	}
	router := testRouter(t, store, provider, nil)

	rec, envelope := doJSON(t, router, "POST", "/auth/toss/login", map[string]any{"code": "abc123"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
	member := envelope["member"].(map[string]any)
	assert.Equal(t, "42", member["toss_id"])
	assert.Equal(t, "Kim", member["name"])
	assert.NotEmpty(t, envelope["token"])
}

func TestTossLogin_EmptyCode(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	router := testRouter(t, store, provider, nil)

	rec, envelope := doJSON(t, router, "POST", "/auth/toss/login", map[string]any{"code": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "Authorization Code is required", envelope["error"])
	assert.Zero(t, provider.exchangeCalls)
	assert.Zero(t, provider.profileCalls)
}

func TestTossLogin_ExchangeFailure(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		exchangeErr: apperrors.New(apperrors.KindUpstream, "token exchange failed: expired authorization code"),
	}
	router := testRouter(t, store, provider, nil)

	rec, envelope := doJSON(t, router, "POST", "/auth/toss/login", map[string]any{"code": "stale"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
	assert.Contains(t, envelope["error"], "expired authorization code")
	assert.Zero(t, provider.profileCalls)
	assert.NotContains(t, envelope, "member")
}

func TestTossLogin_UpsertFailure(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = assert.AnError
	provider := &fakeProvider{token: "tok", profile: &toss.Profile{UserKey: json.Number("42")}}
	router := testRouter(t, store, provider, nil)

	rec, envelope := doJSON(t, router, "POST", "/auth/toss/login", map[string]any{"code": "abc"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
	assert.NotContains(t, envelope, "member")
}

func TestTossLogin_InvalidBody(t *testing.T) {
	router := testRouter(t, newFakeStore(), &fakeProvider{}, nil)

	req := httptest.NewRequest("POST", "/auth/toss/login", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTossUnlink_RevocationFailure(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		unlinkErr: apperrors.New(apperrors.KindUpstream, "unlink failed: already unlinked"),
	}
	router := testRouter(t, store, provider, nil)

	rec, envelope := doJSON(t, router, "POST", "/auth/toss/unlink", map[string]any{"toss_id": "42"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
	assert.Contains(t, envelope["error"], "already unlinked")
	assert.Zero(t, store.deleteCalls)
}

func TestTossUnlink_Success(t *testing.T) {
	store := newFakeStore()
	store.members["42"] = &models.Member{TossID: "42"}
	provider := &fakeProvider{}
	router := testRouter(t, store, provider, nil)

	rec, envelope := doJSON(t, router, "POST", "/auth/toss/unlink", map[string]any{"toss_id": "42"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
	assert.NotEmpty(t, envelope["message"])
	assert.Equal(t, 1, store.deleteCalls)
}

func TestCORSPreflight(t *testing.T) {
	router := testRouter(t, newFakeStore(), &fakeProvider{}, nil)

	req := httptest.NewRequest("OPTIONS", "/auth/toss/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-client-info")
}

func TestRegions(t *testing.T) {
	router := testRouter(t, newFakeStore(), &fakeProvider{}, nil)

	rec, envelope := doJSON(t, router, "GET", "/regions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
	regionsList := envelope["regions"].([]any)
	require.Len(t, regionsList, 1)
}

func TestInfluencers_UnknownDistrict(t *testing.T) {
	router := testRouter(t, newFakeStore(), &fakeProvider{}, nil)

	rec, envelope := doJSON(t, router, "GET", "/districts/00000/influencers", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
}

func TestInfluencers_EmptyListIsArray(t *testing.T) {
	router := testRouter(t, newFakeStore(), &fakeProvider{}, nil)

	rec, _ := doJSON(t, router, "GET", "/districts/11680/influencers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"influencers":[]`)
}
