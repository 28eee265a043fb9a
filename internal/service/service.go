package service

import (
	"context"

	"github.com/minwoo-kang/localstar-service/internal/config"
	"github.com/minwoo-kang/localstar-service/internal/integrations/toss"
	"github.com/minwoo-kang/localstar-service/internal/models"
	"github.com/minwoo-kang/localstar-service/internal/regions"
	"github.com/sirupsen/logrus"
)

// Store is the persistence surface the service needs. Implemented by
// repository.Repository; substituted by fakes in tests.
type Store interface {
	UpsertMember(member *models.Member) error
	DeleteMember(tossID string) error
	ListInfluencersByDistrict(districtCode string) ([]models.Influencer, error)
	CreateRegistration(reg *models.Registration) error
	ListRegistrationsByStatus(status string) ([]models.Registration, error)
	ApproveRegistration(id, imageURL string) (*models.Influencer, error)
	RejectRegistration(id string) error
	GetRegistrationImageKey(id string) (string, error)
	RecomputeRanks() error
}

// IdentityProvider is the external identity provider surface.
// Implemented by toss.Client.
type IdentityProvider interface {
	ExchangeAuthCode(ctx context.Context, code string, sandbox bool) (string, error)
	FetchProfile(ctx context.Context, accessToken string, sandbox bool) (*toss.Profile, error)
	Unlink(ctx context.Context, userKey string, sandbox bool) error
}

// MediaStorage issues upload URLs for registration images.
// Implemented by media.Client.
type MediaStorage interface {
	NewImageKey() string
	PresignUpload(ctx context.Context, key string) (string, error)
	ObjectURL(key string) string
}

// Notifier delivers admin notifications. Implemented by email.Sender.
type Notifier interface {
	SendRegistrationNotification(reg *models.Registration, districtName string) error
}

// Service handles business logic
type Service struct {
	store    Store
	provider IdentityProvider
	media    MediaStorage
	notifier Notifier
	regions  *regions.Index
	log      *logrus.Logger
	config   *config.Config
}

// NewService initializes a new service
func NewService(store Store, provider IdentityProvider, media MediaStorage, notifier Notifier, idx *regions.Index, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		provider: provider,
		media:    media,
		notifier: notifier,
		regions:  idx,
		log:      log,
		config:   cfg,
	}
}
