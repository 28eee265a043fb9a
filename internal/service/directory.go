package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/minwoo-kang/localstar-service/internal/apperrors"
	"github.com/minwoo-kang/localstar-service/internal/models"
)

// RegistrationResult is a stored registration request plus the presigned
// URL the client uploads the profile image to.
type RegistrationResult struct {
	Registration *models.Registration `json:"registration"`
	UploadURL    string               `json:"upload_url"`
}

// Provinces returns the administrative region tree
func (s *Service) Provinces() []models.Province {
	return s.regions.Provinces()
}

// ListInfluencers returns the ranked influencers of a district
func (s *Service) ListInfluencers(districtCode string) ([]models.Influencer, error) {
	if _, ok := s.regions.District(districtCode); !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown district code: %s", districtCode)
	}
	influencers, err := s.store.ListInfluencersByDistrict(districtCode)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to list influencers", err)
	}
	return influencers, nil
}

// SubmitRegistration stores a registration request for the member and
// returns it with a presigned image upload URL. The admin notification
// is best effort.
func (s *Service) SubmitRegistration(ctx context.Context, tossID, districtCode, name, handle string) (*RegistrationResult, error) {
	if districtCode == "" || name == "" || handle == "" {
		return nil, apperrors.New(apperrors.KindValidation, "district_code, name and handle are required")
	}
	district, ok := s.regions.District(districtCode)
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown district code: %s", districtCode)
	}

	reg := &models.Registration{
		ID:           uuid.NewString(),
		MemberTossID: tossID,
		DistrictCode: districtCode,
		Name:         name,
		Handle:       handle,
		ImageKey:     s.media.NewImageKey(),
		Status:       models.RegistrationPending,
	}

	uploadURL, err := s.media.PresignUpload(ctx, reg.ImageKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "failed to presign image upload", err)
	}

	if err := s.store.CreateRegistration(reg); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to save registration", err)
	}

	if err := s.notifier.SendRegistrationNotification(reg, district.Name); err != nil {
		s.log.Warnf("Failed to notify admin about registration %s: %v", reg.ID, err)
	}

	s.log.Infof("Registration submitted: %s (%s)", reg.ID, district.Name)
	return &RegistrationResult{Registration: reg, UploadURL: uploadURL}, nil
}

// ListRegistrations returns registration requests with the given status
func (s *Service) ListRegistrations(status string) ([]models.Registration, error) {
	switch status {
	case models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
	default:
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown status: %s", status)
	}
	regs, err := s.store.ListRegistrationsByStatus(status)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to list registrations", err)
	}
	return regs, nil
}

// ApproveRegistration approves a pending request and publishes the
// influencer to its district.
func (s *Service) ApproveRegistration(id string) (*models.Influencer, error) {
	if id == "" {
		return nil, apperrors.New(apperrors.KindValidation, "registration id is required")
	}
	imageKey, err := s.store.GetRegistrationImageKey(id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to find registration", err)
	}
	influencer, err := s.store.ApproveRegistration(id, s.media.ObjectURL(imageKey))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "failed to approve registration", err)
	}
	s.log.Infof("Registration approved: %s -> influencer %d", id, influencer.ID)
	return influencer, nil
}

// RejectRegistration rejects a pending request
func (s *Service) RejectRegistration(id string) error {
	if id == "" {
		return apperrors.New(apperrors.KindValidation, "registration id is required")
	}
	if err := s.store.RejectRegistration(id); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "failed to reject registration", err)
	}
	s.log.Infof("Registration rejected: %s", id)
	return nil
}

// RecomputeRanks reassigns per-district influencer ranks from scores.
// Invoked by the hourly cron job.
func (s *Service) RecomputeRanks() error {
	if err := s.store.RecomputeRanks(); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "failed to recompute ranks", err)
	}
	s.log.Info("Influencer ranks recomputed")
	return nil
}
