package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/minwoo-kang/localstar-service/internal/apperrors"
	"github.com/minwoo-kang/localstar-service/internal/models"
	"github.com/minwoo-kang/localstar-service/internal/utils"
)

// PlaceholderName is stored when the profile name is absent or cannot
// be decrypted.
const PlaceholderName = "토스 사용자"

// Login exchanges an authorization code with the identity provider,
// decrypts the profile PII and upserts the member record. Returns the
// stored member and a signed session token.
//
// The flow is linear with no retries: any terminal failure aborts the
// remaining steps. A previously obtained access token is simply
// discarded on later failure.
func (s *Service) Login(ctx context.Context, code string, sandbox bool) (*models.Member, string, error) {
	if code == "" {
		return nil, "", apperrors.New(apperrors.KindValidation, "Authorization Code is required")
	}
	if s.config.TossClientID == "" || s.config.TossClientSecret == "" {
		return nil, "", apperrors.New(apperrors.KindConfiguration, "identity provider credentials are not configured")
	}

	accessToken, err := s.provider.ExchangeAuthCode(ctx, code, sandbox)
	if err != nil {
		return nil, "", err
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken, sandbox)
	if err != nil {
		return nil, "", err
	}
	if profile.UserKey.String() == "" {
		return nil, "", apperrors.New(apperrors.KindUpstream, "profile is missing userKey")
	}

	member := &models.Member{
		TossID:   profile.UserKey.String(),
		Name:     PlaceholderName,
		Birthday: s.decryptField("birthday", profile.Birthday),
		Gender:   s.decryptField("gender", profile.Gender),
		Phone:    s.decryptField("phone", profile.Phone),
	}
	if name := s.decryptField("name", profile.Name); name != "" {
		member.Name = name
	}

	if err := s.store.UpsertMember(member); err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindPersistence, "failed to save member", err)
	}

	token, err := s.issueToken(member.TossID)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindConfiguration, "failed to issue session token", err)
	}

	s.log.Infof("Member logged in: %s", member.TossID)
	return member, token, nil
}

// Unlink revokes the provider link and deletes the local member record.
// Revocation happens first: when the local delete fails afterwards the
// link is already gone upstream while the record stays, a known
// inconsistency window that is only logged here.
func (s *Service) Unlink(ctx context.Context, tossID string, sandbox bool) error {
	if tossID == "" {
		return apperrors.New(apperrors.KindValidation, "Toss ID is required")
	}

	if err := s.provider.Unlink(ctx, tossID, sandbox); err != nil {
		return err
	}

	if err := s.store.DeleteMember(tossID); err != nil {
		s.log.Errorf("Member %s revoked upstream but local delete failed: %v", tossID, err)
		return apperrors.Wrap(apperrors.KindPersistence, "failed to delete member", err)
	}

	s.log.Infof("Member unlinked: %s", tossID)
	return nil
}

// decryptField decrypts a single PII field, returning "" when no key is
// configured, the field is absent or decryption fails. Failures are
// logged and never abort the request.
func (s *Service) decryptField(name, blob string) string {
	if len(s.config.TossDecryptionKey) == 0 || blob == "" {
		return ""
	}
	plaintext, err := utils.DecryptField(blob, s.config.TossDecryptionKey, s.config.TossAAD)
	if err != nil {
		s.log.Warnf("Failed to decrypt %s field: %v", name, err)
		return ""
	}
	return plaintext
}

func (s *Service) issueToken(tossID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tossID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	return token.SignedString([]byte(s.config.JWTSecret))
}
