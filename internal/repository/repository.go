package repository

import (
	"database/sql"
	"fmt"

	"github.com/minwoo-kang/localstar-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertMember inserts or updates a member keyed by toss_id and fills
// the record with the stored row.
func (r *Repository) UpsertMember(member *models.Member) error {
	query := `
		INSERT INTO localstar.members (toss_id, name, birthday, gender, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (toss_id) DO UPDATE
		SET name = EXCLUDED.name,
		    birthday = EXCLUDED.birthday,
		    gender = EXCLUDED.gender,
		    phone = EXCLUDED.phone
		RETURNING created_at`
	err := r.db.QueryRow(query, member.TossID, member.Name, member.Birthday, member.Gender, member.Phone).
		Scan(&member.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// DeleteMember removes the member keyed by toss_id
func (r *Repository) DeleteMember(tossID string) error {
	query := `DELETE FROM localstar.members WHERE toss_id = $1`
	if _, err := r.db.Exec(query, tossID); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// ListInfluencersByDistrict returns the influencers of a district
// ordered by rank.
func (r *Repository) ListInfluencersByDistrict(districtCode string) ([]models.Influencer, error) {
	query := `
		SELECT id, district_code, name, handle, image_url, score, rank, created_at
		FROM localstar.influencers
		WHERE district_code = $1
		ORDER BY rank, score DESC`
	rows, err := r.db.Query(query, districtCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}
	defer rows.Close()

	var influencers []models.Influencer
	for rows.Next() {
		var inf models.Influencer
		if err := rows.Scan(&inf.ID, &inf.DistrictCode, &inf.Name, &inf.Handle, &inf.ImageURL, &inf.Score, &inf.Rank, &inf.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan influencer: %w", err)
		}
		influencers = append(influencers, inf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate influencers: %w", err)
	}
	return influencers, nil
}

// CreateRegistration stores a new registration request
func (r *Repository) CreateRegistration(reg *models.Registration) error {
	query := `
		INSERT INTO localstar.registrations (id, member_toss_id, district_code, name, handle, image_key, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRow(query, reg.ID, reg.MemberTossID, reg.DistrictCode, reg.Name, reg.Handle, reg.ImageKey, reg.Status).
		Scan(&reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

// ListRegistrationsByStatus returns registration requests with the given status
func (r *Repository) ListRegistrationsByStatus(status string) ([]models.Registration, error) {
	query := `
		SELECT id, member_toss_id, district_code, name, handle, image_key, status, created_at
		FROM localstar.registrations
		WHERE status = $1
		ORDER BY created_at`
	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.MemberTossID, &reg.DistrictCode, &reg.Name, &reg.Handle, &reg.ImageKey, &reg.Status, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return regs, nil
}

// ApproveRegistration flips a pending registration to approved and
// creates the influencer row in the same transaction.
func (r *Repository) ApproveRegistration(id, imageURL string) (*models.Influencer, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reg := &models.Registration{}
	query := `
		UPDATE localstar.registrations
		SET status = 'approved'
		WHERE id = $1 AND status = 'pending'
		RETURNING district_code, name, handle`
	err = tx.QueryRow(query, id).Scan(&reg.DistrictCode, &reg.Name, &reg.Handle)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pending registration not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve registration: %w", err)
	}

	inf := &models.Influencer{
		DistrictCode: reg.DistrictCode,
		Name:         reg.Name,
		Handle:       reg.Handle,
		ImageURL:     imageURL,
	}
	query = `
		INSERT INTO localstar.influencers (district_code, name, handle, image_url, score, rank, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = tx.QueryRow(query, inf.DistrictCode, inf.Name, inf.Handle, inf.ImageURL).
		Scan(&inf.ID, &inf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create influencer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return inf, nil
}

// RejectRegistration flips a pending registration to rejected
func (r *Repository) RejectRegistration(id string) error {
	query := `
		UPDATE localstar.registrations
		SET status = 'rejected'
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to reject registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending registration not found")
	}
	return nil
}

// GetRegistrationImageKey returns the stored image key for a registration
func (r *Repository) GetRegistrationImageKey(id string) (string, error) {
	var key string
	query := `SELECT image_key FROM localstar.registrations WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&key)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("registration not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to find registration: %w", err)
	}
	return key, nil
}

// RecomputeRanks reassigns per-district ranks from scores
func (r *Repository) RecomputeRanks() error {
	query := `
		UPDATE localstar.influencers i
		SET rank = ranked.new_rank
		FROM (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY district_code ORDER BY score DESC, created_at) AS new_rank
			FROM localstar.influencers
		) ranked
		WHERE i.id = ranked.id`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to recompute ranks: %w", err)
	}
	return nil
}
