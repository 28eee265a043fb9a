package models

// Registration statuses
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Registration represents a pending influencer registration request
type Registration struct {
	ID           string `json:"id"`
	MemberTossID string `json:"member_toss_id"`
	DistrictCode string `json:"district_code"`
	Name         string `json:"name"`
	Handle       string `json:"handle"`
	ImageKey     string `json:"image_key"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}
