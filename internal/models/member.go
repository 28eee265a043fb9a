package models

// Member represents a user linked through the Toss identity provider
type Member struct {
	TossID    string `json:"toss_id"`
	Name      string `json:"name"`
	Birthday  string `json:"birthday,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}
