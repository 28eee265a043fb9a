package models

// Influencer represents an approved influencer listed in a district
type Influencer struct {
	ID           int64  `json:"id"`
	DistrictCode string `json:"district_code"`
	Name         string `json:"name"`
	Handle       string `json:"handle"`
	ImageURL     string `json:"image_url"`
	Score        int64  `json:"score"`
	Rank         int    `json:"rank"`
	CreatedAt    string `json:"created_at"`
}
