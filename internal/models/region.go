package models

// District represents the smallest administrative unit shown on the map
type District struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Province represents a top-level administrative division with its districts
type Province struct {
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Districts []District `json:"districts"`
}
