package models

// Vehicle is the summary extracted from a registry record.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Plate string `json:"plate"`
}
