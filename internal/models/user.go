package models

// User represents an account in the store document.
// Password holds the bcrypt hash; handlers blank it before returning
// users over the API, and omitempty keeps the key out of responses.
type User struct {
	Username           string `json:"username" validate:"required,min=1,max=100"`
	Password           string `json:"password,omitempty" validate:"required,min=4"`
	Role               string `json:"role" validate:"required"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty"`
	AllowManualReset   bool   `json:"allowManualReset,omitempty"`
}
