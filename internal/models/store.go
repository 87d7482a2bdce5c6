package models

// Store is the whole persisted document. Every mutation rewrites it in
// full; there are no partial writes.
type Store struct {
	Users         []User   `json:"users"`
	Parts         []Part   `json:"parts"`
	ResetRequests []string `json:"resetRequests"`
}

// EmptyStore returns a valid zero document. Used both for corrupt-file
// degradation and as the base for the seeded bootstrap document.
func EmptyStore() Store {
	return Store{
		Users:         []User{},
		Parts:         []Part{},
		ResetRequests: []string{},
	}
}
