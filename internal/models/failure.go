package models

import "time"

// GeocodeFailure is a journal entry for an address the provider could not resolve.
type GeocodeFailure struct {
	Address   string    `json:"address"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	UpdatedAt time.Time `json:"updated_at"`
}
