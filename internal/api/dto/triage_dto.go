package dto

import "time"

// TriageRequest payload for a single ticket.
type TriageRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// BatchTriageRequest payload for several tickets.
type BatchTriageRequest struct {
	Tickets []TriageRequest `json:"tickets"`
}

// LoginRequest payload for operator login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Page describes list pagination.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}
