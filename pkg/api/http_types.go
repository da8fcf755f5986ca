package api

// Endpoint: GET /api/session
type SessionResponse struct {
	// State is one of "absent", "live", "expired".
	State string `json:"state"`
}

// Endpoint: PUT /api/session
type SessionRequest struct {
	Token string `json:"token"`
}

// Endpoint: GET|POST /logout
type LogoutRequest struct {
	Expired bool `json:"expired,omitempty"`
}
