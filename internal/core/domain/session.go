package domain

import "time"

// Session is the authenticated identity extracted from an access token.
type Session struct {
	Subject   string    `json:"subject"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is what the auth server hands back on refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
