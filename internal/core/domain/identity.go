package domain

// Identity is the authenticated principal extracted from an access token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}
