package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
	// AdminSecret unlocks admin self-registration. Empty disables it.
	AdminSecret string
	Firebase    FirebaseConfig
	Google      GoogleConfig
}

// FirebaseConfig identifies the project whose ID tokens are accepted.
type FirebaseConfig struct {
	ProjectID string
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	TokenEncryptionKey   string
	PostLoginRedirectURL string
}

// User represents a persisted account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity links a user to an external identity provider.
type Identity struct {
	UserID          string
	Provider        string
	ProviderSubject string
	ProviderEmail   string
	RefreshToken    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RegisterRequest captures the registration payload. Role "admin" requires
// AdminSecret to match the configured server secret.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	AdminSecret string `json:"adminSecret"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IDTokenRequest carries an ID token minted by the identity provider.
type IDTokenRequest struct {
	IDToken string `json:"idToken"`
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RoleUpdateRequest is the admin payload to change a role.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

// LoginResponse returns the signed tokens.
type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         UserView `json:"user"`
}

// UserView trims sensitive fields and carries the resolved role.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the authenticated caller, restored from a token on every request.
type Session struct {
	ID        string
	User      UserView
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == roleAdmin
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    string
	Email     string
	SessionID string
	TokenType string
	ExpiresAt time.Time
}
