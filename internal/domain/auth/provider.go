package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

const (
	providerLocal    = "local"
	providerFirebase = "firebase"
	firebaseIssuer   = "https://securetoken.google.com/"
)

// Credentials is what a caller presents to sign in. Each provider reads the
// fields it understands.
type Credentials struct {
	Email    string
	Password string
	IDToken  string
}

// Provider authenticates credentials into a user account.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (User, error)
}

// LocalCredential checks email and password against stored bcrypt hashes.
type LocalCredential struct {
	repo Repository
}

// NewLocalCredential constructs the password provider.
func NewLocalCredential(repo Repository) *LocalCredential {
	return &LocalCredential{repo: repo}
}

func (p *LocalCredential) Name() string { return providerLocal }

func (p *LocalCredential) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeInvalidInput, LoginMessage(FailInvalidEmail), err)
	}
	user, found, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, apperrors.Wrap(codeAuthError, "failed to fetch user", err)
	}
	if !found || user.PasswordHash == "" {
		return User{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, LoginMessage(FailInvalidCredential), nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, LoginMessage(FailInvalidCredential), nil)
	}
	return user, nil
}

// ExternalClaims is the verified subset of an ID token.
type ExternalClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

// IDTokenVerifier checks an ID token signature, issuer and audience.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (ExternalClaims, error)
}

// OIDCVerifier verifies tokens against an issuer's published keys. The
// discovery document is fetched on first use and cached.
type OIDCVerifier struct {
	issuer   string
	clientID string

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier for issuer and audience clientID.
func NewOIDCVerifier(issuer, clientID string) *OIDCVerifier {
	return &OIDCVerifier{issuer: issuer, clientID: clientID}
}

// NewFirebaseVerifier accepts ID tokens minted by Firebase Auth for projectID.
func NewFirebaseVerifier(projectID string) *OIDCVerifier {
	return NewOIDCVerifier(firebaseIssuer+projectID, projectID)
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (ExternalClaims, error) {
	verifier, err := v.load(ctx)
	if err != nil {
		return ExternalClaims{}, apperrors.Wrap(codeAuthError, "failed to initialize oidc provider", err)
	}
	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return ExternalClaims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to verify id token", err)
	}
	var claims ExternalClaims
	if err := idToken.Claims(&claims); err != nil {
		return ExternalClaims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to parse id token claims", err)
	}
	if claims.Email == "" {
		return ExternalClaims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "missing email in id token", nil)
	}
	return claims, nil
}

func (v *OIDCVerifier) load(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.verifier != nil {
		return v.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, v.issuer)
	if err != nil {
		return nil, err
	}
	v.verifier = provider.Verifier(&oidc.Config{ClientID: v.clientID})
	return v.verifier, nil
}

// ExternalIdentity signs in with an ID token from a hosted identity provider.
// The first sign-in provisions a local account.
type ExternalIdentity struct {
	name     string
	verifier IDTokenVerifier
	repo     Repository
	roles    *RoleStore
}

// NewExternalIdentity constructs the provider registered under name.
func NewExternalIdentity(name string, verifier IDTokenVerifier, repo Repository, roles *RoleStore) *ExternalIdentity {
	return &ExternalIdentity{name: name, verifier: verifier, repo: repo, roles: roles}
}

func (p *ExternalIdentity) Name() string { return p.name }

func (p *ExternalIdentity) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if p.verifier == nil {
		return User{}, apperrors.Wrap(codeNotConfigured, "identity provider is not configured", nil)
	}
	if strings.TrimSpace(creds.IDToken) == "" {
		return User{}, apperrors.Wrap(apperrors.CodeInvalidInput, "id token missing", nil)
	}
	claims, err := p.verifier.Verify(ctx, creds.IDToken)
	if err != nil {
		return User{}, err
	}
	user, _, err := linkExternalUser(ctx, p.repo, p.roles, p.name, claims, "")
	return user, err
}

// linkExternalUser resolves the account behind claims, provisioning it when
// the subject is new. created reports whether a user was provisioned.
func linkExternalUser(ctx context.Context, repo Repository, roles *RoleStore, provider string, claims ExternalClaims, refreshToken string) (User, bool, error) {
	if claims.Subject == "" {
		return User{}, false, apperrors.Wrap(apperrors.CodeInvalidToken, "missing subject", nil)
	}
	identity, found, err := repo.GetIdentity(ctx, provider, claims.Subject)
	if err != nil {
		return User{}, false, apperrors.Wrap(codeAuthError, "failed to fetch identity", err)
	}
	if found {
		user, ok, err := repo.GetByID(ctx, identity.UserID)
		if err != nil {
			return User{}, false, apperrors.Wrap(codeAuthError, "failed to load user", err)
		}
		if !ok {
			return User{}, false, apperrors.Wrap(CodeUserNotFound, "user not found", nil)
		}
		if refreshToken != "" {
			identity.RefreshToken = refreshToken
			identity.ProviderEmail = claims.Email
			if _, err := repo.UpsertIdentity(ctx, identity); err != nil {
				return User{}, false, apperrors.Wrap(codeAuthError, "failed to persist identity", err)
			}
		}
		return user, false, nil
	}

	email, err := normalizeEmail(claims.Email)
	if err != nil {
		return User{}, false, apperrors.Wrap(apperrors.CodeInvalidInput, LoginMessage(FailInvalidEmail), err)
	}
	if _, exists, err := repo.GetByEmail(ctx, email); err != nil {
		return User{}, false, apperrors.Wrap(codeAuthError, "failed to check existing user", err)
	} else if exists {
		return User{}, false, apperrors.Wrap(codeAccountLinking, GoogleMessage(FailAccountExists), nil)
	}

	user, err := repo.Create(ctx, User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      displayName(claims.Name, claims.GivenName, email),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, false, apperrors.Wrap(apperrors.CodeEmailExists, RegistrationMessage(FailEmailInUse), err)
		}
		return User{}, false, apperrors.Wrap(codeAuthError, "failed to create user", err)
	}
	if _, err := repo.UpsertIdentity(ctx, Identity{
		UserID:          user.ID,
		Provider:        provider,
		ProviderSubject: claims.Subject,
		ProviderEmail:   claims.Email,
		RefreshToken:    refreshToken,
	}); err != nil {
		return User{}, false, apperrors.Wrap(codeAuthError, "failed to persist identity", err)
	}
	if err := roles.SetRole(ctx, user.ID, roleUser); err != nil {
		return User{}, false, apperrors.Wrap(codeAuthError, "failed to assign role", err)
	}
	return user, true, nil
}

func displayName(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if local, _, found := strings.Cut(c, "@"); found {
			return local
		}
		return c
	}
	return "User"
}
