package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/mens-health/internal/domain/localstore"
	"github.com/yanqian/mens-health/internal/infra/kvstore"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

func TestService_RegisterLoginAndRefresh(t *testing.T) {
	svc, _ := newTestService(t, "", nil)
	ctx := context.Background()

	view, err := svc.Register(ctx, RegisterRequest{
		Email:    "User@Example.com",
		Password: "pass1234",
		Name:     "John",
	})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", view.Email)
	require.Equal(t, "John", view.Name)
	require.Equal(t, roleUser, view.Role)
	require.NotEmpty(t, view.ID)

	resp, err := svc.Login(ctx, LoginRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, view.Email, resp.User.Email)

	session, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, session.User.ID)
	require.Equal(t, roleUser, session.Role)
	require.False(t, session.IsAdmin())
	require.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	_, err = svc.ValidateToken(ctx, resp.RefreshToken)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, resp.Token, refreshed.Token)
	require.Equal(t, "John", refreshed.User.Name)
}

func TestService_RegisterDefaultsNameToEmailLocalPart(t *testing.T) {
	svc, _ := newTestService(t, "", nil)

	view, err := svc.Register(context.Background(), RegisterRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "jane", view.Name)
}

func TestService_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, "", nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass12345"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeEmailExists))
	require.Contains(t, err.Error(), "already registered")
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(t, "", nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "12345"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, RegistrationMessage(FailWeakPassword), apperrors.MessageOf(err))

	_, err = svc.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "123456"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, RegistrationMessage(FailInvalidEmail), apperrors.MessageOf(err))
}

func TestService_AdminRegistration(t *testing.T) {
	ctx := context.Background()

	disabled, _ := newTestService(t, "", nil)
	_, err := disabled.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "123456", Role: roleAdmin})
	require.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	svc, _ := newTestService(t, "open-sesame", nil)
	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "123456", Role: roleAdmin, AdminSecret: "wrong"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	require.Equal(t, "Invalid admin registration password", apperrors.MessageOf(err))

	view, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "123456", Role: roleAdmin, AdminSecret: "open-sesame"})
	require.NoError(t, err)
	require.Equal(t, roleAdmin, view.Role)
}

func TestService_LoginFailures(t *testing.T) {
	svc, _ := newTestService(t, "", nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "user@example.com", Password: "wrong-pass"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))
	require.Equal(t, LoginMessage(FailInvalidCredential), apperrors.MessageOf(err))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "pass1234"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))
}

func TestService_LogoutEndsSession(t *testing.T) {
	svc, _ := newTestService(t, "", nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, LoginRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)

	session, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, session))

	_, err = svc.ValidateToken(ctx, resp.Token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
	_, err = svc.Refresh(ctx, resp.RefreshToken)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_RejectsForeignSignature(t *testing.T) {
	svc, _ := newTestService(t, "", nil)
	other, _ := newTestService(t, "", nil)
	ctx := context.Background()
	_, err := other.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)
	resp, err := other.Login(ctx, LoginRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)

	// Same secret but the session record lives in the other store.
	_, err = svc.ValidateToken(ctx, resp.Token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	_, err = svc.ValidateToken(ctx, "not-a-token")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_AdminOperations(t *testing.T) {
	svc, _ := newTestService(t, "open-sesame", nil)
	ctx := context.Background()

	userView, err := svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Email: "admin@example.com", Password: "pass1234", Role: roleAdmin, AdminSecret: "open-sesame"})
	require.NoError(t, err)

	userSession := loginSession(t, svc, "user@example.com")
	adminSession := loginSession(t, svc, "admin@example.com")
	require.True(t, adminSession.IsAdmin())

	_, err = svc.ListUsers(ctx, userSession)
	require.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	require.Equal(t, "Only admins can list users", apperrors.MessageOf(err))

	_, err = svc.UpdateRole(ctx, userSession, userView.ID, roleAdmin)
	require.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	require.Equal(t, "Only admins can update user roles", apperrors.MessageOf(err))

	users, err := svc.ListUsers(ctx, adminSession)
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = svc.UpdateRole(ctx, adminSession, userView.ID, "superuser")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	promoted, err := svc.UpdateRole(ctx, adminSession, userView.ID, roleAdmin)
	require.NoError(t, err)
	require.Equal(t, roleAdmin, promoted.Role)

	profile, err := svc.Profile(ctx, userSession)
	require.NoError(t, err)
	require.Equal(t, roleAdmin, profile.Role)
}

func TestService_LoginWithIDToken(t *testing.T) {
	verifier := &stubVerifier{claims: ExternalClaims{Subject: "fb-1", Email: "Fresh@Example.com", Name: "Fresh User", EmailVerified: true}}
	svc, repo := newTestService(t, "", verifier)
	ctx := context.Background()

	resp, err := svc.LoginWithIDToken(ctx, IDTokenRequest{IDToken: "token"})
	require.NoError(t, err)
	require.Equal(t, "fresh@example.com", resp.User.Email)
	require.Equal(t, "Fresh User", resp.User.Name)
	require.Equal(t, roleUser, resp.User.Role)

	again, err := svc.LoginWithIDToken(ctx, IDTokenRequest{IDToken: "token"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, again.User.ID)
	require.Len(t, repo.users, 1)

	_, err = svc.LoginWithIDToken(ctx, IDTokenRequest{IDToken: " "})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestService_LoginWithIDTokenRefusesExistingEmail(t *testing.T) {
	verifier := &stubVerifier{claims: ExternalClaims{Subject: "fb-2", Email: "user@example.com"}}
	svc, _ := newTestService(t, "", verifier)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "user@example.com", Password: "pass1234"})
	require.NoError(t, err)

	_, err = svc.LoginWithIDToken(ctx, IDTokenRequest{IDToken: "token"})
	require.True(t, apperrors.IsCode(err, codeAccountLinking))
	require.Equal(t, GoogleMessage(FailAccountExists), apperrors.MessageOf(err))
}

func TestService_IDTokenDisabledWithoutVerifier(t *testing.T) {
	svc, _ := newTestService(t, "", nil)

	_, err := svc.LoginWithIDToken(context.Background(), IDTokenRequest{IDToken: "token"})
	require.True(t, apperrors.IsCode(err, codeNotConfigured))
}

func TestService_GoogleAuthURLRequiresConfig(t *testing.T) {
	svc, _ := newTestService(t, "", nil)

	_, err := svc.GoogleAuthURL(context.Background(), "state", "challenge")
	require.True(t, apperrors.IsCode(err, codeNotConfigured))
}

func TestService_GoogleAuthURL(t *testing.T) {
	repo := newMemoryRepo()
	store := localstore.NewStore(kvstore.NewMemoryStore(), newTestLogger())
	svc := NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: time.Hour,
		Google: GoogleConfig{
			ClientID:           "client",
			ClientSecret:       "secret",
			RedirectURL:        "http://localhost/callback",
			TokenEncryptionKey: "0123456789abcdef",
		},
	}, repo, store, nil, newTestLogger())

	state, verifier, challenge, err := NewOAuthState()
	require.NoError(t, err)
	require.Equal(t, CodeChallengeFromVerifier(verifier), challenge)

	url, err := svc.GoogleAuthURL(context.Background(), state, challenge)
	require.NoError(t, err)
	require.Contains(t, url, "code_challenge="+challenge)
	require.Contains(t, url, "access_type=offline")

	_, err = svc.GoogleCallback(context.Background(), "", verifier)
	require.True(t, apperrors.IsCode(err, codeInvalidRequest))
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	c := newTokenCipher("0123456789abcdef")

	sealed, err := c.seal("refresh-token")
	require.NoError(t, err)
	require.NotEqual(t, "refresh-token", sealed)

	plain, err := c.open(sealed)
	require.NoError(t, err)
	require.Equal(t, "refresh-token", plain)

	_, err = newTokenCipher("short").seal("x")
	require.Error(t, err)
	_, err = newTokenCipher("fedcba9876543210").open(sealed)
	require.Error(t, err)
}

func TestMessages_Defaults(t *testing.T) {
	require.Equal(t, "Please enter a valid email address.", RegistrationMessage(FailInvalidEmail))
	require.Equal(t, "Registration failed. Please check your information and try again.", RegistrationMessage("auth/unknown"))
	require.Equal(t, "Incorrect password. Please try again.", LoginMessage(FailWrongPassword))
	require.Equal(t, "Login failed. Please check your email and password.", LoginMessage("auth/unknown"))
	require.Equal(t, "Login was cancelled. Please try again.", GoogleMessage(FailPopupClosed))
	require.Equal(t, "Google login failed. Please try again or use email login.", GoogleMessage(""))
}

func newTestService(t *testing.T, adminSecret string, verifier IDTokenVerifier) (Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	store := localstore.NewStore(kvstore.NewMemoryStore(), newTestLogger())
	svc := NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		AdminSecret:     adminSecret,
	}, repo, store, verifier, newTestLogger())
	return svc, repo
}

func loginSession(t *testing.T, svc Service, email string) Session {
	t.Helper()
	resp, err := svc.Login(context.Background(), LoginRequest{Email: email, Password: "pass1234"})
	require.NoError(t, err)
	session, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	return session
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubVerifier struct {
	claims ExternalClaims
	err    error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (ExternalClaims, error) {
	return s.claims, s.err
}

type memoryRepo struct {
	mu         sync.Mutex
	users      map[string]User
	identities map[string]Identity
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]User), identities: make(map[string]Identity)}
}

func (m *memoryRepo) Create(_ context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return User{}, ErrEmailExists
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *memoryRepo) List(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *memoryRepo) GetIdentity(_ context.Context, provider, subject string) (Identity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[provider+"|"+subject]
	return identity, ok, nil
}

func (m *memoryRepo) GetIdentityByUser(_ context.Context, userID, provider string) (Identity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.UserID == userID && identity.Provider == provider {
			return identity, true, nil
		}
	}
	return Identity{}, false, nil
}

func (m *memoryRepo) UpsertIdentity(_ context.Context, identity Identity) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identity.Provider+"|"+identity.ProviderSubject] = identity
	return identity, nil
}
