package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/mens-health/internal/domain/access"
	"github.com/yanqian/mens-health/internal/domain/localstore"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

const minPasswordLength = 6

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	LoginWithIDToken(ctx context.Context, req IDTokenRequest) (LoginResponse, error)
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	Profile(ctx context.Context, session Session) (UserView, error)
	Logout(ctx context.Context, session Session) error
	UpdateRole(ctx context.Context, session Session, userID, role string) (UserView, error)
	ListUsers(ctx context.Context, session Session) ([]UserView, error)
}

type service struct {
	cfg       Config
	repo      Repository
	roles     *RoleStore
	sessions  sessionStore
	providers map[string]Provider
	google    IDTokenVerifier
	logger    *slog.Logger
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance. idTokens verifies hosted
// identity provider tokens; nil disables ID token sign-in.
func NewService(cfg Config, repo Repository, store *localstore.Store, idTokens IDTokenVerifier, logger *slog.Logger) Service {
	roles := NewRoleStore(store)
	providers := map[string]Provider{
		providerLocal: NewLocalCredential(repo),
	}
	if idTokens != nil {
		providers[providerFirebase] = NewExternalIdentity(providerFirebase, idTokens, repo, roles)
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		roles:     roles,
		sessions:  sessionStore{kv: store.KV()},
		providers: providers,
		google:    NewOIDCVerifier(googleIssuerURL, cfg.Google.ClientID),
		logger:    logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, RegistrationMessage(FailInvalidEmail), err)
	}
	if len(req.Password) < minPasswordLength {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, RegistrationMessage(FailWeakPassword), nil)
	}
	role, err := s.registrationRole(req)
	if err != nil {
		return UserView{}, err
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to check user", err)
	}
	if exists {
		return UserView{}, apperrors.Wrap(apperrors.CodeEmailExists, RegistrationMessage(FailEmailInUse), nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         displayName(req.Name, email),
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return UserView{}, apperrors.Wrap(apperrors.CodeEmailExists, RegistrationMessage(FailEmailInUse), err)
		}
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to create user", err)
	}
	if err := s.roles.SetRole(ctx, user.ID, role); err != nil {
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to assign role", err)
	}
	s.logger.Info("user registered", "userId", user.ID, "role", role)
	return toView(user, role), nil
}

// registrationRole admits the admin role only with the server secret.
func (s *service) registrationRole(req RegisterRequest) (string, error) {
	role := strings.TrimSpace(strings.ToLower(req.Role))
	switch role {
	case "", roleUser:
		return roleUser, nil
	case roleAdmin:
		secret := s.cfg.AdminSecret
		if secret == "" || subtle.ConstantTimeCompare([]byte(req.AdminSecret), []byte(secret)) != 1 {
			return "", apperrors.Wrap(apperrors.CodeForbidden, "Invalid admin registration password", nil)
		}
		return roleAdmin, nil
	default:
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "unknown role", nil)
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	return s.signIn(ctx, providerLocal, Credentials{Email: req.Email, Password: req.Password})
}

func (s *service) LoginWithIDToken(ctx context.Context, req IDTokenRequest) (LoginResponse, error) {
	return s.signIn(ctx, providerFirebase, Credentials{IDToken: req.IDToken})
}

func (s *service) signIn(ctx context.Context, providerName string, creds Credentials) (LoginResponse, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return LoginResponse{}, apperrors.Wrap(codeNotConfigured, providerName+" sign-in is not configured", nil)
	}
	user, err := provider.Authenticate(ctx, creds)
	if err != nil {
		return LoginResponse{}, err
	}
	return s.startSession(ctx, user)
}

func (s *service) ValidateToken(ctx context.Context, token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Session{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	user, err := s.liveUser(ctx, claims)
	if err != nil {
		return Session{}, err
	}
	role := s.roles.Role(ctx, user.ID)
	return Session{
		ID:        claims.SessionID,
		User:      toView(user, role),
		Role:      role,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	user, err := s.liveUser(ctx, claims)
	if err != nil {
		return LoginResponse{}, err
	}
	return s.issueTokens(ctx, user, claims.SessionID)
}

// liveUser checks the session record behind claims and loads its user.
func (s *service) liveUser(ctx context.Context, claims Claims) (User, error) {
	record, found, err := s.sessions.get(ctx, claims.SessionID)
	if err != nil {
		return User{}, apperrors.Wrap(codeAuthError, "failed to load session", err)
	}
	if !found || record.UserID != claims.UserID {
		return User{}, apperrors.Wrap(apperrors.CodeInvalidToken, "session has ended", nil)
	}
	user, found, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return User{}, apperrors.Wrap(codeAuthError, "failed to load user", err)
	}
	if !found {
		return User{}, apperrors.Wrap(CodeUserNotFound, "user not found", nil)
	}
	return user, nil
}

func (s *service) Profile(ctx context.Context, session Session) (UserView, error) {
	user, found, err := s.repo.GetByID(ctx, session.User.ID)
	if err != nil {
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to load profile", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap(CodeUserNotFound, "user not found", nil)
	}
	return toView(user, s.roles.Role(ctx, user.ID)), nil
}

func (s *service) UpdateRole(ctx context.Context, session Session, userID, role string) (UserView, error) {
	if !session.IsAdmin() {
		return UserView{}, apperrors.Wrap(apperrors.CodeForbidden, "Only admins can update user roles", nil)
	}
	if !access.ValidRole(role) {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown role", nil)
	}
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to load user", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap(CodeUserNotFound, "user not found", nil)
	}
	if err := s.roles.SetRole(ctx, userID, role); err != nil {
		return UserView{}, apperrors.Wrap(codeAuthError, "failed to update role", err)
	}
	s.logger.Info("role updated", "userId", userID, "role", role, "by", session.User.ID)
	return toView(user, role), nil
}

func (s *service) ListUsers(ctx context.Context, session Session) ([]UserView, error) {
	if !session.IsAdmin() {
		return nil, apperrors.Wrap(apperrors.CodeForbidden, "Only admins can list users", nil)
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(codeAuthError, "failed to list users", err)
	}
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, toView(user, s.roles.Role(ctx, user.ID)))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views, nil
}

func (s *service) startSession(ctx context.Context, user User) (LoginResponse, error) {
	return s.issueTokens(ctx, user, uuid.NewString())
}

// issueTokens signs a token pair for sessionID and extends its record.
func (s *service) issueTokens(ctx context.Context, user User, sessionID string) (LoginResponse, error) {
	accessToken, err := s.generateToken(user, sessionID, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := s.generateToken(user, sessionID, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	if err := s.sessions.put(ctx, sessionID, sessionRecord{UserID: user.ID, CreatedAt: time.Now().Unix()}, s.cfg); err != nil {
		return LoginResponse{}, apperrors.Wrap(codeAuthError, "failed to store session", err)
	}
	return LoginResponse{
		Token:        accessToken,
		RefreshToken: refresh,
		User:         toView(user, s.roles.Role(ctx, user.ID)),
	}, nil
}

func (s *service) generateToken(user User, sessionID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email:     user.Email,
		SessionID: sessionID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap(codeAuthError, "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing subject or session", nil)
	}
	return Claims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func toView(user User, role string) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      role,
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	TokenType string `json:"type"`
}
