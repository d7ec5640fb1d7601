package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

const (
	providerGoogle  = "google"
	googleIssuerURL = "https://accounts.google.com"
	googleRevokeURL = "https://oauth2.googleapis.com/revoke"
)

func (s *service) GoogleAuthURL(_ context.Context, state, codeChallenge string) (string, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

func (s *service) GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return LoginResponse{}, apperrors.Wrap(codeInvalidRequest, GoogleMessage(FailPopupClosed), nil)
	}
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(codeOAuthExchange, GoogleMessage(""), err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return LoginResponse{}, apperrors.Wrap(codeOAuthExchange, "missing id_token in oauth response", nil)
	}
	claims, err := s.google.Verify(ctx, rawIDToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if !claims.EmailVerified {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "google account email not verified", nil)
	}

	sealed := ""
	if token.RefreshToken != "" {
		sealed, err = newTokenCipher(s.cfg.Google.TokenEncryptionKey).seal(token.RefreshToken)
		if err != nil {
			return LoginResponse{}, apperrors.Wrap(codeAuthError, "failed to encrypt refresh token", err)
		}
	}
	user, created, err := linkExternalUser(ctx, s.repo, s.roles, providerGoogle, claims, sealed)
	if err != nil {
		return LoginResponse{}, err
	}
	if created {
		s.logger.Info("provisioned google user", "userId", user.ID)
	}
	return s.startSession(ctx, user)
}

// Logout ends the session and revokes any stored Google grant. Revocation
// failures are logged only.
func (s *service) Logout(ctx context.Context, session Session) error {
	if session.ID != "" {
		if err := s.sessions.delete(ctx, session.ID); err != nil {
			return apperrors.Wrap(codeAuthError, "failed to end session", err)
		}
	}
	identity, found, err := s.repo.GetIdentityByUser(ctx, session.User.ID, providerGoogle)
	if err != nil {
		s.logger.Warn("failed to fetch google identity", "error", err)
		return nil
	}
	if !found || identity.RefreshToken == "" {
		return nil
	}
	refreshToken, err := newTokenCipher(s.cfg.Google.TokenEncryptionKey).open(identity.RefreshToken)
	if err != nil || refreshToken == "" {
		s.logger.Warn("failed to decrypt google refresh token", "error", err)
		return nil
	}
	if err := revokeGoogleToken(ctx, refreshToken); err != nil {
		s.logger.Warn("failed to revoke google refresh token", "error", err)
	}
	return nil
}

func (s *service) googleOAuthConfig() (*oauth2.Config, error) {
	googleCfg := s.cfg.Google
	if strings.TrimSpace(googleCfg.ClientID) == "" || strings.TrimSpace(googleCfg.ClientSecret) == "" || strings.TrimSpace(googleCfg.RedirectURL) == "" {
		return nil, apperrors.Wrap(codeNotConfigured, "google oauth is not configured", nil)
	}
	if strings.TrimSpace(googleCfg.TokenEncryptionKey) == "" {
		return nil, apperrors.Wrap(codeNotConfigured, "google token encryption key is missing", nil)
	}
	return &oauth2.Config{
		ClientID:     googleCfg.ClientID,
		ClientSecret: googleCfg.ClientSecret,
		RedirectURL:  googleCfg.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

func revokeGoogleToken(ctx context.Context, refreshToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleRevokeURL, strings.NewReader("token="+refreshToken))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("google revoke returned status %d", resp.StatusCode)
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeChallengeFromVerifier computes the PKCE S256 challenge for a verifier.
func CodeChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// NewOAuthState returns a state, code verifier, and code challenge for PKCE.
func NewOAuthState() (state string, codeVerifier string, codeChallenge string, err error) {
	if state, err = randomString(32); err != nil {
		return "", "", "", err
	}
	if codeVerifier, err = randomString(32); err != nil {
		return "", "", "", err
	}
	return state, codeVerifier, CodeChallengeFromVerifier(codeVerifier), nil
}
