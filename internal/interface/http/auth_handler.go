package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/auth"
)

const (
	oauthStateCookieName = "oauth_state"
	oauthStateCookiePath = "/api/v1/auth/google"
	oauthStateMaxAge     = 300
)

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Login signs in with email and password.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoginWithIDToken signs in with an identity provider ID token.
func (h *Handler) LoginWithIDToken(c *gin.Context) {
	var req auth.IDTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.LoginWithIDToken(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleLogin starts the PKCE authorization code flow.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "oauth_state_failed", "failed to start google login", err))
		return
	}
	target, err := h.authSvc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback completes the Google flow. With a post-login redirect
// configured the tokens travel in the URL fragment.
func (h *Handler) GoogleCallback(c *gin.Context) {
	stored, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok || stored.State != c.Query("state") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "oauth state mismatch", nil))
		return
	}
	if reason := c.Query("error"); reason != "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", auth.GoogleMessage(auth.FailPopupClosed), nil))
		return
	}
	resp, err := h.authSvc.GoogleCallback(c.Request.Context(), c.Query("code"), stored.CodeVerifier)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if target := h.cfg.Auth.Google.PostLoginRedirectURL; target != "" {
		fragment := url.Values{}
		fragment.Set("token", resp.Token)
		fragment.Set("refreshToken", resp.RefreshToken)
		c.Redirect(http.StatusFound, target+"#"+fragment.Encode())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the caller profile.
func (h *Handler) Me(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), session)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// Logout ends the caller session.
func (h *Handler) Logout(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), session); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsers returns every account. Admin only.
func (h *Handler) ListUsers(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	users, err := h.authSvc.ListUsers(c.Request.Context(), session)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateRole changes the role of a user. Admin only.
func (h *Handler) UpdateRole(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req auth.RoleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.authSvc.UpdateRole(c.Request.Context(), session, c.Param("id"), req.Role)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	return true
}

type oauthStateCookie struct {
	State        string `json:"state"`
	CodeVerifier string `json:"verifier"`
}

func setOAuthStateCookie(c *gin.Context, state, codeVerifier string) {
	data, _ := json.Marshal(oauthStateCookie{State: state, CodeVerifier: codeVerifier})
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, base64.RawURLEncoding.EncodeToString(data), oauthStateMaxAge, oauthStateCookiePath, "", c.Request.TLS != nil, true)
}

func clearOAuthStateCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, "", -1, oauthStateCookiePath, "", c.Request.TLS != nil, true)
}

func readOAuthStateCookie(c *gin.Context) (oauthStateCookie, bool) {
	value, err := c.Cookie(oauthStateCookieName)
	if err != nil || value == "" {
		return oauthStateCookie{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return oauthStateCookie{}, false
	}
	var payload oauthStateCookie
	if err := json.Unmarshal(data, &payload); err != nil || payload.State == "" || payload.CodeVerifier == "" {
		return oauthStateCookie{}, false
	}
	return payload, true
}

