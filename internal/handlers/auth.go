package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	cookieLifetime = 86400
	// just short of a full day so the cookie never outlives the token
	adminTokenLifetime = 84600 * time.Second

	deployCookieSuffix = ";Secure;domain=.mapperinfluences.com"
)

// setAuthCookies appends the session and frontend cookies as raw headers, the
// attribute set does not map onto http.Cookie cleanly.
func (h *Handlers) setAuthCookies(c *gin.Context, userToken, loggedIn string, maxAge int) {
	userTokenCookie := fmt.Sprintf("user_token=%s;HttpOnly;Max-Age=%d;Path=/;SameSite=lax", userToken, maxAge)
	loggedInCookie := fmt.Sprintf("logged_in=%s;Max-Age=%d;Path=/;SameSite=lax", loggedIn, maxAge)
	if h.cfg.DeployCookie {
		userTokenCookie += deployCookieSuffix
		loggedInCookie += deployCookieSuffix
	}
	c.Writer.Header().Add("Set-Cookie", userTokenCookie)
	c.Writer.Header().Add("Set-Cookie", loggedInCookie)
}

// OAuthRedirect completes the osu! OAuth2 flow: code exchange, session
// issuance, cookie set and a redirect back to the frontend.
func (h *Handlers) OAuthRedirect(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		util.RespondWithAPIError(c, apperror.Validation("missing code query parameter"))
		return
	}
	ctx := c.Request.Context()

	authToken, err := h.requester.GetAuthToken(ctx, code)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	osuUser, err := h.requester.GetTokenUser(ctx, authToken.AccessToken)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	sessionDuration := time.Duration(authToken.ExpiresIn) * time.Second
	token, err := h.auth.CreateToken(osuUser.ID, osuUser.Username, authToken.AccessToken, sessionDuration)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.setAuthCookies(c, token, "true", cookieLifetime)

	group := errgroup.Group{}
	group.Go(func() error { return h.db.AddLoginActivity(osuUser.ID) })
	group.Go(func() error { return h.db.UpsertUser(osuUser, true) })
	if err := group.Wait(); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.SetAuthenticated(osuUser.ID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("User logged in", logger.WithUserID(osuUser.ID))
	c.Redirect(http.StatusFound, h.cfg.PostLoginRedirectURI)
}

// Logout clears both auth cookies.
func (h *Handlers) Logout(c *gin.Context) {
	h.setAuthCookies(c, "deleted", "false", -1)
	c.Status(http.StatusOK)
}

type adminLoginRequest struct {
	Password string `json:"password"`
	// The osu! account the admin session acts as
	ID uint32 `json:"id"`
}

// AdminLogin issues a session token from the credentials grant, bypassing the
// OAuth2 flow for API testing.
func (h *Handlers) AdminLogin(c *gin.Context) {
	var request adminLoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid admin login body"))
		return
	}
	if request.Password != h.cfg.AdminPassword {
		util.RespondWithAPIError(c, apperror.WrongAdminPassword())
		return
	}
	ctx := c.Request.Context()

	accessToken, err := h.credentials.GetAccessToken(ctx)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	osuUser, err := h.credentials.GetUser(ctx, request.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	// The grant token can expire earlier than this. Get a new session if so.
	token, err := h.auth.CreateToken(osuUser.ID, osuUser.Username, accessToken, adminTokenLifetime)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("Admin session issued", zap.Uint32("acting_as", osuUser.ID))
	c.String(http.StatusOK, token)
}
