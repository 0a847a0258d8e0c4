package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthRedirectCompletesLogin(t *testing.T) {
	f := newFixture(t)
	f.requester.getAuthToken = func(_ context.Context, code string) (osuapi.OsuAuthToken, error) {
		require.Equal(t, "abc", code)
		return osuapi.OsuAuthToken{AccessToken: "A", TokenType: "Bearer", ExpiresIn: 3600}, nil
	}
	f.requester.getTokenUser = func(_ context.Context, accessToken string) (osuapi.UserOsu, error) {
		require.Equal(t, "A", accessToken)
		return osuapi.UserOsu{ID: 42, Username: "x"}, nil
	}

	recorder := f.serve(httptest.NewRequest(http.MethodGet, "/oauth/osu-redirect?code=abc", nil))

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, f.cfg.PostLoginRedirectURI, recorder.Header().Get("Location"))

	cookies := recorder.Header().Values("Set-Cookie")
	require.Len(t, cookies, 2)
	assert.Regexp(t, `^user_token=\S+;HttpOnly;Max-Age=86400;Path=/;SameSite=lax$`, cookies[0])
	assert.Equal(t, "logged_in=true;Max-Age=86400;Path=/;SameSite=lax", cookies[1])

	// the issued token carries the user's osu! access token
	tokenValue := strings.TrimPrefix(strings.SplitN(cookies[0], ";", 2)[0], "user_token=")
	claims, err := f.auth.VerifyToken(tokenValue)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), claims.UserID)
	assert.Equal(t, "x", claims.Username)
	assert.Equal(t, "A", claims.OsuToken)

	assert.Equal(t, []uint32{42}, f.db.loginActivities)
	require.Len(t, f.db.upserted, 1)
	assert.Equal(t, uint32(42), f.db.upserted[0].ID)
	assert.Equal(t, []bool{true}, f.db.upsertedAuth)
	assert.Equal(t, []uint32{42}, f.db.authenticated)
}

func TestOAuthRedirectAddsDeployAttributes(t *testing.T) {
	f := newFixture(t)
	f.cfg.DeployCookie = true
	f.requester.getAuthToken = func(context.Context, string) (osuapi.OsuAuthToken, error) {
		return osuapi.OsuAuthToken{AccessToken: "A", ExpiresIn: 3600}, nil
	}
	f.requester.getTokenUser = func(context.Context, string) (osuapi.UserOsu, error) {
		return osuapi.UserOsu{ID: 42, Username: "x"}, nil
	}

	recorder := f.serve(httptest.NewRequest(http.MethodGet, "/oauth/osu-redirect?code=abc", nil))

	require.Equal(t, http.StatusFound, recorder.Code)
	for _, cookie := range recorder.Header().Values("Set-Cookie") {
		assert.True(t, strings.HasSuffix(cookie, ";Secure;domain=.mapperinfluences.com"), cookie)
	}
}

func TestOAuthRedirectRequiresCode(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(httptest.NewRequest(http.MethodGet, "/oauth/osu-redirect", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
}

func TestLogoutExpiresCookies(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(httptest.NewRequest(http.MethodGet, "/oauth/logout", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	cookies := recorder.Header().Values("Set-Cookie")
	require.Len(t, cookies, 2)
	assert.Equal(t, "user_token=deleted;HttpOnly;Max-Age=-1;Path=/;SameSite=lax", cookies[0])
	assert.Equal(t, "logged_in=false;Max-Age=-1;Path=/;SameSite=lax", cookies[1])
}

func TestAdminLoginIssuesToken(t *testing.T) {
	f := newFixture(t)
	f.credentials.users[7] = osuapi.UserOsu{ID: 7, Username: "admin-target"}

	body := strings.NewReader(`{"password":"hunter2","id":7}`)
	request := httptest.NewRequest(http.MethodPost, "/oauth/admin", body)
	request.Header.Set("Content-Type", "application/json")
	recorder := f.serve(request)

	require.Equal(t, http.StatusOK, recorder.Code)
	claims, err := f.auth.VerifyToken(recorder.Body.String())
	require.NoError(t, err)
	assert.Equal(t, uint32(7), claims.UserID)
	assert.Equal(t, "grant-token", claims.OsuToken)
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	f := newFixture(t)

	body := strings.NewReader(`{"password":"nope","id":7}`)
	request := httptest.NewRequest(http.MethodPost, "/oauth/admin", body)
	request.Header.Set("Content-Type", "application/json")
	recorder := f.serve(request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "WRONG_ADMIN_PASSWORD")
}

func TestAuthedRoutesRejectMissingCookie(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(httptest.NewRequest(http.MethodGet, "/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "MISSING_TOKEN_COOKIE")
}
