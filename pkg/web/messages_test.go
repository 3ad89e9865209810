package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carryCookies copies the cookies set on rec onto a new request, as a browser would.
func carryCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(c)
	}
	return req
}

func TestMessenger_RedirectThenPop(t *testing.T) {
	m := NewMessenger("secret")

	rec := httptest.NewRecorder()
	m.Redirect(rec, httptest.NewRequest(http.MethodPost, "/", nil), "/1/", Success("Thanks for upvoting!"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/1/", rec.Header().Get("Location"))

	req := carryCookies(rec)
	popRec := httptest.NewRecorder()
	messages := m.Pop(popRec, req)
	require.Len(t, messages, 1)
	assert.Equal(t, LevelSuccess, messages[0].Level)
	assert.Equal(t, "Thanks for upvoting!", messages[0].Text)

	// the cookie is expired in the same response
	cookies := popRec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, messageCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMessenger_PopWithoutCookie(t *testing.T) {
	m := NewMessenger("")
	rec := httptest.NewRecorder()

	assert.Nil(t, m.Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Empty(t, rec.Result().Cookies())
}

func TestMessenger_Accumulates(t *testing.T) {
	m := NewMessenger("secret")

	first := httptest.NewRecorder()
	m.Redirect(first, httptest.NewRequest(http.MethodGet, "/", nil), "/", Error("Invalid Request"))

	second := httptest.NewRecorder()
	req := carryCookies(first)
	m.Redirect(second, req, "/", Success("Duck added successfully!"))

	messages := m.Pop(httptest.NewRecorder(), carryCookies(second))
	require.Len(t, messages, 2)
	assert.Equal(t, "Invalid Request", messages[0].Text)
	assert.Equal(t, "Duck added successfully!", messages[1].Text)
}

func TestMessenger_RejectsForeignSignature(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMessenger("one").Redirect(rec, httptest.NewRequest(http.MethodGet, "/", nil), "/", Success("hi"))

	messages := NewMessenger("two").Pop(httptest.NewRecorder(), carryCookies(rec))
	assert.Empty(t, messages)
}

func TestMessenger_RejectsExpired(t *testing.T) {
	m := NewMessenger("secret")

	claims := messageClaims{
		Messages: []StatusMessage{Success("stale")},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: messageCookieName, Value: token})

	assert.Empty(t, m.Pop(httptest.NewRecorder(), req))
}
