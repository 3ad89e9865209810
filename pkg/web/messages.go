package web

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	messageCookieName = "ducks_messages"
	messageTTL        = 5 * time.Minute
)

type MessageLevel string

const (
	LevelSuccess MessageLevel = "success"
	LevelError   MessageLevel = "error"
)

// StatusMessage is a one-time notice shown on the next rendered page.
type StatusMessage struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"text"`
}

func Success(text string) StatusMessage {
	return StatusMessage{Level: LevelSuccess, Text: text}
}

func Error(text string) StatusMessage {
	return StatusMessage{Level: LevelError, Text: text}
}

type messageClaims struct {
	Messages []StatusMessage `json:"messages"`
	jwt.RegisteredClaims
}

// Messenger carries status messages across a redirect in a signed cookie.
type Messenger struct {
	secret []byte
}

// NewMessenger signs messages with secret. An empty secret is replaced by a
// random one, so pending messages do not survive a restart.
func NewMessenger(secret string) *Messenger {
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
	}
	return &Messenger{secret: []byte(secret)}
}

// Redirect stores msg for the next render and issues a 302 to url.
func (m *Messenger) Redirect(w http.ResponseWriter, r *http.Request, url string, msg StatusMessage) {
	pending := append(m.peek(r), msg)
	if err := m.store(w, pending); err != nil {
		log.Errorf("failed to store status message: %s", err)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Pop returns the pending messages and expires the cookie in the same response.
func (m *Messenger) Pop(w http.ResponseWriter, r *http.Request) []StatusMessage {
	if _, err := r.Cookie(messageCookieName); err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     messageCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return m.peek(r)
}

func (m *Messenger) peek(r *http.Request) []StatusMessage {
	cookie, err := r.Cookie(messageCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims := &messageClaims{}
	_, err = jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(_ *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		log.Debugf("ignoring invalid status message cookie: %s", err)
		return nil
	}

	return claims.Messages
}

func (m *Messenger) store(w http.ResponseWriter, messages []StatusMessage) error {
	now := time.Now()
	claims := messageClaims{
		Messages: messages,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(messageTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     messageCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(messageTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}
