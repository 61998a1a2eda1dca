// Package middleware содержит HTTP middleware сервиса полевых продаж.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/fieldsales-system/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	sessionCookieName = "session_token"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// Session описывает контекст вошедшего пользователя. Создаётся при входе,
// уничтожается при выходе; между запросами живёт в подписанном cookie.
type Session struct {
	Username     string     `json:"username"`
	Role         model.Role `json:"role"`
	EmployeeName string     `json:"employee_name"`
	Distributors []string   `json:"distributors"`
}

// SessionMiddleware выполняет проверку аутентификации пользователя по подписанному cookie.
type SessionMiddleware struct {
	secretKey []byte
}

// NewSessionMiddleware создаёт новый экземпляр SessionMiddleware с указанным секретным ключом.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &SessionMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет cookie сессии и добавляет сессию в контекст запроса.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		session, ok := m.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает запрос дальше, только если роль сессии совпадает с требуемой.
// Должен стоять в цепочке после Middleware.
func (m *SessionMiddleware) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			if session.Role != role {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie устанавливает подписанный cookie сессии.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter, session Session) error {
	value, err := m.signSession(session)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
	return nil
}

// ClearSessionCookie завершает сессию, затирая cookie.
func (m *SessionMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (m *SessionMiddleware) signSession(session Session) (string, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + m.signPayload(encoded), nil
}

func (m *SessionMiddleware) signPayload(encoded string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *SessionMiddleware) parseCookie(cookieValue string) (Session, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return Session{}, false
	}

	encoded := parts[0]
	signature := parts[1]

	if !hmac.Equal([]byte(signature), []byte(m.signPayload(encoded))) {
		return Session{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Session{}, false
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, false
	}

	return session, true
}

// GetSessionFromContext извлекает сессию пользователя из контекста запроса.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey).(Session)
	return session, ok
}
