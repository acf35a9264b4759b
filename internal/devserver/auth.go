package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrogh/storefront/pkg/types"
)

// sessionCookie matches the cookie name the real backend sets.
const sessionCookie = "access_token_cookie"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid login")
		return
	}

	s.mu.Lock()
	u, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(creds.Password)) != nil {
		writeReason(w, http.StatusBadRequest, "invalid login")
		return
	}

	if err := s.setSessionCookie(w, u); err != nil {
		writeReason(w, http.StatusInternalServerError, "issuing token")
		return
	}
	io.WriteString(w, "OK")
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload signupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid signup payload")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeReason(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		writeReason(w, http.StatusInternalServerError, "hashing password")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[payload.Email]; exists {
		s.mu.Unlock()
		writeReason(w, http.StatusBadRequest, "An account with this e-mail already exists")
		return
	}
	u := &user{
		id:           s.nextUserID,
		email:        payload.Email,
		name:         payload.Name,
		address:      payload.Address,
		passwordHash: hash,
	}
	s.nextUserID++
	s.users[u.email] = u
	s.usersByID[u.id] = u
	s.mu.Unlock()

	if err := s.setSessionCookie(w, u); err != nil {
		writeReason(w, http.StatusInternalServerError, "issuing token")
		return
	}
	io.WriteString(w, "OK")
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.userFromRequestLocked(r)
	if u == nil {
		s.mu.Unlock()
		writeReason(w, http.StatusUnauthorized, "Need to be logged to access this endpoint!")
		return
	}
	info := types.UserInfo{
		Email:   u.email,
		Name:    u.name,
		Address: u.address,
		Admin:   u.admin,
		Orders:  append([]types.OrderRecord(nil), u.orders...),
	}
	s.mu.Unlock()

	writeJSON(w, info)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.userFromRequestLocked(r)
	s.mu.Unlock()
	if u == nil {
		writeReason(w, http.StatusUnauthorized, "Need to be logged to access this endpoint!")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	io.WriteString(w, "Logout successful")
}

func (s *Server) setSessionCookie(w http.ResponseWriter, u *user) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    u.id,
		"email": u.email,
		"exp":   time.Now().Add(30 * time.Minute).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
	})
	return nil
}

// userFromRequestLocked resolves the session cookie to a user, or nil when
// unauthenticated. Callers hold s.mu.
func (s *Server) userFromRequestLocked(r *http.Request) *user {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	parsed, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return nil
	}
	return s.usersByID[int(id)]
}
