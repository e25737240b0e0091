package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

const (
	minUsernameLength = 4
	minPasswordLength = 7
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"token"`
}

func (h *Handlers) signToken(login *db.Login) (string, error) {
	claims := jwt.MapClaims{
		"sub": login.Username,
		"id":  login.ID.String(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.tokenSecret)
}

// Signup creates a login for the export endpoints (POST /users).
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		writeMessage(w, http.StatusBadRequest, "no username found in request")
		return
	}
	if len(req.Username) < minUsernameLength {
		writeMessage(w, http.StatusBadRequest, "username must be at least 4 characters")
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "no password found in request")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeMessage(w, http.StatusBadRequest, "password should be at least 7 characters")
		return
	}

	_, err := h.database.Logins().GetByUsername(ctx, req.Username)
	if err == nil {
		writeMessage(w, http.StatusUnprocessableEntity, "username already exists")
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		log.Printf("looking up login %q: %v", req.Username, err)
		writeMessage(w, http.StatusInternalServerError, "error creating user")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("hashing password: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error creating user")
		return
	}

	login := &db.Login{
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := h.database.Logins().Create(ctx, login); err != nil {
		log.Printf("creating login %q: %v", req.Username, err)
		writeMessage(w, http.StatusInternalServerError, "error creating user")
		return
	}

	token, err := h.signToken(login)
	if err != nil {
		log.Printf("signing token for %q: %v", req.Username, err)
		writeMessage(w, http.StatusInternalServerError, "error creating user")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		ID:        login.ID.String(),
		Username:  login.Username,
		CreatedAt: login.CreatedAt,
		Token:     token,
	})
}

// Login verifies a username/password and issues a token
// (PUT /users/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		writeMessage(w, http.StatusBadRequest, "no username found in request")
		return
	}

	login, err := h.database.Logins().GetByUsername(ctx, req.Username)
	if errors.Is(err, db.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "username "+req.Username+" not found")
		return
	}
	if err != nil {
		log.Printf("looking up login %q: %v", req.Username, err)
		writeMessage(w, http.StatusInternalServerError, "error logging in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "your password is incorrect")
		return
	}

	token, err := h.signToken(login)
	if err != nil {
		log.Printf("signing token for %q: %v", req.Username, err)
		writeMessage(w, http.StatusInternalServerError, "error logging in")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		ID:        login.ID.String(),
		Username:  login.Username,
		CreatedAt: login.CreatedAt,
		Token:     token,
	})
}

// RequireAuth guards the read endpoints with a signed session token,
// taken from the Authorization header or a token query parameter.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("token")
		if raw == "" {
			raw = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "no authentication token in header or query")
			return
		}

		_, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
			return h.tokenSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid authentication token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
