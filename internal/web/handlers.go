package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
	syncsvc "github.com/blackboxrecordclub/artist-sync/internal/sync"
)

// Handlers contains the HTTP handlers for the service.
type Handlers struct {
	auth        *spotifyauth.Authenticator
	database    *db.DB
	sync        *syncsvc.Service
	successURL  string
	tokenSecret []byte
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(auth *spotifyauth.Authenticator, database *db.DB, sync *syncsvc.Service, successURL string, tokenSecret []byte) *Handlers {
	return &Handlers{
		auth:        auth,
		database:    database,
		sync:        sync,
		successURL:  successURL,
		tokenSecret: tokenSecret,
	}
}

// userResponse is the JSON shape for a user, matching what the site's
// connect flow consumes.
type userResponse struct {
	ID         uuid.UUID  `json:"_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	LastSynced *time.Time `json:"lastSynced"`
}

func toUserResponse(user *db.User) userResponse {
	return userResponse{
		ID:         user.ID,
		Name:       user.DisplayName,
		Email:      user.Email,
		LastSynced: user.LastSynced,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// Users lists connected users, or a single user with ?id= (GET /users).
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if idParam := r.URL.Query().Get("id"); idParam != "" {
		id, err := uuid.Parse(idParam)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid user id")
			return
		}
		user, err := h.database.Users().Get(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			log.Printf("loading user %s: %v", id, err)
			writeMessage(w, http.StatusInternalServerError, "error loading user")
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))
		return
	}

	users, err := h.database.Users().List(ctx)
	if err != nil {
		log.Printf("loading users: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error loading users")
		return
	}
	responses := make([]userResponse, len(users))
	for i := range users {
		responses[i] = toUserResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, responses)
}

// SpotifyAuthRedirect sends the browser to the Spotify consent page
// (GET /spotify/auth).
func (h *Handlers) SpotifyAuthRedirect(w http.ResponseWriter, r *http.Request) {
	url := h.auth.AuthURL("", spotifyauth.ShowDialog)
	http.Redirect(w, r, url, http.StatusFound)
}

// AuthCallback handles the Spotify authorization callback (GET /auth):
// exchanges the code, loads the profile, creates the user on first
// connection or resyncs an existing one, and redirects to the success
// page. Errors are logged and still redirect, mirroring the connect flow
// the site expects.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer http.Redirect(w, r, h.successURL, http.StatusMovedPermanently)

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Printf("authorization callback without code")
		return
	}

	token, err := h.auth.Exchange(ctx, code)
	if err != nil {
		log.Printf("exchanging authorization code: %v", err)
		return
	}

	client := spotify.New(h.auth.Client(ctx, token))
	profile, err := client.CurrentUser(ctx)
	if err != nil {
		log.Printf("loading profile: %v", err)
		return
	}

	existing, err := h.database.Users().GetByEmail(ctx, profile.Email)
	if err == nil {
		if _, err := h.sync.SyncUser(ctx, existing); err != nil {
			log.Printf("syncing reconnected user %s: %v", profile.Email, err)
		}
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		log.Printf("looking up user %s: %v", profile.Email, err)
		return
	}

	refreshToken := token.RefreshToken
	user := &db.User{
		Email:        profile.Email,
		DisplayName:  profile.DisplayName,
		RefreshToken: &refreshToken,
		Scope:        grantScope(token),
	}
	if err := h.database.Users().Create(ctx, user); err != nil {
		log.Printf("creating user %s: %v", profile.Email, err)
		return
	}
	if _, err := h.sync.SyncUser(ctx, user); err != nil {
		log.Printf("initial sync for %s: %v", profile.Email, err)
	}
}

// grantScope pulls the granted scope string out of the token exchange
// response; the accounts service returns it as an extra field.
func grantScope(token *oauth2.Token) string {
	scope, _ := token.Extra("scope").(string)
	return scope
}

// SyncUser triggers an on-demand sync for one user (GET /sync?userId=).
// Responds 400 when the user's credential is missing or revoked, 500 on
// any other sync failure.
func (h *Handlers) SyncUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid userId")
		return
	}

	user, err := h.database.Users().Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("loading user %s: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, "error loading user")
		return
	}

	if _, err := h.sync.SyncUser(ctx, user); err != nil {
		log.Printf("error syncing user artists for %s: %v", user.Email, err)
		writeMessage(w, http.StatusInternalServerError, "error syncing user artists")
		return
	}

	// SyncUser absorbs a revoked credential by clearing it; surface that
	// as a reconnect condition rather than a success.
	if user.RefreshToken == nil {
		writeMessage(w, http.StatusBadRequest, "spotify authorization expired; user must reconnect")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
