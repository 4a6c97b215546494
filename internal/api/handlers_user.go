package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/RobinCoderZhao/newspulse/internal/store"
)

const minPasswordLen = 8

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Email and password are required")
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		if len(req.Password) < minPasswordLen {
			respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to process password")
			return
		}

		id, err := s.Store.CreateUser(r.Context(), req.Email, strings.TrimSpace(req.Name), string(hash))
		if errors.Is(err, store.ErrUserExists) {
			respondError(w, http.StatusConflict, "User already exists")
			return
		}
		if err != nil {
			s.logger.Error("failed to create user", "error", err)
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		token, err := s.generateToken(id, req.Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		setTokenCookie(w, token)

		respondJSON(w, http.StatusCreated, map[string]any{
			"message": "Registration successful",
			"user_id": id,
			"token":   token,
		})
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		u, err := s.Store.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			s.logger.Error("failed to load user", "error", err)
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if u == nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := s.generateToken(u.ID, u.Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		setTokenCookie(w, token)

		respondJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"user_id": u.ID,
			"name":    u.Name,
			"token":   token,
		})
	}
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleGetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		u, err := s.Store.GetUserByEmail(r.Context(), getClaims(r).Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if u == nil {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondJSON(w, http.StatusOK, u)
	}
}

type PreferencesRequest struct {
	Preferences []string `json:"preferences"`
}

func (s *Server) handleUpdatePreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		var req PreferencesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.savePreferences(w, r, cleanTopics(req.Preferences))
	}
}

func (s *Server) savePreferences(w http.ResponseWriter, r *http.Request, prefs []string) {
	ok, err := s.Store.UpdatePreferences(r.Context(), getClaims(r).Email, prefs)
	if err != nil {
		s.logger.Error("failed to update preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

func cleanTopics(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		email := getClaims(r).Email
		chats, err := s.Store.ChatHistory(r.Context(), email, r.URL.Query().Get("session_id"))
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		searches, err := s.Store.SearchHistory(r.Context(), email, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"chats":    chats,
			"searches": searches,
		})
	}
}

func (s *Server) handleSaveArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		var a store.SavedArticle
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		id, err := s.Store.SaveArticle(r.Context(), getClaims(r).Email, a)
		if errors.Is(err, store.ErrInvalidArticle) {
			respondError(w, http.StatusBadRequest, "Article must include title and url")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

func (s *Server) handleListSaved() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		articles, err := s.Store.SavedArticles(r.Context(), getClaims(r).Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"articles": articles})
	}
}

func (s *Server) handleDeleteSaved() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid article id")
			return
		}
		ok, err := s.Store.DeleteSavedArticle(r.Context(), getClaims(r).Email, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !ok {
			respondError(w, http.StatusNotFound, "Article not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleLatestDigest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		d, err := s.Store.LatestDigest(r.Context(), getClaims(r).Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if d == nil {
			respondError(w, http.StatusNotFound, "No digest yet")
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}
