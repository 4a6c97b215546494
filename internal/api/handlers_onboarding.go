package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Category groups related topics a reader can follow.
type Category struct {
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
}

// Categories are the topic groups offered at onboarding.
var Categories = []Category{
	{"Sports", []string{"Football", "Cricket", "Basketball", "Tennis", "Hockey"}},
	{"Technology", []string{"AI", "Tech", "Machine Learning", "Gadgets"}},
	{"Health", []string{"Health", "Medicine", "Fitness", "Wellness"}},
	{"Business", []string{"Business", "Finance", "Economy", "Market"}},
	{"Entertainment", []string{"Movies", "Music", "Celebrity", "TV"}},
	{"Society", []string{"Government", "Politics", "Law", "Crime", "Law Enforcement"}},
	{"Environment", []string{"Nature", "Geography", "Animals", "Weather"}},
}

func findCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return Category{}, false
}

func (s *Server) handleCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"categories": Categories})
	}
}

type OnboardingRequest struct {
	Categories []string `json:"categories"`
}

// handleOnboarding seeds a reader's preferences with every topic of the
// chosen categories.
func (s *Server) handleOnboarding() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.storeReady(w) {
			return
		}
		var req OnboardingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var topics []string
		for _, name := range req.Categories {
			c, ok := findCategory(name)
			if !ok {
				respondError(w, http.StatusBadRequest, "Unknown category: "+name)
				return
			}
			topics = append(topics, c.Topics...)
		}
		if len(topics) == 0 {
			respondError(w, http.StatusBadRequest, "Pick at least one category")
			return
		}
		s.savePreferences(w, r, cleanTopics(topics))
	}
}
