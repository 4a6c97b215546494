package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/internal/qa"
	"github.com/RobinCoderZhao/newspulse/internal/timeline"
)

// NoNewsMessage accompanies an empty timeline.
const NoNewsMessage = "No news found for this topic"

func (s *Server) handleNews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		items := s.Headlines.GetOrFetch(r.Context(), query)

		if query != "" && s.Store != nil {
			if err := s.Store.LogSearch(r.Context(), s.optionalEmail(r), query); err != nil {
				s.logger.Warn("failed to log search", "query", query, "error", err)
			}
		}
		respondJSON(w, http.StatusOK, items)
	}
}

func (s *Server) handleAggregate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := strings.TrimSpace(r.URL.Query().Get("topic"))
		if topic == "" {
			respondError(w, http.StatusBadRequest, "Topic is required")
			return
		}
		items, err := s.Aggregator.AggregateTopic(r.Context(), topic)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"topic":    topic,
			"articles": items,
		})
	}
}

type timelineResponse struct {
	Topic    string               `json:"topic"`
	Timeline []news.TimelineEvent `json:"timeline"`
	Message  string               `json:"message,omitempty"`
}

func (s *Server) handleTimeline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := strings.TrimSpace(r.URL.Query().Get("topic"))
		if topic == "" {
			respondError(w, http.StatusBadRequest, "Topic is required")
			return
		}

		items, err := s.Aggregator.AggregateTopic(r.Context(), topic)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(items) == 0 {
			respondJSON(w, http.StatusOK, timelineResponse{
				Topic:    topic,
				Timeline: []news.TimelineEvent{},
				Message:  NoNewsMessage,
			})
			return
		}

		res, err := s.Synthesizer.Synthesize(r.Context(), topic, items)
		if errors.Is(err, timeline.ErrEmptyTopic) {
			respondError(w, http.StatusBadRequest, "Topic is required")
			return
		}
		if err != nil {
			s.logger.Error("timeline synthesis failed", "topic", topic, "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to build timeline")
			return
		}

		resp := timelineResponse{Topic: topic, Timeline: res.Events}
		if res.Fallback() {
			resp.Message = timeline.FallbackMessage
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

type AskRequest struct {
	Question  string `json:"question"`
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		question := req.Question
		if strings.TrimSpace(question) == "" {
			question = req.UserInput
		}

		ans, err := s.Assistant.Ask(r.Context(), req.SessionID, s.optionalEmail(r), question)
		if errors.Is(err, qa.ErrEmptyQuestion) {
			respondError(w, http.StatusBadRequest, "Please enter some text.")
			return
		}
		if err != nil {
			s.logger.Error("ask failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to answer")
			return
		}
		respondJSON(w, http.StatusOK, ans)
	}
}
