// Package api serves the notification feed and analytics over a local
// HTTP surface so other admin tools can read the feed, inject
// notifications and request refreshes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/model"
)

const maxBodySize = 1 << 20

// Feed is the part of the notification ledger the API exposes.
type Feed interface {
	List() []model.Notification
	UnreadCount() int
	Get(id string) (model.Notification, bool)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// Analytics is the part of the aggregator the API exposes.
type Analytics interface {
	Latest() model.Analytics
	ResetVisits(ctx context.Context) (model.Analytics, error)
}

// Deps holds everything the handler needs.
type Deps struct {
	Feed      Feed
	Analytics Analytics
	Bus       *bridge.Bus
	Token     string
}

// FeedResponse is the body of GET /notifications.
type FeedResponse struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

// PortfolioCreatedRequest is the body of POST /notifications/portfolio-created.
type PortfolioCreatedRequest struct {
	Item model.PortfolioItem `json:"item"`
}

// NewHandler builds the router. Everything except /health requires the
// bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/notifications", handleListNotifications(deps))
		r.Post("/notifications", handleInject(deps))
		r.Post("/notifications/portfolio-created", handlePortfolioCreated(deps))
		r.Post("/notifications/read-all", handleMarkAllRead(deps))
		r.Get("/notifications/{id}", handleGetNotification(deps))
		r.Post("/notifications/{id}/read", handleMarkRead(deps))
		r.Post("/refresh", handleRefresh(deps))
		r.Get("/analytics", handleGetAnalytics(deps))
		r.Delete("/analytics/visits", handleResetVisits(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func feedResponse(f Feed) FeedResponse {
	items := f.List()
	if items == nil {
		items = []model.Notification{}
	}
	return FeedResponse{Notifications: items, UnreadCount: f.UnreadCount()}
}

func handleListNotifications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, feedResponse(deps.Feed))
	}
}

func handleGetNotification(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		n, ok := deps.Feed.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "notification %s not found", id)
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

func handleInject(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bridge.NotifyEvent
		if !decodeBody(w, r, &req) {
			return
		}
		if err := req.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := bridge.Notify(r.Context(), deps.Bus, req); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "injecting notification: %v", err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"unreadCount": deps.Feed.UnreadCount()})
	}
}

func handlePortfolioCreated(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PortfolioCreatedRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := bridge.PortfolioCreated(r.Context(), deps.Bus, req.Item); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "injecting notification: %v", err)
			return
		}
		// The caller just changed upstream data; refresh so the next
		// snapshot already contains the new item.
		if err := bridge.Refresh(r.Context(), deps.Bus); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "requesting refresh: %v", err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"unreadCount": deps.Feed.UnreadCount()})
	}
}

func handleMarkRead(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Feed.MarkRead(r.Context(), id); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "marking %s read: %v", id, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unreadCount": deps.Feed.UnreadCount()})
	}
}

func handleMarkAllRead(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Feed.MarkAllRead(r.Context()); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "marking all read: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unreadCount": deps.Feed.UnreadCount()})
	}
}

func handleRefresh(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := bridge.Refresh(r.Context(), deps.Bus); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "requesting refresh: %v", err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func handleGetAnalytics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Analytics.Latest())
	}
}

func handleResetVisits(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := deps.Analytics.ResetVisits(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "resetting page visits: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
