package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/clock"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/metrics"
	"github.com/jw6ventures/timeclock/internal/push"
	"github.com/jw6ventures/timeclock/internal/store"
)

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	Lang string `json:"lang"`
}

type endpointRequest struct {
	Endpoint string `json:"endpoint"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func validEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// VAPIDPublicKey returns the application server key browsers subscribe with.
func (h *Handler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"public_key": h.vapidPublicKey})
}

// Subscribe registers a browser endpoint. Re-subscribing an endpoint moves it to the
// current user and refreshes its keys.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if !validEndpoint(req.Endpoint) {
		httperrors.Respond(w, r, clock.InvalidField("endpoint must be an absolute URL"))
		return
	}
	if req.Keys.P256dh == "" || req.Keys.Auth == "" {
		httperrors.Respond(w, r, clock.InvalidField("keys.p256dh and keys.auth are required"))
		return
	}

	_, err := h.pushSubs.Upsert(r.Context(), store.PushSubscription{
		UserID:   user.ID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		Lang:     push.NormalizeLang(req.Lang),
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "save push subscription")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Unsubscribe forgets an endpoint. Unknown endpoints are ignored.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	var req endpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.pushSubs.DeleteByEndpoint(r.Context(), user.ID, strings.TrimSpace(req.Endpoint))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		httperrors.InternalError(w, r, err, "delete push subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestPush sends a test notification to one of the user's endpoints.
func (h *Handler) TestPush(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	if h.sender == nil {
		httperrors.WriteJSON(w, http.StatusServiceUnavailable, httperrors.Body{Error: "push_disabled"})
		return
	}
	var req endpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	subs, err := h.pushSubs.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list push subscriptions")
		return
	}
	var sub *store.PushSubscription
	for i := range subs {
		if subs[i].Endpoint == strings.TrimSpace(req.Endpoint) {
			sub = &subs[i]
			break
		}
	}
	if sub == nil {
		httperrors.WriteJSON(w, http.StatusOK, statusResponse{Status: "not_subscribed"})
		return
	}

	err = h.sender.Send(r.Context(), *sub, push.TestMessage(sub.Lang))
	switch {
	case errors.Is(err, push.ErrGone):
		metrics.RecordPushNotification("TEST", "gone")
		if err := h.pushSubs.Delete(r.Context(), sub.ID); err != nil {
			httperrors.LogError(r, "delete gone push subscription", err)
		}
		httperrors.WriteJSON(w, http.StatusOK, statusResponse{Status: "gone"})
	case err != nil:
		metrics.RecordPushNotification("TEST", "failed")
		httperrors.LogError(r, "send test push", err)
		httperrors.WriteJSON(w, http.StatusBadGateway, httperrors.Body{Error: "push_failed"})
	default:
		metrics.RecordPushNotification("TEST", "sent")
		httperrors.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}
