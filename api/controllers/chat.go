package controllers

import (
	"net/http"

	"github.com/persibuloi/kamenic/api/middleware"
	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/api/validators"
	"github.com/persibuloi/kamenic/internal/chatbot"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

type chatMessageRequest struct {
	Message string `json:"message" validate:"required,notblank,max=2000"`
}

// ChatSend relays a visitor message. Webhook failures come back as a bot message with
// delivered=false rather than an HTTP error.
func ChatSend(svc chatbot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		sessionID, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload chatMessageRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exchange, err := svc.Send(r.Context(), sessionID, payload.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, exchange)
	}
}

func ChatHistory(svc chatbot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		sessionID, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		conversation, err := svc.History(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, conversation)
	}
}

func ChatClear(svc chatbot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		sessionID, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
