package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/scheduler"
	"github.com/Rrock-k/interval-learn-bot/internal/service/review"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// historyLimit bounds how many audit entries one history request returns.
const historyLimit = 50

// CardHandler exposes the scheduling core's operations to the surrounding
// application: on-demand delivery, the grading callback, and the per-card
// delivery history.
type CardHandler struct {
	loop     *scheduler.Loop
	reviews  review.Service
	cards    store.CardStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(loop *scheduler.Loop, reviews review.Service, cards store.CardStore, log *slog.Logger) *CardHandler {
	if loop == nil {
		panic("loop cannot be nil")
	}
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &CardHandler{
		loop:     loop,
		reviews:  reviews,
		cards:    cards,
		validate: validator.New(),
		logger:   log.With(slog.String("component", "card_handler")),
	}
}

// TriggerCard handles POST /api/cards/{id}/trigger: deliver a card now,
// independent of the periodic tick.
func (h *CardHandler) TriggerCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid card ID")
		return
	}

	err = h.loop.TriggerImmediate(r.Context(), cardID)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrCardNotFound):
			RespondWithError(w, http.StatusNotFound, "card not found")
		case errors.Is(err, scheduler.ErrCardPending), errors.Is(err, scheduler.ErrCardArchived):
			RespondWithError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("failed to trigger card",
				slog.String("card_id", cardID.String()),
				slog.String("error", err.Error()))
			RespondWithError(w, http.StatusInternalServerError, "failed to deliver card")
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, TriggerResponse{
		CardID:    cardID.String(),
		Triggered: true,
	})
}

// SubmitGrade handles POST /api/cards/{id}/grade: the grading callback used
// when a user presses a grading control.
func (h *CardHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid card ID")
		return
	}

	var req GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid grade")
		return
	}

	outcome, err := h.reviews.ApplyGrade(r.Context(), cardID, domain.Grade(req.Grade))
	if err != nil {
		switch {
		case errors.Is(err, review.ErrCardNotFound):
			RespondWithError(w, http.StatusNotFound, "card not found")
		case errors.Is(err, review.ErrNotAwaitingGrade),
			errors.Is(err, review.ErrCardNotActivated):
			RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, review.ErrInvalidGrade):
			RespondWithError(w, http.StatusBadRequest, "invalid grade for this card")
		default:
			h.logger.Error("failed to apply grade",
				slog.String("card_id", cardID.String()),
				slog.String("error", err.Error()))
			RespondWithError(w, http.StatusInternalServerError, "failed to apply grade")
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, GradeResponse{
		CardID:       outcome.CardID.String(),
		Grade:        string(outcome.Grade),
		Repetition:   outcome.Repetition,
		IntervalDays: outcome.IntervalDays,
		NextReviewAt: outcome.NextReviewAt,
	})
}

// CardHistory handles GET /api/cards/{id}/history: the card's delivery audit
// log, most recent first.
func (h *CardHandler) CardHistory(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid card ID")
		return
	}

	if _, err := h.cards.GetCard(r.Context(), cardID); err != nil {
		if store.IsNotFoundError(err) {
			RespondWithError(w, http.StatusNotFound, "card not found")
			return
		}
		h.logger.Error("failed to get card",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		RespondWithError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	notifs, err := h.cards.ListNotifications(r.Context(), cardID, historyLimit)
	if err != nil {
		h.logger.Error("failed to list notifications",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		RespondWithError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	entries := make([]HistoryEntry, 0, len(notifs))
	for _, n := range notifs {
		entries = append(entries, HistoryEntry{
			MessageID: n.MessageID,
			Reason:    string(n.Reason),
			SentAt:    n.SentAt,
		})
	}

	RespondWithJSON(w, http.StatusOK, HistoryResponse{
		CardID:  cardID.String(),
		Entries: entries,
	})
}
