package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	adminsvc "github.com/ave4ge/findateammatebot/internal/services/admin"
	authsvc "github.com/ave4ge/findateammatebot/internal/services/auth"
	modsvc "github.com/ave4ge/findateammatebot/internal/services/moderation"
	"github.com/ave4ge/findateammatebot/internal/transport/http/dto"
	httperrors "github.com/ave4ge/findateammatebot/internal/transport/http/errors"
)

const maxVerificationsLimit = 100

type AdminReader interface {
	Stats(ctx context.Context, actorID int64) (model.Stats, error)
	Leaderboard(ctx context.Context, actorID int64) ([]model.Participant, error)
	Lookup(ctx context.Context, actorID int64, ref string) (model.Participant, error)
}

type VerificationReader interface {
	Pending(ctx context.Context, actorID int64, limit int) (modsvc.PendingPage, error)
}

type PhotoLinker interface {
	PhotoURL(ctx context.Context, key string) (string, error)
}

type AdminHandler struct {
	admin         AdminReader
	verifications VerificationReader
	photos        PhotoLinker
	pageSize      int
}

func NewAdminHandler(admin AdminReader, verifications VerificationReader, pageSize int) *AdminHandler {
	return &AdminHandler{
		admin:         admin,
		verifications: verifications,
		pageSize:      pageSize,
	}
}

// AttachPhotoLinker enables presigned photo links on participant cards.
func (h *AdminHandler) AttachPhotoLinker(photos PhotoLinker) {
	h.photos = photos
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Fail(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.admin == nil {
		httperrors.Unavailable(w, "admin")
		return
	}

	stats, err := h.admin.Stats(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load stats")
		return
	}

	httperrors.JSON(w, http.StatusOK, dto.StatsResponse{
		Total:        stats.Total,
		Verified:     stats.Verified,
		Pending:      stats.Pending,
		Banned:       stats.Banned,
		Likes:        stats.Likes,
		TotalBalance: stats.TotalBalance,
	})
}

func (h *AdminHandler) Leaders(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Fail(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.admin == nil {
		httperrors.Unavailable(w, "admin")
		return
	}

	items, err := h.admin.Leaderboard(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load leaderboard")
		return
	}

	cards := make([]dto.ParticipantCard, 0, len(items))
	for _, item := range items {
		cards = append(cards, participantCard(item))
	}
	httperrors.JSON(w, http.StatusOK, dto.LeadersResponse{Items: cards})
}

func (h *AdminHandler) Verifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Fail(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.verifications == nil {
		httperrors.Unavailable(w, "moderation")
		return
	}

	limit := h.pageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httperrors.Fail(w, httperrors.CodeValidation, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxVerificationsLimit)
	}

	page, err := h.verifications.Pending(r.Context(), identity.UserID, limit)
	if err != nil {
		writeServiceError(w, err, "failed to load verifications")
		return
	}

	cards := make([]dto.ParticipantCard, 0, len(page.Items))
	for _, item := range page.Items {
		cards = append(cards, h.cardWithPhoto(r.Context(), item))
	}
	httperrors.JSON(w, http.StatusOK, dto.VerificationsResponse{Items: cards, Total: page.Total})
}

// Participant accepts a numeric Telegram id or a username as {id}.
func (h *AdminHandler) Participant(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Fail(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	if h.admin == nil {
		httperrors.Unavailable(w, "admin")
		return
	}

	ref := strings.TrimSpace(chi.URLParam(r, "id"))
	if ref == "" {
		httperrors.Fail(w, httperrors.CodeValidation, "participant reference is required")
		return
	}

	participant, err := h.admin.Lookup(r.Context(), identity.UserID, ref)
	if err != nil {
		writeServiceError(w, err, "failed to load participant")
		return
	}
	httperrors.JSON(w, http.StatusOK, h.cardWithPhoto(r.Context(), participant))
}

func (h *AdminHandler) cardWithPhoto(ctx context.Context, p model.Participant) dto.ParticipantCard {
	card := participantCard(p)
	if h.photos == nil || p.PhotoObjectKey == "" {
		return card
	}
	if url, err := h.photos.PhotoURL(ctx, p.PhotoObjectKey); err == nil {
		card.PhotoURL = url
	}
	return card
}

func participantCard(p model.Participant) dto.ParticipantCard {
	return dto.ParticipantCard{
		UserID:       p.UserID,
		Username:     p.Username,
		Nickname:     p.Nickname,
		GameModes:    p.GameModes,
		Verification: string(p.Verification),
		Balance:      p.Balance,
		Warnings:     p.Warnings,
		Banned:       p.Banned,
		MatchesFound: p.MatchesFound,
		ReferralCode: p.ReferralCode,
		ReferredBy:   p.ReferredBy,
		LastMatchAt:  p.LastMatchAt,
		CreatedAt:    p.CreatedAt,
	}
}

func writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, adminsvc.ErrForbidden), errors.Is(err, modsvc.ErrForbidden):
		httperrors.Fail(w, httperrors.CodeForbidden, "role is not allowed")
	case errors.Is(err, adminsvc.ErrNotFound):
		httperrors.Fail(w, httperrors.CodeParticipantNotFound, "participant not found")
	case errors.Is(err, adminsvc.ErrValidation):
		httperrors.Fail(w, httperrors.CodeValidation, err.Error())
	default:
		httperrors.Fail(w, httperrors.CodeInternal, message)
	}
}
