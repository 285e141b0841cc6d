package ticket_api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/auth"
	"dreamstate-ticketing/internal/logger"
	qr "dreamstate-ticketing/internal/tickets/qr_generator"
	tickets "dreamstate-ticketing/internal/tickets/service"
	"dreamstate-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 100

type TicketService interface {
	Verify(ctx context.Context, token, credential string) (*tickets.VerificationResult, error)
	TicketInfo(ctx context.Context, token string) (*tickets.TicketInfo, error)
	ListTickets(ctx context.Context, limit, offset int) (*tickets.TicketList, error)
}

type Handler struct {
	TicketService TicketService
	QRGenerator   *qr.Generator
	Logger        *logger.Logger
}

func NewHandler(ticketService TicketService, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, QRGenerator: qrGen, Logger: log}
}

// RegisterRoutes mounts the public ticket routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/info/{token}", h.GetTicketInfo)
		r.Get("/verify/{token}", h.GetTicketInfo)
		r.Get("/qr/{token}", h.GetTicketQR)
	})
}

// RegisterAdminRoutes mounts the admin listing. Verification checks its own
// credential, so it is mounted separately by the caller.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/tickets", h.ListTickets)
}

func (h *Handler) GetTicketInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.TicketService.TicketInfo(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			h.Logger.Error("API", fmt.Sprintf("GetTicketInfo: %v", err))
		}
		utils.WriteError(w, "Ticket lookup failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket found", info)
}

// GetTicketQR renders the door QR for an existing ticket.
func (h *Handler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.TicketService.TicketInfo(r.Context(), token); err != nil {
		utils.WriteError(w, "Ticket lookup failed", err)
		return
	}

	png, err := h.QRGenerator.PNG(token)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTicketQR: failed to render QR: %v", err))
		utils.WriteError(w, "QR generation failed", apperr.Internal("render qr", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

type verifyRequest struct {
	Token string `json:"token"`
}

// VerifyTicket is the door scan. A missing or malformed Authorization header is
// passed on as an empty credential and rejected by the service.
func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	credential, _ := auth.ExtractTokenFromRequest(r)

	var req verifyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid verification request", err)
		return
	}

	result, err := h.TicketService.Verify(r.Context(), req.Token, credential)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			h.Logger.Error("API", fmt.Sprintf("VerifyTicket: %v", err))
		}
		utils.WriteError(w, "Verification failed", err)
		return
	}

	message := "Ticket verified"
	if result.AlreadyVerified {
		message = "Ticket was already verified"
	}
	utils.WriteSuccess(w, http.StatusOK, message, result)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		utils.WriteError(w, "Invalid paging", err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		utils.WriteError(w, "Invalid paging", err)
		return
	}

	list, err := h.TicketService.ListTickets(r.Context(), limit, offset)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			h.Logger.Error("API", fmt.Sprintf("ListTickets: %v", err))
		}
		utils.WriteError(w, "Failed to list tickets", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Tickets", list)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("%s must be an integer", key))
	}
	return v, nil
}
