package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nbenhadid/foodcart/internal/checkout"
)

// History reads the local checkout journal.
type History interface {
	GetByPaymentRef(ctx context.Context, paymentRef string) (*checkout.JournalEntry, error)
	ListByUser(ctx context.Context, userID string) ([]checkout.JournalEntry, error)
}

type CheckoutHandler struct {
	Service *checkout.Service
	History History

	// PollCtx bounds background payment polling to the process lifetime, so
	// shutdown cancels outstanding pollers instead of leaking them.
	PollCtx context.Context
}

type PaymentStatusResp struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
	Status     string `json:"status"`
	Checkout   string `json:"checkout_status"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/cart/{userID}/checkout/{restaurantID}", h.submit)
	r.Get("/payments/{paymentRef}", h.paymentStatus)
	r.Get("/orders/{userID}", h.orderHistory)
}

func (h *CheckoutHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req checkout.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing delivery address"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	userID := chi.URLParam(r, "userID")
	restaurantID := chi.URLParam(r, "restaurantID")

	res, err := h.Service.Submit(ctx, userID, restaurantID, req)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyGroup) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no items for this restaurant"})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	// poll in the background; the request returns as soon as the payment
	// link exists
	go func() {
		if _, err := h.Service.AwaitPayment(h.PollCtx, res.OrderID, res.PaymentRef); err != nil {
			log.Printf("checkout: await payment order=%s: %v", res.OrderID, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, res)
}

func (h *CheckoutHandler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ref := chi.URLParam(r, "paymentRef")
	entry, err := h.History.GetByPaymentRef(ctx, ref)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown payment ref"})
		return
	}

	status, err := h.Service.VerifyOnce(ctx, entry.OrderID, ref, entry.Status)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment status lookup failed"})
		return
	}

	// re-read for the post-settlement checkout status
	if updated, err := h.History.GetByPaymentRef(ctx, ref); err == nil {
		entry = updated
	}
	writeJSON(w, http.StatusOK, PaymentStatusResp{
		OrderID:    entry.OrderID,
		PaymentRef: ref,
		Status:     string(status),
		Checkout:   string(entry.Status),
	})
}

func (h *CheckoutHandler) orderHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.History.ListByUser(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []checkout.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
