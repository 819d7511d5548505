package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nbenhadid/foodcart/internal/cart"
	"github.com/nbenhadid/foodcart/internal/catalog"
)

// PromotionSource resolves the promotion currently attached to a dish. The
// lookup happens on every add so an expired window stops discounting new
// additions without repricing lines already in the cart.
type PromotionSource interface {
	GetPromotion(ctx context.Context, platID string) (*catalog.Promotion, error)
	ListActivePromotions(ctx context.Context) ([]catalog.Promotion, error)
}

type CartHandler struct {
	Store  *cart.Store
	Promos PromotionSource
}

type AddItemReq struct {
	Item     catalog.Dish `json:"item"`
	Quantity int          `json:"quantity"`
}

type UpdateQuantityReq struct {
	Quantity int `json:"quantity"`
}

type TotalsResp struct {
	Total      string `json:"total"`
	ServiceFee string `json:"service_fee"`
	GrandTotal string `json:"grand_total"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart/{userID}", h.getCart)
	r.Delete("/cart/{userID}", h.clearCart)
	r.Get("/cart/{userID}/count", h.itemCount)
	r.Post("/cart/{userID}/items", h.addItem)
	r.Patch("/cart/{userID}/restaurants/{restaurantID}/items/{itemID}", h.updateQuantity)
	r.Delete("/cart/{userID}/restaurants/{restaurantID}/items/{itemID}", h.removeItem)
	r.Delete("/cart/{userID}/restaurants/{restaurantID}", h.clearRestaurant)
	r.Get("/cart/{userID}/restaurants/{restaurantID}/totals", h.totals)
	r.Get("/promotions", h.listPromotions)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Get(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.Clear(ctx, chi.URLParam(r, "userID")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Item.ID == "" || req.Item.Restaurant.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing item or restaurant id"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	promo, err := h.Promos.GetPromotion(ctx, req.Item.ID)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "promotion lookup failed"})
		return
	}

	c, err := h.Store.AddItem(ctx, chi.URLParam(r, "userID"), req.Item, promo, req.Quantity)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, cart.ErrInvalidQuantity) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.UpdateQuantity(ctx, chi.URLParam(r, "userID"),
		chi.URLParam(r, "restaurantID"), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.RemoveItem(ctx, chi.URLParam(r, "userID"),
		chi.URLParam(r, "restaurantID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clearRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.ClearRestaurant(ctx, chi.URLParam(r, "userID"), chi.URLParam(r, "restaurantID"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) totals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, err := h.Store.RestaurantTotal(ctx, chi.URLParam(r, "userID"), chi.URLParam(r, "restaurantID"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	fee := h.Store.ServiceFee()
	writeJSON(w, http.StatusOK, TotalsResp{
		Total:      total.StringFixed(2),
		ServiceFee: fee.StringFixed(2),
		GrandTotal: total.Add(fee).StringFixed(2),
	})
}

func (h *CartHandler) itemCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Store.TotalItemCount(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *CartHandler) listPromotions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	promos, err := h.Promos.ListActivePromotions(ctx)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "promotion listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, promos)
}
