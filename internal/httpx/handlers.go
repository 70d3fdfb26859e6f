package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/feastly/go-food-orders/internal/cart"
	"github.com/feastly/go-food-orders/internal/lifecycle"
	"github.com/feastly/go-food-orders/internal/metrics"
	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/payment"
	"github.com/feastly/go-food-orders/internal/redisx"
)

// customerHeader carries the verified customer id issued by the external
// identity provider; this service never authenticates anyone itself.
const customerHeader = "X-Customer-ID"

const idempotencyHeader = "Idempotency-Key"

// CartStore is the session-cart persistence the handlers need; cart.Store is
// the redis implementation.
type CartStore interface {
	Load(ctx context.Context, customerID string) (*cart.Cart, error)
	Save(ctx context.Context, customerID string, c *cart.Cart) error
	Clear(ctx context.Context, customerID string) error
}

type Handler struct {
	Carts   CartStore
	Coord   *lifecycle.Coordinator
	Redis   *redis.Client // optional: idempotency shortcuts and status cache
	Metrics *metrics.ServerMetrics
}

func (h *Handler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addCartItem)
	r.Patch("/cart/items/{itemID}", h.updateCartItem)
	r.Delete("/cart/items/{itemID}", h.removeCartItem)
	r.Post("/orders", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.changeStatus)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(customerHeader)
	if id == "" {
		writeErr(w, http.StatusUnauthorized, "missing "+customerHeader)
		return "", false
	}
	return id, true
}

// ---- cart ----

type addItemReq struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price_cents"`
	RestaurantID string `json:"restaurant_id"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, cid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" || req.RestaurantID == "" {
		writeErr(w, http.StatusBadRequest, "missing item_id or restaurant_id")
		return
	}
	if req.UnitPrice < 0 {
		writeErr(w, http.StatusBadRequest, "negative unit price")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, cid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.AddItem(orders.LineItem{
		ItemID:       req.ItemID,
		Name:         req.Name,
		UnitPrice:    req.UnitPrice,
		RestaurantID: req.RestaurantID,
	})
	if err := h.Carts.Save(ctx, cid, c); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, cid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.UpdateQuantity(chi.URLParam(r, "itemID"), req.Quantity)
	if err := h.Carts.Save(ctx, cid, c); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, cid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.RemoveItem(chi.URLParam(r, "itemID"))
	if err := h.Carts.Save(ctx, cid, c); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ---- orders ----

type checkoutReq struct {
	PaymentMethod string `json:"payment_method"`
}

type checkoutResp struct {
	Order      *orders.Order `json:"order"`
	Idempotent bool          `json:"idempotent,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(w, r)
	if !ok {
		return
	}
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.PaymentMethod == "" {
		writeErr(w, http.StatusBadRequest, "missing payment_method")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// a retried checkout with the same key returns the original order
	// instead of charging again
	idemKey := ""
	if k := r.Header.Get(idempotencyHeader); k != "" && h.Redis != nil {
		idemKey = fmt.Sprintf(redisx.KeyIdemCheckout, cid, k)
		if orderID, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
			if o, err := h.Coord.Get(ctx, orderID); err == nil {
				writeJSON(w, http.StatusOK, checkoutResp{Order: o, Idempotent: true})
				return
			}
		}
	}

	c, err := h.Carts.Load(ctx, cid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	draft, err := c.ToDraft(cid)
	if err != nil {
		h.countSubmission("empty_cart")
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	o, err := h.Coord.Submit(ctx, draft, req.PaymentMethod)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	h.countSubmission("ok")

	if idemKey != "" {
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	_ = h.Carts.Clear(ctx, cid)

	writeJSON(w, http.StatusCreated, checkoutResp{Order: o})
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	var declined *payment.DeclinedError
	var persistFailed *orders.PersistFailedError
	switch {
	case errors.As(err, &declined):
		h.countSubmission("declined")
		writeErr(w, http.StatusPaymentRequired, declined.Error())
	case errors.Is(err, payment.ErrPaymentUnavailable):
		h.countSubmission("unavailable")
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, payment.ErrInvalidAmount), errors.Is(err, orders.ErrEmptyCart):
		h.countSubmission("invalid")
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &persistFailed):
		h.countSubmission("persist_failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":          "order not persisted after payment; retry with the same idempotency key",
			"order_id":       persistFailed.OrderID,
			"transaction_id": persistFailed.TransactionID,
		})
	default:
		h.countSubmission("error")
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) countSubmission(outcome string) {
	if h.Metrics != nil {
		h.Metrics.Submissions.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Coord.ListByCustomer(ctx, cid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "orders": out})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Coord.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type changeStatusReq struct {
	Status orders.Status `json:"status"`
}

// changeStatus is the operator/kitchen-side entry point.
func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status == "" {
		writeErr(w, http.StatusBadRequest, "missing status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Coord.RequestStatusChange(ctx, chi.URLParam(r, "id"), req.Status)
	var badMove *orders.TransitionError
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		writeErr(w, http.StatusNotFound, "not found")
		return
	case errors.As(err, &badMove):
		writeErr(w, http.StatusConflict, badMove.Error())
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) cacheStatus(ctx context.Context, orderID string, status orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, status), redisx.TTLStatusCache).Err()
}
