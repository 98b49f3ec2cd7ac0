// Package httpapi exposes the store over HTTP: catalog reads, the cart
// ledger, order checkout, payment confirmation and entitlement redemption.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
	"github.com/sfexams/store/internal/service"
)

// maxWebhookBody bounds provider callback payloads.
const maxWebhookBody = 1 << 20

type Handler struct {
	products  port.ProductRepository
	carts     *service.CartService
	orders    *service.OrderService
	payments  *service.PaymentService
	downloads *service.DownloadService
	identity  port.IdentityProvider
	log       *slog.Logger
	now       func() time.Time
}

func NewHandler(
	products port.ProductRepository,
	carts *service.CartService,
	orders *service.OrderService,
	payments *service.PaymentService,
	downloads *service.DownloadService,
	identity port.IdentityProvider,
	log *slog.Logger,
) *Handler {
	return &Handler{
		products:  products,
		carts:     carts,
		orders:    orders,
		payments:  payments,
		downloads: downloads,
		identity:  identity,
		log:       log,
		now:       time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.authed(h.getCart))
	mux.HandleFunc("POST /api/cart", h.authed(h.addCartItem))
	mux.HandleFunc("DELETE /api/cart", h.authed(h.clearCart))
	mux.HandleFunc("PUT /api/cart/{productId}", h.authed(h.setCartQuantity))
	mux.HandleFunc("DELETE /api/cart/{productId}", h.authed(h.removeCartItem))

	mux.HandleFunc("POST /api/orders", h.authed(h.createOrder))
	mux.HandleFunc("GET /api/orders", h.authed(h.listOrders))
	mux.HandleFunc("GET /api/orders/{id}", h.authed(h.getOrder))

	mux.HandleFunc("POST /api/payments/{provider}/session", h.authed(h.createCheckoutSession))
	mux.HandleFunc("POST /api/payments/{provider}/webhook", h.paymentWebhook)
	mux.HandleFunc("POST /api/payments/process-success", h.authed(h.processSuccess))

	mux.HandleFunc("GET /api/downloads", h.authed(h.listDownloads))
	mux.HandleFunc("GET /api/download/{token}", h.redeemDownload)

	return mux
}

// authed resolves the request identity before dispatching to fn.
func (h *Handler) authed(fn func(w http.ResponseWriter, r *http.Request, ownerID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := h.identity.Identify(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		fn(w, r, ownerID)
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(products, func(p domain.Product, _ int) productDTO {
		return toProductDTO(p)
	}))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductDTO(product))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request, ownerID string) {
	cart, err := h.carts.List(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "quantity must be positive"})
		return
	}

	if err := h.carts.AddItem(r.Context(), ownerID, productID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.getCart(w, r, ownerID)
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request, ownerID string) {
	productID, err := uuid.Parse(r.PathValue("productId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	if err := h.carts.SetQuantity(r.Context(), ownerID, productID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.getCart(w, r, ownerID)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request, ownerID string) {
	productID, err := uuid.Parse(r.PathValue("productId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}

	found, err := h.carts.RemoveItem(r.Context(), ownerID, productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeError(w, r, fmt.Errorf("cart item %s: %w", productID, domain.ErrNotFound))
		return
	}

	h.getCart(w, r, ownerID)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request, ownerID string) {
	if err := h.carts.Clear(r.Context(), ownerID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	method, err := domain.ToPaymentMethod(req.PaymentMethod)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), ownerID, method)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, ownerID string) {
	orders, err := h.orders.ListOrders(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderDTO {
		return toOrderDTO(o)
	}))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, ownerID string) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid order id"})
		return
	}

	order, err := h.orders.GetOrder(r.Context(), ownerID, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request, ownerID string) {
	method, err := domain.ToPaymentMethod(r.PathValue("provider"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid order id"})
		return
	}

	order, err := h.orders.GetOrder(r.Context(), ownerID, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if order.PaymentMethod != method {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "payment method mismatch"})
		return
	}

	session, err := h.payments.InitiatePayment(r.Context(), ownerID, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutSessionDTO{
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	})
}

// paymentWebhook is unauthenticated; the payload signature is the credential.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	method, err := domain.ToPaymentMethod(r.PathValue("provider"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable body"})
		return
	}

	if _, err := h.payments.HandleCallback(r.Context(), method, payload, r.Header); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) processSuccess(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req processSuccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid order id"})
		return
	}

	method, err := domain.ToPaymentMethod(req.PaymentMethod)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	// Ownership check before touching order state.
	if _, err := h.orders.GetOrder(r.Context(), ownerID, orderID); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.payments.ConfirmSuccess(r.Context(), orderID, req.ProviderTxID, method)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) listDownloads(w http.ResponseWriter, r *http.Request, ownerID string) {
	downloads, err := h.downloads.ListDownloads(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	now := h.now()
	writeJSON(w, http.StatusOK, lo.Map(downloads, func(d domain.Download, _ int) downloadDTO {
		return toDownloadDTO(d, now)
	}))
}

// redeemDownload is token-authenticated: possession of an unguessable token
// is the credential, no session required.
func (h *Handler) redeemDownload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	_, artifact, err := h.downloads.Redeem(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}
