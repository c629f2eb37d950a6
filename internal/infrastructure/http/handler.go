package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appOrder "github.com/magelan-app/magelan/internal/application/order"
	"github.com/magelan-app/magelan/internal/domain/catalog"
	domainOrder "github.com/magelan-app/magelan/internal/domain/order"
	domainPayment "github.com/magelan-app/magelan/internal/domain/payment"
)

// customerHeader carries the authenticated customer id. Authentication itself
// lives in front of this service; the handler only relays the id.
const customerHeader = "X-Customer-ID"

type Handler struct {
	orders *appOrder.Service
}

func NewHandler(orders *appOrder.Service) *Handler {
	return &Handler{orders: orders}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /menu", h.handleMenu)
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart/items", h.handleAddItem)
	mux.HandleFunc("DELETE /cart/items/{itemID}", h.handleRemoveItem)
	mux.HandleFunc("POST /checkout", h.handleCheckout)
	mux.HandleFunc("POST /payments/{paymentID}/process", h.handleProcessPayment)
	mux.HandleFunc("GET /orders", h.handleListOrders)
	mux.HandleFunc("GET /orders/history", h.handleOrderHistory)
	mux.HandleFunc("GET /orders/{orderID}", h.handleGetOrder)
	mux.HandleFunc("POST /orders/{orderID}/status", h.handleStaffStatus)
	mux.HandleFunc("POST /orders/{orderID}/cancel", h.handleCancel)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Category    string `json:"category"`
}

type itemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type orderResponse struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Amount    string         `json:"amount"`
	PaymentID string         `json:"payment_id,omitempty"`
	Items     []itemResponse `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

type paymentResponse struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  string `json:"amount"`
	Method  string `json:"method"`
	Status  string `json:"status"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		Status:    string(o.Status),
		Amount:    o.Amount.StringFixed(2),
		PaymentID: o.PaymentID,
		Items:     []itemResponse{},
		CreatedAt: o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, itemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return resp
}

func toPaymentResponse(p *domainPayment.Payment) paymentResponse {
	return paymentResponse{
		ID:      p.ID,
		OrderID: p.OrderID,
		Amount:  p.Amount.StringFixed(2),
		Method:  p.Method,
		Status:  p.Status,
	}
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	products, err := h.orders.ListActiveProducts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Category:    string(p.Category),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}
	cart, err := h.orders.GetOrCreatePendingOrder(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(cart))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.orders.AddProductForCustomer(r.Context(), customerID, req.ProductID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}
	if err := h.orders.RemoveItem(r.Context(), customerID, r.PathValue("itemID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pay, err := h.orders.StartPayment(r.Context(), customerID, domainOrder.DeliveryDetails{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(pay))
}

func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	pay, err := h.orders.ProcessPayment(r.Context(), r.PathValue("paymentID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(pay))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status, err := domainOrder.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	orders, err := h.orders.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListPastOrders(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	entity, err := h.orders.GetOrderByID(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

type staffStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleStaffStatus(w http.ResponseWriter, r *http.Request) {
	var req staffStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := domainOrder.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.orders.ChangeStaffOrderStatus(r.Context(), r.PathValue("orderID"), status); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}
	if err := h.orders.CancelOrder(r.Context(), r.PathValue("orderID"), customerID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toOrderResponses(orders []*domainOrder.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(customerHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing "+customerHeader+" header"))
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainOrder.ErrItemNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, domainPayment.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainOrder.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domainOrder.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainPayment.ErrUnavailable):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
