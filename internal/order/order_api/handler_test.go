package order_api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/order"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Availability(ctx context.Context) ([]order.TicketAvailability, error) {
	args := m.Called()
	types, _ := args.Get(0).([]order.TicketAvailability)
	return types, args.Error(1)
}

func (m *MockOrderService) CreateCheckoutSession(ctx context.Context, req order.CheckoutRequest) (*order.CheckoutSession, error) {
	args := m.Called(req)
	session, _ := args.Get(0).(*order.CheckoutSession)
	return session, args.Error(1)
}

func (m *MockOrderService) HandleStripeWebhook(r *http.Request) error {
	return m.Called().Error(0)
}

func (m *MockOrderService) OrderBySession(ctx context.Context, sessionID string) (*order.OrderView, error) {
	args := m.Called(sessionID)
	view, _ := args.Get(0).(*order.OrderView)
	return view, args.Error(1)
}

func (m *MockOrderService) RedeemInPerson(ctx context.Context, req order.RedeemRequest) (*order.RedemptionResult, error) {
	args := m.Called(req)
	result, _ := args.Get(0).(*order.RedemptionResult)
	return result, args.Error(1)
}

func setupRouter() (*chi.Mux, *MockOrderService) {
	svc := new(MockOrderService)
	h := NewHandler(svc, logger.NewLoggerWithOutput(io.Discard))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
		r.Route("/admin", h.RegisterAdminRoutes)
	})
	return r, svc
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func serve(t *testing.T, r http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAvailability(t *testing.T) {
	r, svc := setupRouter()
	left := int64(3)
	svc.On("Availability").Return([]order.TicketAvailability{{ID: 1, Name: "General", Remaining: &left}}, nil).Once()

	w, env := serve(t, r, http.MethodGet, "/api/tickets/availability", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	var types []order.TicketAvailability
	require.NoError(t, json.Unmarshal(env.Data, &types))
	require.Len(t, types, 1)
	assert.Equal(t, int64(3), *types[0].Remaining)
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, svc := setupRouter()
		req := order.CheckoutRequest{TicketTypeID: 2, Quantity: 3}
		svc.On("CreateCheckoutSession", req).Return(&order.CheckoutSession{URL: "https://checkout.stripe.test/c/cs_1", SessionID: "cs_1"}, nil).Once()

		body, _ := json.Marshal(req)
		w, env := serve(t, r, http.MethodPost, "/api/checkout/session", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, string(env.Data), "cs_1")
	})

	t.Run("sold out is a conflict", func(t *testing.T) {
		r, svc := setupRouter()
		svc.On("CreateCheckoutSession", mock.Anything).Return(nil, apperr.Conflict("only 1 tickets remaining")).Once()

		w, env := serve(t, r, http.MethodPost, "/api/checkout/session", []byte(`{"ticketTypeId":2,"quantity":3}`))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "only 1 tickets remaining", env.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		r, svc := setupRouter()
		w, _ := serve(t, r, http.MethodPost, "/api/checkout/session", []byte(`{"ticketTypeId":`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything)
	})
}

func TestStripeWebhook(t *testing.T) {
	t.Run("acknowledged", func(t *testing.T) {
		r, svc := setupRouter()
		svc.On("HandleStripeWebhook").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	})

	t.Run("webhook error keeps its status", func(t *testing.T) {
		r, svc := setupRouter()
		svc.On("HandleStripeWebhook").Return(&order.WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid signature",
			InternalError: "bad sig",
		}).Once()

		w, env := serve(t, r, http.MethodPost, "/api/webhooks/stripe", []byte(`{}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid signature", env.Error)
	})

	t.Run("inventory conflict asks stripe to retry", func(t *testing.T) {
		r, svc := setupRouter()
		svc.On("HandleStripeWebhook").Return(&order.WebhookError{
			Category:    "processing",
			StatusCode:  http.StatusConflict,
			PublicError: "inventory exhausted",
		}).Once()

		w, _ := serve(t, r, http.MethodPost, "/api/webhooks/stripe", []byte(`{}`))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetOrderBySession(t *testing.T) {
	r, svc := setupRouter()
	svc.On("OrderBySession", "cs_paid").Return(&order.OrderView{SessionID: "cs_paid", Quantity: 2}, nil).Once()
	svc.On("OrderBySession", "cs_unknown").Return(nil, apperr.NotFound("no order found for this session yet")).Once()

	w, env := serve(t, r, http.MethodGet, "/api/order/by-session?session_id=cs_paid", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"quantity":2`)

	w, env = serve(t, r, http.MethodGet, "/api/order/by-session?session_id=cs_unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no order found for this session yet", env.Error)
}

func TestRedeemInPerson(t *testing.T) {
	r, svc := setupRouter()
	req := order.RedeemRequest{Name: "Ada", Email: "ada@example.com", TicketTypeID: 1}
	svc.On("RedeemInPerson", req).Return(&order.RedemptionResult{}, nil).Once()
	svc.On("RedeemInPerson", req).Return(nil, apperr.Conflict("this email has already redeemed a ticket in person")).Once()

	body, _ := json.Marshal(req)
	w, _ := serve(t, r, http.MethodPost, "/api/admin/redeem", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env := serve(t, r, http.MethodPost, "/api/admin/redeem", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)

	w, _ = serve(t, r, http.MethodPost, "/api/admin/redeem", []byte(`{"name":"Ada","unknown":true}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInternalErrorsHideDetail(t *testing.T) {
	r, svc := setupRouter()
	svc.On("Availability").Return(nil, apperr.Internal("list ticket types", assert.AnError)).Once()

	w, env := serve(t, r, http.MethodGet, "/api/tickets/availability", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Error)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
