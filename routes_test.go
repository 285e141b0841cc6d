package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dreamstate-ticketing/internal/auth"
	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/factions"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/order"
	order_db "dreamstate-ticketing/internal/order/db"
	"dreamstate-ticketing/internal/order/order_api"
	"dreamstate-ticketing/internal/scores"
	scores_db "dreamstate-ticketing/internal/scores/db"
	"dreamstate-ticketing/internal/scores/scores_api"
	"dreamstate-ticketing/internal/sse"
	ticket_db "dreamstate-ticketing/internal/tickets/db"
	qr "dreamstate-ticketing/internal/tickets/qr_generator"
	tickets "dreamstate-ticketing/internal/tickets/service"
	"dreamstate-ticketing/internal/tickets/ticket_api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminPassword = "door-staff"

type app struct {
	router     http.Handler
	ticketType *models.TicketType
}

func setupApp(t *testing.T) *app {
	bunDB, err := database.OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, database.Bootstrap(context.Background(), bunDB))
	t.Cleanup(func() { bunDB.Close() })

	log := logger.NewLoggerWithOutput(io.Discard)
	orders := &order_db.DB{Bun: bunDB}
	ticketStore := &ticket_db.DB{Bun: bunDB}
	factionStore := &factions.Store{Bun: bunDB}

	tt := &models.TicketType{StripePriceID: "price_door", Name: "Door", Currency: "usd", BasePriceMinor: 2000, IsActive: true}
	require.NoError(t, orders.CreateTicketType(context.Background(), tt))

	sessions, err := auth.NewSessionManager(testAdminPassword, "0123456789abcdef0123456789abcdef", time.Hour, nil, log)
	require.NoError(t, err)

	orderService := order.NewOrderService(orders, ticketStore, factions.NewSource(factionStore, nil, 0, log), log)
	ticketService := tickets.NewTicketService(ticketStore, sessions, log)
	emitter := sse.NewScoreboardEmitter()
	scoreService := scores.NewScoreService(&scores_db.DB{Bun: bunDB}, factionStore, log)
	scoreService.Emitter = emitter

	router := newRouter(handlers{
		Orders:   order_api.NewHandler(orderService, log),
		Tickets:  ticket_api.NewHandler(ticketService, qr.NewQRGenerator("https://dreamstate.test"), log),
		Scores:   scores_api.NewHandler(scoreService, emitter, log),
		Sessions: auth.NewSessionHandler(sessions),
		Auth:     sessions,
		Logger:   log,
	})
	return &app{router: router, ticketType: tt}
}

func (a *app) call(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) login(t *testing.T) string {
	w := a.call(t, http.MethodPost, "/api/admin/session", "", map[string]string{"password": testAdminPassword})
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data auth.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data.Token
}

func TestHealthAndMetrics(t *testing.T) {
	a := setupApp(t)

	w := a.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	a.call(t, http.MethodGet, "/api/factions/scores", "", nil)
	w = a.call(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/api/factions/scores"`)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	a := setupApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/tickets"},
		{http.MethodPost, "/api/admin/redeem"},
		{http.MethodPost, "/api/admin/factions/score"},
		{http.MethodPut, "/api/admin/factions/events/1"},
		{http.MethodDelete, "/api/admin/factions/events/1"},
		{http.MethodPost, "/api/admin/verify-ticket"},
	} {
		w := a.call(t, tc.method, tc.path, "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}

	w := a.call(t, http.MethodPost, "/api/admin/session", "", map[string]string{"password": "guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDoorFlow(t *testing.T) {
	a := setupApp(t)
	token := a.login(t)

	w := a.call(t, http.MethodPost, "/api/admin/redeem", token, order.RedeemRequest{Name: "Ada Lovelace", Email: "Ada@Example.com", TicketTypeID: a.ticketType.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var redeemed struct {
		Data order.RedemptionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &redeemed))
	require.NotNil(t, redeemed.Data.Ticket)
	assert.Equal(t, int64(1), redeemed.Data.Ticket.TicketNumber)
	assert.Equal(t, int64(1), redeemed.Data.Ticket.AssignedFactionID)

	w = a.call(t, http.MethodPost, "/api/admin/redeem", token, order.RedeemRequest{Name: "Ada", Email: "ada@example.com ", TicketTypeID: a.ticketType.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	ticketToken := redeemed.Data.Ticket.VerificationToken
	w = a.call(t, http.MethodGet, "/api/tickets/info/"+ticketToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verified":false`)

	w = a.call(t, http.MethodGet, "/verify/"+ticketToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verified":false`)

	w = a.call(t, http.MethodGet, "/verify/not-a-ticket", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.call(t, http.MethodPost, "/api/admin/verify-ticket", token, map[string]string{"token": ticketToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alreadyVerified":false`)

	w = a.call(t, http.MethodPost, "/api/admin/verify-ticket", token, map[string]string{"token": ticketToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alreadyVerified":true`)

	w = a.call(t, http.MethodGet, "/api/admin/tickets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"verified":1`))

	w = a.call(t, http.MethodPost, "/api/admin/factions/score", token, map[string]interface{}{"factionId": 1, "points": 10, "description": "first arrival"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
