package ticket_api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/tickets"
	"ms-marketplace/internal/tickets/db"
	"ms-marketplace/internal/tickets/ticket_api"
	"ms-marketplace/internal/utils"
)

func setupHandler(t *testing.T) (*ticket_api.Handler, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = bunDB.NewCreateTable().Model((*models.Ticket)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create ticket table: %v", err)
	}

	log := logger.NewLogger()
	svc := tickets.NewTicketService(&db.DB{Bun: bunDB}, nil, nil, nil, log)
	return ticket_api.NewHandler(svc, log), bunDB
}

func seedTicket(t *testing.T, bunDB *bun.DB, title string, price float64) models.Ticket {
	ticket := models.Ticket{
		TicketID:           uuid.New().String(),
		VendorEmail:        "vendor@example.com",
		Title:              title,
		FromLocation:       "Springfield",
		ToLocation:         "Shelbyville",
		TransportType:      "bus",
		Price:              price,
		TicketQuantity:     40,
		DepartureDateTime:  time.Now().Add(24 * time.Hour),
		VerificationStatus: models.VerificationApproved,
		CreatedAt:          time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&ticket).Exec(context.Background())
	assert.NoError(t, err)
	return ticket
}

func TestSearchTickets(t *testing.T) {
	handler, bunDB := setupHandler(t)
	defer bunDB.Close()

	seedTicket(t, bunDB, "Morning Express", 10.0)
	seedTicket(t, bunDB, "Night Coach", 20.0)

	req := httptest.NewRequest(http.MethodGet, "/tickets?from=spring&sort=price_desc&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.SearchTickets(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp utils.APIResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	assert.NoError(t, err)
	var page models.TicketPage
	assert.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 2, len(page.Tickets))
	assert.Equal(t, "Night Coach", page.Tickets[0].Title)
}

func TestGetTicketNotFound(t *testing.T) {
	handler, bunDB := setupHandler(t)
	defer bunDB.Close()

	req := httptest.NewRequest(http.MethodGet, "/tickets/missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	handler.GetTicket(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The envelope carries a public message, never driver internals
	var resp utils.APIResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "ticket not found", resp.Error)
}
