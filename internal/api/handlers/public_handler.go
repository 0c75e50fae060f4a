package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/cubeclub-dev/cubedraft-backend/internal/database"
)

// PublicHandler handles public API endpoints
type PublicHandler struct {
	DatabaseService *database.DatabaseService
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(dbService *database.DatabaseService) *PublicHandler {
	return &PublicHandler{
		DatabaseService: dbService,
	}
}

func PublicHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log.Println("Request to public endpoint: /api/public")
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "Hello, this is public content! (From /api/public)")
}

// HealthHandler returns the liveness of the API and its database connection.
// GET /api/health
func (h *PublicHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := h.DatabaseService.DB.Ping(); err != nil {
		log.Printf("HealthHandler: データベースPingに失敗しました: %v", err)
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	WriteJSONResponse(w, status, map[string]string{
		"status":   "ok",
		"database": dbStatus,
	})
}
