package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is the part of *mongo.Client the health check uses.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client Pinger
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type healthData struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{"success":true,"data":{"status":"ok","database":"connected"}}
//
// On DB failure: 503 and {"success":false,"data":{"message":"database unavailable"}}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		jsonresp.Fail(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	jsonresp.OK(w, healthData{Status: "ok", Database: "connected"})
}
