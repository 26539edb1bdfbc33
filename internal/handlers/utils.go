package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pharma-intellect/pharmarag/internal/adapter"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

var logRH = logging.NewLogger("RequestHandler")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("error encoding response", "error", err)
	}
}

func (h *Handler) validateId(id string, traceId string) (result jobmodel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("empty job id")
		return jobmodel.Job{}, false
	}
	return h.getJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		logRH.With("traceId", trace)
	}
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, message, httpCode))
}
