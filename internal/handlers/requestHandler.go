package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pharma-intellect/pharmarag/internal/adapter"
	"github.com/pharma-intellect/pharmarag/internal/adapter/utils"
	"github.com/pharma-intellect/pharmarag/internal/api"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
)

type newJobData struct {
	id          string
	clientId    string
	question    string
	isNewClient bool
	traceId     string
	jobType     jobmodel.JobType
}

func (h *Handler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// QueryHandler accepts a question, queues a background query job, and
// returns a job id for status polling. A request without a client id
// starts a fresh history.
func (h *Handler) QueryHandler(w http.ResponseWriter, request *http.Request) {

	if !validateContext(request.Context()) {
		logRH.Warn("invalid context by request", "remoteAddr", request.RemoteAddr)
		return
	}

	var requestData api.QueryRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("couldn't close the query handler reader", "error", err)
		}
	}(request.Body)

	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !h.validateQueryRequest(requestData) {
		logRH.Warn("bad query request", "error", err, "clientId", requestData.ClientID)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ClientID, "Bad Request")
		return
	}

	clientID := requestData.ClientID
	isNewClient := clientID == ""
	if isNewClient {
		clientID = utils.GetNewUUID()
		logRH.Debug("new client", "clientId", clientID)
	}

	h.acceptJob(w, request, newJobData{
		id:          utils.GetNewUUID(),
		clientId:    clientID,
		question:    requestData.Question,
		isNewClient: isNewClient,
		traceId:     request.Context().Value(config.TRACE_ID_KEY).(string),
		jobType:     jobmodel.JobTypeQuery,
	})
}

// CollectHandler queues a collection job: both upstream APIs are
// pulled and the CSV snapshots rewritten.
func (h *Handler) CollectHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("invalid context by request", "remoteAddr", r.RemoteAddr)
		return
	}
	h.acceptJob(w, r, newJobData{
		id:      utils.GetNewUUID(),
		traceId: r.Context().Value(config.TRACE_ID_KEY).(string),
		jobType: jobmodel.JobTypeCollect,
	})
}

// IngestHandler queues a knowledge-base build from the current CSV
// snapshots.
func (h *Handler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("invalid context by request", "remoteAddr", r.RemoteAddr)
		return
	}
	h.acceptJob(w, r, newJobData{
		id:      utils.GetNewUUID(),
		traceId: r.Context().Value(config.TRACE_ID_KEY).(string),
		jobType: jobmodel.JobTypeIngest,
	})
}

// GetStatusHandler retrieves the current status of a job by id.
func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	logRH.Debug("get status request", "URL path", r.URL.Path)

	result, isFound := h.validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// GetHistoryHandler returns a client's recent query results, newest
// first.
func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	clientID := utils.GetChiURLParam(r, "id")
	ctx := r.Context()

	if clientID == "" || !h.service.HistoryStore.ValidateClientId(ctx, clientID) {
		WriteErrorResponse(w, http.StatusNotFound, clientID, "Unknown client id")
		return
	}

	results, err := h.service.HistoryStore.GetRecentResults(ctx, clientID)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, clientID, "Could not load history")
		return
	}

	response := api.HistoryResponse{ClientId: clientID, Results: make([]json.RawMessage, 0, len(results))}
	for _, raw := range results {
		response.Results = append(response.Results, json.RawMessage(raw))
	}
	writeJsonResponse(w, http.StatusOK, response)
}

func (h *Handler) acceptJob(w http.ResponseWriter, r *http.Request, data newJobData) {
	logRH.Debug("accepting job", "traceId", data.traceId, "type", data.jobType)
	h.createNewJob(data)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(data.id))
}
