package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/davidbz/costdesk/internal/catalog"
	"github.com/davidbz/costdesk/internal/config"
	"github.com/davidbz/costdesk/internal/domain"
	"github.com/davidbz/costdesk/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	catalog         domain.PricingCatalog
	engine          *domain.CostEngine
	allocator       *domain.AllocationEngine
	accounting      *domain.AccountingService
	reporter        *domain.AggregationReporter
	expectedClients int
	metrics         *observability.Metrics
}

// NewHandler creates a new HTTP handler (DI constructor). metrics may be nil.
func NewHandler(
	pricing domain.PricingCatalog,
	engine *domain.CostEngine,
	allocator *domain.AllocationEngine,
	accounting *domain.AccountingService,
	reporter *domain.AggregationReporter,
	billing *config.BillingConfig,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		catalog:         pricing,
		engine:          engine,
		allocator:       allocator,
		accounting:      accounting,
		reporter:        reporter,
		expectedClients: billing.ExpectedClients,
		metrics:         metrics,
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/tools", h.HandleListTools)
	mux.HandleFunc("POST /v1/quotes", h.HandleQuote)
	mux.HandleFunc("POST /v1/allocations", h.HandleAllocate)
	mux.HandleFunc("POST /v1/usage", h.HandleLogUsage)
	mux.HandleFunc("PUT /v1/usage/{id}/override", h.HandleEditOverride)
	mux.HandleFunc("DELETE /v1/usage/{id}/override", h.HandleClearOverride)
	mux.HandleFunc("GET /v1/clients/{id}/usage", h.HandleClientUsage)
	mux.HandleFunc("POST /v1/subscriptions", h.HandleCreateSubscription)
	mux.HandleFunc("DELETE /v1/subscriptions/{month}/{toolID}", h.HandleDeleteSubscription)
	mux.HandleFunc("GET /v1/reports/monthly/{month}", h.HandleMonthlyOverview)
	mux.HandleFunc("GET /v1/reports/clients", h.HandleClientCosts)
	mux.HandleFunc("GET /v1/reports/allocations", h.HandleFlatFeeAllocation)
	mux.HandleFunc("GET /health", h.HandleHealth)
}

type quoteRequest struct {
	Items []domain.LineItemRequest `json:"items"`
}

type allocationRequest struct {
	Fees                []domain.FlatFeeRequest `json:"fees"`
	ExpectedClientCount *int                    `json:"expected_client_count,omitempty"`
}

type overrideRequest struct {
	Cost *float64 `json:"cost"`
}

type toolsResponse struct {
	Tools []catalog.ToolDefinition `json:"tools"`
}

type clientCostsResponse struct {
	Month   string                     `json:"month,omitempty"`
	Clients []domain.ClientCostSummary `json:"clients"`
}

// HandleListTools lists the catalog with each tool's pricing.
func (h *Handler) HandleListTools(w http.ResponseWriter, r *http.Request) {
	tools := h.catalog.Tools()
	resp := toolsResponse{Tools: make([]catalog.ToolDefinition, 0, len(tools))}
	for _, tool := range tools {
		resp.Tools = append(resp.Tools, catalog.Definition(tool))
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// HandleQuote computes an itemized breakdown. Invalid items are reported
// inline and never fail the request.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	breakdown := h.engine.ComputeBreakdown(r.Context(), req.Items)
	if h.metrics != nil {
		h.metrics.ObserveBreakdown(breakdown.TotalCost, breakdown.InvalidCount())
	}

	observability.FromContext(r.Context()).Info("quote computed",
		observability.Int("items", len(breakdown.Items)),
		observability.Int("invalid_items", breakdown.InvalidCount()),
		observability.Float64("total_cost", breakdown.TotalCost),
	)

	writeJSON(w, r, http.StatusOK, breakdown)
}

// HandleAllocate splits flat fees across clients. The configured client
// count applies when the request omits one.
func (h *Handler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	count := h.expectedClients
	if req.ExpectedClientCount != nil {
		count = *req.ExpectedClientCount
	}

	result, err := h.allocator.Allocate(r.Context(), req.Fees, count)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// HandleLogUsage records a usage event.
func (h *Handler) HandleLogUsage(w http.ResponseWriter, r *http.Request) {
	var in domain.UsageEventInput
	if !decodeBody(w, r, &in) {
		return
	}

	ctx := observability.WithClientID(r.Context(), in.ClientID)
	ctx = observability.WithToolID(ctx, in.ToolID)
	r = r.WithContext(ctx)

	event, err := h.accounting.LogGeneration(ctx, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, event)
}

// HandleEditOverride sets the manual cost of an event.
func (h *Handler) HandleEditOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Cost == nil {
		http.Error(w, "cost is required", http.StatusBadRequest)
		return
	}

	event, err := h.accounting.EditOverride(r.Context(), r.PathValue("id"), *req.Cost)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, event)
}

// HandleClearOverride reverts an event to its automatic cost.
func (h *Handler) HandleClearOverride(w http.ResponseWriter, r *http.Request) {
	event, err := h.accounting.ClearOverride(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, event)
}

// HandleClientUsage returns a client's events and totals.
func (h *Handler) HandleClientUsage(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("id")
	ctx := observability.WithClientID(r.Context(), clientID)

	writeJSON(w, r, http.StatusOK, h.accounting.GetByClient(ctx, clientID))
}

// HandleCreateSubscription records a tool's subscription for a month.
func (h *Handler) HandleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub domain.Subscription
	if !decodeBody(w, r, &sub) {
		return
	}

	created, err := h.accounting.CreateSubscription(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, created)
}

// HandleDeleteSubscription removes a tool's subscription for a month.
func (h *Handler) HandleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	err := h.accounting.DeleteSubscription(r.Context(), r.PathValue("toolID"), r.PathValue("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMonthlyOverview reconciles a month's subscriptions and usage.
func (h *Handler) HandleMonthlyOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reporter.GetMonthlyOverview(r.Context(), r.PathValue("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, overview)
}

// HandleClientCosts ranks clients by cost. Without a month query parameter
// all recorded usage is included.
func (h *Handler) HandleClientCosts(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")

	summaries, err := h.reporter.GetCostsByClient(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, clientCostsResponse{Month: month, Clients: summaries})
}

// HandleFlatFeeAllocation shows how the catalog's flat fees split across
// the configured client count.
func (h *Handler) HandleFlatFeeAllocation(w http.ResponseWriter, r *http.Request) {
	result, err := h.reporter.FlatFeeAllocation(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(r.Context()).Error("failed to encode response", observability.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logger := observability.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Error(err))
	} else {
		logger.Info("request rejected", observability.Int("status", status), observability.Error(err))
	}

	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSubscriptionExists),
		errors.Is(err, domain.ErrDuplicateEvent):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyToolID),
		errors.Is(err, domain.ErrEmptyClientID),
		errors.Is(err, domain.ErrUnknownTool),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidMonth):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
