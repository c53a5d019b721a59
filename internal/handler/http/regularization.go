package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-regularization/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RegularizationHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	ListAudit(w http.ResponseWriter, r *http.Request)
	GetAttendance(w http.ResponseWriter, r *http.Request)
}

type RegularizationHandlerImpl struct {
	regularizationService regularization.RegularizationService
}

// Submit implements RegularizationHandler.
func (h *RegularizationHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req regularization.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	id, err := h.regularizationService.Submit(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Regularization request submitted successfully", map[string]string{"id": id})
}

// Review implements RegularizationHandler.
func (h *RegularizationHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	var req regularization.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Review decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.RequestID = requestID

	reviewed, err := h.regularizationService.Review(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization request reviewed successfully", reviewed)
}

// Get implements RegularizationHandler.
func (h *RegularizationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	req, err := h.regularizationService.Get(r.Context(), actor, requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, req)
}

// List implements RegularizationHandler.
func (h *RegularizationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := regularization.RegularizationFilter{
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
	}

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	// Pagination
	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			response.BadRequest(w, "page must be a number", nil)
			return
		}
		filter.Page = page
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			response.BadRequest(w, "limit must be a number", nil)
			return
		}
		filter.Limit = limit
	}

	list, err := h.regularizationService.List(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, list.Regularizations, &response.Meta{
		Page:       list.Page,
		Limit:      list.Limit,
		TotalItems: list.TotalCount,
		TotalPages: list.TotalPages,
	})
}

// ListPending implements RegularizationHandler.
func (h *RegularizationHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	employeeID, date := employeeDayQuery(r, actor)
	pending, err := h.regularizationService.ListPendingFor(r.Context(), actor, employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, pending)
}

// ListAudit implements RegularizationHandler.
func (h *RegularizationHandlerImpl) ListAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	entries, err := h.regularizationService.ListAuditForRequest(r.Context(), actor, requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, entries)
}

// GetAttendance implements RegularizationHandler.
func (h *RegularizationHandlerImpl) GetAttendance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	employeeID, date := employeeDayQuery(r, actor)
	att, err := h.regularizationService.GetAttendance(r.Context(), actor, employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, att)
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (user.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return user.Actor{}, false
	}
	return actor, true
}

// employeeDayQuery reads employee_id and date, defaulting the employee to the caller.
func employeeDayQuery(r *http.Request, actor user.Actor) (string, string) {
	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" && actor.EmployeeID != nil {
		employeeID = *actor.EmployeeID
	}
	return employeeID, r.URL.Query().Get("date")
}

func NewRegularizationHandler(regularizationService regularization.RegularizationService) RegularizationHandler {
	return &RegularizationHandlerImpl{
		regularizationService: regularizationService,
	}
}
