package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/handler/http/middleware"
	"github.com/meridianhr/payroll-backend-go/internal/handler/http/response"
	"github.com/meridianhr/payroll-backend-go/internal/service/approval"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type PayrollHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetHistory(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	approvalService approval.Service
}

func NewPayrollHandler(approvalService approval.Service) PayrollHandler {
	return &payrollHandlerImpl{approvalService: approvalService}
}

func (h *payrollHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorID(r)
	if !ok {
		response.Unauthorized(w, "Missing actor identity")
		return
	}

	var req approval.SubmitPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := h.approvalService.Submit(r.Context(), actorID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll submitted for approval", payroll.ToPayrollResponse(created))
}

func (h *payrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorID(r)
	if !ok {
		response.Unauthorized(w, "Missing actor identity")
		return
	}

	level, err := payroll.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Body is optional on approvals.
	var req payroll.ApproveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := validate.Struct(req); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.approvalService.Approve(r.Context(), level, chi.URLParam(r, "id"), actorID, req.Remarks)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll approved", toTransitionResponse(result))
}

func (h *payrollHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorID(r)
	if !ok {
		response.Unauthorized(w, "Missing actor identity")
		return
	}

	level, err := payroll.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.approvalService.Reject(r.Context(), level, chi.URLParam(r, "id"), actorID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll rejected", toTransitionResponse(result))
}

func (h *payrollHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.approvalService.GetPayroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.ToPayrollResponse(p))
}

func (h *payrollHandlerImpl) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.approvalService.GetHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entries := make([]payroll.HistoryEntryResponse, 0, len(history))
	for _, e := range history {
		entries = append(entries, payroll.ToHistoryEntryResponse(e))
	}

	response.Success(w, entries)
}

func (h *payrollHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	level, err := payroll.ParseLevel(r.URL.Query().Get("level"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	payrolls, total, err := h.approvalService.ListPending(r.Context(), level, page, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]payroll.PayrollResponse, 0, len(payrolls))
	for _, p := range payrolls {
		items = append(items, payroll.ToPayrollResponse(p))
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	response.SuccessWithMeta(w, items, &response.Meta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

func toTransitionResponse(result approval.TransitionResult) payroll.TransitionResponse {
	resp := payroll.TransitionResponse{
		Payroll: payroll.ToPayrollResponse(result.Payroll),
	}
	if result.NextApprover != nil {
		resp.NextApprover = &payroll.NextApproverResponse{
			ID:       result.NextApprover.ID,
			FullName: result.NextApprover.FullName,
			Position: result.NextApprover.Position,
		}
	}
	return resp
}
