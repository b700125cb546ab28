package salaryadvance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/response"
)

type Handler struct {
	service  Service
	schedule ScheduleEngine
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewHandler(service Service, schedule ScheduleEngine, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("salaryadvance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salaryadvance.handler")
	}
	return &Handler{service: service, schedule: schedule, rdb: rdb, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("salary advance call failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) identity(c *gin.Context) (companyID, employeeID uuid.UUID, ok bool) {
	companyID, err := uuid.Parse(c.GetString("company_id"))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing company identity", nil)
		return uuid.Nil, uuid.Nil, false
	}
	employeeID, err = uuid.Parse(c.GetString("employee_id"))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing employee identity", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, employeeID, true
}

func (h *Handler) Request(c *gin.Context) {
	var req RequestAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	companyID, employeeID, ok := h.identity(c)
	if !ok {
		return
	}

	resp, err := h.service.Request(c.Request.Context(), companyID, employeeID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	var req ApproveAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	resp, err := h.service.Approve(c.Request.Context(), id, c.GetString("employee_name"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.invalidateScheduleCache(c, id)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	var req RejectAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), id, c.GetString("employee_name"), req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	_, employeeID, ok := h.identity(c)
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), id, employeeID, c.GetString("employee_name"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	resp, err := h.service.Activate(c.Request.Context(), id, c.GetString("employee_name"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("scheduleId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid schedule id", nil)
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "amount must be a decimal number", nil)
		return
	}

	resp, err := h.schedule.RecordPayment(c.Request.Context(), scheduleID, amount, req.Reference, req.Notes, c.GetString("employee_name"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if advanceID, err := uuid.Parse(resp.SalaryAdvanceID); err == nil {
		h.invalidateScheduleCache(c, advanceID)
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	advanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	ck := scheduleCacheKey(advanceID)
	if h.rdb != nil {
		if cached, err := h.rdb.Get(c.Request.Context(), ck).Bytes(); err == nil {
			var resp []ScheduleResponse
			if json.Unmarshal(cached, &resp) == nil {
				response.Success(c, http.StatusOK, resp, nil)
				return
			}
		}
	}

	resp, err := h.schedule.GetSchedule(c.Request.Context(), advanceID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.rdb.Set(c.Request.Context(), ck, payload, time.Hour).Err()
		}
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetMine(c *gin.Context) {
	_, employeeID, ok := h.identity(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByEmployee(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	resp, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetOutstanding(c *gin.Context) {
	advanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid advance id", nil)
		return
	}

	resp, err := h.schedule.OutstandingBalance(c.Request.Context(), advanceID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetOverdue(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "as_of must be YYYY-MM-DD", nil)
			return
		}
		asOf = parsed
	}

	resp, err := h.schedule.OverdueRepayments(c.Request.Context(), asOf)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) HistoryByActor(c *gin.Context) {
	actor := c.Query("actor")
	if actor == "" {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "actor query parameter is required", nil)
		return
	}

	resp, err := h.service.HistoryByActor(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) invalidateScheduleCache(c *gin.Context, advanceID uuid.UUID) {
	if h.rdb != nil {
		_ = h.rdb.Del(c.Request.Context(), scheduleCacheKey(advanceID)).Err()
	}
}

func scheduleCacheKey(advanceID uuid.UUID) string {
	return fmt.Sprintf("cache:repayment_schedule:%s", advanceID)
}
