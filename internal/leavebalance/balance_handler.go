package leavebalance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
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
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	return NewHandlerWithRedis(service, nil, logger...)
}

func NewHandlerWithRedis(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leavebalance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.handler")
	}
	return &Handler{service: service, rdb: rdb, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave balance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Allocate(c *gin.Context) {
	var req AllocateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	employeeID, _ := uuid.Parse(req.EmployeeID)
	leaveTypeID, _ := uuid.Parse(req.LeaveTypeID)

	total, err := decimal.NewFromString(req.TotalAllocated)
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "total_allocated must be a decimal number", nil)
		return
	}
	carried := decimal.Zero
	if req.CarriedForward != nil && *req.CarriedForward != "" {
		carried, err = decimal.NewFromString(*req.CarriedForward)
		if err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "carried_forward must be a decimal number", nil)
			return
		}
	}

	resp, err := h.service.Allocate(c.Request.Context(), employeeID, leaveTypeID, req.Year, total, carried)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.invalidateCache(c, req.EmployeeID, req.Year)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Adjust(c *gin.Context) {
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	employeeID, _ := uuid.Parse(req.EmployeeID)
	leaveTypeID, _ := uuid.Parse(req.LeaveTypeID)

	delta, err := decimal.NewFromString(req.Adjustment)
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "adjustment must be a decimal number", nil)
		return
	}

	resp, err := h.service.Adjust(c.Request.Context(), employeeID, leaveTypeID, req.Year, delta)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.invalidateCache(c, req.EmployeeID, req.Year)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetEmployeeBalances(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employeeId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid employee id", nil)
		return
	}

	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().UTC().Year())))

	ck := balanceCacheKey(employeeID.String(), year)
	if h.rdb != nil {
		if cached, err := h.rdb.Get(c.Request.Context(), ck).Bytes(); err == nil {
			var resp []BalanceResponse
			if json.Unmarshal(cached, &resp) == nil {
				response.Success(c, http.StatusOK, resp, nil)
				return
			}
		}
	}

	resp, err := h.service.GetEmployeeBalances(c.Request.Context(), employeeID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) invalidateCache(c *gin.Context, employeeID string, year int) {
	if h.rdb != nil {
		_ = h.rdb.Del(c.Request.Context(), balanceCacheKey(employeeID, year)).Err()
	}
}

func balanceCacheKey(employeeID string, year int) string {
	return fmt.Sprintf("cache:leave_balances:%s:%d", employeeID, year)
}
