package holiday

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/response"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("holiday.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("holiday.handler")
	}
	return &Handler{service: service, logger: l}
}

// WorkingDays answers how many working days a date range spans,
// honouring half-day markers on either end.
func (h *Handler) WorkingDays(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "start_date must be YYYY-MM-DD", nil)
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "end_date must be YYYY-MM-DD", nil)
		return
	}

	startDayType, err := ParseDayType(c.DefaultQuery("start_day_type", string(FullDay)))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid start_day_type", nil)
		return
	}
	endDayType, err := ParseDayType(c.DefaultQuery("end_day_type", string(FullDay)))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid end_day_type", nil)
		return
	}

	companyID := companyIDFromContext(c)

	days, err := h.service.CalculateWorkingDays(c.Request.Context(), start, end, startDayType, endDayType, companyID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("working days calculation failed",
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"start_date":   start.Format("2006-01-02"),
		"end_date":     end.Format("2006-01-02"),
		"working_days": days.StringFixed(2),
	}, nil)
}

func (h *Handler) NextWorkingDay(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "date must be YYYY-MM-DD", nil)
		return
	}

	next, err := h.service.NextWorkingDay(c.Request.Context(), date, companyIDFromContext(c))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"date":             date.Format("2006-01-02"),
		"next_working_day": next.Format("2006-01-02"),
	}, nil)
}

func companyIDFromContext(c *gin.Context) *uuid.UUID {
	raw := c.GetString("company_id")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
