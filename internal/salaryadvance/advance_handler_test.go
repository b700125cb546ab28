package salaryadvance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/salaryadvance"
	advanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/salaryadvance/errors"
)

type fakeAdvanceService struct {
	requestFn func(ctx context.Context, companyID, employeeID uuid.UUID, req salaryadvance.RequestAdvanceRequest) (salaryadvance.AdvanceResponse, error)
}

func (f *fakeAdvanceService) Request(ctx context.Context, companyID, employeeID uuid.UUID, req salaryadvance.RequestAdvanceRequest) (salaryadvance.AdvanceResponse, error) {
	return f.requestFn(ctx, companyID, employeeID, req)
}

func (f *fakeAdvanceService) Approve(context.Context, uuid.UUID, string, salaryadvance.ApproveAdvanceRequest) (salaryadvance.AdvanceResponse, error) {
	return salaryadvance.AdvanceResponse{}, nil
}

func (f *fakeAdvanceService) Reject(context.Context, uuid.UUID, string, string) (salaryadvance.AdvanceResponse, error) {
	return salaryadvance.AdvanceResponse{}, nil
}

func (f *fakeAdvanceService) Cancel(context.Context, uuid.UUID, uuid.UUID, string) (salaryadvance.AdvanceResponse, error) {
	return salaryadvance.AdvanceResponse{}, nil
}

func (f *fakeAdvanceService) Activate(context.Context, uuid.UUID, string) (salaryadvance.AdvanceResponse, error) {
	return salaryadvance.AdvanceResponse{}, nil
}

func (f *fakeAdvanceService) GetByID(context.Context, uuid.UUID) (salaryadvance.AdvanceResponse, error) {
	return salaryadvance.AdvanceResponse{}, nil
}

func (f *fakeAdvanceService) GetByEmployee(context.Context, uuid.UUID) ([]salaryadvance.AdvanceResponse, error) {
	return nil, nil
}

func (f *fakeAdvanceService) History(context.Context, uuid.UUID) ([]salaryadvance.AuditResponse, error) {
	return nil, nil
}

func (f *fakeAdvanceService) HistoryByActor(context.Context, string) ([]salaryadvance.AuditResponse, error) {
	return nil, nil
}

type fakeScheduleEngine struct {
	recordPaymentFn func(ctx context.Context, scheduleID uuid.UUID, amount decimal.Decimal, reference, notes, actor string) (salaryadvance.ScheduleResponse, error)
	outstandingFn   func(ctx context.Context, advanceID uuid.UUID) (salaryadvance.OutstandingResponse, error)
}

func (f *fakeScheduleEngine) RecordPayment(ctx context.Context, scheduleID uuid.UUID, amount decimal.Decimal, reference, notes, actor string) (salaryadvance.ScheduleResponse, error) {
	return f.recordPaymentFn(ctx, scheduleID, amount, reference, notes, actor)
}

func (f *fakeScheduleEngine) GetSchedule(context.Context, uuid.UUID) ([]salaryadvance.ScheduleResponse, error) {
	return nil, nil
}

func (f *fakeScheduleEngine) OverdueRepayments(context.Context, time.Time) ([]salaryadvance.ScheduleResponse, error) {
	return nil, nil
}

func (f *fakeScheduleEngine) OutstandingBalance(ctx context.Context, advanceID uuid.UUID) (salaryadvance.OutstandingResponse, error) {
	return f.outstandingFn(ctx, advanceID)
}

func newAdvanceHandler(svc salaryadvance.Service, schedule salaryadvance.ScheduleEngine) *salaryadvance.Handler {
	return salaryadvance.NewHandler(svc, schedule, nil, zap.NewNop())
}

func TestAdvanceHandler_Request(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New()
	employeeID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &fakeAdvanceService{
			requestFn: func(_ context.Context, cid, eid uuid.UUID, req salaryadvance.RequestAdvanceRequest) (salaryadvance.AdvanceResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, "1500", req.Amount)
				assert.Equal(t, 3, req.Installments)
				return salaryadvance.AdvanceResponse{
					ID:              uuid.NewString(),
					EmployeeID:      eid.String(),
					RequestedAmount: "1500.00",
					Status:          salaryadvance.StatusRequested,
				}, nil
			},
		}
		h := newAdvanceHandler(svc, &fakeScheduleEngine{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("company_id", companyID.String())
		c.Set("employee_id", employeeID.String())
		c.Request = httptest.NewRequest(http.MethodPost, "/salary-advances", strings.NewReader(`{"amount":"1500","installments":3,"reason":"medical"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.Request(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"requested_amount":"1500.00"`)
	})

	t.Run("negative missing identity", func(t *testing.T) {
		h := newAdvanceHandler(&fakeAdvanceService{}, &fakeScheduleEngine{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/salary-advances", strings.NewReader(`{"amount":"1500","installments":3}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.Request(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("negative invalid payload", func(t *testing.T) {
		h := newAdvanceHandler(&fakeAdvanceService{}, &fakeScheduleEngine{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("company_id", companyID.String())
		c.Set("employee_id", employeeID.String())
		c.Request = httptest.NewRequest(http.MethodPost, "/salary-advances", strings.NewReader(`{"installments":0}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.Request(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdvanceHandler_RecordPayment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	scheduleID := uuid.New()

	t.Run("success", func(t *testing.T) {
		engine := &fakeScheduleEngine{
			recordPaymentFn: func(_ context.Context, sid uuid.UUID, amount decimal.Decimal, reference, notes, actor string) (salaryadvance.ScheduleResponse, error) {
				assert.Equal(t, scheduleID, sid)
				assert.Equal(t, "500.00", amount.StringFixed(2))
				assert.Equal(t, "PAY-123", reference)
				assert.Equal(t, "Jane Payroll", actor)
				return salaryadvance.ScheduleResponse{
					ID:              sid.String(),
					SalaryAdvanceID: uuid.NewString(),
					Status:          salaryadvance.ScheduleStatusPaid,
				}, nil
			},
		}
		h := newAdvanceHandler(&fakeAdvanceService{}, engine)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("employee_name", "Jane Payroll")
		c.Params = gin.Params{{Key: "scheduleId", Value: scheduleID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/salary-advances/schedules/"+scheduleID.String()+"/payments", strings.NewReader(`{"amount":"500","reference":"PAY-123"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.RecordPayment(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), salaryadvance.ScheduleStatusPaid)
	})

	t.Run("negative non-decimal amount", func(t *testing.T) {
		h := newAdvanceHandler(&fakeAdvanceService{}, &fakeScheduleEngine{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "scheduleId", Value: scheduleID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/salary-advances/schedules/"+scheduleID.String()+"/payments", strings.NewReader(`{"amount":"five hundred","reference":"PAY-123"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.RecordPayment(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative unknown schedule maps to not found", func(t *testing.T) {
		engine := &fakeScheduleEngine{
			recordPaymentFn: func(context.Context, uuid.UUID, decimal.Decimal, string, string, string) (salaryadvance.ScheduleResponse, error) {
				return salaryadvance.ScheduleResponse{}, advanceerrors.ErrScheduleNotFound
			},
		}
		h := newAdvanceHandler(&fakeAdvanceService{}, engine)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "scheduleId", Value: scheduleID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/salary-advances/schedules/"+scheduleID.String()+"/payments", strings.NewReader(`{"amount":"500","reference":"PAY-123"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.RecordPayment(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdvanceHandler_GetOutstanding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	advanceID := uuid.New()

	t.Run("success", func(t *testing.T) {
		engine := &fakeScheduleEngine{
			outstandingFn: func(_ context.Context, id uuid.UUID) (salaryadvance.OutstandingResponse, error) {
				assert.Equal(t, advanceID, id)
				return salaryadvance.OutstandingResponse{SalaryAdvanceID: id.String(), Outstanding: "666.66", Installments: 2}, nil
			},
		}
		h := newAdvanceHandler(&fakeAdvanceService{}, engine)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: advanceID.String()}}
		c.Request = httptest.NewRequest(http.MethodGet, "/salary-advances/"+advanceID.String()+"/outstanding", nil)
		h.GetOutstanding(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"outstanding":"666.66"`)
	})

	t.Run("negative invalid advance id", func(t *testing.T) {
		h := newAdvanceHandler(&fakeAdvanceService{}, &fakeScheduleEngine{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
		c.Request = httptest.NewRequest(http.MethodGet, "/salary-advances/not-a-uuid/outstanding", nil)
		h.GetOutstanding(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
