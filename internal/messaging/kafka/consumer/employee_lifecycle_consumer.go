package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/events"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	balanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
)

// ConsumeEmployeeLifecycle seeds the current-year leave balances for
// every active leave type when an employee_created event arrives.
// Redelivered events are safe: an existing allocation is skipped.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	leaveTypes leavetype.Repository,
	balances leavebalance.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee_created event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		employeeID, err := uuid.Parse(event.EmployeeID)
		if err != nil {
			log.Error("employee_created event carries invalid employee id",
				zap.String("employee_id", event.EmployeeID),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := seedDefaultBalances(ctx, leaveTypes, balances, employeeID, log); err != nil {
			log.Error("seed default leave balances failed",
				zap.String("employee_id", event.EmployeeID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("default leave balances seeded from employee_created event",
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
		)
	}
}

func seedDefaultBalances(
	ctx context.Context,
	leaveTypes leavetype.Repository,
	balances leavebalance.Service,
	employeeID uuid.UUID,
	log *zap.Logger,
) error {
	types, err := leaveTypes.FindActive(ctx)
	if err != nil {
		return err
	}

	year := time.Now().UTC().Year()
	for _, lt := range types {
		_, err := balances.Allocate(ctx, employeeID, lt.ID, year, lt.DefaultDaysPerYear, decimal.Zero)
		if err != nil {
			if errors.Is(err, balanceerrors.ErrDuplicateAllocation) {
				log.Warn("leave balance already allocated, skipping",
					zap.String("employee_id", employeeID.String()),
					zap.String("leave_type_id", lt.ID.String()),
				)
				continue
			}
			return err
		}
	}
	return nil
}
