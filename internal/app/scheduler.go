package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/accrual"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/employee"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/connection"
)

// RunScheduler drives the accrual jobs (monthly, yearly, carry-forward
// expiry, cleanup) until interrupted.
func RunScheduler() error {
	logger := zap.L().Named("app.scheduler")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	employeeRepo := employee.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	balanceRepo := leavebalance.NewRepository(gormDB)
	balanceService := leavebalance.NewService(sqlDB, balanceRepo)

	scheduler := accrual.NewScheduler(
		employee.NewDirectoryProvider(employeeRepo),
		leaveTypeRepo,
		balanceService,
		balanceRepo,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(ctx, 24*time.Hour)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("scheduler shutting down")
	cancel()

	return nil
}
