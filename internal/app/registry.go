package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/approval"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/holiday"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leaverequest"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/messaging/kafka"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/middleware"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/rbac"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/salaryadvance"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/counter"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	holidayRepo := holiday.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	balanceRepo := leavebalance.NewRepository(gormDB)
	requestRepo := leaverequest.NewRepository(gormDB)
	approvalRepo := approval.NewRepository(gormDB)
	advanceRepo := salaryadvance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	holidayService := holiday.NewService(holidayRepo, holiday.NewCalculator())
	balanceService := leavebalance.NewService(db, balanceRepo)
	requestService := leaverequest.NewService(db, requestRepo, leaveTypeRepo, holidayService, balanceService, outboxRepo)
	approvalService := approval.NewService(db, approvalRepo, requestService)
	advanceAudit := salaryadvance.NewAuditTrail(advanceRepo)
	advanceService := salaryadvance.NewServiceWithCounter(db, advanceRepo, advanceAudit, counterRepo)
	scheduleEngine := salaryadvance.NewScheduleEngine(db, advanceRepo, advanceAudit, outboxRepo)

	// --- Handlers ---
	holidayHandler := holiday.NewHandler(holidayService)
	balanceHandler := leavebalance.NewHandlerWithRedis(balanceService, rdb)
	requestHandler := leaverequest.NewHandler(requestService)
	approvalHandler := approval.NewHandler(approvalService)
	advanceHandler := salaryadvance.NewHandler(advanceService, scheduleEngine, rdb)

	// --- Global Middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		holiday.RegisterRoutes(api, holidayHandler, rbacService)
		leavebalance.RegisterRoutes(api, balanceHandler, rbacService)
		leaverequest.RegisterRoutes(api, requestHandler, rbacService)
		approval.RegisterRoutes(api, approvalHandler, rbacService)
		salaryadvance.RegisterRoutes(api, advanceHandler, rbacService, rdb)
	}

	return nil
}
