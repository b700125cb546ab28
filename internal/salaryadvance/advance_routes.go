package salaryadvance

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/middleware"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	advances := r.Group("/salary-advances")
	advances.Use(middleware.AuthMiddleware())
	{
		advances.POST("",
			middleware.RBACAuthorize(rbacService, "salary_advance", "create"),
			middleware.Idempotency(rdb),
			handler.Request,
		)
		advances.GET("/mine", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.GetMine)
		advances.GET("/:id", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.GetByID)
		advances.GET("/:id/schedule", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.GetSchedule)
		advances.GET("/:id/history", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.History)
		advances.GET("/:id/outstanding", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.GetOutstanding)
		advances.GET("/schedules/overdue", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.GetOverdue)
		advances.GET("/audits", middleware.RBACAuthorize(rbacService, "salary_advance", "read"), handler.HistoryByActor)
		advances.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "salary_advance", "approve"), handler.Approve)
		advances.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "salary_advance", "approve"), handler.Reject)
		advances.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "salary_advance", "cancel"), handler.Cancel)
		advances.POST("/:id/activate", middleware.RBACAuthorize(rbacService, "salary_advance", "approve"), handler.Activate)
		advances.POST("/schedules/:scheduleId/payments",
			middleware.RBACAuthorize(rbacService, "salary_advance", "pay"),
			middleware.Idempotency(rdb),
			handler.RecordPayment,
		)
	}
}
