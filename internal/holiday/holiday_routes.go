package holiday

import (
	"github.com/gin-gonic/gin"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/middleware"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	calendar := r.Group("/calendar")
	calendar.Use(middleware.AuthMiddleware())
	{
		calendar.GET("/working-days", middleware.RBACAuthorize(rbacService, "calendar", "read"), handler.WorkingDays)
		calendar.GET("/next-working-day", middleware.RBACAuthorize(rbacService, "calendar", "read"), handler.NextWorkingDay)
	}
}
