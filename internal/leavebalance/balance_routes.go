package leavebalance

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
	balances := r.Group("/leave-balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.POST("", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.Allocate)
		balances.POST("/adjust", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.Adjust)
		balances.GET("/employee/:employeeId", middleware.RBACAuthorize(rbacService, "leave_balance", "read"), handler.GetEmployeeBalances)
	}
}
