package approval

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
	approvals := r.Group("/approvals")
	approvals.Use(middleware.AuthMiddleware())
	{
		approvals.POST("/workflows", middleware.RBACAuthorize(rbacService, "approval", "manage"), handler.CreateWorkflow)
		approvals.GET("/pending", middleware.RBACAuthorize(rbacService, "approval", "read"), handler.Pending)
		approvals.GET("/request/:requestId", middleware.RBACAuthorize(rbacService, "approval", "read"), handler.GetByRequest)
		approvals.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "approval", "act"), handler.Approve)
		approvals.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "approval", "act"), handler.Reject)
		approvals.POST("/:id/delegate", middleware.RBACAuthorize(rbacService, "approval", "act"), handler.Delegate)
	}
}
