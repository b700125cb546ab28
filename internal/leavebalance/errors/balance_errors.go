package balanceerrors

import (
	"net/http"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
)

var (
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found for employee, leave type and year",
		http.StatusNotFound,
	)
	ErrDuplicateAllocation = apperror.New(
		apperror.CodeConflict,
		"leave balance already allocated for employee, leave type and year",
		http.StatusConflict,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidState,
		"insufficient leave balance",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidAdjustment = apperror.New(
		apperror.CodeInvalidState,
		"operation would drive the leave balance negative",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be a positive amount",
		http.StatusBadRequest,
	)
)
