package advanceerrors

import (
	"net/http"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
)

var (
	ErrAdvanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"salary advance not found",
		http.StatusNotFound,
	)
	ErrScheduleNotFound = apperror.New(
		apperror.CodeNotFound,
		"repayment schedule entry not found",
		http.StatusNotFound,
	)
	ErrAmountTooSmall = apperror.New(
		apperror.CodeInvalidInput,
		"requested amount is below the minimum salary advance",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"amount must be a positive number",
		http.StatusBadRequest,
	)
	ErrAmountExceedsRequested = apperror.New(
		apperror.CodeInvalidInput,
		"approved amount cannot exceed the requested amount",
		http.StatusBadRequest,
	)
	ErrInvalidInstallments = apperror.New(
		apperror.CodeInvalidInput,
		"installment count must be at least 1",
		http.StatusBadRequest,
	)
	ErrActiveAdvanceExists = apperror.New(
		apperror.CodeConflict,
		"employee already has an open salary advance",
		http.StatusConflict,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"salary advance status does not allow this transition",
		http.StatusConflict,
	)
	ErrSchedulePrecondition = apperror.New(
		apperror.CodeInvalidState,
		"approved amount and scheduled repayment start must be set before generating a schedule",
		http.StatusUnprocessableEntity,
	)
	ErrAlreadyPaid = apperror.New(
		apperror.CodeConflict,
		"repayment schedule entry is already fully paid",
		http.StatusConflict,
	)
)
