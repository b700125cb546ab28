package approvalerrors

import (
	"net/http"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
)

var (
	ErrWorkflowNotFound = apperror.New(
		apperror.CodeNotFound,
		"approval step not found",
		http.StatusNotFound,
	)
	ErrNotApprover = apperror.New(
		apperror.CodeForbidden,
		"only the assigned approver may act on this step",
		http.StatusForbidden,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeConflict,
		"approval step has already been processed",
		http.StatusConflict,
	)
	ErrPriorLevelsIncomplete = apperror.New(
		apperror.CodeInvalidState,
		"earlier approval levels have not been completed",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidSequence = apperror.New(
		apperror.CodeInvalidInput,
		"approval steps must use unique sequence orders starting at 1",
		http.StatusBadRequest,
	)
	ErrNoSteps = apperror.New(
		apperror.CodeInvalidInput,
		"an approval workflow needs at least one step",
		http.StatusBadRequest,
	)
)
