package requesterrors

import (
	"net/http"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type not found",
		http.StatusNotFound,
	)
	ErrLeaveTypeInactive = apperror.New(
		apperror.CodeInvalidState,
		"leave type is not active",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"date must use the YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end date must not be before start date",
		http.StatusBadRequest,
	)
	ErrInvalidDayType = apperror.New(
		apperror.CodeInvalidInput,
		"day type must be FULL_DAY, FIRST_HALF or SECOND_HALF",
		http.StatusBadRequest,
	)
	ErrInsufficientNotice = apperror.New(
		apperror.CodeInvalidState,
		"leave request does not meet the minimum notice period",
		http.StatusUnprocessableEntity,
	)
	ErrExceedsMaxConsecutive = apperror.New(
		apperror.CodeInvalidState,
		"leave request exceeds the maximum consecutive days for this leave type",
		http.StatusUnprocessableEntity,
	)
	ErrOverlappingLeave = apperror.New(
		apperror.CodeConflict,
		"leave request overlaps an existing pending or approved request",
		http.StatusConflict,
	)
	ErrMissingDocument = apperror.New(
		apperror.CodeInvalidInput,
		"this leave type requires a supporting document",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"leave request status does not allow this transition",
		http.StatusConflict,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee may cancel this leave request",
		http.StatusForbidden,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a reason is required",
		http.StatusBadRequest,
	)
)
