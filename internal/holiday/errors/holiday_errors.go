package holidayerrors

import (
	"net/http"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/apperror"
)

var (
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"end date must be on or after start date",
		http.StatusBadRequest,
	)

	ErrInvalidDayType = apperror.New(
		apperror.CodeInvalidInput,
		"day type must be FULL_DAY, FIRST_HALF or SECOND_HALF",
		http.StatusBadRequest,
	)
)
