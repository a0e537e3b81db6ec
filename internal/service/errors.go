package service

import (
	apperrors "deskhub/internal/errors"
)

var (
	ErrSpaceNotFound      = apperrors.ErrNotFound("space not found")
	ErrBookingNotFound    = apperrors.ErrNotFound("booking not found")
	ErrBookingConflict    = apperrors.ErrConflict("selected dates are not available")
	ErrInvalidRange       = apperrors.ErrBadRequest("start date must not be after end date")
	ErrStartInPast        = apperrors.ErrBadRequest("start date must not be in the past")
	ErrNotCancellable     = apperrors.ErrConflict("booking can no longer be cancelled")
	ErrSpaceHasBookings   = apperrors.ErrConflict("space has upcoming bookings")
	ErrSpaceHasHistory    = apperrors.ErrConflict("space has bookings on record and cannot be deleted")
	ErrForbidden          = apperrors.ErrForbidden("not allowed")
	ErrInvalidCredentials = apperrors.ErrUnauthorized("invalid credentials")
	ErrEmailTaken         = apperrors.ErrConflict("email already registered")
)
