package handler

import (
	"errors"

	"github.com/maintenance-app/maintenance-api/internal/api/metrics"
	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

func recordLogin(err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials):
		result = "invalid_credentials"
	case errors.Is(err, domain.ErrAccountInactive):
		result = "inactive"
	default:
		result = "error"
	}
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}

func recordRefresh(err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTokenExpired):
		result = "expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		result = "invalid"
	case errors.Is(err, domain.ErrAccountInactive):
		result = "inactive"
	case errors.Is(err, domain.ErrPrincipalNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.TokenRefreshTotal.WithLabelValues(result).Inc()
}
