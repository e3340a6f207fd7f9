package repository

import "SmartSignal/internal/domain/models"

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func normalizeFilter(f models.SignalFilter) models.SignalFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
