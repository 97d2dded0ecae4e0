package service

import (
	"errors"

	"arche/internal/models"
	"arche/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// notFoundOr maps a missing row to NOT_FOUND and anything else to an internal error.
func notFoundOr(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
