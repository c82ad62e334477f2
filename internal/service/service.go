package service

import (
	"context"
	"errors"
	"fmt"

	"stockroom/internal/apierror"

	"gorm.io/gorm"
)

// Actor identifies who is calling a service operation and from where.
// Handlers build it from the JWT claims and the request.
type Actor struct {
	UserID    uint
	Role      string
	IP        string
	RequestID string
}

func (a Actor) userRef() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func (a Actor) hasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func requireRole(a Actor, roles ...string) error {
	if !a.hasRole(roles...) {
		return apierror.Forbidden("insufficient permissions")
	}
	return nil
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// storeErr classifies a repository error. Domain errors pass through untouched.
func storeErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var domain *apierror.Error
	if errors.As(err, &domain) {
		return err
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierror.NotFound("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierror.Conflict("%s already exists", what)
	default:
		return apierror.Persistence(what, err)
	}
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// normalizePage mirrors the repository paging so list metadata matches
// the rows actually returned.
func normalizePage(p, limit, def, max int) (int, int) {
	if p < 1 {
		p = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return p, limit
}
