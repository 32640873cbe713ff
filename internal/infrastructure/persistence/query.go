package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartstore/backend/internal/domain/shared"
)

// tenantScope restricts a query to one tenant
func tenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// paginate applies ordering and paging. The order column must be in allowed.
func paginate(filter shared.Filter, allowed map[string]bool, defaultField string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := ValidateSortField(filter.OrderBy, allowed, defaultField)
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: ValidateSortOrder(filter.OrderDir) == "DESC"}).
			Offset(filter.Offset()).
			Limit(filter.Limit())
	}
}

// search adds a case-insensitive LIKE over the given columns
func search(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			conds[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// notFound converts gorm.ErrRecordNotFound into a domain NOT_FOUND
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(resource)
	}
	return err
}

// translate maps constraint violations onto domain errors
func translate(err error, conflictMessage string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.AlreadyExists(conflictMessage)
	}
	return err
}

// updateVersioned writes every column of value when its version still matches
// and bumps the version. The in-memory version is restored on failure.
func updateVersioned(db *gorm.DB, value interface{}, agg *shared.BaseAggregateRoot, tenantID uuid.UUID) error {
	expected := agg.Version
	agg.Version = expected + 1

	result := db.Model(value).
		Where("tenant_id = ? AND version = ?", tenantID, expected).
		Select("*").
		Omit(clause.Associations, "id", "tenant_id", "created_at", "created_by").
		Updates(value)
	if result.Error != nil {
		agg.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		agg.Version = expected
		return shared.ErrConcurrencyConflict
	}
	return nil
}
