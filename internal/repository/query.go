package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// Scope narrows a query. A nil Scope matches everything.
type Scope func(*gorm.DB) *gorm.DB

// Paginate counts the rows of T matching scope and loads one page of them.
//
// Behavior:
//   - Count and slice run in the same transaction so they observe the same
//     snapshot where the store supports it.
//   - order is a raw ORDER BY clause; empty keeps the store's natural order.
//   - The slice query is skipped when the count is zero.
//
// Example:
//
//	users, total, err := Paginate[db.User](ctx, gdb, p, SearchScope("ann", "name", "email"), "created_at, id")
func Paginate[T any](
	ctx context.Context,
	gdb *gorm.DB,
	p pagination.Params,
	scope Scope,
	order string,
) ([]T, int64, error) {
	var (
		items []T
		total int64
	)

	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model T
		if err := tx.Model(&model).Scopes(orAll(scope)).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			return nil
		}

		query := tx.Model(&model).Scopes(orAll(scope))
		if order != "" {
			query = query.Order(order)
		}
		return query.Offset(p.Offset()).Limit(p.Limit).Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SearchScope matches rows where any of columns contains term,
// case-insensitively. An empty term matches everything.
func SearchScope(term string, columns ...string) Scope {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return nil
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '!'")
		args = append(args, pattern)
	}
	where := "(" + strings.Join(clauses, " OR ") + ")"

	return func(db *gorm.DB) *gorm.DB {
		return db.Where(where, args...)
	}
}

// Where wraps a plain condition as a Scope.
func Where(query string, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func orAll(s Scope) func(*gorm.DB) *gorm.DB {
	if s == nil {
		return func(db *gorm.DB) *gorm.DB { return db }
	}
	return s
}

// escapeLike escapes LIKE metacharacters using '!' as the escape character,
// which needs no quoting in either MySQL or SQLite.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
