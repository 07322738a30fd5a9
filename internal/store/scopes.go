package store

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Equal matches rows whose column equals value.
func Equal(column string, value any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", value)
	}
}

// ContainsFold matches rows where any of the columns contains term, ignoring case.
func ContainsFold(term string, columns ...string) Scope {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
	return func(db *gorm.DB) *gorm.DB {
		if len(columns) == 0 {
			return db
		}
		clauses := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, column := range columns {
			clauses[i] = "LOWER(" + column + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// OldestFirst orders by identifier, which follows insertion time for UUIDv7 ids.
func OldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
