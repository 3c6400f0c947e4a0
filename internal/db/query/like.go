// Package query holds gorm query helpers shared by the controllers.
package query

import (
	"strings"

	"gorm.io/gorm"
)

// EscapeChar is the LIKE escape character. A backslash would need
// dialect specific quoting on MySQL.
const EscapeChar = "!"

var likeEscaper = strings.NewReplacer( //nolint:gochecknoglobals
	EscapeChar, EscapeChar+EscapeChar,
	"%", EscapeChar+"%",
	"_", EscapeChar+"_",
)

// Contains returns a LIKE pattern matching s literally anywhere in a value.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// LikeCondition returns a case-insensitive contains condition over columns,
// joined by OR, and its arguments.
func LikeCondition(search string, columns ...string) (string, []any) {
	pattern := Contains(strings.ToLower(search))

	conds := make([]string, len(columns))
	args := make([]any, len(columns))

	for i, col := range columns {
		conds[i] = "LOWER(" + col + ") LIKE ? ESCAPE '" + EscapeChar + "'"
		args[i] = pattern
	}

	return "(" + strings.Join(conds, " OR ") + ")", args
}

// Like filters tx by a case-insensitive contains match on any of columns.
func Like(tx *gorm.DB, search string, columns ...string) *gorm.DB {
	cond, args := LikeCondition(search, columns...)

	return tx.Where(cond, args...)
}
