package repository

import (
	"strconv"
	"strings"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
)

// Rebind rewrites ? placeholders into the positional form used by the dialect
func Rebind(dialect, query string) string {
	if dialect != database.DBPostgreSQL {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 10)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			sb.WriteByte(query[i])
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
