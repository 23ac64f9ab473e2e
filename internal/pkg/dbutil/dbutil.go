package dbutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var mysqlLimitRe = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

const pgUniqueViolation = "23505"

// Finalize converts a gendry-built MySQL-style query to Postgres form:
// LIMIT offset,count becomes LIMIT count OFFSET offset (with the two
// args swapped to match) and ? placeholders become $N.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	if loc := mysqlLimitRe.FindStringIndex(query); loc != nil {
		offsetArg := strings.Count(query[:loc[0]], "?")
		if offsetArg+1 < len(args) {
			args[offsetArg], args[offsetArg+1] = args[offsetArg+1], args[offsetArg]
			query = query[:loc[0]] + "LIMIT ? OFFSET ?" + query[loc[1]:]
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func IsConflict(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
