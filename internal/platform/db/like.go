package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes the LIKE wildcards in s so it matches literally inside a
// pattern such as '%' || $1 || '%'. Postgres uses backslash as the default
// LIKE escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
