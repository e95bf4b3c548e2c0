package detect

import (
	"github.com/probekit/probekit/pkg/regexcache"
)

// sqlErrorPatterns are database error fragments that betray unsanitized
// input reaching a SQL engine. Grouped per engine; the group name becomes
// the finding signature so repeated matches on one endpoint deduplicate.
var sqlErrorPatterns = []struct {
	engine  string
	pattern string
}{
	{"mysql", `(?i)you have an error in your sql syntax`},
	{"mysql", `(?i)warning:\s+mysqli?_`},
	{"mysql", `(?i)unknown column '[^']+' in '`},
	{"mysql", `(?i)mysql_fetch_(array|assoc|row)\(\)`},
	{"postgresql", `(?i)pg_query\(\)|pg_exec\(\)`},
	{"postgresql", `(?i)unterminated quoted string at or near`},
	{"postgresql", `(?i)syntax error at or near`},
	{"postgresql", `PSQLException`},
	{"mssql", `(?i)unclosed quotation mark after the character string`},
	{"mssql", `(?i)incorrect syntax near`},
	{"mssql", `(?i)microsoft ole db provider for sql server`},
	{"oracle", `ORA-\d{5}`},
	{"oracle", `(?i)oracle error`},
	{"sqlite", `(?i)sqlite3?::|sqlite_error`},
	{"sqlite", `(?i)unrecognized token:`},
	{"generic", `(?i)sql syntax.*error`},
	{"generic", `(?i)quoted string not properly terminated`},
}

// matchSQLError scans a response body for database error text. Returns the
// engine signature ("sql-error/mysql") and the matched excerpt, or empty
// strings when nothing matches.
func matchSQLError(body string) (signature, excerpt string) {
	if body == "" {
		return "", ""
	}
	for _, p := range sqlErrorPatterns {
		re, err := regexcache.Get(p.pattern)
		if err != nil {
			continue
		}
		if loc := re.FindStringIndex(body); loc != nil {
			return "sql-error/" + p.engine, excerptAround(body, body[loc[0]:loc[1]])
		}
	}
	return "", ""
}
