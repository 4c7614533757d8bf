package execute

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var rowCommands = map[string]bool{
	"select": true, "with": true, "show": true, "describe": true,
	"desc": true, "explain": true, "pragma": true, "values": true,
}

func returnsRows(cmd string) bool {
	return rowCommands[firstWord(cmd)]
}

func (d Dialect) formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return d.formatTime(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(val)
	}
}

// formatRows lays out a result set like SQL*Plus: upper-cased headers,
// dashed underline, left aligned columns and a row count.
func formatRows(columns []string, rows [][]string) string {
	if len(rows) == 0 {
		return "no rows selected"
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		var parts []string
		for i := range columns {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts = append(parts, cell+strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, " "), " "))
		b.WriteByte('\n')
	}

	headers := make([]string, len(columns))
	dashes := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
		dashes[i] = strings.Repeat("-", widths[i])
	}
	line(headers)
	line(dashes)
	for _, row := range rows {
		line(row)
	}

	b.WriteByte('\n')
	b.WriteString(plural(int64(len(rows)), "selected"))
	return b.String()
}

func plural(n int64, verb string) string {
	if n == 1 {
		return "1 row " + verb + "."
	}
	return fmt.Sprintf("%d rows %s.", n, verb)
}

// feedback is the SQL*Plus style acknowledgement of a non-query command.
func feedback(cmd string, affected int64) string {
	words := keywords(cmd, 6)
	if len(words) == 0 {
		return "Command executed successfully."
	}

	switch words[0] {
	case "create":
		return objectName(words[1:]) + " created."
	case "drop":
		return objectName(words[1:]) + " dropped."
	case "alter":
		return objectName(words[1:]) + " altered."
	case "insert":
		return plural(affected, "created")
	case "update":
		return plural(affected, "updated")
	case "delete":
		return plural(affected, "deleted")
	case "merge":
		return plural(affected, "merged")
	case "truncate":
		return "Table truncated."
	case "rename":
		return "Table renamed."
	case "commit":
		return "Commit complete."
	case "rollback":
		return "Rollback complete."
	case "savepoint":
		return "Savepoint created."
	case "grant":
		return "Grant succeeded."
	case "revoke":
		return "Revoke succeeded."
	case "begin", "declare":
		return "PL/SQL procedure successfully completed."
	default:
		return "Command executed successfully."
	}
}

var objectModifiers = map[string]bool{
	"or": true, "replace": true, "unique": true, "global": true, "temporary": true,
	"temp": true, "force": true, "noforce": true, "materialized": true, "public": true,
	"editionable": true, "bitmap": true,
}

func objectName(words []string) string {
	for _, w := range words {
		if objectModifiers[w] {
			continue
		}
		return strings.ToUpper(w[:1]) + w[1:]
	}
	return "Object"
}
