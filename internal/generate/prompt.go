package generate

import (
	"fmt"
	"strings"

	"github.com/mpataki/tada/internal/execute"
	"github.com/mpataki/tada/internal/models"
)

// Context is what the generator knows about an exercise beyond the task
// being answered.
type Context struct {
	Dialect string
	Prefix  string
	// Schema holds the CREATE statements generated so far, in order.
	Schema []string
}

// Remember adds the CREATE commands in sql to the schema context. Semicolons
// inside literals and PL/SQL blocks do not end a command.
func (c *Context) Remember(sql string) {
	for _, cmd := range execute.SplitScript(sql) {
		if strings.HasPrefix(strings.ToLower(cmd), "create") {
			c.Schema = append(c.Schema, cmd)
		}
	}
}

var setupNotes = map[string]string{
	"oracle": `- Use Oracle SQL syntax: VARCHAR2 for strings, NUMBER for numbers
- Use TO_DATE('YYYY-MM-DD', 'YYYY-MM-DD') for date values
- Do NOT use CREATE DATABASE or USE statements`,
	"mysql": `- Use standard MySQL syntax: INT, VARCHAR, DATE, DECIMAL
- Use AUTO_INCREMENT if needed
- Do NOT use CREATE DATABASE or USE statements`,
	"sqlite": `- Use SQLite syntax: INTEGER, TEXT, REAL
- Dates are quoted 'YYYY-MM-DD' text`,
}

var queryNotes = map[string]string{
	"oracle": `- Use FETCH FIRST N ROWS ONLY instead of LIMIT
- Use NVL() instead of IFNULL()
- Use || for string concatenation and SUBSTR instead of SUBSTRING
- Use MOD() instead of %`,
	"mysql":  "- Use standard MySQL syntax",
	"sqlite": "- Use SQLite syntax; LIMIT is allowed",
}

func notes(table map[string]string, dialect string) string {
	if n, ok := table[dialect]; ok {
		return n
	}
	return table["oracle"]
}

// SetupPrompt asks for the CREATE TABLE and insert block of one table.
func SetupPrompt(task models.Task, c *Context) string {
	name := c.Prefix + task.Label
	var b strings.Builder

	fmt.Fprintf(&b, "You are a SQL expert. The following table was extracted from a database lab exercise.\n")
	fmt.Fprintf(&b, "Write the SQL that creates it and loads every row shown.\n\n")
	b.WriteString("RULES:\n")
	fmt.Fprintf(&b, "1. The table MUST be named %q\n", name)
	b.WriteString("2. Column names MUST exactly match the header row; do not invent or rename columns\n")
	b.WriteString("3. Write one CREATE TABLE statement followed by one begin ... end; block holding ALL insert statements and a commit\n")
	b.WriteString("4. ALL SQL must be lowercase\n")
	b.WriteString("5. Do NOT include comments (-- or /* */) or any unicode symbols\n")
	b.WriteString(notes(setupNotes, c.Dialect))
	b.WriteString("\n")
	if len(c.Schema) > 0 {
		b.WriteString("\nTABLES CREATED EARLIER (keep foreign keys consistent with them):\n")
		b.WriteString(strings.Join(c.Schema, ";\n"))
		b.WriteString(";\n")
	}
	b.WriteString("\nTABLE TEXT:\n")
	b.WriteString(task.Text)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Return ONLY a JSON object: {\"sql\": \"create table %s (...);\\nbegin\\ninsert into %s values (...);\\ncommit;\\nend;\"}\n", name, name)

	return b.String()
}

// QueryPrompt asks for the SQL answering one practice question.
func QueryPrompt(task models.Task, c *Context) string {
	var b strings.Builder

	b.WriteString("You are a SQL expert. Answer the practice question below with one executable SQL statement.\n\n")
	b.WriteString("RULES:\n")
	if c.Prefix != "" {
		fmt.Fprintf(&b, "1. Table names are prefixed with %q (e.g. %q)\n", c.Prefix, c.Prefix+"employee")
	} else {
		b.WriteString("1. Use the table names exactly as given in the schema\n")
	}
	b.WriteString("2. Column names MUST exactly match the schema; do not guess\n")
	b.WriteString("3. ALL SQL must be lowercase\n")
	b.WriteString("4. Do NOT include comments (-- or /* */) or any unicode symbols\n")
	b.WriteString(notes(queryNotes, c.Dialect))
	b.WriteString("\n")
	if len(c.Schema) > 0 {
		b.WriteString("\nDATABASE SCHEMA (use EXACTLY these column names):\n")
		b.WriteString(strings.Join(c.Schema, ";\n"))
		b.WriteString(";\n")
	}
	b.WriteString("\nQUESTION:\n")
	fmt.Fprintf(&b, "%s %s\n\n", task.Label, task.Text)
	b.WriteString("Return ONLY a JSON object: {\"sql\": \"select ...\"}\n")

	return b.String()
}
