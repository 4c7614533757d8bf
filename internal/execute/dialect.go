package execute

import (
	"fmt"
	"strings"
	"time"
)

type Dialect string

const (
	DialectOracle Dialect = "oracle"
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectOracle, DialectMySQL, DialectSQLite:
		return d, nil
	case "":
		return DialectOracle, nil
	default:
		return "", fmt.Errorf("unsupported database type %q (want oracle, mysql or sqlite)", s)
	}
}

// foldName is how the catalog stores unquoted identifiers.
func (d Dialect) foldName(name string) string {
	if d == DialectOracle {
		return strings.ToUpper(name)
	}
	return name
}

func (d Dialect) listTablesQuery() string {
	switch d {
	case DialectOracle:
		return "SELECT table_name FROM user_tables WHERE table_name LIKE :1 ESCAPE '!' ORDER BY table_name"
	case DialectMySQL:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name LIKE ? ESCAPE '!' ORDER BY table_name"
	default:
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ESCAPE '!' ORDER BY name"
	}
}

func (d Dialect) listColumnsQuery() string {
	switch d {
	case DialectOracle:
		return "SELECT column_name, data_type FROM user_tab_columns WHERE table_name = :1 ORDER BY column_id"
	case DialectMySQL:
		return "SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	default:
		return "SELECT name, type FROM pragma_table_info(?) ORDER BY cid"
	}
}

func (d Dialect) dropTable(name string) string {
	if d == DialectOracle {
		return fmt.Sprintf("DROP TABLE %s CASCADE CONSTRAINTS", name)
	}
	return fmt.Sprintf("DROP TABLE %s", name)
}

// supportsBlocks reports whether anonymous begin ... end; blocks run as is.
func (d Dialect) supportsBlocks() bool {
	return d == DialectOracle
}

func (d Dialect) formatTime(t time.Time) string {
	if d == DialectOracle {
		return strings.ToUpper(t.Format("02-Jan-06"))
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

func likePrefix(prefix string) string {
	return strings.NewReplacer("!", "!!", "_", "!_", "%", "!%").Replace(prefix) + "%"
}
