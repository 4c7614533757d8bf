package execute

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mpataki/tada/internal/config"
	"github.com/mpataki/tada/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingStrategy struct {
	name  string
	err   error
	inner Strategy
	calls int
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) Open(ctx context.Context) (*sql.DB, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.Open(ctx)
}

func memoryStrategy() Strategy {
	return Strategies(DialectSQLite, config.DatabaseConfig{Path: ":memory:"})[0]
}

func newSQLiteClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(DialectSQLite, []Strategy{memoryStrategy()}, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c
}

const setupSQL = `create table bce_emp (emp_id integer, emp_name text);
begin
insert into bce_emp values (1, 'anand');
insert into bce_emp values (2, 'bhavya');
commit;
end;`

func TestExecuteSetupAndQuery(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)

	res, err := c.Execute(ctx, models.GeneratedStatement{TaskID: "setup-1", SQL: setupSQL})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, "setup-1", res.TaskID)
	assert.Equal(t, "Table created.\n\nPL/SQL procedure successfully completed.", res.Output)

	res, err = c.Execute(ctx, models.GeneratedStatement{TaskID: "A1", SQL: "select emp_id, emp_name from bce_emp order by emp_id;"})
	require.NoError(t, err)
	assert.Equal(t, []string{"emp_id", "emp_name"}, res.Columns)
	assert.Equal(t, [][]string{{"1", "anand"}, {"2", "bhavya"}}, res.Rows)
	assert.Equal(t, "EMP_ID EMP_NAME\n------ --------\n1      anand\n2      bhavya\n\n2 rows selected.", res.Output)

	res, err = c.Execute(ctx, models.GeneratedStatement{TaskID: "A2", SQL: "update bce_emp set emp_name = 'x' where emp_id = 1"})
	require.NoError(t, err)
	assert.Equal(t, "1 row updated.", res.Output)

	res, err = c.Execute(ctx, models.GeneratedStatement{TaskID: "A3", SQL: "select * from bce_emp where emp_id > 5"})
	require.NoError(t, err)
	assert.Equal(t, "no rows selected", res.Output)
	assert.Empty(t, res.Rows)
}

func TestExecuteCapturesErrors(t *testing.T) {
	c := newSQLiteClient(t)

	res, err := c.Execute(context.Background(), models.GeneratedStatement{TaskID: "A1", SQL: "select * from missing_table; select 1 as one"})
	require.NoError(t, err, "database errors are captured, not returned")

	assert.True(t, res.Failed())
	assert.Contains(t, res.Err, "ERROR at line 1:\n")
	assert.Contains(t, res.Err, "no such table")
	assert.Contains(t, res.Output, "1 row selected.", "later commands still run")
	assert.Equal(t, []string{"one"}, res.Columns)
}

func TestPrepareDropsPrefixedTables(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)

	for _, ddl := range []string{
		"create table bce_a (id integer)",
		"create table bce_b (id integer, a_id integer)",
		"create table bcex (id integer)",
		"create table other_c (name text)",
	} {
		res, err := c.Execute(ctx, models.GeneratedStatement{TaskID: "ddl", SQL: ddl})
		require.NoError(t, err)
		require.False(t, res.Failed(), res.Err)
	}

	require.NoError(t, c.Prepare(ctx, "bce_"))

	tables, err := c.Inspect(ctx, "")
	require.NoError(t, err)

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"bcex", "other_c"}, names, "underscore is matched literally")
	assert.Equal(t, []Column{{Name: "name", Type: "TEXT"}}, tables[1].Columns, "types are reported upper-case")

	assert.NoError(t, c.Prepare(ctx, ""), "empty prefix is a no-op")
}

func TestPrepareLogsUndroppableTables(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	c := NewClient(DialectSQLite, []Strategy{memoryStrategy()}, zap.New(core))
	defer c.Close()

	db, err := c.Connect(ctx)
	require.NoError(t, err)
	for _, stmt := range []string{
		"pragma foreign_keys = on",
		"create table bce_dept (id integer primary key)",
		"create table other_emp (id integer, dept_id integer references bce_dept(id))",
		"insert into bce_dept values (10)",
		"insert into other_emp values (1, 10)",
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	require.NoError(t, c.Prepare(ctx, "bce_"))

	tables, err := c.Inspect(ctx, "bce_")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "bce_dept", tables[0].Name)

	warned := logs.FilterMessage("could not drop previous tables").All()
	require.Len(t, warned, 1)
	assert.Equal(t, []any{"bce_dept"}, warned[0].ContextMap()["tables"])
}

func TestConnectFallsBack(t *testing.T) {
	primary := &countingStrategy{name: "thin", err: errors.New("listener refused")}
	fallback := &countingStrategy{name: "file", inner: memoryStrategy()}
	c := NewClient(DialectSQLite, []Strategy{primary, fallback}, zap.NewNop())
	defer c.Close()

	res, err := c.Execute(context.Background(), models.GeneratedStatement{TaskID: "A1", SQL: "select 1 as one"})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, "file", c.Strategy())

	_, err = c.Execute(context.Background(), models.GeneratedStatement{TaskID: "A2", SQL: "select 2 as two"})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "strategies run once per process")
	assert.Equal(t, 1, fallback.calls)
}

func TestConnectFailureIsCached(t *testing.T) {
	first := &countingStrategy{name: "tcp", err: errors.New("connection refused")}
	second := &countingStrategy{name: "socket", err: errors.New("no such file")}
	c := NewClient(DialectMySQL, []Strategy{first, second}, zap.NewNop())

	_, err := c.Execute(context.Background(), models.GeneratedStatement{TaskID: "A1", SQL: "select 1"})

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	require.Len(t, connErr.Failures, 2)
	assert.Equal(t, "tcp", connErr.Failures[0].Strategy)
	assert.ErrorContains(t, err, "no such file")

	_, err = c.Execute(context.Background(), models.GeneratedStatement{TaskID: "A2", SQL: "select 1"})
	assert.Error(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.NoError(t, c.Close())
}

func TestSkipExecutor(t *testing.T) {
	var exec Executor = SkipExecutor{}

	require.NoError(t, exec.Prepare(context.Background(), "bce_"))
	res, err := exec.Execute(context.Background(), models.GeneratedStatement{TaskID: "setup-1", SQL: "create table t (id int)"})
	require.NoError(t, err)
	assert.True(t, res.Placeholder)
	assert.Equal(t, PlaceholderText, res.Output)
	assert.False(t, res.Failed())
}

func TestStrategiesOrder(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 1521, Service: "xe", SID: "XE", User: "system", Password: "pw", Socket: "/tmp/mysql.sock"}

	names := func(ss []Strategy) []string {
		var out []string
		for _, s := range ss {
			out = append(out, s.Name())
		}
		return out
	}
	assert.Equal(t, []string{"thin", "direct"}, names(Strategies(DialectOracle, cfg)))
	assert.Equal(t, []string{"tcp", "socket"}, names(Strategies(DialectMySQL, cfg)))
	assert.Equal(t, []string{"file"}, names(Strategies(DialectSQLite, cfg)))

	d, err := ParseDialect("MySQL")
	require.NoError(t, err)
	assert.Equal(t, DialectMySQL, d)
	_, err = ParseDialect("postgres")
	assert.Error(t, err)
}
