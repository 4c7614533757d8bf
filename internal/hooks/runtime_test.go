package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mpataki/tada/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var task = models.Task{ID: "A1", Kind: models.TaskKindQuery, Label: "A1."}

func TestRewrite(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r, err := LoadString(`
function rewrite(sql, kind, label)
  log("saw " .. kind .. " " .. label)
  if kind == "query" then
    return string.gsub(sql, "limit 5", "fetch first 5 rows only")
  end
end
`, zap.New(core))
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Rewrite("select * from t limit 5", task)
	require.NoError(t, err)
	assert.Equal(t, "select * from t fetch first 5 rows only", got)

	setup := models.Task{ID: "setup-1", Kind: models.TaskKindSetup, Label: "employee"}
	got, err = r.Rewrite("create table t (id number)", setup)
	require.NoError(t, err)
	assert.Equal(t, "create table t (id number)", got, "nil result keeps the SQL")

	var messages []string
	for _, entry := range logs.FilterMessage("hook").All() {
		messages = append(messages, entry.ContextMap()["message"].(string))
	}
	assert.Equal(t, []string{"saw query A1.", "saw setup employee"}, messages)
}

func TestRewriteErrors(t *testing.T) {
	r, err := LoadString(`function rewrite(sql) error("nope") end`, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Rewrite("select 1", task)
	assert.ErrorContains(t, err, "nope")

	r2, err := LoadString(`function rewrite(sql) return {} end`, zap.NewNop())
	require.NoError(t, err)
	defer r2.Close()

	_, err = r2.Rewrite("select 1", task)
	assert.ErrorContains(t, err, "want string")
}

func TestSandbox(t *testing.T) {
	for _, script := range []string{
		`dofile("/etc/passwd") function rewrite(s) return s end`,
		`local f = io.open("/tmp/x") function rewrite(s) return s end`,
		`os.exit(1) function rewrite(s) return s end`,
		`math.randomseed(1) function rewrite(s) return s end`,
	} {
		_, err := LoadString(script, zap.NewNop())
		assert.Error(t, err, script)
	}
}

func TestLoadRequiresRewrite(t *testing.T) {
	_, err := LoadString(`x = 1`, zap.NewNop())
	assert.ErrorContains(t, err, "rewrite")
}

func TestLoadMissingFile(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "hooks.lua"), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, r)

	path := filepath.Join(t.TempDir(), "hooks.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function rewrite(s) return s .. ";" end`), 0o644))
	r, err = Load(path, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Rewrite("select 1", task)
	require.NoError(t, err)
	assert.Equal(t, "select 1;", got)
}
