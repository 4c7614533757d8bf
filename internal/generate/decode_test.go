package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSQL(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"object", `{"sql": "select 1"}`, "select 1"},
		{"fenced", "```json\n{\"sql\": \"select 2\"}\n```", "select 2"},
		{"array", `[{"q": "1.", "sql": ""}, {"q": "2.", "sql": "select 3"}]`, "select 3"},
		{"embedded", "Here you go:\n{\"sql\": \"select 4\"}\nThanks", "select 4"},
		{"raw sql", "```sql\nselect 5 from dual\n```", "select 5 from dual"},
		{"json string", `"select 6"`, "select 6"},
		{"empty object", `{"answer": "x"}`, ""},
		{"broken json", `{"sql": "select`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeSQL(tt.response))
		})
	}
}

func TestContextRemember(t *testing.T) {
	c := &Context{}
	c.Remember("create table a (id number);\nbegin\ninsert into a values (1);\nend;\n CREATE TABLE b (id number)")
	assert.Equal(t, []string{"create table a (id number)", "CREATE TABLE b (id number)"}, c.Schema)
}

func TestContextRememberQuotedSemicolon(t *testing.T) {
	c := &Context{}
	c.Remember("create table t (a varchar2(5) default 'x;y');\ninsert into t values ('p;create table z');\n-- create table c;\ncreate table u (b number);")
	assert.Equal(t, []string{"create table t (a varchar2(5) default 'x;y')", "create table u (b number)"}, c.Schema)
}
