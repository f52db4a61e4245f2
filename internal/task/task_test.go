package task

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/dago-templater/internal/eval/loader"
	"github.com/aescanero/dago-templater/internal/eval/template"
	"github.com/aescanero/dago-templater/internal/templater"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const daily = `
template_fields: [sql, params, tags]
template_ext: [.sql]
fields:
  sql: queries/daily.sql
  params:
    day: "{{ logical_date | ds }}"
    raw: !literal "{{ not rendered }}"
    retries: "{{ retries + 1 }}"
  tags: ["{{ team.name }}", static]
  owner: "{{ untouched }}"
context:
  logical_date: !!timestamp 2024-06-01T00:00:00Z
  retries: 2
  team:
    name: data
`

func TestDecode(t *testing.T) {
	task, err := Decode(strings.NewReader(daily))
	require.NoError(t, err)

	assert.Equal(t, []string{"sql", "params", "tags"}, task.TemplateFields())
	assert.Equal(t, []string{".sql"}, task.TemplateExt())
	assert.Equal(t, []string{"sql", "params", "tags", "owner"}, task.Fields().Keys())

	want := templater.Context{
		"logical_date": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"retries":      2,
		"team":         map[string]any{"name": "data"},
	}
	if diff := cmp.Diff(want, task.Context()); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}

	params, err := task.GetField("params")
	require.NoError(t, err)
	raw, _ := params.(*templater.OrderedMap).Get("raw")
	assert.Equal(t, templater.Literal("{{ not rendered }}"), raw)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")

	_, err = Decode(strings.NewReader("template_fields: [missing]\nfields:\n  a: 1\n"))
	assert.ErrorContains(t, err, "missing")

	_, err = Decode(strings.NewReader("fields: [a, b]\n"))
	assert.Error(t, err)
}

func TestDefaultTemplateFields(t *testing.T) {
	task, err := Decode(strings.NewReader("fields:\n  b: 1\n  a: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, task.TemplateFields())
	assert.Empty(t, task.Context())
}

func TestFieldAccess(t *testing.T) {
	task, err := Decode(strings.NewReader("fields:\n  a: 1\n"))
	require.NoError(t, err)

	require.NoError(t, task.SetField("a", 2))
	v, err := task.GetField("a")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.Error(t, task.SetField("b", 1))
	_, err = task.GetField("b")
	assert.Error(t, err)
}

func TestRenderTask(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "task.yaml", []byte(daily), 0o644))

	task, err := LoadFile(fs, "task.yaml")
	require.NoError(t, err)

	env, err := template.NewEnvironment(template.Options{
		Mode:   template.ModeNative,
		Loader: loader.MapLoader{"queries/daily.sql": "SELECT * FROM events WHERE day = '{{ logical_date | ds }}'"},
	})
	require.NoError(t, err)
	task.SetEnvironment(env)

	tpl := templater.New(task, zap.NewNop())
	require.NoError(t, tpl.ResolveTemplateFiles())
	require.NoError(t, tpl.RenderTemplateFields(task.Context(), nil))

	var out bytes.Buffer
	require.NoError(t, task.Encode(&out))

	want := `sql: SELECT * FROM events WHERE day = '2024-06-01'
params:
  day: "2024-06-01"
  raw: '{{ not rendered }}'
  retries: 3
tags:
  - data
  - static
owner: '{{ untouched }}'
`
	assert.Equal(t, want, out.String())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(afero.NewMemMapFs(), "nope.yaml")
	assert.Error(t, err)
}

func TestDecodeContext(t *testing.T) {
	ctx, err := DecodeContext(strings.NewReader("a: 1\nb:\n  c: [x]\n"))
	require.NoError(t, err)
	assert.Equal(t, templater.Context{"a": 1, "b": map[string]any{"c": []any{"x"}}}, ctx)

	ctx, err = DecodeContext(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ctx)

	_, err = DecodeContext(strings.NewReader("[1, 2]"))
	assert.Error(t, err)
}
