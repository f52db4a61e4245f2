package templater

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aescanero/dago-templater/internal/eval/loader"
	"github.com/aescanero/dago-templater/internal/eval/template"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

type job struct {
	Command string         `template:"command"`
	Params  map[string]any `template:"params"`
	Files   []string       `template:"files"`
	Next    *job           `template:"next"`
	Retries int

	exts     []string
	env      *template.Environment
	prepared bool
}

func (j *job) TemplateFields() []string {
	return []string{"command", "params", "files", "next"}
}

func (j *job) TemplateExt() []string {
	return j.exts
}

func (j *job) TemplateEnvironment() *template.Environment {
	return j.env
}

func (j *job) PrepareTemplate() error {
	j.prepared = true
	return nil
}

// step is rendered by value
type step struct {
	Name  string
	Count int
}

func (s step) TemplateFields() []string {
	return []string{"Name"}
}

type named string

type resolver struct {
	out any
}

func (r resolver) Resolve(ctx Context) (any, error) {
	return r.out, nil
}

type fakePath struct {
	path   string
	connID string
}

func (p *fakePath) Serialize() map[string]any {
	return map[string]any{"path": p.path, "conn_id": p.connID}
}

func (p *fakePath) SerializationVersion() int {
	return 1
}

func (p *fakePath) Deserialize(data map[string]any, version int) (any, error) {
	return &fakePath{path: data["path"].(string), connID: data["conn_id"].(string)}, nil
}

func (p *fakePath) Resolve(Context) (any, error) {
	return "resolved", nil
}

// accessorOwner stores its fields in a map
type accessorOwner struct {
	values map[string]any
}

func (a *accessorOwner) TemplateFields() []string {
	return []string{"greeting"}
}

func (a *accessorOwner) TemplateExt() []string {
	return nil
}

func (a *accessorOwner) GetField(name string) (any, error) {
	v, ok := a.values[name]
	if !ok {
		return nil, errors.New("missing")
	}
	return v, nil
}

func (a *accessorOwner) SetField(name string, value any) error {
	a.values[name] = value
	return nil
}

func newEnv(t *testing.T, mode template.Mode, l loader.Loader) *template.Environment {
	t.Helper()
	env, err := template.NewEnvironment(template.Options{Mode: mode, Loader: l})
	require.NoError(t, err)
	return env
}

func renderValue(t *testing.T, value any, ctx Context, env *template.Environment) any {
	t.Helper()
	out, err := New(&job{}, nil).RenderTemplate(value, ctx, env, nil)
	require.NoError(t, err)
	return out
}

func TestLiteralValue(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)
	ctx := Context{"x": 1}

	for _, v := range []any{"{{ x }}", []any{"{{ x }}"}, 42, nil} {
		assert.Equal(t, v, renderValue(t, Literal(v), ctx, env))
	}

	assert.Empty(t, Literal("{{ x }}").IterReferences())
	assert.True(t, Literal([]int{1}).Equal(Literal([]int{1})))
	assert.False(t, Literal(1).Equal(Literal(2)))
}

func TestRenderText(t *testing.T) {
	ctx := Context{"x": 5}

	assert.Equal(t, "5", renderValue(t, "{{ x }}", ctx, newEnv(t, template.ModeString, nil)))
	assert.Equal(t, 5, renderValue(t, "{{ x }}", ctx, newEnv(t, template.ModeNative, nil)))
	assert.Equal(t, "a-5", renderValue(t, "a-{{x}}", ctx, newEnv(t, template.ModeNative, nil)))

	out := renderValue(t, named("{{ x }}-{{ x }}"), ctx, newEnv(t, template.ModeNative, nil))
	assert.Equal(t, named("5-5"), out)
}

func TestRenderSequences(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)
	ctx := Context{"n": 1, "s": "one"}

	assert.Equal(t, []string{"one", "two"}, renderValue(t, []string{"{{ s }}", "two"}, ctx, env))
	assert.Equal(t, []any{1, "two"}, renderValue(t, []string{"{{ n }}", "two"}, ctx, env))
	assert.Equal(t, [2]string{"one", "x"}, renderValue(t, [2]string{"{{ s }}", "x"}, ctx, env))
	assert.Equal(t, Tuple{1, "one", 3}, renderValue(t, Tuple{"{{ n }}", "{{ s }}", 3}, ctx, env))

	var empty []string
	assert.Nil(t, renderValue(t, empty, ctx, env))

	// bytes are not a sequence of templates
	assert.Equal(t, []byte("{{ n }}"), renderValue(t, []byte("{{ n }}"), ctx, env))
}

func TestRenderLabeledSequence(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)

	pair, err := NewNamedTuple("Pair", []string{"name", "count"}, "{{n}}", 3)
	require.NoError(t, err)

	out := renderValue(t, pair, Context{"n": "x"}, env)
	rendered, ok := out.(NamedTuple)
	require.True(t, ok)
	assert.Equal(t, "Pair", rendered.TypeName())
	assert.Equal(t, []string{"name", "count"}, rendered.Labels())

	name, _ := rendered.Get("name")
	count, _ := rendered.Get("count")
	assert.Equal(t, "x", name)
	assert.Equal(t, 3, count)

	// the original is untouched
	orig, _ := pair.Get("name")
	assert.Equal(t, "{{n}}", orig)

	_, err = NewNamedTuple("Pair", []string{"a", "b"}, 1)
	assert.Error(t, err)
	_, err = NewNamedTuple("Pair", []string{"a", "a"}, 1, 2)
	assert.Error(t, err)
}

func TestRenderMappings(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)
	ctx := Context{"x": "hi", "n": 7}

	m := NewOrderedMap()
	m.Set("a", "{{x}}")
	m.Set("b", 2)
	m.Set("{{x}}", "key")

	out := renderValue(t, m, ctx, env).(*OrderedMap)
	assert.Equal(t, []string{"a", "b", "{{x}}"}, out.Keys())
	a, _ := out.Get("a")
	b, _ := out.Get("b")
	assert.Equal(t, "hi", a)
	assert.Equal(t, 2, b)

	// the input map is not modified
	orig, _ := m.Get("a")
	assert.Equal(t, "{{x}}", orig)

	got := renderValue(t, map[string]any{"a": "{{x}}", "b": 2}, ctx, env)
	assert.Equal(t, map[string]any{"a": "hi", "b": 2}, got)

	got = renderValue(t, map[string]string{"a": "{{x}}"}, ctx, env)
	assert.Equal(t, map[string]string{"a": "hi"}, got)

	got = renderValue(t, map[string]string{"a": "{{n}}"}, ctx, env)
	assert.Equal(t, map[string]any{"a": 7}, got)
}

func TestRenderSet(t *testing.T) {
	env := newEnv(t, template.ModeString, nil)

	out := renderValue(t, NewSet("{{ a }}", "{{ b }}", 1), Context{"a": "x", "b": "x"}, env)
	assert.Equal(t, NewSet("x", 1), out)

	native := newEnv(t, template.ModeNative, nil)
	_, err := New(&job{}, nil).RenderTemplate(NewSet("{{ [1] }}"), nil, native, nil)
	assert.ErrorContains(t, err, "not comparable")
}

func TestRenderResolvable(t *testing.T) {
	env := newEnv(t, template.ModeString, nil)

	out := renderValue(t, resolver{out: "{{ x }}"}, Context{"x": 1}, env)
	assert.Equal(t, "{{ x }}", out)

	out = renderValue(t, []any{resolver{out: 1}, "{{ x }}"}, Context{"x": 2}, env)
	assert.Equal(t, []any{1, "2"}, out)
}

func TestRenderStructuredPath(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)
	p := &fakePath{path: "s3://bucket/{{ day }}/{{ n }}", connID: "{{ conn }}"}

	out := renderValue(t, p, Context{"day": "2024-06-01", "n": 3}, env)
	rendered, ok := out.(*fakePath)
	require.True(t, ok)
	assert.Equal(t, "s3://bucket/2024-06-01/3", rendered.path)
	assert.Equal(t, "{{ conn }}", rendered.connID)
	assert.Equal(t, KindStructuredPath, KindOf(p))
}

func TestRenderNestedByValue(t *testing.T) {
	env := newEnv(t, template.ModeString, nil)
	s := step{Name: "{{ x }}", Count: 2}

	out := renderValue(t, map[string]step{"first": s}, Context{"x": "load"}, env)
	assert.Equal(t, map[string]step{"first": {Name: "load", Count: 2}}, out)
	assert.Equal(t, "{{ x }}", s.Name)
}

func TestRenderTemplateFields(t *testing.T) {
	env := newEnv(t, template.ModeNative, loader.MapLoader{
		"query.sql": "SELECT * FROM {{ table }}",
		"other":     "should not be loaded",
	})

	child := &job{Command: "child {{ table }}", env: env}
	owner := &job{
		Command: "query.sql",
		Params:  map[string]any{"limit": "{{ limit }}", "name": "other"},
		Files:   []string{"{{ table }}.csv"},
		Next:    child,
		exts:    []string{".sql"},
		env:     env,
	}

	err := New(owner, zap.NewNop()).RenderTemplateFields(Context{"table": "users", "limit": 10}, nil)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM users", owner.Command)
	assert.Equal(t, map[string]any{"limit": 10, "name": "other"}, owner.Params)
	assert.Equal(t, []string{"users.csv"}, owner.Files)
	assert.Same(t, child, owner.Next)
	assert.Equal(t, "child users", child.Command)
}

func TestRenderTemplateFieldsCycle(t *testing.T) {
	env := newEnv(t, template.ModeString, nil)

	a := &job{Command: "{{ x }}", env: env}
	a.Next = a

	b := &job{Command: "b {{ x }}", env: env}
	c := &job{Command: "c {{ x }}", env: env, Next: b}
	b.Next = c

	require.NoError(t, New(a, nil).RenderTemplateFields(Context{"x": "1"}, nil))
	assert.Same(t, a, a.Next)
	assert.Equal(t, "1", a.Command)

	require.NoError(t, New(b, nil).RenderTemplateFields(Context{"x": "1"}, nil))
	assert.Same(t, c, b.Next)
	assert.Same(t, b, c.Next)
	assert.Equal(t, "b 1", b.Command)
	assert.Equal(t, "c 1", c.Command)
}

func TestRenderTemplateFieldsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	env := newEnv(t, template.ModeString, nil)

	owner := &job{
		Command: "{{ missing }}",
		Params:  map[string]any{"ok": "{{ x }}"},
		Files:   []string{"{{ other }}"},
		env:     env,
	}

	err := New(owner, zap.New(core)).RenderTemplateFields(Context{"x": "1"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, template.ErrEvaluate)

	assert.Equal(t, "{{ missing }}", owner.Command)
	assert.Equal(t, map[string]any{"ok": "1"}, owner.Params)
	assert.Equal(t, []string{"{{ other }}"}, owner.Files)

	failures := logs.FilterMessage("failed to render template field")
	require.Equal(t, 2, failures.Len())
	assert.Equal(t, "command", failures.All()[0].ContextMap()["field"])
	assert.Equal(t, "files", failures.All()[1].ContextMap()["field"])
	assert.Equal(t, zap.ErrorLevel, failures.All()[0].Level)
}

func TestRenderTemplateFieldsFalsy(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)
	owner := &job{Command: "{{ empty }}", Params: map[string]any{"a": 1}, env: env}

	require.NoError(t, New(owner, nil).RenderTemplateFields(Context{"empty": ""}, nil))
	assert.Equal(t, "{{ empty }}", owner.Command)
}

func TestRenderTemplateFieldsCoerce(t *testing.T) {
	env := newEnv(t, template.ModeNative, nil)
	owner := &job{Command: "{{ n }}", Files: []string{"{{ n }}", "b"}, env: env}

	require.NoError(t, New(owner, nil).RenderTemplateFields(Context{"n": 4}, nil))
	assert.Equal(t, "4", owner.Command)
	assert.Equal(t, []string{"4", "b"}, owner.Files)
}

func TestRenderTemplateFieldsAccessor(t *testing.T) {
	owner := &accessorOwner{values: map[string]any{"greeting": "hello {{ who }}"}}

	require.NoError(t, New(owner, nil).RenderTemplateFields(Context{"who": "world"}, nil))
	assert.Equal(t, "hello world", owner.values["greeting"])
}

func TestDefaultEnvironment(t *testing.T) {
	tpl := New(&job{}, nil)

	env, err := tpl.TemplateEnvironment()
	require.NoError(t, err)
	assert.Equal(t, template.ModeString, env.Mode())

	again, err := tpl.TemplateEnvironment()
	require.NoError(t, err)
	assert.Same(t, env, again)

	own := newEnv(t, template.ModeNative, nil)
	env, err = New(&job{env: own}, nil).TemplateEnvironment()
	require.NoError(t, err)
	assert.Same(t, own, env)
}

func TestResolveTemplateFiles(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	env := newEnv(t, template.ModeString, loader.MapLoader{
		"query.sql": "SELECT {{ x }}",
		"a.sql":     "A",
	})

	owner := &job{
		Command: "query.sql",
		Files:   []string{"a.sql", "missing.sql", "inline"},
		exts:    []string{".sql"},
		env:     env,
	}

	require.NoError(t, New(owner, zap.New(core)).ResolveTemplateFiles())
	assert.Equal(t, "SELECT {{ x }}", owner.Command)
	assert.Equal(t, []string{"A", "missing.sql", "inline"}, owner.Files)
	assert.True(t, owner.prepared)

	failures := logs.FilterMessage("failed to get template source")
	require.Equal(t, 1, failures.Len())
	assert.Equal(t, "missing.sql", failures.All()[0].ContextMap()["template"])
	assert.Equal(t, zap.WarnLevel, failures.All()[0].Level)
}

func TestResolveTemplateFilesWithoutExtensions(t *testing.T) {
	owner := &job{Command: "query.sql"}

	require.NoError(t, New(owner, nil).ResolveTemplateFiles())
	assert.Equal(t, "query.sql", owner.Command)
	assert.True(t, owner.prepared)
}

func TestResolveTemplateFilesAnySlice(t *testing.T) {
	env := newEnv(t, template.ModeString, loader.MapLoader{"a.sql": "A"})
	owner := &accessorOwner{values: map[string]any{"greeting": []any{"a.sql", 1}}}

	tpl := New(owner, nil)
	tpl.resolveElements(env, reflect.ValueOf(owner.values["greeting"]), []string{".sql"})
	assert.Equal(t, []any{"A", 1}, owner.values["greeting"])
}

func TestKindOf(t *testing.T) {
	pair, err := NewNamedTuple("P", []string{"a"}, 1)
	require.NoError(t, err)

	tests := []struct {
		value any
		kind  Kind
	}{
		{"s", KindText},
		{named("s"), KindText},
		{&fakePath{}, KindStructuredPath},
		{Literal(1), KindResolvable},
		{Tuple{1}, KindTuple},
		{pair, KindLabeledSequence},
		{[]int{1}, KindSequence},
		{[1]int{1}, KindSequence},
		{map[string]int{}, KindMapping},
		{NewOrderedMap(), KindMapping},
		{NewSet(), KindSet},
		{[]byte("x"), KindOpaque},
		{nil, KindOpaque},
		{3, KindOpaque},
		{&job{}, KindOpaque},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, KindOf(tt.value), "%#v", tt.value)
	}
	assert.Equal(t, "labeled sequence", KindLabeledSequence.String())
}

func TestIsTruthy(t *testing.T) {
	var nilJob *job

	for _, v := range []any{nil, false, 0, 0.0, "", []any{}, map[string]any{}, NewOrderedMap(), Tuple{}, nilJob} {
		assert.False(t, IsTruthy(v), "%#v", v)
	}
	for _, v := range []any{true, 1, -1.5, "x", []int{0}, map[string]int{"a": 0}, &job{}, step{}} {
		assert.True(t, IsTruthy(v), "%#v", v)
	}
}

func TestVisited(t *testing.T) {
	a, b := &job{}, &job{}
	v := NewVisited(a)

	assert.True(t, v.Contains(a))
	assert.False(t, v.Contains(b))
	assert.False(t, v.Add(a))
	assert.True(t, v.Add(b))
	assert.False(t, v.Add("text"))
	assert.False(t, v.Add(step{}))
	assert.Equal(t, 2, v.Len())
}

func TestFieldAccess(t *testing.T) {
	j := &job{Command: "c", Retries: 1}

	got, err := GetField(j, "command")
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	got, err = GetField(j, "Retries")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = GetField(j, "exts")
	assert.Error(t, err)
	_, err = GetField(*j, "command")
	assert.Error(t, err)

	require.NoError(t, SetField(j, "Retries", "3"))
	assert.Equal(t, 3, j.Retries)
	require.NoError(t, SetField(j, "command", 12))
	assert.Equal(t, "12", j.Command)
	require.NoError(t, SetField(j, "params", nil))
	assert.Nil(t, j.Params)
	assert.Error(t, SetField(j, "next", "x"))
}

func TestOrderedMapYAML(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("z", 3)
	m.Delete("missing")
	assert.Equal(t, []string{"z", "a"}, m.Keys())

	m.Delete("z")
	assert.Equal(t, []string{"a"}, m.Keys())
	assert.Equal(t, 1, m.Len())

	src := "zeta: 1\nalpha:\n  y: [x, 2]\n  b: true\nmid: text\n"

	var decoded OrderedMap
	require.NoError(t, yaml.Unmarshal([]byte(src), &decoded))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, decoded.Keys())

	nested, _ := decoded.Get("alpha")
	require.IsType(t, &OrderedMap{}, nested)
	assert.Equal(t, []string{"y", "b"}, nested.(*OrderedMap).Keys())

	y, _ := nested.(*OrderedMap).Get("y")
	if diff := cmp.Diff([]any{"x", 2}, y); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(&decoded)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha:\n    y:\n        - x\n        - 2\n    b: true\nmid: text\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("- a\n- b\n"), &decoded))
}
