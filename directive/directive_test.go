package directive

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

func templateSources(r *Result) []string {
	out := make([]string, len(r.TemplateExpressions))
	for i, n := range r.TemplateExpressions {
		out[i] = n.String()
	}
	return out
}

func inputSources(t *testing.T, r *Result) map[string]string {
	t.Helper()

	out := make(map[string]string)
	for _, name := range r.InputNames() {
		n, ok := r.Input(name)
		require.True(t, ok, name)
		out[name] = n.String()
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		directive  string
		expression string
		template   []string
		inputs     map[string]string
		order      []string
	}{
		{
			name:       "leading expression",
			directive:  "if",
			expression: "user.loggedIn",
			inputs:     map[string]string{"if": "user.loggedIn"},
			order:      []string{"if"},
		},
		{
			name:       "implicit let and keyed input",
			directive:  "for",
			expression: "let item of items; let i = index",
			template:   []string{"let item = $implicit;", "let i = index;"},
			inputs:     map[string]string{"of": "items"},
			order:      []string{"of"},
		},
		{
			name:       "colon and comma separators",
			directive:  "for",
			expression: "let item, of: items, trackBy: byId",
			template:   []string{"let item = $implicit;"},
			inputs:     map[string]string{"of": "items", "trackBy": "byId"},
			order:      []string{"of", "trackBy"},
		},
		{
			name:       "destructuring binding",
			directive:  "for",
			expression: "let {name, age} of people",
			template:   []string{"let { name, age } = $implicit;"},
			inputs:     map[string]string{"of": "people"},
			order:      []string{"of"},
		},
		{
			name:       "input aliased into the template",
			directive:  "if",
			expression: "user$ as user",
			template:   []string{"let user = if;"},
			inputs:     map[string]string{"if": "user$"},
			order:      []string{"if"},
		},
		{
			name:       "context value aliased",
			directive:  "for",
			expression: "let item of items; index as i",
			template:   []string{"let item = $implicit;", "let i = index;"},
			inputs:     map[string]string{"of": "items"},
			order:      []string{"of"},
		},
		{
			name:       "separators inside pairs are kept",
			directive:  "let",
			expression: "let x = f(a, b); options {a: 1, b: [2, 3]}",
			template:   []string{"let x = f(a, b);"},
			inputs:     map[string]string{"options": "{ a: 1, b: [2, 3] }"},
			order:      []string{"options"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.directive, tt.expression)
			require.NoError(t, err)

			if tt.template == nil {
				assert.Empty(t, r.TemplateExpressions)
			} else {
				assert.Equal(t, tt.template, templateSources(r))
			}
			assert.Equal(t, tt.inputs, inputSources(t, r))
			assert.Equal(t, tt.order, r.InputNames())
		})
	}
}

func TestParseEmpty(t *testing.T) {
	r, err := Parse("if", "")
	require.NoError(t, err)
	assert.Empty(t, r.TemplateExpressions)
	assert.Empty(t, r.InputNames())
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		"let 1 = x",
		"let x = ",
		"let {a, b",
		"let x; of",
		"let x; 42 items",
		"a +",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse("for", expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, diag.ErrParse) || errors.Is(err, diag.ErrLex), "got %v", err)
		})
	}
}

func TestInputsAndBindings(t *testing.T) {
	r, err := Parse("for", "let item of items; let i = index; index as position")
	require.NoError(t, err)

	global := scope.NewMapContext(map[string]any{
		"items": runtime.NewArray([]any{"a", "b"}),
	})
	stack := scope.NewGlobalStack(global)

	inputs, err := r.Inputs(stack)
	require.NoError(t, err)
	require.Contains(t, inputs, "of")
	assert.Equal(t, "[ 'a', 'b' ]", runtime.Inspect(inputs["of"]))

	bound, err := r.Bindings(stack, map[string]any{Implicit: "b", "index": 1.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"item": "b", "i": 1.0, "position": 1.0}, bound)

	// bindings must not leak into the outer stack
	assert.False(t, stack.Has("item"))
}

func TestNullImplicitBinding(t *testing.T) {
	r, err := Parse("if", "cond; let value")
	require.NoError(t, err)

	stack := scope.NewGlobalStack(scope.NewMapContext(nil))
	bound, err := r.Bindings(stack, map[string]any{Implicit: nil})
	require.NoError(t, err)
	require.Contains(t, bound, "value")
	assert.Nil(t, bound["value"])
}

func TestMarshalJSON(t *testing.T) {
	r, err := Parse("for", "let item of items; trackBy: id")
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded struct {
		TemplateExpressions []map[string]any `json:"templateExpressions"`
		DirectiveInputs     json.RawMessage  `json:"directiveInputs"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.TemplateExpressions, 1)
	assert.Equal(t, "VariableDeclaration", decoded.TemplateExpressions[0]["type"])
	assert.JSONEq(t,
		`{"of":{"type":"Identifier","name":"items"},"trackBy":{"type":"Identifier","name":"id"}}`,
		string(decoded.DirectiveInputs))
	assert.Regexp(t, `^\{"of":.*"trackBy":`, string(decoded.DirectiveInputs))
}
