package interpolate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendrilhq/tendril/internal/interpolate"
)

func TestInterpolate(t *testing.T) {
	vars := map[string]any{
		"name": "Ana",
		"age":  float64(33),
		"vip":  true,
		"api_response": map[string]any{
			"status": 200,
			"data":   map[string]any{"city": "Lisboa"},
		},
		"tags":  []any{"a", "b"},
		"empty": nil,
	}

	cases := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "hello world", "hello world"},
		{"simple", "Hi {{name}}!", "Hi Ana!"},
		{"spaces inside braces", "Hi {{ name }}!", "Hi Ana!"},
		{"number without exponent", "age: {{age}}", "age: 33"},
		{"bool", "vip: {{vip}}", "vip: true"},
		{"dotted path", "from {{api_response.data.city}}", "from Lisboa"},
		{"nested int", "status {{api_response.status}}", "status 200"},
		{"object renders as json", "{{api_response.data}}", `{"city":"Lisboa"}`},
		{"array renders as json", "{{tags}}", `["a","b"]`},
		{"missing path stays verbatim", "Hi {{nick}}!", "Hi {{nick}}!"},
		{"missing nested stays verbatim", "{{api_response.data.zip}}", "{{api_response.data.zip}}"},
		{"null value stays verbatim", "{{empty}}", "{{empty}}"},
		{"multiple", "{{name}} is {{age}}", "Ana is 33"},
		{"empty template", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, interpolate.Interpolate(tc.template, vars))
		})
	}
}

func TestInterpolate_NilVars(t *testing.T) {
	assert.Equal(t, "Hi {{name}}!", interpolate.Interpolate("Hi {{name}}!", nil))
}
