package trigger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/trigger"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		name    string
		trg     domain.Trigger
		text    string
		matched bool
	}{
		{"exact case-insensitive", domain.Trigger{Kind: trigger.KindExact, Value: "hello"}, "HELLO", true},
		{"exact trims whitespace", domain.Trigger{Kind: trigger.KindExact, Value: "hello"}, "  hello  ", true},
		{"exact no substring", domain.Trigger{Kind: trigger.KindExact, Value: "hello"}, "hello there", false},
		{"exact case-sensitive", domain.Trigger{Kind: trigger.KindExact, Value: "Hello", CaseSensitive: true}, "hello", false},
		{"exact case-sensitive match", domain.Trigger{Kind: trigger.KindExact, Value: "Hello", CaseSensitive: true}, "Hello", true},
		{"contains", domain.Trigger{Kind: trigger.KindContains, Value: "order"}, "my ORDER arrived", true},
		{"contains case-sensitive", domain.Trigger{Kind: trigger.KindContains, Value: "Order", CaseSensitive: true}, "my order", false},
		{"contains miss", domain.Trigger{Kind: trigger.KindContains, Value: "order"}, "hello", false},
		{"regex", domain.Trigger{Kind: trigger.KindRegex, Value: `^\d{4}$`}, "1234", true},
		{"regex miss", domain.Trigger{Kind: trigger.KindRegex, Value: `^\d{4}$`}, "12345", false},
		{"expression", domain.Trigger{Kind: trigger.KindExpression, Value: `len(text) > 3`}, "hello", true},
		{"expression miss", domain.Trigger{Kind: trigger.KindExpression, Value: `text startsWith "buy"`}, "sell", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			matched, err := trigger.Match(tc.trg, tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.matched, matched)
		})
	}
}

func TestMatch_MalformedTriggers(t *testing.T) {
	for name, trg := range map[string]domain.Trigger{
		"bad regex":      {Kind: trigger.KindRegex, Value: "("},
		"bad expression": {Kind: trigger.KindExpression, Value: "len("},
		"non-bool expr":  {Kind: trigger.KindExpression, Value: `"text"`},
		"unknown kind":   {Kind: "fuzzy", Value: "x"},
	} {
		t.Run(name, func(t *testing.T) {
			matched, err := trigger.Match(trg, "anything")
			assert.Error(t, err)
			assert.False(t, matched)
		})
	}
}
