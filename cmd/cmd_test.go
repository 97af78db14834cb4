package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToStringSlice(t *testing.T) {
	items := []struct {
		input    []string
		expected []string
	}{
		{nil, []string{}},
		{[]string{"customer"}, []string{"customer"}},
		{[]string{"customer,orders"}, []string{"customer", "orders"}},
		{[]string{"customer,,orders", "contact"}, []string{"customer", "orders", "contact"}},
	}

	for _, item := range items {
		actual, err := toStringSlice(item.input)
		assert.NoError(t, err)
		assert.Equal(t, item.expected, actual)
	}
}

func TestParseParam(t *testing.T) {
	items := []struct {
		arg      string
		expected interface{}
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"10.5", 10.5},
		{"true", true},
		{"false", false},
		{"NEW", "NEW"},
	}

	for _, item := range items {
		assert.Equal(t, item.expected, parseParam(item.arg), item.arg)
	}
}
