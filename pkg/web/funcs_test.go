package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFuncs(t *testing.T) {
	funcs := templateFuncs()

	// Test ToLower
	assert.Equal(
		t,
		"test",
		funcs["ToLower"].(func(string) string)("TEST"),
		"ToLower function failed",
	)

	// Test Add
	assert.Equal(
		t,
		int64(15),
		funcs["Add"].(func(int64, int64) int64)(10, 5),
		"Add function failed",
	)

	assert.Equal(t, "1,234", funcs["Comma"].(func(int64) string)(1234))

	// sprig helpers are available alongside ours
	assert.Contains(t, funcs, "trunc")
	assert.Contains(t, funcs, "date")

	// only helpers used by the templates are registered
	assert.NotContains(t, funcs, "Sub")
	assert.NotContains(t, funcs, "Ordinal")
}

func TestRatingHelpers(t *testing.T) {
	tests := []struct {
		rating int
		class  string
		signed string
	}{
		{rating: 0, class: "rating-neutral", signed: "0"},
		{rating: 3, class: "rating-positive", signed: "+3"},
		{rating: -2, class: "rating-negative", signed: "-2"},
		{rating: 12500, class: "rating-positive", signed: "+12,500"},
		{rating: -1000, class: "rating-negative", signed: "-1,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.class, ratingClass(tt.rating))
		assert.Equal(t, tt.signed, signed(tt.rating))
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "addfact", slugify("Add Fact"))
	assert.Equal(t, "notfound", slugify("Not Found 404"))
}
