package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/finance-tracker/internal/model"
)

func TestNamesSimilar(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Rent", "rent", true},
		{"  Netflix ", "netflix", true},
		{"Internet", "Internet Bill", true},
		{"Internet Bill", "Internet", true},
		{"Mummy Return", "Mummy Return 7/36", true},
		{"Rent", "Rental", false},
		{"Rent", "Rent - Apartment 3B", false},
		{"Electricity", "City electric", true}, // shares "elect"
		{"Gym", "Gas", false},
		{"Phone", "Phone", true},
		{"Phones", "Headphones", true},
		{"Spotify", "Netflix", false},
		{"", "", true},
		{"Café au lait", "CAFÉ AU", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NamesSimilar(c.a, c.b), "%q vs %q", c.a, c.b)
		assert.Equal(t, c.want, NamesSimilar(c.b, c.a), "%q vs %q (swapped)", c.b, c.a)
	}
}

func TestPlanFill(t *testing.T) {
	items := []model.TemplateItem{
		{Name: "Internet", Amount: 50},
		{Name: "Rent", Amount: 20000},
		{Name: "Netflix", Amount: 500},
		{Name: "Netflix Premium", Amount: 700},
	}
	existing := []*model.Entry{{Name: "Internet Bill"}, {Name: "Groceries"}}

	insert, skipped := PlanFill(items, existing)

	assert.Equal(t, []model.TemplateItem{items[1], items[2], items[3]}, insert)
	assert.Equal(t, []SkippedItem{{Name: "Internet", MatchedName: "Internet Bill"}}, skipped)
	assert.Equal(t, "Internet (similar to: Internet Bill)", skipped[0].String())
}

func TestPlanFill_EmptyMonthInsertsAll(t *testing.T) {
	items := []model.TemplateItem{{Name: "Rent"}, {Name: "Netflix"}}
	insert, skipped := PlanFill(items, nil)
	assert.Equal(t, items, insert)
	assert.Empty(t, skipped)
}
