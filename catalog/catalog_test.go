package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/catalog"
)

func TestClassify_KnownNamesUseTheirEntry(t *testing.T) {
	c := catalog.Default()

	assert.Equal(t, catalog.CategoryMembership, c.Classify("Standard Membership"))
	assert.Equal(t, catalog.CategoryTest, c.Classify("VO2max Test"))
	assert.Equal(t, catalog.CategoryOther, c.Classify("Nutrition Consultation"))
}

func TestClassify_UnknownNamesFallBackToMarkers(t *testing.T) {
	c := catalog.Default()

	// Ad-hoc membership products classify by marker, case-insensitively
	assert.Equal(t, catalog.CategoryMembership, c.Classify("Custom MEMBERSHIP 6 mo"))
	assert.Equal(t, catalog.CategoryMembership, c.Classify("Bedrift medlemskap"))

	// Everything else degrades to other
	assert.Equal(t, catalog.CategoryOther, c.Classify("Mystery Product"))
}

func TestTimeBudget_SeniorVariant(t *testing.T) {
	c := catalog.Default()

	assert.True(t, c.TimeBudget("Standard Membership", false).Equal(billing.Hours(2.0)))
	assert.True(t, c.TimeBudget("Standard Membership", true).Equal(billing.Hours(1.5)))

	// No senior variant registered: senior flag falls back to the base budget
	assert.True(t, c.TimeBudget("VO2max Test", true).Equal(billing.Hours(1.5)))
}

func TestTimeBudget_UnknownServiceBudgetsZero(t *testing.T) {
	c := catalog.Default()

	budget := c.TimeBudget("Mystery Product", false)
	assert.True(t, budget.IsZero(), "unknown service must budget zero hours, got %v", budget.Value)
}

func TestBasePrice(t *testing.T) {
	c := catalog.Default()

	assert.True(t, c.BasePrice("Standard Membership").Equal(billing.Kroner(1990)))
	assert.True(t, c.BasePrice("Mystery Product").IsZero())
}

func TestRegister_ReplacesEntry(t *testing.T) {
	c := catalog.New()
	c.Register(catalog.Entry{
		Name: "Trial Membership", Category: catalog.CategoryMembership,
		TimeBudget: billing.Hours(0.5), BasePrice: billing.Kroner(490),
	})
	c.Register(catalog.Entry{
		Name: "Trial Membership", Category: catalog.CategoryMembership,
		TimeBudget: billing.Hours(0.75), BasePrice: billing.Kroner(590),
	})

	e, ok := c.Lookup("Trial Membership")
	assert.True(t, ok)
	assert.True(t, e.TimeBudget.Equal(billing.Hours(0.75)))
	assert.Len(t, c.Names(), 1)
}
