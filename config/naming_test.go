package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNaming(t *testing.T) {
	nc := NewDefaultNaming()
	assert.Equal(t, "id", nc.ToProperty("ID"))
	assert.Equal(t, "name", nc.ToProperty("Name"))
	assert.Equal(t, "billingAddress", nc.ToProperty("BillingAddress"))

	assert.Equal(t, "billing_address", nc.ToColumn("billingAddress"))
	assert.Equal(t, "status", nc.ToColumn("status"))

	assert.Equal(t, "order_line", nc.ToTable("OrderLine"))
	assert.Equal(t, "customer", nc.ToTable("Customer"))
}
