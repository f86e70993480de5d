package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	shop := Graph()

	require.Len(t, shop.Customers, 2)
	assert.Same(t, shop.Customers[0], shop.Featured)

	alice := shop.Customers[0]
	require.Len(t, alice.Orders, 1)
	assert.Same(t, alice, alice.Orders[0].Customer)
	assert.InDelta(t, 19.25, alice.Orders[0].GetTotal(), 0.001)
	assert.Equal(t, "import", alice.CreatedBy())
	assert.True(t, alice.IsVip())
	assert.Equal(t, "alice@example.com", alice.GetContact())
}

func TestOrderAll(t *testing.T) {
	o := Graph().Customers[0].Orders[0]

	var skus []string
	for sku := range o.All() {
		skus = append(skus, sku)
	}

	assert.Equal(t, []string{"mug", "tea"}, skus)
}

func TestOrderValidate(t *testing.T) {
	shop := Graph()

	ok, err := shop.Customers[0].Orders[0].Validate()
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = shop.Customers[1].Orders[0].Validate()
	assert.False(t, ok)
	assert.EqualError(t, err, "order has no lines")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "draft", StatusDraft.String())
	assert.Equal(t, "shipped", StatusShipped.String())
	assert.Equal(t, "cancelled", StatusCancelled.String())
}

func TestPage(t *testing.T) {
	page := Page("a <b>", "<p>one</p>", "<p>two</p>")

	assert.Contains(t, page, "<title>a &lt;b&gt;</title>")
	assert.Contains(t, page, "<p>one</p>\n<p>two</p>\n</body>")
}
