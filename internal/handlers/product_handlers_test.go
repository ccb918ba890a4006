package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductListParamsNormalize(t *testing.T) {
	p := ProductListParams{}
	require.NoError(t, p.normalize())
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPerPage, p.PerPage)

	p = ProductListParams{Page: -3, PerPage: 1000}
	require.NoError(t, p.normalize())
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, maxPerPage, p.PerPage)

	p = ProductListParams{Sort: "price", Order: "desc", Page: 2, PerPage: 30}
	require.NoError(t, p.normalize())
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 30, p.PerPage)

	assert.Error(t, (&ProductListParams{Sort: "stock"}).normalize())
	assert.Error(t, (&ProductListParams{Sort: "name; DROP TABLE products"}).normalize())
	assert.Error(t, (&ProductListParams{Order: "sideways"}).normalize())
}

func TestProductListQueryUnfiltered(t *testing.T) {
	p := ProductListParams{Page: 1, PerPage: 15}
	listSQL, countSQL, listArgs, countArgs := productListQuery(p)

	assert.NotContains(t, listSQL, "WHERE")
	assert.Contains(t, listSQL, "ORDER BY name asc")
	assert.Contains(t, listSQL, "LIMIT ? OFFSET ?")
	assert.Equal(t, []any{15, 0}, listArgs)
	assert.Equal(t, "SELECT COUNT(*) FROM products", countSQL)
	assert.Empty(t, countArgs)
}

func TestProductListQueryFilters(t *testing.T) {
	p := ProductListParams{CategoryID: 4, Search: "aspirin", Sort: "price", Order: "desc", Page: 3, PerPage: 10}
	listSQL, countSQL, listArgs, countArgs := productListQuery(p)

	assert.Contains(t, listSQL, "cp.category_id = ?")
	assert.Contains(t, listSQL, "name LIKE ? OR description LIKE ?")
	assert.Contains(t, listSQL, "ORDER BY price desc")
	assert.Equal(t, []any{int64(4), "%aspirin%", "%aspirin%", 10, 20}, listArgs)

	assert.Contains(t, countSQL, "cp.category_id = ?")
	assert.Equal(t, []any{int64(4), "%aspirin%", "%aspirin%"}, countArgs)
}

func TestProductListCacheKeyDistinguishesFilters(t *testing.T) {
	base := ProductListParams{Page: 1, PerPage: 15}
	filtered := ProductListParams{CategoryID: 4, Page: 1, PerPage: 15}
	searched := ProductListParams{Search: "aspirin", Page: 1, PerPage: 15}
	paged := ProductListParams{Page: 2, PerPage: 15}

	keys := map[string]bool{
		base.cacheKey():     true,
		filtered.cacheKey(): true,
		searched.cacheKey(): true,
		paged.cacheKey():    true,
	}
	assert.Len(t, keys, 4)
}
