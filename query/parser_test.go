package query

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExample(t *testing.T) {
	d, err := Parse("find customer fetch orders where status = ? order by id limit 20 offset 10")
	require.NoError(t, err)

	assert.Equal(t, "customer", d.Base.Path)
	assert.Equal(t, DefaultProperties, d.Base.Options.Selection)
	fetches := d.Fetches()
	require.Len(t, fetches, 1)
	assert.Equal(t, "orders", fetches[0].Path)
	assert.Equal(t, "status = ?", d.Where)
	assert.Equal(t, "id", d.OrderBy)
	assert.Equal(t, 20, d.MaxRows)
	assert.Equal(t, 10, d.FirstRow)
}

func TestParseClauses(t *testing.T) {
	items := []struct {
		text     string
		base     string
		alias    string
		props    string
		fetches  []string
		where    string
		orderBy  string
		maxRows  int
		firstRow int
	}{
		{"find customer", "customer", "", "", nil, "", "", 0, 0},
		{"find customer as c (id, name)", "customer", "c", "id,name", nil, "", "", 0, 0},
		{"find customer c where name = ?", "customer", "c", "", nil, "name = ?", "", 0, 0},
		{"select (id,name) where id > ?", "", "", "id,name", nil, "id > ?", "", 0, 0},
		{"fetch orders fetch contacts (+lazy(10))", "", "", "", []string{"orders", "contacts"}, "", "", 0, 0},
		{"join orders (status) where lower(name) like ?", "", "", "", []string{"orders"}, "lower(name) like ?", "", 0, 0},
		{"where a = ?   and (b = ? or c = ?)", "", "", "", nil, "a = ? and(b = ? or c = ?)", "", 0, 0},
		{"order by name desc, coalesce(x, y) limit 5", "", "", "", nil, "", "name desc, coalesce(x, y)", 5, 0},
		{"find customer limit 5 offset 2", "customer", "", "", nil, "", "", 5, 2},
		{"where id = ? limit 1", "", "", "", nil, "id = ?", "", 1, 0},
		{"find customer ORDER BY id", "customer", "", "", nil, "", "id", 0, 0},
	}

	for _, item := range items {
		d, err := Parse(item.text)
		require.NoError(t, err, item.text)
		if item.base != "" || item.props != "" {
			require.NotNil(t, d.Base, item.text)
			assert.Equal(t, item.base, d.Base.Path, item.text)
			assert.Equal(t, item.alias, d.Base.Alias, item.text)
			assert.Equal(t, item.props, d.Base.Options.Properties(), item.text)
		} else {
			assert.Nil(t, d.Base, item.text)
		}
		var fetches []string
		for _, f := range d.Fetches() {
			fetches = append(fetches, f.Path)
		}
		assert.Equal(t, item.fetches, fetches, item.text)
		assert.Equal(t, item.where, d.Where, item.text)
		assert.Equal(t, item.orderBy, d.OrderBy, item.text)
		assert.Equal(t, item.maxRows, d.MaxRows, item.text)
		assert.Equal(t, item.firstRow, d.FirstRow, item.text)
	}
}

func TestParseEmpty(t *testing.T) {
	d, err := Parse("")
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
	assert.Empty(t, d.Fetches())
}

func TestParseDeterministic(t *testing.T) {
	text := "find customer (id,name) fetch orders (+query(20)) fetch contacts where name like ? order by name limit 10"
	d1, err := Parse(text)
	require.NoError(t, err)
	d2, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Equal(t, text, d1.String())
}

func TestParseFetchOptions(t *testing.T) {
	d, err := Parse("find customer fetch orders (status,+query(20)) fetch orders.lines (+lazy)")
	require.NoError(t, err)

	orders, ok := d.FetchPath("orders")
	require.True(t, ok)
	assert.Equal(t, BatchSize(20), orders.Options.QueryBatch)
	assert.Equal(t, []string{"status"}, orders.Options.Included())

	lines, ok := d.FetchPath("orders.lines")
	require.True(t, ok)
	assert.Equal(t, BatchSize(0), lines.Options.LazyBatch)
}

func TestParseErrors(t *testing.T) {
	items := []struct {
		text  string
		token string
	}{
		{"customer where id = ?", "customer"},
		{"find customer c extra where", "extra"},
		{"find customer limit ten", "ten"},
		{"where id = ? limit 10 skip 5", "skip"},
		{"find customer limit 10 offset x", "x"},
		{"find customer fetch orders (+query(x))", "x"},
		{"find", ""},
	}

	for _, item := range items {
		_, err := Parse(item.text)
		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr), item.text)
		assert.Equal(t, item.token, syntaxErr.Token, item.text)
	}
}

func TestParseLimitWrapsNumberError(t *testing.T) {
	_, err := Parse("limit abc")
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
	assert.Contains(t, err.Error(), "limit abc")
}

func TestDetailTuneKeepsAttributes(t *testing.T) {
	d, err := Parse("find customer where status = ? order by name limit 20 offset 40")
	require.NoError(t, err)
	tuned, err := Parse("find customer (id,status) fetch orders (id)")
	require.NoError(t, err)

	result := d.Tune(tuned)
	assert.Equal(t, "id,status", result.Base.Options.Properties())
	assert.Len(t, result.Fetches(), 1)
	assert.Equal(t, "status = ?", result.Where)
	assert.Equal(t, "name", result.OrderBy)
	assert.Equal(t, 20, result.MaxRows)
	assert.Equal(t, 40, result.FirstRow)
	assert.Empty(t, d.Fetches())
}
