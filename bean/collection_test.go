package bean

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/datastax/ormquery/internal/testutil"
	"github.com/datastax/ormquery/types"
)

type loaderMock struct {
	mock.Mock
}

func (o *loaderMock) LoadMany(ctx context.Context, parent interface{}, property string) error {
	args := o.Called(ctx, parent, property)
	return args.Error(0)
}

func TestCollectionShapes(t *testing.T) {
	d, _ := newRegistry(t).Descriptor("customer")
	a := &testutil.Customer{ID: 1, Name: "a"}
	b := &testutil.Customer{ID: 2, Name: "b"}
	a2 := &testutil.Customer{ID: 1, Name: "a2"}

	items := []struct {
		shape types.CollectionShape
		names []string
	}{
		{types.ListShape, []string{"a", "b", "a2"}},
		{types.SetShape, []string{"a", "b"}},
		{types.MapShape, []string{"a2", "b"}},
	}

	for _, item := range items {
		help := NewCollectionHelp(item.shape, d)
		c := help.CreateEmpty()
		assert.Equal(t, item.shape, c.Shape())
		assert.False(t, c.IsReference())
		for _, bean := range []interface{}{a, b, a2} {
			require.NoError(t, help.Add(c, bean))
		}

		var names []string
		for _, bean := range c.Beans() {
			names = append(names, bean.(*testutil.Customer).Name)
		}
		assert.Equal(t, item.names, names, item.shape.String())
	}
}

type token struct {
	types.Model `orm:"table=token"`
	Key         []byte `orm:"id"`
	Name        string
}

func TestCollectionBinaryIds(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Register(&token{}))
	d, ok := r.Descriptor("token")
	require.True(t, ok)

	a := &token{Key: []byte{1, 2}, Name: "a"}
	b := &token{Key: []byte{3}, Name: "b"}
	a2 := &token{Key: []byte{1, 2}, Name: "a2"}

	items := []struct {
		shape types.CollectionShape
		first string
	}{
		{types.SetShape, "a"},
		{types.MapShape, "a2"},
	}

	for _, item := range items {
		help := NewCollectionHelp(item.shape, d)
		c := help.CreateEmpty()
		for _, bean := range []interface{}{a, b, a2} {
			require.NotPanics(t, func() { require.NoError(t, help.Add(c, bean)) })
		}
		assert.Equal(t, 2, c.Len(), item.shape.String())

		found, ok := c.Get([]byte{1, 2})
		require.True(t, ok, item.shape.String())
		assert.Equal(t, item.first, found.(*token).Name)
		_, ok = c.Get([]byte{9})
		assert.False(t, ok)
	}
}

func TestCollectionInto(t *testing.T) {
	d, _ := newRegistry(t).Descriptor("customer")
	help := NewCollectionHelp(types.MapShape, d)
	c := help.CreateEmpty()
	require.NoError(t, help.Add(c, &testutil.Customer{ID: 1, Name: "a"}))
	require.NoError(t, help.Add(c, &testutil.Customer{ID: 2, Name: "b"}))

	var list []*testutil.Customer
	require.NoError(t, c.Into(&list))
	assert.Len(t, list, 2)

	var byID map[int64]*testutil.Customer
	require.NoError(t, c.Into(&byID))
	assert.Equal(t, "b", byID[2].Name)

	found, ok := c.Get(int64(1))
	assert.True(t, ok)
	assert.Equal(t, "a", found.(*testutil.Customer).Name)

	var wrong []*testutil.Order
	assert.Error(t, c.Into(&wrong))
	assert.Error(t, c.Into(list))
}

func TestManySetAndReference(t *testing.T) {
	r := newRegistry(t)
	d, _ := r.Descriptor("customer")
	orders, _ := d.Many("orders")
	parent := &testutil.Customer{ID: 1}

	assert.False(t, orders.IsLoaded(parent))
	empty := NewCollectionHelp(orders.Shape, orders.Target).CreateEmpty()
	require.NoError(t, orders.Set(parent, empty))
	assert.True(t, orders.IsLoaded(parent))
	assert.Empty(t, parent.Orders)

	loader := &loaderMock{}
	loader.On("LoadMany", mock.Anything, parent, "orders").Return(nil).Once()
	ref := NewCollectionHelp(orders.Shape, orders.Target).CreateReference(parent, "orders", loader)
	assert.True(t, ref.IsReference())
	require.NoError(t, ref.Load(context.Background()))
	assert.False(t, ref.IsReference())
	require.NoError(t, ref.Load(context.Background()))
	loader.AssertExpectations(t)
}
