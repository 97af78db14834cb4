package bean

import (
	"context"
	"fmt"
	"reflect"

	"github.com/datastax/ormquery/types"
)

// Loader materializes a many property of a parent bean on demand
type Loader interface {
	LoadMany(ctx context.Context, parent interface{}, property string) error
}

// Collection holds the beans of a find many result or of a many property, in
// read order. Set and map collections hold one bean per id.
type Collection struct {
	shape types.CollectionShape
	desc  *Descriptor
	beans []interface{}
	byID  map[string]int

	parent   interface{}
	property string
	loader   Loader
}

func (c *Collection) Shape() types.CollectionShape { return c.shape }
func (c *Collection) Len() int                     { return len(c.beans) }

// Beans returns the beans in read order
func (c *Collection) Beans() []interface{} {
	beans := make([]interface{}, len(c.beans))
	copy(beans, c.beans)
	return beans
}

// Get returns the bean with id from a set or map collection
func (c *Collection) Get(id interface{}) (interface{}, bool) {
	if c.byID == nil {
		return nil, false
	}
	i, ok := c.byID[idKey(id)]
	if !ok {
		return nil, false
	}
	return c.beans[i], true
}

// idKey formats an id as its bind value so that ids such as []byte can key a set or map
func idKey(id interface{}) string {
	return types.FormatBindValue(id)
}

// IsReference reports whether the collection is an unloaded placeholder for a many property
func (c *Collection) IsReference() bool {
	return c.loader != nil
}

// Load asks the loader to populate the many property the reference stands for
func (c *Collection) Load(ctx context.Context) error {
	if c.loader == nil {
		return nil
	}
	if err := c.loader.LoadMany(ctx, c.parent, c.property); err != nil {
		return err
	}
	c.loader = nil
	return nil
}

// Into copies the beans into dest, a pointer to a slice of bean pointers or to a
// map from id to bean pointer
func (c *Collection) Into(dest interface{}) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("expected a pointer to a slice or map but got %T", dest)
	}
	return c.into(v.Elem())
}

func (c *Collection) into(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Slice:
		s := reflect.MakeSlice(v.Type(), 0, len(c.beans))
		for _, b := range c.beans {
			bv := reflect.ValueOf(b)
			if !bv.Type().AssignableTo(v.Type().Elem()) {
				return fmt.Errorf("cannot add %s to %s", bv.Type(), v.Type())
			}
			s = reflect.Append(s, bv)
		}
		v.Set(s)
	case reflect.Map:
		m := reflect.MakeMapWithSize(v.Type(), len(c.beans))
		keyType := v.Type().Key()
		for _, b := range c.beans {
			id, err := c.desc.IDValue(b)
			if err != nil {
				return err
			}
			key := reflect.ValueOf(id)
			if !key.Type().ConvertibleTo(keyType) {
				return fmt.Errorf("cannot use id of type %s as %s key", key.Type(), keyType)
			}
			m.SetMapIndex(key.Convert(keyType), reflect.ValueOf(b))
		}
		v.Set(m)
	default:
		return fmt.Errorf("expected a slice or map but got %s", v.Type())
	}
	return nil
}

// CollectionHelp creates and populates collections of one shape
type CollectionHelp interface {
	CreateEmpty() *Collection
	// CreateReference returns an unloaded collection for a many property of parent
	CreateReference(parent interface{}, property string, loader Loader) *Collection
	Add(c *Collection, bean interface{}) error
}

// NewCollectionHelp returns the help for shape over beans described by desc
func NewCollectionHelp(shape types.CollectionShape, desc *Descriptor) CollectionHelp {
	switch shape {
	case types.SetShape:
		return setHelp{desc: desc}
	case types.MapShape:
		return mapHelp{desc: desc}
	default:
		return listHelp{desc: desc}
	}
}

type listHelp struct {
	desc *Descriptor
}

func (h listHelp) CreateEmpty() *Collection {
	return &Collection{shape: types.ListShape, desc: h.desc}
}

func (h listHelp) CreateReference(parent interface{}, property string, loader Loader) *Collection {
	c := h.CreateEmpty()
	c.parent, c.property, c.loader = parent, property, loader
	return c
}

func (h listHelp) Add(c *Collection, bean interface{}) error {
	c.beans = append(c.beans, bean)
	return nil
}

type setHelp struct {
	desc *Descriptor
}

func (h setHelp) CreateEmpty() *Collection {
	return &Collection{shape: types.SetShape, desc: h.desc, byID: make(map[string]int)}
}

func (h setHelp) CreateReference(parent interface{}, property string, loader Loader) *Collection {
	c := h.CreateEmpty()
	c.parent, c.property, c.loader = parent, property, loader
	return c
}

// Add ignores a bean whose id is already in the set
func (h setHelp) Add(c *Collection, bean interface{}) error {
	id, err := h.desc.IDValue(bean)
	if err != nil {
		return err
	}
	key := idKey(id)
	if _, ok := c.byID[key]; ok {
		return nil
	}
	c.byID[key] = len(c.beans)
	c.beans = append(c.beans, bean)
	return nil
}

type mapHelp struct {
	desc *Descriptor
}

func (h mapHelp) CreateEmpty() *Collection {
	return &Collection{shape: types.MapShape, desc: h.desc, byID: make(map[string]int)}
}

func (h mapHelp) CreateReference(parent interface{}, property string, loader Loader) *Collection {
	c := h.CreateEmpty()
	c.parent, c.property, c.loader = parent, property, loader
	return c
}

// Add replaces a bean with the same id in place
func (h mapHelp) Add(c *Collection, bean interface{}) error {
	id, err := h.desc.IDValue(bean)
	if err != nil {
		return err
	}
	key := idKey(id)
	if i, ok := c.byID[key]; ok {
		c.beans[i] = bean
		return nil
	}
	c.byID[key] = len(c.beans)
	c.beans = append(c.beans, bean)
	return nil
}

// Set writes the beans of c into the many property of parent
func (m *Many) Set(parent interface{}, c *Collection) error {
	v := reflect.ValueOf(parent)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("expected a bean pointer but got %T", parent)
	}
	return c.into(v.Elem().FieldByIndex(m.index))
}

// IsLoaded reports whether the many property of parent holds a value, even an empty one
func (m *Many) IsLoaded(parent interface{}) bool {
	v := reflect.ValueOf(parent)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return false
	}
	return !v.Elem().FieldByIndex(m.index).IsNil()
}
