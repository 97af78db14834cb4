// bean package describes entity types and materializes rows into them
package bean

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/types"
)

const (
	tagName   = "orm"
	baseAlias = "t0"
)

var modelType = reflect.TypeOf(types.Model{})

// Property is a scalar property mapped to a column
type Property struct {
	Name   string
	Field  string
	Column string
	Type   reflect.Type
	ID     bool
	index  []int
}

// Many is a collection property loaded from another table
type Many struct {
	Name       string
	Field      string
	ForeignKey string
	Shape      types.CollectionShape
	Target     *Descriptor
	index      []int
}

// Descriptor describes an entity struct: its table, identity, properties and many
// properties. Descriptors are immutable once built and safe for concurrent use.
type Descriptor struct {
	typ        reflect.Type
	name       string
	table      string
	alias      string
	id         *Property
	properties []*Property
	manys      []*Many
	byName     map[string]*Property
	manyByName map[string]*Many
}

func (d *Descriptor) Name() string            { return d.name }
func (d *Descriptor) Type() reflect.Type      { return d.typ }
func (d *Descriptor) Table() string           { return d.table }
func (d *Descriptor) Alias() string           { return d.alias }
func (d *Descriptor) ID() *Property           { return d.id }
func (d *Descriptor) Properties() []*Property { return d.properties }
func (d *Descriptor) Manys() []*Many          { return d.manys }
func (d *Descriptor) IdColumn() string        { return d.qualify(d.id.Column) }

func (d *Descriptor) Property(name string) (*Property, bool) {
	p, ok := d.byName[name]
	return p, ok
}

func (d *Descriptor) Many(name string) (*Many, bool) {
	m, ok := d.manyByName[name]
	return m, ok
}

// WithAlias returns a copy of the descriptor qualifying its columns with alias.
// An empty alias gives bare column names.
func (d *Descriptor) WithAlias(alias string) *Descriptor {
	c := *d
	c.alias = alias
	return &c
}

// Column returns the alias qualified column of a property
func (d *Descriptor) Column(property string) (string, error) {
	p, ok := d.byName[property]
	if !ok {
		return "", fmt.Errorf("unknown property %s on %s", property, d.name)
	}
	return d.qualify(p.Column), nil
}

func (d *Descriptor) qualify(column string) string {
	if d.alias == "" {
		return column
	}
	return d.alias + "." + column
}

func (d *Descriptor) ManyJoin(property string) (string, string, error) {
	m, ok := d.manyByName[property]
	if !ok {
		return "", "", fmt.Errorf("%s is not a many property of %s", property, d.name)
	}
	return m.Target.table, m.ForeignKey, nil
}

// AppendOrderByID makes an order by unique by adding the identity property
// unless it is already one of the ordered properties
func (d *Descriptor) AppendOrderByID(orderBy string) string {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return d.id.Name
	}
	for _, part := range strings.Split(orderBy, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 && fields[0] == d.id.Name {
			return orderBy
		}
	}
	return orderBy + ", " + d.id.Name
}

// New returns a pointer to a new zero bean, nil for a descriptor defined by a schema
func (d *Descriptor) New() interface{} {
	if d.typ == nil {
		return nil
	}
	return reflect.New(d.typ).Interface()
}

func (d *Descriptor) value(bean interface{}) (reflect.Value, error) {
	if d.typ == nil {
		return reflect.Value{}, fmt.Errorf("%s is defined by a schema and has no bean type", d.name)
	}
	v := reflect.ValueOf(bean)
	if !v.IsValid() {
		return v, fmt.Errorf("nil %s bean", d.name)
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return v, fmt.Errorf("nil %s bean", d.name)
		}
		v = v.Elem()
	}
	if v.Type() != d.typ {
		return v, fmt.Errorf("expected a %s bean but got %s", d.name, v.Type())
	}
	return v, nil
}

// IDValue returns the identity value of a bean
func (d *Descriptor) IDValue(bean interface{}) (interface{}, error) {
	v, err := d.value(bean)
	if err != nil {
		return nil, err
	}
	return v.FieldByIndex(d.id.index).Interface(), nil
}

// ExampleValues returns the non zero scalar properties of an example bean
func (d *Descriptor) ExampleValues(bean types.EntityBean) ([]types.PropertyValue, error) {
	v, err := d.value(bean)
	if err != nil {
		return nil, err
	}
	var values []types.PropertyValue
	for _, p := range d.properties {
		f := v.FieldByIndex(p.index)
		if f.IsZero() {
			continue
		}
		values = append(values, types.PropertyValue{Name: p.Name, Value: f.Interface()})
	}
	return values, nil
}

// Registry builds descriptors once per type
type Registry struct {
	naming      config.NamingConvention
	descriptors map[reflect.Type]*Descriptor
	defined     map[string]*Descriptor
}

func NewRegistry(naming config.NamingConvention) *Registry {
	return &Registry{
		naming:      naming,
		descriptors: make(map[reflect.Type]*Descriptor),
		defined:     make(map[string]*Descriptor),
	}
}

// Register adds the entity types of the given prototypes, e.g. Register(&Customer{}, &Order{}).
// Register is not safe to call concurrently with Descriptor.
func (r *Registry) Register(prototypes ...interface{}) error {
	for _, proto := range prototypes {
		if _, err := r.descriptorOf(reflect.TypeOf(proto)); err != nil {
			return err
		}
	}
	return nil
}

// Descriptor returns the descriptor of a registered entity by its query name, e.g. "customer"
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	if d, ok := r.defined[name]; ok {
		return d, true
	}
	for _, d := range r.descriptors {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

// DescriptorOf returns the descriptor of the type of bean, which must be registered
func (r *Registry) DescriptorOf(bean interface{}) (*Descriptor, bool) {
	t := reflect.TypeOf(bean)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	d, ok := r.descriptors[t]
	return d, ok
}

func (r *Registry) Descriptors() []*Descriptor {
	list := make([]*Descriptor, 0, len(r.descriptors)+len(r.defined))
	for _, d := range r.descriptors {
		list = append(list, d)
	}
	for _, d := range r.defined {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	return list
}

func (r *Registry) descriptorOf(t reflect.Type) (*Descriptor, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected an entity struct but got %v", t)
	}
	if d, ok := r.descriptors[t]; ok {
		return d, nil
	}
	if !reflect.PtrTo(t).Implements(reflect.TypeOf((*types.EntityBean)(nil)).Elem()) {
		return nil, fmt.Errorf("%s is not an entity, it must embed types.Model", t)
	}

	d := &Descriptor{
		typ:        t,
		name:       r.naming.ToProperty(t.Name()),
		table:      r.naming.ToTable(t.Name()),
		alias:      baseAlias,
		byName:     make(map[string]*Property),
		manyByName: make(map[string]*Many),
	}
	// registered before reading fields so that cyclic many properties resolve
	r.descriptors[t] = d

	if err := r.readFields(d); err != nil {
		delete(r.descriptors, t)
		return nil, err
	}
	return d, nil
}

type fieldTag struct {
	skip   bool
	id     bool
	many   bool
	set    bool
	column string
	fk     string
	table  string
}

func parseTag(tag string) fieldTag {
	var ft fieldTag
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "-" || part == "transient":
			ft.skip = true
		case part == "id":
			ft.id = true
		case part == "many":
			ft.many = true
		case part == "set":
			ft.set = true
		case strings.HasPrefix(part, "column="):
			ft.column = strings.TrimPrefix(part, "column=")
		case strings.HasPrefix(part, "fk="):
			ft.fk = strings.TrimPrefix(part, "fk=")
		case strings.HasPrefix(part, "table="):
			ft.table = strings.TrimPrefix(part, "table=")
		}
	}
	return ft
}

func (r *Registry) readFields(d *Descriptor) error {
	t := d.typ
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := parseTag(field.Tag.Get(tagName))

		if field.Anonymous && field.Type == modelType {
			if tag.table != "" {
				d.table = tag.table
			}
			continue
		}
		if tag.skip || field.PkgPath != "" {
			continue
		}

		name := r.naming.ToProperty(field.Name)
		if tag.many {
			m, err := r.readMany(d, field, name, tag)
			if err != nil {
				return err
			}
			d.manys = append(d.manys, m)
			d.manyByName[name] = m
			continue
		}

		column := tag.column
		if column == "" {
			column = r.naming.ToColumn(name)
		}
		p := &Property{Name: name, Field: field.Name, Column: column, Type: field.Type, ID: tag.id, index: field.Index}
		if tag.id {
			if d.id != nil {
				return fmt.Errorf("%s has more than one id property", t)
			}
			d.id = p
		}
		d.properties = append(d.properties, p)
		d.byName[name] = p
	}

	if d.id == nil {
		if p, ok := d.byName["id"]; ok {
			p.ID = true
			d.id = p
		} else {
			return fmt.Errorf("%s has no id property", t)
		}
	}
	return nil
}

func (r *Registry) readMany(d *Descriptor, field reflect.StructField, name string, tag fieldTag) (*Many, error) {
	m := &Many{Name: name, Field: field.Name, ForeignKey: tag.fk, index: field.Index}

	var elem reflect.Type
	switch field.Type.Kind() {
	case reflect.Slice:
		elem = field.Type.Elem()
		m.Shape = types.ListShape
		if tag.set {
			m.Shape = types.SetShape
		}
	case reflect.Map:
		elem = field.Type.Elem()
		m.Shape = types.MapShape
	default:
		return nil, fmt.Errorf("many property %s of %s must be a slice or a map", name, d.typ)
	}
	if elem.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("many property %s of %s must hold pointers to entities", name, d.typ)
	}

	target, err := r.descriptorOf(elem)
	if err != nil {
		return nil, err
	}
	m.Target = target
	if m.ForeignKey == "" {
		m.ForeignKey = d.table + "_id"
	}
	return m, nil
}
