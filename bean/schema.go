package bean

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/datastax/ormquery/types"
)

// Schema declares entities without Go types, e.g.
//
//	entities:
//	  - name: customer
//	    properties: [{name: name}, {name: status}]
//	    manys: [{name: orders, target: order, fk: customer_id}]
//	  - name: order
//	    table: orders
//
// Descriptors defined from a schema compile queries but do not load rows.
type Schema struct {
	Entities []EntityDef `yaml:"entities"`
}

type EntityDef struct {
	Name       string        `yaml:"name"`
	Table      string        `yaml:"table"`
	ID         string        `yaml:"id"`
	Properties []PropertyDef `yaml:"properties"`
	Manys      []ManyDef     `yaml:"manys"`
}

type PropertyDef struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
}

type ManyDef struct {
	Name       string `yaml:"name"`
	Target     string `yaml:"target"`
	ForeignKey string `yaml:"fk"`
	// Shape is list, set or map
	Shape string `yaml:"shape"`
}

func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &s, nil
}

// Define adds the entities of s. Many targets may name any entity of s or a
// registered entity.
func (r *Registry) Define(s *Schema) error {
	defined := make([]*Descriptor, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity %d of the schema has no name", i)
		}
		if _, ok := r.Descriptor(e.Name); ok {
			return fmt.Errorf("entity %s is already registered", e.Name)
		}
		d, err := r.define(e)
		if err != nil {
			return err
		}
		defined[i] = d
		r.defined[e.Name] = d
	}

	for i, e := range s.Entities {
		d := defined[i]
		for _, md := range e.Manys {
			target, ok := r.Descriptor(md.Target)
			if !ok {
				return fmt.Errorf("many property %s of %s has unknown target %s", md.Name, e.Name, md.Target)
			}
			m := &Many{Name: md.Name, ForeignKey: md.ForeignKey, Target: target}
			switch md.Shape {
			case "", "list":
				m.Shape = types.ListShape
			case "set":
				m.Shape = types.SetShape
			case "map":
				m.Shape = types.MapShape
			default:
				return fmt.Errorf("many property %s of %s has invalid shape %s", md.Name, e.Name, md.Shape)
			}
			if m.ForeignKey == "" {
				m.ForeignKey = d.table + "_id"
			}
			d.manys = append(d.manys, m)
			d.manyByName[m.Name] = m
		}
	}
	return nil
}

func (r *Registry) define(e EntityDef) (*Descriptor, error) {
	d := &Descriptor{
		name:       e.Name,
		table:      e.Table,
		alias:      baseAlias,
		byName:     make(map[string]*Property),
		manyByName: make(map[string]*Many),
	}
	if d.table == "" {
		d.table = r.naming.ToTable(e.Name)
	}

	idName := e.ID
	if idName == "" {
		idName = "id"
	}
	add := func(name, column string) *Property {
		if column == "" {
			column = r.naming.ToColumn(name)
		}
		p := &Property{Name: name, Field: name, Column: column}
		d.properties = append(d.properties, p)
		d.byName[name] = p
		return p
	}

	for _, pd := range e.Properties {
		if pd.Name == "" {
			return nil, fmt.Errorf("entity %s has a property without name", e.Name)
		}
		if _, ok := d.byName[pd.Name]; ok {
			return nil, fmt.Errorf("entity %s declares property %s twice", e.Name, pd.Name)
		}
		add(pd.Name, pd.Column)
	}
	id, ok := d.byName[idName]
	if !ok {
		id = add(idName, "")
		// the id property reads first
		copy(d.properties[1:], d.properties[:len(d.properties)-1])
		d.properties[0] = id
	}
	id.ID = true
	d.id = id
	return d, nil
}
