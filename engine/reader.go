package engine

import (
	"strings"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/types"
)

type column struct {
	index    int
	property string
}

// layout locates the base properties, the joined properties and the pseudo
// columns in a row
type layout struct {
	id     int
	base   []column
	joinID int
	join   []column
	start  int
	end    int
	parent int
}

func newLayout(c *compiled, properties []string, columns []string) *layout {
	l := &layout{id: -1, joinID: -1, start: -1, end: -1, parent: -1}
	if c.rawSQL {
		properties = rawProperties(c.desc, columns)
	}

	idName := c.desc.ID().Name
	var joinPrefix, joinIDName string
	if c.join != nil {
		joinPrefix = c.join.many.Name + "."
		joinIDName = c.join.desc.ID().Name
	}
	for i, prop := range properties {
		switch {
		case prop == "":
		case prop == propStart:
			l.start = i
		case prop == propEnd:
			l.end = i
		case prop == propParent:
			l.parent = i
		case joinPrefix != "" && strings.HasPrefix(prop, joinPrefix):
			name := strings.TrimPrefix(prop, joinPrefix)
			if name == joinIDName {
				l.joinID = i
			}
			l.join = append(l.join, column{index: i, property: name})
		default:
			if prop == idName {
				l.id = i
			}
			l.base = append(l.base, column{index: i, property: prop})
		}
	}
	return l
}

// rawProperties maps the columns of a raw sql result to properties by column or property name
func rawProperties(desc *bean.Descriptor, columns []string) []string {
	properties := make([]string, len(columns))
	for i, col := range columns {
		for _, p := range desc.Properties() {
			if strings.EqualFold(col, p.Column) || strings.EqualFold(col, p.Name) {
				properties[i] = p.Name
				break
			}
		}
	}
	return properties
}

// loaded is a bean read from one or more rows
type loaded struct {
	bean   interface{}
	id     interface{}
	start  interface{}
	end    interface{}
	parent interface{}
}

func idKey(id interface{}) string {
	return types.FormatBindValue(id)
}

func (c *CQuery) row() ([]interface{}, bool, error) {
	if c.pending != nil {
		row := c.pending
		c.pending = nil
		return row, true, nil
	}
	if !c.cursor.Next() {
		return nil, false, c.cursor.Err()
	}
	values, err := c.cursor.Values()
	if err != nil {
		return nil, false, err
	}
	c.rowCount++
	return values, true, nil
}

// readNext reads the next bean and, when a many path is joined, the children
// on the rows that follow with the same id. It returns nil when the rows are exhausted.
func (c *CQuery) readNext() (*loaded, error) {
	if c.layout == nil {
		var properties []string
		if c.plan != nil {
			properties = c.plan.Properties
		}
		c.layout = newLayout(c.compiled, properties, c.cursor.Columns())
	}
	l := c.layout
	j := c.compiled.join

	row, ok, err := c.row()
	if !ok || err != nil {
		return nil, err
	}
	current, err := c.load(c.compiled.desc, l.base, row)
	if err != nil {
		return nil, err
	}
	if l.id >= 0 {
		current.id = row[l.id]
	}
	if l.start >= 0 {
		current.start = row[l.start]
	}
	if l.end >= 0 {
		current.end = row[l.end]
	}
	if l.parent >= 0 {
		current.parent = row[l.parent]
	}

	if j != nil && l.id >= 0 {
		help := bean.NewCollectionHelp(j.many.Shape, j.many.Target)
		children := help.CreateEmpty()
		for {
			if err := c.addChild(help, children, row); err != nil {
				return nil, err
			}
			row, ok, err = c.row()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			if idKey(row[l.id]) != idKey(current.id) {
				c.pending = row
				break
			}
		}
		if err := j.many.Set(current.bean, children); err != nil {
			return nil, err
		}
	}

	c.beanCount++
	if current.id != nil {
		c.ids = append(c.ids, current.id)
	}
	return current, nil
}

func (c *CQuery) addChild(help bean.CollectionHelp, children *bean.Collection, row []interface{}) error {
	l := c.layout
	if l.joinID < 0 || row[l.joinID] == nil {
		return nil
	}
	child, err := c.load(c.compiled.join.desc, l.join, row)
	if err != nil {
		return err
	}
	return help.Add(children, child.bean)
}

func (c *CQuery) load(desc *bean.Descriptor, columns []column, row []interface{}) (*loaded, error) {
	values := make(map[string]interface{}, len(columns))
	for _, col := range columns {
		values[col.property] = row[col.index]
	}
	b := desc.New()
	if err := desc.Load(b, values); err != nil {
		return nil, err
	}
	return &loaded{bean: b}, nil
}
