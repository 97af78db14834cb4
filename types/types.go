// types package contains the public API types
// shared by the query parser, the expression renderer and the engine
package types

import "net/http"

// EntityBean marks a struct as a managed entity. Entities get it by embedding Model.
type EntityBean interface {
	entityBean()
}

// Model is embedded by entity structs, e.g.
//
//	type Customer struct {
//		types.Model
//		ID   int64 `orm:"id"`
//		Name string
//	}
type Model struct{}

func (Model) entityBean() {}

// IsEntityBean reports whether value (or what it points to) is a managed entity
func IsEntityBean(value interface{}) bool {
	if value == nil {
		return false
	}
	_, ok := value.(EntityBean)
	return ok
}

// ValuePair holds the old and new value of a property between two bean snapshots
type ValuePair struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Version is one historical row of a bean with the diff against the prior version
type Version struct {
	Bean  interface{}          `json:"bean"`
	Start interface{}          `json:"start"`
	End   interface{}          `json:"end"`
	Diff  map[string]ValuePair `json:"diff"`
}

// BeanIdList is the result of a find ids query
type BeanIdList struct {
	IDs []interface{} `json:"ids"`
}

// PropertyValue is a property name and its value, in property declaration order
type PropertyValue struct {
	Name  string
	Value interface{}
}

// CollectionShape is the declared shape of a find many result
type CollectionShape int

const (
	ListShape CollectionShape = iota
	SetShape
	MapShape
)

func (s CollectionShape) String() string {
	switch s {
	case SetShape:
		return "set"
	case MapShape:
		return "map"
	default:
		return "list"
	}
}

// Route represents a request route to be served
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}

// ModelError is the body of a failed console request
type ModelError struct {
	Description string `json:"description"`
	Code        int    `json:"code"`
}
