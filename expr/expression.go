// expr package contains the predicate tree used to filter queries.
//
// Expression is sealed: every variant is declared in this package and Render
// handles each of them in one exhaustive switch.
package expr

import (
	"github.com/datastax/ormquery/types"
)

type Expression interface {
	expression()
}

// Op is a binary comparison operator
type Op int

const (
	Eq Op = iota
	Ne
	Gt
	Ge
	Lt
	Le
)

func (o Op) String() string {
	switch o {
	case Ne:
		return "<>"
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Lt:
		return "<"
	case Le:
		return "<="
	default:
		return "="
	}
}

// LikeType says where wildcards are added to a like value
type LikeType int

const (
	// RawLike uses the value as given, wildcards included
	RawLike LikeType = iota
	StartsWith
	EndsWith
	Contains
)

// JunctionType is the logical operator joining the children of a Junction
type JunctionType int

const (
	And JunctionType = iota
	Or
)

func (t JunctionType) String() string {
	if t == Or {
		return "or"
	}
	return "and"
}

// SubQuery is a compiled correlated query used by In and Exists
type SubQuery struct {
	SQL    string
	Params []interface{}
}

type Simple struct {
	Property string
	Op       Op
	Value    interface{}
}

type Null struct {
	Property string
	Not      bool
}

type Between struct {
	Property string
	Low      interface{}
	High     interface{}
}

// BetweenProperties checks a value against two property bounds: ? between low and high
type BetweenProperties struct {
	LowProperty  string
	HighProperty string
	Value        interface{}
}

type Like struct {
	Property        string
	Value           string
	Type            LikeType
	CaseInsensitive bool
}

// NativeILike is a raw case insensitive like for platforms with an ilike operator
type NativeILike struct {
	Property string
	Value    string
}

type IEqual struct {
	Property string
	Value    string
}

// In is set membership over literal values, or over a sub query when Sub is set
type In struct {
	Property string
	Values   []interface{}
	Sub      *SubQuery
	Not      bool
}

type Exists struct {
	Sub SubQuery
	Not bool
}

// IsEmpty checks a many property for having no rows (or some rows when Not is set)
type IsEmpty struct {
	Property string
	Not      bool
}

type IdEq struct {
	Value interface{}
}

type IdIn struct {
	Values []interface{}
}

type Junction struct {
	Type     JunctionType
	Children []Expression
}

type Not struct {
	Expr Expression
}

// Raw is a SQL fragment with one parameter per ? placeholder
type Raw struct {
	SQL    string
	Params []interface{}
}

// Example is query by example: each non zero property of Bean becomes a predicate
type Example struct {
	Bean            types.EntityBean
	CaseInsensitive bool
	LikeType        LikeType
}

// JSONOp is the operator applied to the value at a JSON path
type JSONOp int

const (
	JSONExists JSONOp = iota
	JSONNotExists
	JSONEq
	JSONNe
	JSONGt
	JSONGe
	JSONLt
	JSONLe
	JSONBetween
)

// JSONPath addresses Path (dot separated) inside the JSON document held by Property
type JSONPath struct {
	Property string
	Path     string
	Op       JSONOp
	Value    interface{}
	Upper    interface{}
}

type ArrayContains struct {
	Property string
	Values   []interface{}
	Not      bool
}

type ArrayIsEmpty struct {
	Property string
	Not      bool
}

type TextMatch struct {
	Property string
	Search   string
	Options  MatchOptions
}

type TextMultiMatch struct {
	Search  string
	Options MultiMatchOptions
}

type TextSimple struct {
	Search  string
	Options SimpleOptions
}

type TextQueryString struct {
	Search  string
	Options QueryStringOptions
}

type TextCommonTerms struct {
	Search  string
	Options CommonTermsOptions
}

// NoOp is always true. It replaces equality against nil when nulls are ignored.
type NoOp struct{}

func (Simple) expression()            {}
func (Null) expression()              {}
func (Between) expression()           {}
func (BetweenProperties) expression() {}
func (Like) expression()              {}
func (NativeILike) expression()       {}
func (IEqual) expression()            {}
func (In) expression()                {}
func (Exists) expression()            {}
func (IsEmpty) expression()           {}
func (IdEq) expression()              {}
func (IdIn) expression()              {}
func (Junction) expression()          {}
func (Not) expression()               {}
func (Raw) expression()               {}
func (Example) expression()           {}
func (JSONPath) expression()          {}
func (ArrayContains) expression()     {}
func (ArrayIsEmpty) expression()      {}
func (TextMatch) expression()         {}
func (TextMultiMatch) expression()    {}
func (TextSimple) expression()        {}
func (TextQueryString) expression()   {}
func (TextCommonTerms) expression()   {}
func (NoOp) expression()              {}
