package expr

import (
	"reflect"
	"sort"

	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/types"
)

// Factory builds expressions, applying the configured null equality policy and
// choosing native or emulated case insensitive like
type Factory struct {
	equalsWithNullAsNoop bool
	nativeILike          bool
}

func NewFactory(equalsWithNullAsNoop bool, nativeILike bool) *Factory {
	return &Factory{equalsWithNullAsNoop: equalsWithNullAsNoop, nativeILike: nativeILike}
}

// NewFactoryFromConfig creates a factory for the configured platform
func NewFactoryFromConfig(cfg config.Config) *Factory {
	return NewFactory(cfg.EqualsWithNullAsNoop(), cfg.Platform().Has(config.NativeILike))
}

// Eq is property equal to value. A nil value gives NoOp when nulls are ignored, else is null.
func (f *Factory) Eq(property string, value interface{}) Expression {
	if isNil(value) {
		if f.equalsWithNullAsNoop {
			return NoOp{}
		}
		return f.IsNull(property)
	}
	return Simple{Property: property, Op: Eq, Value: value}
}

// Ne is property not equal to value, with the same nil policy as Eq
func (f *Factory) Ne(property string, value interface{}) Expression {
	if isNil(value) {
		if f.equalsWithNullAsNoop {
			return NoOp{}
		}
		return f.IsNotNull(property)
	}
	return Simple{Property: property, Op: Ne, Value: value}
}

// IEq is case insensitive equality, with the same nil policy as Eq
func (f *Factory) IEq(property string, value *string) Expression {
	if value == nil {
		if f.equalsWithNullAsNoop {
			return NoOp{}
		}
		return f.IsNull(property)
	}
	return IEqual{Property: property, Value: *value}
}

func (f *Factory) Gt(property string, value interface{}) Expression {
	return Simple{Property: property, Op: Gt, Value: value}
}

func (f *Factory) Ge(property string, value interface{}) Expression {
	return Simple{Property: property, Op: Ge, Value: value}
}

func (f *Factory) Lt(property string, value interface{}) Expression {
	return Simple{Property: property, Op: Lt, Value: value}
}

func (f *Factory) Le(property string, value interface{}) Expression {
	return Simple{Property: property, Op: Le, Value: value}
}

func (f *Factory) IsNull(property string) Expression {
	return Null{Property: property}
}

func (f *Factory) IsNotNull(property string) Expression {
	return Null{Property: property, Not: true}
}

func (f *Factory) Between(property string, low, high interface{}) Expression {
	return Between{Property: property, Low: low, High: high}
}

// BetweenProperties is value between the lowProperty and highProperty columns
func (f *Factory) BetweenProperties(lowProperty, highProperty string, value interface{}) Expression {
	return BetweenProperties{LowProperty: lowProperty, HighProperty: highProperty, Value: value}
}

// Like uses value as given, wildcards included
func (f *Factory) Like(property, value string) Expression {
	return Like{Property: property, Value: value, Type: RawLike}
}

// ILike is a case insensitive Like, using the platform ilike operator when available
func (f *Factory) ILike(property, value string) Expression {
	if f.nativeILike {
		return NativeILike{Property: property, Value: value}
	}
	return Like{Property: property, Value: value, Type: RawLike, CaseInsensitive: true}
}

func (f *Factory) StartsWith(property, value string) Expression {
	return Like{Property: property, Value: value, Type: StartsWith}
}

func (f *Factory) IStartsWith(property, value string) Expression {
	return Like{Property: property, Value: value, Type: StartsWith, CaseInsensitive: true}
}

func (f *Factory) EndsWith(property, value string) Expression {
	return Like{Property: property, Value: value, Type: EndsWith}
}

func (f *Factory) IEndsWith(property, value string) Expression {
	return Like{Property: property, Value: value, Type: EndsWith, CaseInsensitive: true}
}

func (f *Factory) Contains(property, value string) Expression {
	return Like{Property: property, Value: value, Type: Contains}
}

func (f *Factory) IContains(property, value string) Expression {
	return Like{Property: property, Value: value, Type: Contains, CaseInsensitive: true}
}

// In is property in values, where values is a slice, an array or a SubQuery
func (f *Factory) In(property string, values interface{}) (Expression, error) {
	return newIn(property, values, false)
}

// NotIn is the negated form of In
func (f *Factory) NotIn(property string, values interface{}) (Expression, error) {
	return newIn(property, values, true)
}

func newIn(property string, values interface{}, not bool) (Expression, error) {
	switch v := values.(type) {
	case SubQuery:
		return In{Property: property, Sub: &v, Not: not}, nil
	case *SubQuery:
		if v == nil {
			return nil, &InvalidArgument{Msg: "in sub query is nil for " + property}
		}
		sub := *v
		return In{Property: property, Sub: &sub, Not: not}, nil
	}

	list, err := toList(values)
	if err != nil {
		return nil, &InvalidArgument{Msg: "in values for " + property + ": " + err.Error()}
	}
	return In{Property: property, Values: list, Not: not}, nil
}

func (f *Factory) Exists(sub SubQuery) Expression {
	return Exists{Sub: sub}
}

func (f *Factory) NotExists(sub SubQuery) Expression {
	return Exists{Sub: sub, Not: true}
}

// IsEmpty is true when the many property has no rows
func (f *Factory) IsEmpty(property string) Expression {
	return IsEmpty{Property: property}
}

func (f *Factory) IsNotEmpty(property string) Expression {
	return IsEmpty{Property: property, Not: true}
}

// IdEq is the identity property equal to value, which must not be nil
func (f *Factory) IdEq(value interface{}) (Expression, error) {
	if isNil(value) {
		return nil, &InvalidArgument{Msg: "the id value is nil"}
	}
	return IdEq{Value: value}, nil
}

func (f *Factory) IdIn(values ...interface{}) Expression {
	ids := make([]interface{}, len(values))
	copy(ids, values)
	return IdIn{Values: ids}
}

// AllEq is a conjunction of equality for every entry, ordered by property name.
// A nil value gives is null.
func (f *Factory) AllEq(properties map[string]interface{}) Expression {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	children := make([]Expression, 0, len(names))
	for _, name := range names {
		value := properties[name]
		if isNil(value) {
			children = append(children, Null{Property: name})
		} else {
			children = append(children, Simple{Property: name, Op: Eq, Value: value})
		}
	}
	return Junction{Type: And, Children: children}
}

// Raw adds a SQL fragment with one parameter per ? placeholder
func (f *Factory) Raw(sql string, params ...interface{}) Expression {
	p := make([]interface{}, len(params))
	copy(p, params)
	return Raw{SQL: sql, Params: p}
}

func (f *Factory) And(a, b Expression) Expression {
	return Junction{Type: And, Children: []Expression{a, b}}
}

func (f *Factory) Or(a, b Expression) Expression {
	return Junction{Type: Or, Children: []Expression{a, b}}
}

func (f *Factory) Not(e Expression) Expression {
	return Not{Expr: e}
}

func (f *Factory) Conjunction(children ...Expression) Expression {
	return Junction{Type: And, Children: append([]Expression(nil), children...)}
}

func (f *Factory) Disjunction(children ...Expression) Expression {
	return Junction{Type: Or, Children: append([]Expression(nil), children...)}
}

// ExampleLike is a case sensitive query by example using raw like for strings
func (f *Factory) ExampleLike(example interface{}) (Expression, error) {
	return f.ExampleLikeWith(example, false, RawLike)
}

// IExampleLike is a case insensitive ExampleLike
func (f *Factory) IExampleLike(example interface{}) (Expression, error) {
	return f.ExampleLikeWith(example, true, RawLike)
}

func (f *Factory) ExampleLikeWith(example interface{}, caseInsensitive bool, likeType LikeType) (Expression, error) {
	bean, ok := example.(types.EntityBean)
	if !ok || isNil(example) {
		return nil, &InvalidState{Msg: "expecting an entity bean"}
	}
	return Example{Bean: bean, CaseInsensitive: caseInsensitive, LikeType: likeType}, nil
}

func (f *Factory) JSONExists(property, path string) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONExists}
}

func (f *Factory) JSONNotExists(property, path string) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONNotExists}
}

func (f *Factory) JSONEq(property, path string, value interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONEq, Value: value}
}

func (f *Factory) JSONNe(property, path string, value interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONNe, Value: value}
}

func (f *Factory) JSONGt(property, path string, value interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONGt, Value: value}
}

func (f *Factory) JSONGe(property, path string, value interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONGe, Value: value}
}

func (f *Factory) JSONLt(property, path string, value interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONLt, Value: value}
}

func (f *Factory) JSONLe(property, path string, value interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONLe, Value: value}
}

func (f *Factory) JSONBetween(property, path string, low, high interface{}) Expression {
	return JSONPath{Property: property, Path: path, Op: JSONBetween, Value: low, Upper: high}
}

func (f *Factory) ArrayContains(property string, values ...interface{}) Expression {
	return ArrayContains{Property: property, Values: append([]interface{}(nil), values...)}
}

func (f *Factory) ArrayNotContains(property string, values ...interface{}) Expression {
	return ArrayContains{Property: property, Values: append([]interface{}(nil), values...), Not: true}
}

func (f *Factory) ArrayIsEmpty(property string) Expression {
	return ArrayIsEmpty{Property: property}
}

func (f *Factory) ArrayIsNotEmpty(property string) Expression {
	return ArrayIsEmpty{Property: property, Not: true}
}

func (f *Factory) TextMatch(property, search string, options MatchOptions) Expression {
	return TextMatch{Property: property, Search: search, Options: options}
}

func (f *Factory) TextMultiMatch(search string, options MultiMatchOptions) Expression {
	return TextMultiMatch{Search: search, Options: options}
}

func (f *Factory) TextSimple(search string, options SimpleOptions) Expression {
	return TextSimple{Search: search, Options: options}
}

func (f *Factory) TextQueryString(search string, options QueryStringOptions) Expression {
	return TextQueryString{Search: search, Options: options}
}

func (f *Factory) TextCommonTerms(search string, options CommonTermsOptions) Expression {
	return TextCommonTerms{Search: search, Options: options}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func toList(values interface{}) ([]interface{}, error) {
	switch v := values.(type) {
	case nil:
		return nil, errNotAList
	case []interface{}:
		return append([]interface{}{}, v...), nil
	case []byte:
		return nil, errNotAList
	}

	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errNotAList
	}
	list := make([]interface{}, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, nil
}
