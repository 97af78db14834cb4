package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/types"
)

// Resolver maps the properties of the queried type to alias qualified columns
type Resolver interface {
	Table() string
	Alias() string
	Column(property string) (string, error)
	IdColumn() string
	// ManyJoin returns the table of a many property and its column referencing the parent id
	ManyJoin(property string) (table string, foreignKey string, err error)
	// ExampleValues returns the non zero properties of an example bean in declaration order
	ExampleValues(bean types.EntityBean) ([]types.PropertyValue, error)
}

const likeEscape = " escape '|'"

var identifier = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Render renders e as a SQL predicate with ? placeholders and returns the bind
// values in placeholder order. Rendering the same expression always gives the same text.
func Render(e Expression, resolver Resolver, platform config.Platform) (string, []interface{}, error) {
	r := &renderer{resolver: resolver, platform: platform}
	if err := r.render(e); err != nil {
		return "", nil, err
	}
	return r.sb.String(), r.binds, nil
}

type renderer struct {
	resolver Resolver
	platform config.Platform
	sb       strings.Builder
	binds    []interface{}
}

func (r *renderer) write(parts ...string) {
	for _, p := range parts {
		r.sb.WriteString(p)
	}
}

func (r *renderer) bind(values ...interface{}) {
	r.binds = append(r.binds, values...)
}

func (r *renderer) render(e Expression) error {
	switch e := e.(type) {
	case Simple:
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		r.write(col, " ", e.Op.String(), " ?")
		r.bind(e.Value)
	case Null:
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		if e.Not {
			r.write(col, " is not null")
		} else {
			r.write(col, " is null")
		}
	case Between:
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		r.write(col, " between ? and ?")
		r.bind(e.Low, e.High)
	case BetweenProperties:
		low, err := r.resolver.Column(e.LowProperty)
		if err != nil {
			return err
		}
		high, err := r.resolver.Column(e.HighProperty)
		if err != nil {
			return err
		}
		r.write("? between ", low, " and ", high)
		r.bind(e.Value)
	case Like:
		return r.renderLike(e)
	case NativeILike:
		if !r.platform.Has(config.NativeILike) {
			return r.unsupported("ilike")
		}
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		r.write(col, " ilike ?")
		r.bind(e.Value)
	case IEqual:
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		if r.platform.Has(config.NativeILike) {
			r.write(col, " ilike ?", likeEscape)
			r.bind(escapeLike(e.Value))
		} else {
			r.write("lower(", col, ") = ?")
			r.bind(strings.ToLower(e.Value))
		}
	case In:
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		r.renderIn(col, e.Values, e.Sub, e.Not)
	case Exists:
		if e.Not {
			r.write("not ")
		}
		r.write("exists (", e.Sub.SQL, ")")
		r.bind(e.Sub.Params...)
	case IsEmpty:
		table, fk, err := r.resolver.ManyJoin(e.Property)
		if err != nil {
			return err
		}
		if !e.Not {
			r.write("not ")
		}
		r.write("exists (select 1 from ", table, " x where x.", fk, " = ", r.resolver.IdColumn(), ")")
	case IdEq:
		r.write(r.resolver.IdColumn(), " = ?")
		r.bind(e.Value)
	case IdIn:
		r.renderIn(r.resolver.IdColumn(), e.Values, nil, false)
	case Junction:
		return r.renderJunction(e)
	case Not:
		r.write("not (")
		if err := r.render(e.Expr); err != nil {
			return err
		}
		r.write(")")
	case Raw:
		if n := strings.Count(e.SQL, "?"); n != len(e.Params) {
			return &InvalidArgument{Msg: fmt.Sprintf("raw expression [%s] has %d placeholders but %d parameters",
				e.SQL, n, len(e.Params))}
		}
		r.write(e.SQL)
		r.bind(e.Params...)
	case Example:
		return r.renderExample(e)
	case JSONPath:
		return r.renderJSON(e)
	case ArrayContains:
		return r.renderArrayContains(e)
	case ArrayIsEmpty:
		if !r.platform.Has(config.ArrayPostgres) {
			return r.unsupported("array expressions")
		}
		col, err := r.resolver.Column(e.Property)
		if err != nil {
			return err
		}
		op := " = 0"
		if e.Not {
			op = " <> 0"
		}
		r.write("coalesce(cardinality(", col, "),0)", op)
	case TextMatch:
		return r.renderTextMatch(e)
	case TextMultiMatch:
		return r.renderMultiMatch(e)
	case TextSimple:
		return r.renderTextSimple(e)
	case TextQueryString:
		return r.renderQueryString(e)
	case TextCommonTerms:
		return r.renderCommonTerms(e)
	case NoOp:
		r.write("1=1")
	case nil:
		return &InvalidArgument{Msg: "nil expression"}
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func (r *renderer) unsupported(what string) error {
	return fmt.Errorf("%s %w %s", what, ErrUnsupported, r.platform.Name)
}

func (r *renderer) renderIn(col string, values []interface{}, sub *SubQuery, not bool) {
	if sub != nil {
		r.write(col)
		if not {
			r.write(" not")
		}
		r.write(" in (", sub.SQL, ")")
		r.bind(sub.Params...)
		return
	}

	if len(values) == 0 {
		if not {
			r.write("1=1")
		} else {
			r.write("1=0")
		}
		return
	}

	r.write(col)
	if not {
		r.write(" not")
	}
	r.write(" in (", placeholders(len(values)), ")")
	r.bind(values...)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (r *renderer) renderJunction(j Junction) error {
	if len(j.Children) == 0 {
		if j.Type == Or {
			r.write("1=0")
		} else {
			r.write("1=1")
		}
		return nil
	}

	r.write("(")
	for i, child := range j.Children {
		if i > 0 {
			r.write(" ", j.Type.String(), " ")
		}
		if err := r.render(child); err != nil {
			return err
		}
	}
	r.write(")")
	return nil
}

func (r *renderer) renderLike(e Like) error {
	col, err := r.resolver.Column(e.Property)
	if err != nil {
		return err
	}

	value := e.Value
	escape := ""
	if e.Type != RawLike {
		escape = likeEscape
		value = escapeLike(value)
	}
	switch e.Type {
	case StartsWith:
		value = value + "%"
	case EndsWith:
		value = "%" + value
	case Contains:
		value = "%" + value + "%"
	}

	if e.CaseInsensitive {
		r.write("lower(", col, ") like ?", escape)
		r.bind(strings.ToLower(value))
	} else {
		r.write(col, " like ?", escape)
		r.bind(value)
	}
	return nil
}

var likeEscaper = strings.NewReplacer("|", "||", "%", "|%", "_", "|_")

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func (r *renderer) renderExample(e Example) error {
	values, err := r.resolver.ExampleValues(e.Bean)
	if err != nil {
		return err
	}

	children := make([]Expression, 0, len(values))
	for _, pv := range values {
		if s, ok := pv.Value.(string); ok {
			children = append(children, Like{Property: pv.Name, Value: s, Type: e.LikeType,
				CaseInsensitive: e.CaseInsensitive})
		} else {
			children = append(children, Simple{Property: pv.Name, Op: Eq, Value: pv.Value})
		}
	}
	return r.renderJunction(Junction{Type: And, Children: children})
}

func (r *renderer) jsonOperand(property, path string) (string, error) {
	col, err := r.resolver.Column(property)
	if err != nil {
		return "", err
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if !identifier.MatchString(s) {
			return "", &InvalidArgument{Msg: fmt.Sprintf("invalid json path [%s]", path)}
		}
	}

	switch {
	case r.platform.Has(config.JSONPostgres):
		return fmt.Sprintf("(%s #>> '{%s}')", col, strings.Join(segments, ",")), nil
	case r.platform.Has(config.JSONFunctions):
		return fmt.Sprintf("json_extract(%s, '$.%s')", col, path), nil
	default:
		return "", r.unsupported("json expressions")
	}
}

func (r *renderer) renderJSON(e JSONPath) error {
	operand, err := r.jsonOperand(e.Property, e.Path)
	if err != nil {
		return err
	}

	switch e.Op {
	case JSONExists:
		r.write(operand, " is not null")
	case JSONNotExists:
		r.write(operand, " is null")
	case JSONBetween:
		r.write(operand, " between ? and ?")
		r.bind(e.Value, e.Upper)
	default:
		r.write(operand, " ", jsonOps[e.Op].String(), " ?")
		r.bind(e.Value)
	}
	return nil
}

var jsonOps = map[JSONOp]Op{JSONEq: Eq, JSONNe: Ne, JSONGt: Gt, JSONGe: Ge, JSONLt: Lt, JSONLe: Le}

func (r *renderer) renderArrayContains(e ArrayContains) error {
	if !r.platform.Has(config.ArrayPostgres) {
		return r.unsupported("array expressions")
	}
	col, err := r.resolver.Column(e.Property)
	if err != nil {
		return err
	}
	if len(e.Values) == 0 {
		return &InvalidArgument{Msg: "array contains requires at least one value for " + e.Property}
	}
	if e.Not {
		r.write("not (")
	}
	r.write(col, " @> array[", placeholders(len(e.Values)), "]")
	if e.Not {
		r.write(")")
	}
	r.bind(e.Values...)
	return nil
}
