package query

import (
	"strconv"
	"strings"
)

// BatchSize is a secondary query or lazy loading batch size. Unset is distinct from 0.
type BatchSize int

const Unset BatchSize = -1

func (b BatchSize) IsSet() bool {
	return b > Unset
}

// Selection says which properties of a path are selected
type Selection int

const (
	DefaultProperties Selection = iota
	AllProperties
	ExplicitProperties
)

// PathOptions are the parsed options of a single fetch path. Immutable once parsed.
type PathOptions struct {
	ReadOnly   bool
	Cache      bool
	QueryBatch BatchSize
	LazyBatch  BatchSize
	Selection  Selection
	included   []string
	properties string
}

var defaultOptions = PathOptions{QueryBatch: Unset, LazyBatch: Unset}

// Included returns the explicit property names in the order given, nil unless
// the selection is ExplicitProperties.
func (o PathOptions) Included() []string {
	if o.included == nil {
		return nil
	}
	included := make([]string, len(o.included))
	copy(included, o.included)
	return included
}

func (o PathOptions) Includes(property string) bool {
	for _, p := range o.included {
		if p == property {
			return true
		}
	}
	return false
}

// Properties is the canonical comma joined property list, "*" for all properties
func (o PathOptions) Properties() string {
	return o.properties
}

// IsQueryJoin reports whether the path is loaded by a secondary query
func (o PathOptions) IsQueryJoin() bool {
	return o.QueryBatch.IsSet()
}

// IsLazyJoin reports whether the path is left for lazy loading
func (o PathOptions) IsLazyJoin() bool {
	return o.LazyBatch.IsSet() && !o.QueryBatch.IsSet()
}

func (o PathOptions) String() string {
	var parts []string
	if o.properties != "" {
		parts = append(parts, o.properties)
	}
	if o.ReadOnly {
		parts = append(parts, "+readonly")
	}
	if o.Cache {
		parts = append(parts, "+cache")
	}
	if o.QueryBatch.IsSet() {
		parts = append(parts, "+query("+strconv.Itoa(int(o.QueryBatch))+")")
	}
	if o.LazyBatch.IsSet() {
		parts = append(parts, "+lazy("+strconv.Itoa(int(o.LazyBatch))+")")
	}
	return strings.Join(parts, ",")
}

// ParseProperties parses a path option string such as "name,status,+lazy(20),+readonly".
//
// The markers +readonly, +cache, +query(n) and +lazy(n) may appear anywhere. A +query or
// +lazy marker that is not followed by a complete "(n)" is stripped on its own and sets
// the batch size to 0; its trailing text is left to the property list.
func ParseProperties(raw string) (PathOptions, error) {
	if raw == "" {
		return defaultOptions, nil
	}
	p := &propertiesParser{input: raw, raw: raw}
	return p.parse()
}

type propertiesParser struct {
	raw   string
	input string
}

func (p *propertiesParser) parse() (PathOptions, error) {
	opts := defaultOptions

	if strings.Contains(p.input, "+readonly") {
		p.input = strings.ReplaceAll(p.input, "+readonly", "")
		opts.ReadOnly = true
	}
	if strings.Contains(p.input, "+cache") {
		p.input = strings.ReplaceAll(p.input, "+cache", "")
		opts.Cache = true
	}
	if pos := strings.Index(p.input, "+query"); pos > -1 {
		batch, err := p.batchHint(pos, "+query")
		if err != nil {
			return opts, err
		}
		opts.QueryBatch = batch
	}
	if pos := strings.Index(p.input, "+lazy"); pos > -1 {
		batch, err := p.batchHint(pos, "+lazy")
		if err != nil {
			return opts, err
		}
		opts.LazyBatch = batch
	}

	p.included(&opts)
	return opts, nil
}

func (p *propertiesParser) included(opts *PathOptions) {
	input := strings.TrimSpace(p.input)
	if input == "" {
		return
	}
	if input == "*" {
		opts.Selection = AllProperties
		opts.properties = "*"
		return
	}

	var included []string
	seen := make(map[string]bool)
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		included = append(included, token)
	}

	if len(included) == 0 {
		return
	}
	if seen["*"] {
		opts.Selection = AllProperties
		opts.properties = "*"
		return
	}

	opts.Selection = ExplicitProperties
	opts.included = included
	opts.properties = strings.Join(included, ",")
}

func (p *propertiesParser) batchHint(pos int, marker string) (BatchSize, error) {
	start := pos + len(marker)
	end := -1
	if start < len(p.input) && p.input[start] == '(' {
		end = strings.IndexByte(p.input[start+1:], ')')
		if end > -1 {
			end += start + 1
		}
	}

	if end == -1 {
		p.input = strings.ReplaceAll(p.input, marker, "")
		return 0, nil
	}

	param := strings.TrimSpace(p.input[start+1 : end])
	p.input = p.input[:pos] + p.input[end+1:]

	batch, err := strconv.Atoi(param)
	if err != nil || batch < 0 {
		return Unset, &SyntaxError{Msg: "expected a batch size for " + marker, Token: param, Text: p.raw, Err: err}
	}
	return BatchSize(batch), nil
}
