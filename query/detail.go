package query

import (
	"strconv"
	"strings"
)

// Properties is a path, its optional alias and its parsed options
type Properties struct {
	Path    string
	Alias   string
	Options PathOptions
}

func NewProperties(path string, raw string) (*Properties, error) {
	opts, err := ParseProperties(raw)
	if err != nil {
		return nil, err
	}
	return &Properties{Path: path, Options: opts}, nil
}

// Detail is the structured form of a query definition: what to select and fetch,
// and the raw where, order by and paging attributes.
//
// The selection (base and fetch paths) may be replaced by auto tuning with Tune;
// the attributes never change after parsing.
type Detail struct {
	Base     *Properties
	fetches  []*Properties
	Where    string
	OrderBy  string
	MaxRows  int
	FirstRow int
}

func NewDetail() *Detail {
	return &Detail{}
}

// Fetch adds a fetch path, replacing a previous fetch of the same path in place
func (d *Detail) Fetch(props *Properties) {
	for i, f := range d.fetches {
		if f.Path == props.Path {
			d.fetches[i] = props
			return
		}
	}
	d.fetches = append(d.fetches, props)
}

// Fetches returns the fetch paths in the order they were added
func (d *Detail) Fetches() []*Properties {
	fetches := make([]*Properties, len(d.fetches))
	copy(fetches, d.fetches)
	return fetches
}

func (d *Detail) FetchPath(path string) (*Properties, bool) {
	for _, f := range d.fetches {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

func (d *Detail) IsEmpty() bool {
	return d.Base == nil && len(d.fetches) == 0 && d.Where == "" && d.OrderBy == "" &&
		d.MaxRows == 0 && d.FirstRow == 0
}

// Tune returns a copy using the selection of tuned and the attributes of d
func (d *Detail) Tune(tuned *Detail) *Detail {
	return &Detail{
		Base:     tuned.Base,
		fetches:  tuned.Fetches(),
		Where:    d.Where,
		OrderBy:  d.OrderBy,
		MaxRows:  d.MaxRows,
		FirstRow: d.FirstRow,
	}
}

// String renders the detail back into query language text
func (d *Detail) String() string {
	var parts []string
	if d.Base != nil {
		if d.Base.Path != "" {
			parts = append(parts, "find "+pathString(d.Base))
		} else if p := d.Base.Options.String(); p != "" {
			parts = append(parts, "select ("+p+")")
		}
	}
	for _, f := range d.fetches {
		parts = append(parts, "fetch "+pathString(f))
	}
	if d.Where != "" {
		parts = append(parts, "where "+d.Where)
	}
	if d.OrderBy != "" {
		parts = append(parts, "order by "+d.OrderBy)
	}
	if d.MaxRows > 0 || d.FirstRow > 0 {
		limit := "limit " + strconv.Itoa(d.MaxRows)
		if d.FirstRow > 0 {
			limit += " offset " + strconv.Itoa(d.FirstRow)
		}
		parts = append(parts, limit)
	}
	return strings.Join(parts, " ")
}

func pathString(p *Properties) string {
	s := p.Path
	if p.Alias != "" {
		s += " as " + p.Alias
	}
	if opts := p.Options.String(); opts != "" {
		s += " (" + opts + ")"
	}
	return s
}
