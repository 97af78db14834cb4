package config

import (
	"fmt"
	"strings"
)

// Features are the capabilities of a database platform the renderer and engine depend on
type Features int

const (
	NativeILike Features = 1 << iota
	JSONPostgres
	JSONFunctions
	ArrayPostgres
	FullTextPostgres
	FullTextMySQL
	RowNumberPaging
	HistoryRange
	HistoryBindAtFrom
	ForwardOnlyHint
	// PlainSelect platforms take no table alias and no joins, many paths load by secondary query
	PlainSelect
)

var featureNames = []struct {
	name    string
	feature Features
}{
	{"NativeILike", NativeILike},
	{"JSONPostgres", JSONPostgres},
	{"JSONFunctions", JSONFunctions},
	{"ArrayPostgres", ArrayPostgres},
	{"FullTextPostgres", FullTextPostgres},
	{"FullTextMySQL", FullTextMySQL},
	{"RowNumberPaging", RowNumberPaging},
	{"HistoryRange", HistoryRange},
	{"HistoryBindAtFrom", HistoryBindAtFrom},
	{"ForwardOnlyHint", ForwardOnlyHint},
	{"PlainSelect", PlainSelect},
}

func ParseFeatures(names ...string) (Features, error) {
	var f Features
	err := f.Add(names...)
	return f, err
}

func (f *Features) Set(features Features) {
	*f |= features
}

func (f *Features) Clear(features Features) {
	*f &= ^features
}

func (f Features) IsSupported(features Features) bool {
	return f&features != 0
}

func (f *Features) Add(names ...string) error {
	for _, name := range names {
		found := false
		for _, fn := range featureNames {
			if strings.EqualFold(fn.name, name) {
				f.Set(fn.feature)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("invalid platform feature: %s", name)
		}
	}
	return nil
}

func (f Features) Names() []string {
	var names []string
	for _, fn := range featureNames {
		if f.IsSupported(fn.feature) {
			names = append(names, fn.name)
		}
	}
	return names
}

// Platform is a named database platform and its capabilities
type Platform struct {
	Name     string
	Features Features
}

func (p Platform) Has(features Features) bool {
	return p.Features.IsSupported(features)
}

var platforms = map[string]Platform{
	"postgres": {Name: "postgres",
		Features: NativeILike | JSONPostgres | ArrayPostgres | FullTextPostgres | HistoryRange},
	"mysql":     {Name: "mysql", Features: JSONFunctions | FullTextMySQL | ForwardOnlyHint},
	"sqlite":    {Name: "sqlite", Features: JSONFunctions},
	"h2":        {Name: "h2", Features: HistoryBindAtFrom},
	"oracle":    {Name: "oracle", Features: RowNumberPaging | JSONFunctions},
	"cassandra": {Name: "cassandra", Features: PlainSelect},
}

// PlatformNames lists the known platforms, used for flag help and validation
const PlatformNames = "postgres mysql sqlite h2 oracle cassandra"

func PlatformByName(name string) (Platform, error) {
	if p, ok := platforms[strings.ToLower(name)]; ok {
		return p, nil
	}
	return Platform{}, fmt.Errorf("unknown platform: %s", name)
}
