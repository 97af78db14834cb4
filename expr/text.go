package expr

import (
	"strings"
	"unicode"

	"github.com/datastax/ormquery/config"
)

// Full text search renders to tsvector/tsquery on postgres and to match ... against
// on mysql. The analyzer is only used on postgres as the text search configuration.

func (r *renderer) textPlatform() (config.Features, error) {
	switch {
	case r.platform.Has(config.FullTextPostgres):
		return config.FullTextPostgres, nil
	case r.platform.Has(config.FullTextMySQL):
		return config.FullTextMySQL, nil
	default:
		return 0, r.unsupported("full text expressions")
	}
}

func (r *renderer) textColumns(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, &InvalidArgument{Msg: "full text search requires at least one field"}
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		col, err := r.resolver.Column(f)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

func textConfig(analyzer string) (string, error) {
	if analyzer == "" {
		return "", nil
	}
	if !identifier.MatchString(analyzer) {
		return "", &InvalidArgument{Msg: "invalid text search analyzer [" + analyzer + "]"}
	}
	return "'" + analyzer + "', ", nil
}

// tsMatch writes to_tsvector(cols) @@ fn(?)
func (r *renderer) tsMatch(cols []string, analyzer string, fn string, search string) error {
	cfg, err := textConfig(analyzer)
	if err != nil {
		return err
	}
	doc := cols[0]
	if len(cols) > 1 {
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = "coalesce(" + c + ",'')"
		}
		doc = strings.Join(parts, " || ' ' || ")
	}
	r.write("to_tsvector(", cfg, doc, ") @@ ", fn, "(", cfg, "?)")
	r.bind(search)
	return nil
}

// mysqlMatch writes match(cols) against (? mode)
func (r *renderer) mysqlMatch(cols []string, booleanMode bool, search string) {
	r.write("match(", strings.Join(cols, ", "), ") against (?")
	if booleanMode {
		r.write(" in boolean mode")
	}
	r.write(")")
	r.bind(search)
}

// terms splits a search into words, dropping query syntax characters
func terms(search string) []string {
	return strings.FieldsFunc(search, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
}

func joinTerms(search string, sep string) string {
	return strings.Join(terms(search), sep)
}

func requiredTerms(search string) string {
	words := terms(search)
	for i, w := range words {
		words[i] = "+" + w
	}
	return strings.Join(words, " ")
}

func (r *renderer) renderTextMatch(e TextMatch) error {
	platform, err := r.textPlatform()
	if err != nil {
		return err
	}
	cols, err := r.textColumns([]string{e.Property})
	if err != nil {
		return err
	}
	opts := e.Options

	if platform == config.FullTextPostgres {
		switch {
		case opts.PhrasePrefix:
			return r.tsMatch(cols, opts.Analyzer, "to_tsquery", joinTerms(e.Search, " <-> ")+":*")
		case opts.Phrase:
			return r.tsMatch(cols, opts.Analyzer, "phraseto_tsquery", e.Search)
		case opts.Operator == TextOr:
			return r.tsMatch(cols, opts.Analyzer, "to_tsquery", joinTerms(e.Search, " | "))
		default:
			return r.tsMatch(cols, opts.Analyzer, "plainto_tsquery", e.Search)
		}
	}

	switch {
	case opts.PhrasePrefix:
		r.mysqlMatch(cols, true, requiredTerms(e.Search)+"*")
	case opts.Phrase:
		r.mysqlMatch(cols, true, `"`+joinTerms(e.Search, " ")+`"`)
	case opts.Operator == TextAnd:
		r.mysqlMatch(cols, true, requiredTerms(e.Search))
	default:
		r.mysqlMatch(cols, true, joinTerms(e.Search, " "))
	}
	return nil
}

func (r *renderer) renderMultiMatch(e TextMultiMatch) error {
	platform, err := r.textPlatform()
	if err != nil {
		return err
	}
	cols, err := r.textColumns(e.Options.Fields)
	if err != nil {
		return err
	}

	if platform == config.FullTextPostgres {
		if e.Options.Operator == TextAnd {
			return r.tsMatch(cols, e.Options.Analyzer, "plainto_tsquery", e.Search)
		}
		return r.tsMatch(cols, e.Options.Analyzer, "to_tsquery", joinTerms(e.Search, " | "))
	}
	if e.Options.Operator == TextAnd {
		r.mysqlMatch(cols, true, requiredTerms(e.Search))
	} else {
		r.mysqlMatch(cols, true, joinTerms(e.Search, " "))
	}
	return nil
}

func (r *renderer) renderTextSimple(e TextSimple) error {
	platform, err := r.textPlatform()
	if err != nil {
		return err
	}
	cols, err := r.textColumns(e.Options.Fields)
	if err != nil {
		return err
	}

	if platform == config.FullTextPostgres {
		return r.tsMatch(cols, e.Options.Analyzer, "websearch_to_tsquery", e.Search)
	}
	r.mysqlMatch(cols, true, e.Search)
	return nil
}

func (r *renderer) renderQueryString(e TextQueryString) error {
	platform, err := r.textPlatform()
	if err != nil {
		return err
	}
	cols, err := r.textColumns(e.Options.Fields)
	if err != nil {
		return err
	}
	search := strings.TrimSpace(e.Search)
	if !e.Options.AllowLeadingWildcard && strings.HasPrefix(search, "*") {
		return &InvalidArgument{Msg: "leading wildcard in query string [" + e.Search + "]"}
	}

	if platform == config.FullTextPostgres {
		return r.tsMatch(cols, e.Options.Analyzer, "to_tsquery", search)
	}
	r.mysqlMatch(cols, true, search)
	return nil
}

func (r *renderer) renderCommonTerms(e TextCommonTerms) error {
	platform, err := r.textPlatform()
	if err != nil {
		return err
	}
	cols, err := r.textColumns(e.Options.Fields)
	if err != nil {
		return err
	}

	if platform == config.FullTextPostgres {
		sep := " | "
		if e.Options.LowFreqOperatorAnd {
			sep = " & "
		}
		return r.tsMatch(cols, "", "to_tsquery", joinTerms(e.Search, sep))
	}
	if e.Options.LowFreqOperatorAnd {
		r.mysqlMatch(cols, true, requiredTerms(e.Search))
	} else {
		r.mysqlMatch(cols, false, e.Search)
	}
	return nil
}
