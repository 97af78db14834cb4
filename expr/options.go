package expr

// TextOperator joins the terms of a full text search
type TextOperator int

const (
	TextOr TextOperator = iota
	TextAnd
)

// MatchOptions for TextMatch
type MatchOptions struct {
	// Analyzer is the text search configuration, e.g. "english"
	Analyzer string
	Operator TextOperator
	// Phrase matches the terms as a phrase, PhrasePrefix also matches a prefix of the last term
	Phrase       bool
	PhrasePrefix bool
}

// MultiMatchOptions for TextMultiMatch
type MultiMatchOptions struct {
	Fields   []string
	Analyzer string
	Operator TextOperator
}

// SimpleOptions for TextSimple. The search uses the web search syntax: quoted
// phrases, "or" and a leading '-' to exclude a term.
type SimpleOptions struct {
	Fields   []string
	Analyzer string
}

// QueryStringOptions for TextQueryString. The search is passed to the platform
// query syntax as is.
type QueryStringOptions struct {
	Fields               []string
	Analyzer             string
	AllowLeadingWildcard bool
}

// CommonTermsOptions for TextCommonTerms
type CommonTermsOptions struct {
	Fields []string
	// LowFreqOperatorAnd requires every term to match instead of any of them
	LowFreqOperatorAnd bool
}
