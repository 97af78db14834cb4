package query

import (
	"strconv"
	"strings"
)

// Parse parses query language text into a Detail.
//
//	find customer (id,name) fetch orders (+query(50)) where status = ? order by name limit 20 offset 10
//
// Where and order by clauses are kept as raw text: their words are joined with a
// single space, except that a word starting with '(' is appended without one.
func Parse(text string) (*Detail, error) {
	p := &detailParser{lexer: NewLexer(text), detail: NewDetail()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.detail, nil
}

type detailParser struct {
	lexer  *Lexer
	detail *Detail
}

func (p *detailParser) parse() error {
	if p.lexer.IsEmpty() {
		return nil
	}
	p.lexer.Next()

	var err error
	switch {
	case p.lexer.IsMatch("select"):
		err = p.readSelect()
	case p.lexer.IsMatch("find"):
		var base *Properties
		if base, err = p.readFindFetch(); err == nil {
			p.detail.Base = base
		}
	default:
		err = p.process()
	}
	for err == nil && !p.lexer.Finished() {
		err = p.process()
	}
	return err
}

func (p *detailParser) isFetch() bool {
	return p.lexer.IsMatch("fetch") || p.lexer.IsMatch("join")
}

func (p *detailParser) process() error {
	switch {
	case p.isFetch():
		props, err := p.readFindFetch()
		if err != nil {
			return err
		}
		p.detail.Fetch(props)
		return nil
	case p.lexer.IsMatch("where"):
		return p.readWhere()
	case p.lexer.IsMatch("order", "by"):
		return p.readOrderBy()
	case p.lexer.IsMatch("limit"):
		return p.readLimit()
	default:
		return p.syntaxError("expected 'fetch', 'where', 'order by' or 'limit' keyword")
	}
}

func (p *detailParser) syntaxError(msg string) error {
	return newSyntaxError(msg, p.lexer.Word(), p.lexer.Text())
}

func (p *detailParser) readSelect() error {
	props, ok := p.lexer.Next()
	if !ok {
		return p.syntaxError("expected (properties) after select")
	}
	if strings.HasPrefix(props, "(") {
		base, err := p.newProperties("", "", props)
		if err != nil {
			return err
		}
		p.detail.Base = base
		p.lexer.Next()
		return nil
	}
	return p.process()
}

func (p *detailParser) readFindFetch() (*Properties, error) {
	path, ok := p.lexer.Next()
	if !ok || p.isClauseEnd() {
		return nil, p.syntaxError("expected a path")
	}

	readAlias := false
	alias := ""
	props := ""
	for {
		token, ok := p.lexer.Next()
		if !ok {
			break
		}
		if !readAlias && p.lexer.IsMatch("as") {
			if alias, ok = p.lexer.Next(); !ok {
				return nil, p.syntaxError("expected an alias after 'as'")
			}
			readAlias = true
		} else if strings.HasPrefix(token, "(") {
			props = token
			p.lexer.Next()
			break
		} else if p.isClauseEnd() {
			break
		} else if !readAlias {
			alias = token
			readAlias = true
		} else {
			return nil, p.syntaxError("expected (properties) or 'fetch', 'where', 'order by' or 'limit'")
		}
	}
	return p.newProperties(path, alias, props)
}

func (p *detailParser) newProperties(path, alias, props string) (*Properties, error) {
	raw := ""
	if props != "" {
		raw = strings.TrimSuffix(strings.TrimPrefix(props, "("), ")")
	}
	opts, err := ParseProperties(raw)
	if err != nil {
		return nil, err
	}
	return &Properties{Path: path, Alias: alias, Options: opts}, nil
}

// isClauseEnd checks for the keywords ending a find or fetch clause without
// consuming a two word "order by".
func (p *detailParser) isClauseEnd() bool {
	w := p.lexer.Word()
	if strings.EqualFold(w, "order") {
		return p.peekIs("by")
	}
	return p.lexer.IsMatch("fetch") || p.lexer.IsMatch("join") ||
		p.lexer.IsMatch("where") || p.lexer.IsMatch("limit")
}

func (p *detailParser) peekIs(word string) bool {
	l := p.lexer
	return l.index+1 < len(l.words) && strings.EqualFold(l.words[l.index+1], word)
}

func (p *detailParser) readWhere() error {
	var sb strings.Builder
	next := ""
	for {
		w, ok := p.lexer.Next()
		if !ok {
			break
		}
		if p.lexer.IsMatch("order", "by") {
			next = "order"
			break
		}
		if p.lexer.IsMatch("limit") {
			next = "limit"
			break
		}
		appendWord(&sb, w)
	}
	p.detail.Where = strings.TrimSpace(sb.String())

	switch next {
	case "order":
		return p.readOrderBy()
	case "limit":
		return p.readLimit()
	}
	return nil
}

func (p *detailParser) readOrderBy() error {
	var sb strings.Builder
	for {
		w, ok := p.lexer.Next()
		if !ok {
			break
		}
		if p.lexer.IsMatch("limit") {
			break
		}
		appendWord(&sb, w)
	}
	p.detail.OrderBy = strings.TrimSpace(sb.String())

	if !p.lexer.Finished() {
		return p.readLimit()
	}
	return nil
}

func appendWord(sb *strings.Builder, w string) {
	if !strings.HasPrefix(w, "(") {
		sb.WriteString(" ")
	}
	sb.WriteString(w)
}

func (p *detailParser) readLimit() error {
	maxRows, err := p.readInt()
	if err != nil {
		return err
	}
	p.detail.MaxRows = maxRows

	if _, ok := p.lexer.Next(); ok {
		if !p.lexer.IsMatch("offset") {
			return p.syntaxError("expected offset keyword")
		}
		firstRow, err := p.readInt()
		if err != nil {
			return err
		}
		p.detail.FirstRow = firstRow
		p.lexer.Next()
	}
	return nil
}

func (p *detailParser) readInt() (int, error) {
	w, _ := p.lexer.Next()
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, &SyntaxError{
			Msg:   "expected an integer for maxRows or firstRow in limit offset clause",
			Token: w,
			Text:  p.lexer.Text(),
			Err:   err,
		}
	}
	return n, nil
}
