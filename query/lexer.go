package query

import (
	"strings"
	"unicode"
)

// Lexer splits query text into words. A word starting with '(' runs to its
// balanced ')' so that a property group like "(id, name)" is a single word.
type Lexer struct {
	text  string
	pos   int
	word  string
	words []string
	index int
}

func NewLexer(text string) *Lexer {
	l := &Lexer{text: text, index: -1}
	l.words = l.split()
	return l
}

func (l *Lexer) split() []string {
	var words []string
	for {
		w, ok := l.scan()
		if !ok {
			return words
		}
		words = append(words, w)
	}
}

func (l *Lexer) scan() (string, bool) {
	for l.pos < len(l.text) && unicode.IsSpace(rune(l.text[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.text) {
		return "", false
	}

	start := l.pos
	if l.text[l.pos] == '(' {
		depth := 0
		for l.pos < len(l.text) {
			switch l.text[l.pos] {
			case '(':
				depth++
			case ')':
				depth--
			}
			l.pos++
			if depth == 0 {
				break
			}
		}
		return l.text[start:l.pos], true
	}

	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c == '(' || unicode.IsSpace(rune(c)) {
			break
		}
		l.pos++
	}
	return l.text[start:l.pos], true
}

// Text returns the original query text
func (l *Lexer) Text() string {
	return l.text
}

func (l *Lexer) IsEmpty() bool {
	return len(l.words) == 0
}

// Next advances to the next word. It returns false once all words are consumed.
func (l *Lexer) Next() (string, bool) {
	if l.index < len(l.words) {
		l.index++
	}
	if l.index >= len(l.words) {
		l.word = ""
		return "", false
	}
	l.word = l.words[l.index]
	return l.word, true
}

// Word returns the current word, empty when finished
func (l *Lexer) Word() string {
	return l.word
}

// Finished reports whether the lexer has moved past the last word
func (l *Lexer) Finished() bool {
	return l.index >= len(l.words)
}

// IsMatch reports whether the current word and the words after it match the
// given keywords, ignoring case. A multi word match consumes the extra words.
func (l *Lexer) IsMatch(keywords ...string) bool {
	if l.index < 0 || l.index+len(keywords) > len(l.words) {
		return false
	}
	for i, keyword := range keywords {
		if !strings.EqualFold(l.words[l.index+i], keyword) {
			return false
		}
	}
	if len(keywords) > 1 {
		l.index += len(keywords) - 1
		l.word = l.words[l.index]
	}
	return true
}
