package grammar

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
	"chanfilter/catalog"
)

// ErrUnterminated is returned for a quote with no closing partner.
var ErrUnterminated = errors.New("unterminated quote")

// Lexer turns user text into tokens using a channel catalog.
type Lexer struct {
	catalog  catalog.Catalog
	maxWords int
}

// NewLexer creates a lexer.
func NewLexer(cat catalog.Catalog) *Lexer {

	lx := &Lexer{catalog: cat, maxWords: 1}
	for _, op := range nt.Operators {
		lx.maxWords = max(lx.maxWords, len(strings.Fields(op.Symbol)))
	}
	for _, info := range cat.Channels() {
		lx.maxWords = max(lx.maxWords, len(strings.Fields(info.DisplayName())))
	}
	return lx
}

type word struct {
	text   string
	quoted bool
}

// Tokenize splits free text such as "Active Area is not null and shotnum = 1"
// into tokens, matching the longest run of words against operators and
// channel labels. Unmatched words become literals.
func (lx *Lexer) Tokenize(text string) (expr nt.Expression, err error) {

	words, err := scan(text)
	if err != nil {
		return
	}

	expr = nt.Expression{}
	for i := 0; i < len(words); {
		tok, n := lx.match(expr, words[i:])
		expr = append(expr, tok)
		i += n
	}
	return
}

// match reads the next token from words. After a comparison only a value
// fits, so the word is a literal even if it names a channel or operator.
func (lx *Lexer) match(expr nt.Expression, words []word) (nt.Token, int) {

	if words[0].quoted {
		return nt.Literal{Raw: words[0].text, Type: nt.StringLiteral}, 1
	}

	if expecting(expr) == expectValue {
		return nt.NewLiteral(words[0].text), 1
	}

	for n := min(lx.maxWords, len(words)); n > 0; n-- {
		phrase, ok := join(words[:n])
		if !ok {
			continue
		}
		if op, ok := nt.LookupOperator(phrase); ok {
			return op, n
		}
		if info, ok := catalog.Find(lx.catalog, phrase); ok {
			return info.Token(), n
		}
	}

	return nt.NewLiteral(words[0].text), 1
}

func join(words []word) (string, bool) {
	parts := make([]string, len(words))
	for i, w := range words {
		if w.quoted {
			return "", false
		}
		parts[i] = w.text
	}
	return strings.Join(parts, " "), true
}

func isSymbol(r rune) bool {
	return r == '=' || r == '!' || r == '<' || r == '>'
}

// scan splits text on whitespace, keeps quoted runs whole and separates
// symbolic operators from adjoining words.
func scan(text string) (words []word, err error) {

	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'' || r == '"':
			end := i + 1
			for end < len(runes) && runes[end] != r {
				end++
			}
			if end == len(runes) {
				err = errors.Wrapf(ErrUnterminated, "at character %d", i)
				return
			}
			words = append(words, word{text: string(runes[i+1 : end]), quoted: true})
			i = end + 1

		case isSymbol(r):
			end := i
			for end < len(runes) && isSymbol(runes[end]) {
				end++
			}
			words = append(words, word{text: string(runes[i:end])})
			i = end

		default:
			end := i
			for end < len(runes) && !unicode.IsSpace(runes[end]) && !isSymbol(runes[end]) && runes[end] != '\'' && runes[end] != '"' {
				end++
			}
			words = append(words, word{text: string(runes[i:end])})
			i = end
		}
	}
	return
}

// Suggest returns type-ahead candidates for the token following expr:
// channels where a clause starts, operators after a channel, connectors after
// a complete clause and nothing where a value is expected.
func (lx *Lexer) Suggest(expr nt.Expression, prefix string) (toks []nt.Token) {

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return
	}

	switch expecting(expr) {
	case expectChannel:
		for _, info := range catalog.Filterables(lx.catalog) {
			if hasPrefix(info.SystemName, prefix) || hasPrefix(info.DisplayName(), prefix) {
				toks = append(toks, info.Token())
			}
		}
	case expectOperator:
		for _, op := range nt.Operators {
			if op.Kind != nt.Logical && hasPrefix(op.Symbol, prefix) {
				toks = append(toks, op)
			}
		}
	case expectConnector:
		for _, op := range nt.Operators {
			if op.Kind == nt.Logical && hasPrefix(op.Symbol, prefix) {
				toks = append(toks, op)
			}
		}
	}
	return
}

// Resolve turns editor input into the token to append to expr: the first
// suggestion if there is one, a literal otherwise.
func (lx *Lexer) Resolve(expr nt.Expression, input string) nt.Token {

	if toks := lx.Suggest(expr, input); len(toks) > 0 {
		return toks[0]
	}
	return nt.NewLiteral(strings.TrimSpace(input))
}

func hasPrefix(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), prefix)
}

// expecting guesses the slot that follows expr from its last token.
func expecting(expr nt.Expression) state {

	if len(expr) == 0 {
		return expectChannel
	}

	switch tok := expr[len(expr)-1].(type) {
	case nt.Channel:
		return expectOperator
	case nt.Operator:
		switch tok.Kind {
		case nt.Logical:
			return expectChannel
		case nt.Comparison:
			return expectValue
		}
	}
	return expectConnector
}
