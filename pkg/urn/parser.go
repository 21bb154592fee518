package urn

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/consts"
)

var (
	// ErrInvalidAddress is returned when address text does not follow the grammar.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidRoot is returned when the first segment does not name the root type.
	ErrInvalidRoot = errors.New("address must start at the root type")

	// urnLexer defines the lexer for address text
	urnLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `'(?:[^']|'')*'`},
		{Name: "Number", Pattern: `-?\d+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Punct", Pattern: `[/\[\]@=]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	// parser is the participle parser instance for addresses
	parser = participle.MustBuild[addressAST](
		participle.Lexer(urnLexer),
		participle.Elide("Whitespace"),
		participle.Map(unquote, "String"),
	)

	defaultParser = NewParser(consts.RootType)
)

type (
	// addressAST is the grammar for a complete address.
	// Syntax: Type[@attr='value' and ...]/Type[...]/...
	addressAST struct {
		Segments []*segmentAST `parser:"@@ ( '/' @@ )*"`
	}

	// segmentAST represents a single typed step with an optional filter
	segmentAST struct {
		Type       string          `parser:"@Ident"`
		Predicates []*predicateAST `parser:"( '[' @@ ( 'and' @@ )* ']' )?"`
	}

	// predicateAST represents an @attr='value' equality term
	predicateAST struct {
		Attribute string `parser:"'@' @Ident '='"`
		Value     string `parser:"@(String | Number)"`
	}

	// Parser parses address text, requiring that the first segment names Root.
	Parser struct {
		Root string
	}
)

// NewParser creates a Parser that only accepts addresses rooted at root.
func NewParser(root string) *Parser {
	return &Parser{Root: root}
}

// Parse parses address text using the default root type (Server).
//
// Example:
//
//	addr, err := urn.Parse("Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(addr.Type())                         // Table
//	fmt.Println(addr.Attr("Name"))                   // Orders true
//	fmt.Println(addr.Parent())                       // Server/Database[@Name='Sales'] true
func Parse(text string) (Address, error) {
	return defaultParser.Parse(text)
}

// MustParse is like Parse but panics on error. Intended for tests and
// package level variables.
func MustParse(text string) Address {
	addr, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return addr
}

// Parse parses address text. The first segment must name the parser's root type.
func (p *Parser) Parse(text string) (Address, error) {
	if strings.TrimSpace(text) == "" {
		return Address{}, errors.Wrap(ErrInvalidAddress, "empty address")
	}

	ast, err := parser.ParseString("", text)
	if err != nil {
		return Address{}, errors.Wrapf(ErrInvalidAddress, "%q: %v", text, err)
	}

	segments := make([]Segment, 0, len(ast.Segments))
	for _, s := range ast.Segments {
		seg := Segment{Type: s.Type}
		for _, pr := range s.Predicates {
			if _, dup := seg.Get(pr.Attribute); dup {
				return Address{}, errors.Wrapf(ErrInvalidAddress, "%q: attribute @%s given twice in %s", text, pr.Attribute, s.Type)
			}
			seg.Predicates = append(seg.Predicates, Predicate{Attribute: pr.Attribute, Value: pr.Value})
		}
		segments = append(segments, seg)
	}

	if p.Root != "" && segments[0].Type != p.Root {
		return Address{}, errors.Wrapf(ErrInvalidRoot, "%q starts at %s, expected %s", text, segments[0].Type, p.Root)
	}

	return Address{segments: segments}, nil
}

// unquote strips the surrounding quotes of a String token and collapses
// doubled quotes.
func unquote(t lexer.Token) (lexer.Token, error) {
	t.Value = Unescape(t.Value[1 : len(t.Value)-1])
	return t, nil
}
