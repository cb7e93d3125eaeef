package syntax

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/rustle/pkg/token"
)

// Grammar (items only):
//
//	file      → item* EOF
//	item      → attr* vis? ( fn | struct | enum | const | static | trait
//	                       | type | mod | impl | use | macro_call )
//	attr      → '#' '!'? '[' tt ']'
//	vis       → 'pub' ( '(' tt ')' )?
//	macro_call→ path '!' IDENT? token_tree ';'?
//
// Bodies, field lists and signatures are kept as token trees.

// Parser parses a token stream into a SourceFile.
type Parser struct {
	filename string
	toks     []token.Token
	pos      int
	errors   []*ParseError
}

// NewParser creates a parser for the given source text.
func NewParser(filename, text string) *Parser {
	return &Parser{
		filename: filename,
		toks:     Tokenize(filename, text),
	}
}

// Parse parses text as an item list. It never fails: syntax errors are
// recorded on the returned file and parsing resumes at the next item.
func Parse(filename, text string) *SourceFile {
	return NewParser(filename, text).ParseFile()
}

// Empty returns an empty source file.
func Empty() *SourceFile {
	return &SourceFile{}
}

// ParseFile parses the whole token stream.
func (p *Parser) ParseFile() *SourceFile {
	file := &SourceFile{Filename: p.filename}
	file.Items = p.parseItems(false)
	p.finish(&file.base, 0)
	file.Errors = p.errors
	return file
}

// ---------- Token Helpers ----------

func (p *Parser) cur() token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) token.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) check(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) checkPunct(text string) bool {
	return p.cur().IsPunct(text)
}

func (p *Parser) atEOF() bool {
	return p.check(token.EOF)
}

func (p *Parser) next() {
	if !p.atEOF() {
		p.pos++
	}
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) matchPunct(text string) bool {
	if p.checkPunct(text) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) addError(format string, args ...any) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.cur().Span.Start,
		Message: fmt.Sprintf(format, args...),
	})
}

// finish fills in the span and tokens of a node that started at start.
func (p *Parser) finish(b *base, start int) {
	end := p.pos
	if end > len(p.toks) {
		end = len(p.toks)
	}
	toks := p.toks[start:end]
	if n := len(toks); n > 0 && toks[n-1].Kind == token.EOF {
		toks = toks[:n-1]
	}
	b.tokens = toks
	if len(toks) > 0 {
		b.span = toks[0].Span.Cover(toks[len(toks)-1].Span)
	}
}

// ---------- Items ----------

// parseItems parses items until EOF, or until the closing '}' of an item
// block when nested is set.
func (p *Parser) parseItems(nested bool) []Item {
	var items []Item
	for {
		switch {
		case p.atEOF():
			if nested {
				p.addError(ErrUnclosedBlock)
			}
			return items
		case p.check(token.RBRACE):
			if nested {
				p.next()
				return items
			}
			p.addError(ErrExpectedItem, "'}'")
			p.next()
		case p.matchPunct(";"):
			// Empty item.
		default:
			if it := p.parseItem(); it != nil {
				items = append(items, it)
			}
		}
	}
}

func (p *Parser) parseItem() Item {
	start := p.pos
	p.skipAttributes()
	p.skipVisibility()

	// Qualifiers
	for {
		switch {
		case p.check(token.CONST) && p.isFnQualifierAhead(1):
			p.next()
		case p.check(token.ASYNC), p.check(token.UNSAFE):
			p.next()
		case p.check(token.EXTERN) && p.peekAt(1).Kind != token.CRATE:
			p.next()
			p.match(token.STRING)
			if p.check(token.LBRACE) {
				// Foreign block; its declarations are not tracked.
				p.parseTokenTree()
				return nil
			}
		case p.check(token.IDENT) && p.cur().Text == "default" && p.isItemKeyword(p.peekAt(1).Kind):
			p.next()
		default:
			return p.parseItemBody(start)
		}
	}
}

func (p *Parser) isFnQualifierAhead(n int) bool {
	switch p.peekAt(n).Kind {
	case token.FN, token.UNSAFE, token.ASYNC, token.EXTERN:
		return true
	}
	return false
}

func (p *Parser) isItemKeyword(k token.Kind) bool {
	switch k {
	case token.FN, token.CONST, token.TYPE, token.UNSAFE, token.ASYNC, token.IMPL:
		return true
	}
	return false
}

func (p *Parser) parseItemBody(start int) Item {
	switch p.cur().Kind {
	case token.FN:
		return p.parseFn(start)
	case token.STRUCT:
		return p.parseStruct(start)
	case token.ENUM:
		return p.parseEnum(start)
	case token.CONST:
		return p.parseConst(start)
	case token.STATIC:
		return p.parseStatic(start)
	case token.TRAIT:
		return p.parseTrait(start)
	case token.TYPE:
		return p.parseTypeAlias(start)
	case token.MOD:
		return p.parseModule(start)
	case token.IMPL:
		return p.parseImpl(start)
	case token.USE:
		return p.parseUse(start)
	case token.EXTERN:
		// extern crate
		return p.parseUse(start)
	}
	if p.isMacroCallAhead() {
		return p.parseMacroCall(start)
	}

	p.addError(ErrExpectedItem, describe(p.cur()))
	if !p.check(token.RBRACE) {
		p.skipOne()
	}
	return nil
}

func (p *Parser) parseFn(start int) Item {
	p.next() // fn
	n := &FnDef{Name: p.expectName("fn")}
	p.skipGenerics()
	if p.check(token.LPAREN) {
		n.Params = p.parseTokenTree()
	} else {
		p.addError(ErrExpectedDelimiter, describe(p.cur()))
	}
	if p.skipUntilBodyOrSemi() {
		n.Body = p.parseTokenTree()
	}
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseStruct(start int) Item {
	p.next() // struct
	n := &StructDef{Name: p.expectName("struct")}
	p.skipGenerics()
	switch {
	case p.check(token.LPAREN):
		n.Fields = p.parseTokenTree()
		if p.skipUntilBodyOrSemi() {
			p.addError(ErrExpectedSemicolon, "tuple struct")
			p.parseTokenTree()
		}
	case p.skipUntilBodyOrSemi():
		n.Fields = p.parseTokenTree()
	}
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseEnum(start int) Item {
	p.next() // enum
	n := &EnumDef{Name: p.expectName("enum")}
	p.skipGenerics()
	if p.skipUntilBodyOrSemi() {
		n.Variants = p.parseTokenTree()
	} else {
		p.addError(ErrExpectedDelimiter, "';'")
	}
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseConst(start int) Item {
	p.next() // const
	n := &ConstDef{Name: p.expectName("const")}
	p.skipUntilSemi("const")
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseStatic(start int) Item {
	p.next() // static
	n := &StaticDef{Mutable: p.match(token.MUT)}
	n.Name = p.expectName("static")
	p.skipUntilSemi("static")
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseTrait(start int) Item {
	p.next() // trait
	n := &TraitDef{Name: p.expectName("trait")}
	p.skipGenerics()
	if p.skipUntilBodyOrSemi() {
		p.next() // {
		n.Items = p.parseItems(true)
	}
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseTypeAlias(start int) Item {
	p.next() // type
	n := &TypeAliasDef{Name: p.expectName("type")}
	p.skipUntilSemi("type")
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseModule(start int) Item {
	p.next() // mod
	n := &ModuleDef{Name: p.expectName("mod")}
	switch {
	case p.matchPunct(";"):
	case p.check(token.LBRACE):
		p.next()
		n.Inline = true
		n.Items = p.parseItems(true)
	default:
		p.addError(ErrExpectedSemicolon, "mod")
	}
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseImpl(start int) Item {
	p.next() // impl
	n := &ImplBlock{}
	p.skipGenerics()
	if p.skipUntilBodyOrSemi() {
		p.next() // {
		n.Items = p.parseItems(true)
	} else {
		p.addError(ErrExpectedDelimiter, "';'")
	}
	p.finish(&n.base, start)
	return n
}

func (p *Parser) parseUse(start int) Item {
	p.next() // use / extern
	n := &UseItem{}
	p.skipUntilSemi("use")
	p.finish(&n.base, start)
	return n
}

// ---------- Macro Calls ----------

func isPathSegment(t token.Token) bool {
	switch t.Kind {
	case token.IDENT, token.SELF, token.SUPER, token.CRATE:
		return true
	}
	return false
}

// isMacroCallAhead reports whether the upcoming tokens form `path !`.
func (p *Parser) isMacroCallAhead() bool {
	i := 0
	if p.peekAt(i).IsPunct("::") {
		i++
	}
	for {
		if !isPathSegment(p.peekAt(i)) {
			return false
		}
		i++
		if p.peekAt(i).IsPunct("!") {
			return true
		}
		if !p.peekAt(i).IsPunct("::") {
			return false
		}
		i++
	}
}

func (p *Parser) parseMacroCall(start int) Item {
	var path []string
	if p.matchPunct("::") {
		path = append(path, "")
	}
	for isPathSegment(p.cur()) {
		path = append(path, p.cur().Text)
		p.next()
		if !p.matchPunct("::") {
			break
		}
	}
	p.matchPunct("!")

	n := &MacroCall{Path: strings.Join(path, "::")}
	if p.check(token.IDENT) {
		n.Name = p.cur().Text
		p.next()
	}
	if token.IsOpenDelim(p.cur().Kind) {
		delim := p.cur().Kind
		n.Arg = p.parseTokenTree()
		if delim != token.LBRACE && !p.matchPunct(";") {
			p.addError(ErrExpectedSemicolon, "macro call")
		}
	} else {
		p.addError(ErrExpectedDelimiter, describe(p.cur()))
	}
	p.finish(&n.base, start)
	return n
}

// ---------- Token Trees ----------

// parseTokenTree consumes a delimited token tree starting at the current
// opening delimiter. Mismatched or missing closers mark the tree unbalanced
// but never abort the parse.
func (p *Parser) parseTokenTree() *TokenTree {
	start := p.pos
	n := &TokenTree{balanced: true}
	if !token.IsOpenDelim(p.cur().Kind) {
		p.addError(ErrExpectedDelimiter, describe(p.cur()))
		n.balanced = false
		p.finish(&n.base, start)
		return n
	}

	stack := []token.Kind{p.cur().Kind}
	p.next()
	for len(stack) > 0 {
		tok := p.cur()
		switch {
		case tok.Kind == token.EOF:
			p.addError(ErrUnclosedDelimiter, describeKind(stack[len(stack)-1]))
			n.balanced = false
			stack = stack[:0]
		case token.IsOpenDelim(tok.Kind):
			stack = append(stack, tok.Kind)
			p.next()
		case token.IsCloseDelim(tok.Kind):
			top := stack[len(stack)-1]
			if token.ClosingFor(top) == tok.Kind {
				stack = stack[:len(stack)-1]
				p.next()
				continue
			}
			p.addError(ErrMismatchedDelim, describe(tok), describeKind(token.ClosingFor(top)))
			n.balanced = false
			// Close every level down to the matching opener, if any.
			if i := matchingOpener(stack, tok.Kind); i >= 0 {
				stack = stack[:i]
			}
			p.next()
		default:
			p.next()
		}
	}
	p.finish(&n.base, start)
	return n
}

func matchingOpener(stack []token.Kind, closer token.Kind) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if token.ClosingFor(stack[i]) == closer {
			return i
		}
	}
	return -1
}

// ---------- Skipping ----------

func (p *Parser) skipAttributes() {
	for p.checkPunct("#") {
		if p.peekAt(1).IsPunct("!") && p.peekAt(2).Kind == token.LBRACKET {
			p.next()
			p.next()
		} else if p.peekAt(1).Kind == token.LBRACKET {
			p.next()
		} else {
			return
		}
		p.parseTokenTree()
	}
}

func (p *Parser) skipVisibility() {
	if p.match(token.PUB) && p.check(token.LPAREN) {
		p.parseTokenTree()
	}
}

// skipGenerics skips a `<...>` parameter list.
func (p *Parser) skipGenerics() {
	if !p.checkPunct("<") {
		return
	}
	depth := 0
	for !p.atEOF() {
		tok := p.cur()
		switch {
		case tok.Kind == token.LBRACE, token.IsCloseDelim(tok.Kind), tok.IsPunct(";"):
			return
		case tok.IsPunct("<"):
			depth++
		case tok.IsPunct(">"):
			depth--
		case token.IsOpenDelim(tok.Kind):
			p.parseTokenTree()
			continue
		}
		p.next()
		if depth == 0 {
			return
		}
	}
}

// skipUntilBodyOrSemi skips signature tokens. It reports true when stopped at
// an opening '{' and false after consuming ';' or at a point where no body
// can follow.
func (p *Parser) skipUntilBodyOrSemi() bool {
	for {
		tok := p.cur()
		switch {
		case tok.Kind == token.LBRACE:
			return true
		case tok.IsPunct(";"):
			p.next()
			return false
		case tok.Kind == token.EOF, tok.Kind == token.RBRACE:
			p.addError(ErrUnexpectedEndOfFile)
			return false
		case token.IsOpenDelim(tok.Kind):
			p.parseTokenTree()
		case token.IsCloseDelim(tok.Kind):
			p.addError(ErrExpectedItem, describe(tok))
			p.next()
		default:
			p.next()
		}
	}
}

// skipUntilSemi skips to and consumes the terminating ';' of an item,
// stepping over nested token trees such as initializer blocks.
func (p *Parser) skipUntilSemi(what string) {
	for {
		tok := p.cur()
		switch {
		case tok.IsPunct(";"):
			p.next()
			return
		case tok.Kind == token.EOF, tok.Kind == token.RBRACE:
			p.addError(ErrExpectedSemicolon, what)
			return
		case token.IsOpenDelim(tok.Kind):
			p.parseTokenTree()
		default:
			p.next()
		}
	}
}

// skipOne skips the current token, or the whole tree if it opens one.
func (p *Parser) skipOne() {
	if token.IsOpenDelim(p.cur().Kind) {
		p.parseTokenTree()
		return
	}
	p.next()
}

func (p *Parser) expectName(after string) string {
	tok := p.cur()
	if tok.Kind == token.IDENT {
		p.next()
		return tok.Text
	}
	p.addError(ErrExpectedName, after)
	return ""
}

func describe(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Text)
}

func describeKind(k token.Kind) string {
	switch k {
	case token.LPAREN:
		return "'('"
	case token.RPAREN:
		return "')'"
	case token.LBRACE:
		return "'{'"
	case token.RBRACE:
		return "'}'"
	case token.LBRACKET:
		return "'['"
	case token.RBRACKET:
		return "']'"
	}
	return k.String()
}
