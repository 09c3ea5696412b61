// Package parser converts a lexer.Token stream into a root value.Block.
// The language is homoiconic: there is no separate AST node hierarchy —
// source text parses directly into the first-class value tree the
// translator and VM operate on.
package parser

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"artlang/internal/lexer"
	"artlang/internal/value"
)

// Error is a parse error with a source position.
type Error struct {
	Message string
	Pos     lexer.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message)
}

// Parser consumes a token stream and produces value.Block trees.
type Parser struct {
	tokens []lexer.Token
	pos    int
	Errors []error
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) peek() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) atEnd() bool        { return p.peek().Type == lexer.TokenEOF }
func (p *Parser) advance() lexer.Token {
	t := p.tokens[p.pos]
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *Parser) errf(pos lexer.Position, format string, args ...interface{}) {
	p.Errors = append(p.Errors, &Error{Message: fmt.Sprintf(format, args...), Pos: pos})
}

// Parse scans the whole token stream into a root Block value (PlainBlock).
func (p *Parser) Parse() value.Value {
	elems := p.parseElements(lexer.TokenEOF)
	return value.BlockVal(elems)
}

// parseElements reads values until `closing` (consumed) or EOF, skipping
// EOL tokens (which are statement separators with no syntactic weight in
// the value tree).
func (p *Parser) parseElements(closing lexer.TokenType) []value.Value {
	var out []value.Value
	for {
		t := p.peek()
		if t.Type == lexer.TokenEOF {
			if closing != lexer.TokenEOF {
				p.errf(t.Pos, "unterminated block: expected %s before end of input", closing)
			}
			return out
		}
		if t.Type == closing {
			p.advance()
			return out
		}
		if t.Type == lexer.TokenEOL {
			p.advance()
			continue
		}
		v, ok := p.parseValue()
		if ok {
			out = append(out, v)
		}
	}
}

func (p *Parser) parseValue() (value.Value, bool) {
	t := p.advance()
	switch t.Type {
	case lexer.TokenWord:
		return value.WordVal(t.Text), true
	case lexer.TokenLabel:
		return value.LabelVal(t.Text), true
	case lexer.TokenLiteral:
		return value.LiteralVal(t.Text), true
	case lexer.TokenAttribute:
		return value.AttributeVal(t.Text), true
	case lexer.TokenAttributeLabel:
		return value.AttrLabelVal(t.Text), true
	case lexer.TokenPath:
		return value.PathVal(t.Text), true
	case lexer.TokenPathLabel:
		return value.PathLabelVal(t.Text), true
	case lexer.TokenSymbol:
		return value.SymbolVal(t.Text), true
	case lexer.TokenSymbolLiteral:
		return value.SymbolLiteralVal(t.Text), true
	case lexer.TokenType_:
		return value.TypeVal(t.Text), true
	case lexer.TokenString:
		return value.StringVal(t.Text), true
	case lexer.TokenInteger:
		return p.parseIntegerText(t), true
	case lexer.TokenFloating:
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			p.errf(t.Pos, "invalid numeric literal %q", t.Text)
			return value.NullVal(), false
		}
		return value.FloatVal(f), true
	case lexer.TokenVersion:
		return p.parseVersionText(t), true
	case lexer.TokenBlockOpen:
		elems := p.parseElements(lexer.TokenBlockClose)
		b := value.BlockVal(elems)
		return b, true
	case lexer.TokenInlineOpen:
		elems := p.parseElements(lexer.TokenInlineClose)
		return value.InlineVal(elems), true
	case lexer.TokenDictOpen:
		elems := p.parseElements(lexer.TokenBlockClose)
		v := value.BlockVal(elems)
		v.Blk.Kind = value.DictBlock
		return v, true
	case lexer.TokenArrayOpen:
		elems := p.parseElements(lexer.TokenBlockClose)
		v := value.BlockVal(elems)
		v.Blk.Kind = value.ArrayBlock
		return v, true
	case lexer.TokenFuncOpen:
		elems := p.parseElements(lexer.TokenBlockClose)
		v := value.BlockVal(elems)
		v.Blk.Kind = value.FuncBlock
		return v, true
	case lexer.TokenBlockClose, lexer.TokenInlineClose:
		p.errf(t.Pos, "unexpected closing delimiter %q", t.Text)
		return value.NullVal(), false
	default:
		p.errf(t.Pos, "unexpected token %s", t.Type)
		return value.NullVal(), false
	}
}

func (p *Parser) parseIntegerText(t lexer.Token) value.Value {
	if i, err := strconv.ParseInt(t.Text, 10, 64); err == nil {
		return value.IntVal(i)
	}
	b, ok := new(big.Int).SetString(t.Text, 10)
	if !ok {
		p.errf(t.Pos, "invalid numeric literal %q", t.Text)
		return value.IntVal(0)
	}
	return value.BigIntVal(b)
}

func (p *Parser) parseVersionText(t lexer.Token) value.Value {
	parts := strings.SplitN(t.Text, ".", 3)
	v := value.Version{}
	if len(parts) > 0 {
		v.Major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		v.Minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		v.Patch, _ = strconv.Atoi(parts[2])
	}
	return value.Value{Tag: value.VersionTag, Ver: v}
}

// ParseSource is a convenience wrapper: scan then parse, aggregating any
// lexical errors ahead of parse errors.
func ParseSource(src, file string) (value.Value, []error) {
	sc := lexer.NewScannerFile(src, file)
	tokens := sc.ScanTokens()
	p := NewParser(tokens)
	root := p.Parse()
	var errs []error
	errs = append(errs, sc.Errors...)
	errs = append(errs, p.Errors...)
	return root, errs
}
