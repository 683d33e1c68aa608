package sdsl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

// maxErrors bounds the number of syntax errors recorded per file.
const maxErrors = 10

// bailout unwinds the parser to the nearest recovery point.
type bailout struct{}

// Parser parses fragment tokens into an AST.
type Parser struct {
	tokens  []Token
	current int
	source  string
	errs    diag.Errors
}

// NewParser creates a parser for tokens read from the named source.
func NewParser(source string, tokens []Token) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse preprocesses text with defines, then parses the fragment it holds.
// The returned error is a diag.Errors list of ErrParse messages. The
// fragment's PreprocessedHash digests the macro-expanded token stream, so
// two macro sets that expand to the same tokens hash equally.
func Parse(source, text string, defines map[string]string) (*ast.Fragment, error) {
	pre, env, err := Preprocess(text, defines)
	if err != nil {
		return nil, diag.Errors{{
			Severity: diag.SeverityError,
			Code:     diag.ErrParse,
			Source:   source,
			Text:     err.Error(),
		}}
	}
	tokens := expandMacros(NewLexer(pre).Tokenize(), env)
	p := NewParser(source, tokens)
	frag := p.Fragment()
	if len(p.errs) > 0 {
		return frag, p.errs
	}
	frag.PreprocessedHash = hashTokens(tokens)
	return frag, nil
}

func hashTokens(tokens []Token) string {
	h := sha256.New()
	for _, t := range tokens {
		h.Write([]byte(t.Lexeme))
		h.Write([]byte{' '})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Errors returns the syntax errors recorded so far.
func (p *Parser) Errors() diag.Errors { return p.errs }

// Fragment parses a complete fragment declaration. It returns nil when the
// declaration header itself cannot be parsed.
func (p *Parser) Fragment() (frag *ast.Fragment) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			frag = nil
		}
	}()

	if !p.check(TokenShader) {
		p.fail(p.peek(), "expected shader declaration, found %q", p.peek().Lexeme)
	}
	start := p.advance()
	name := p.expectIdent("shader name")
	frag = &ast.Fragment{Name: name.Lexeme, Span: span(start)}

	if p.match(TokenLess) {
		for {
			typ := p.typeSpec()
			id := p.expectIdent("generic parameter name")
			frag.GenericParams = append(frag.GenericParams, &ast.Variable{Name: id.Lexeme, Type: typ, Span: span(id)})
			if !p.match(TokenComma) {
				break
			}
		}
		p.expect(TokenGreater, "to close generic parameters")
	}
	if p.match(TokenColon) {
		for {
			frag.Bases = append(frag.Bases, p.typeName())
			if !p.match(TokenComma) {
				break
			}
		}
	}
	p.expect(TokenLeftBrace, "to open the shader body")
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		frag.Members = append(frag.Members, p.memberSafe()...)
	}
	p.expect(TokenRightBrace, "to close the shader body")
	p.match(TokenSemicolon)
	if !p.isAtEnd() {
		p.errorAt(p.peek(), "unexpected %q after shader declaration", p.peek().Lexeme)
	}
	return frag
}

func (p *Parser) memberSafe() (members []ast.Member) {
	start := p.current
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			members = nil
			if p.current == start {
				p.advance()
			}
			p.synchronize()
		}
	}()
	return p.member()
}

func (p *Parser) member() []ast.Member {
	attrs := p.attributes()
	quals := p.qualifiers()

	switch p.peek().Kind {
	case TokenSemicolon:
		p.advance()
		return nil
	case TokenStruct:
		return []ast.Member{p.structDecl()}
	case TokenTypedef:
		return []ast.Member{p.typedef()}
	case TokenCbuffer:
		return p.cbuffer(quals)
	}

	typ := p.typeSpec()
	name := p.expectIdent("member name")
	if p.check(TokenLeftParen) {
		return []ast.Member{p.method(attrs, quals, typ, name)}
	}
	vars := p.declarators(attrs, quals, typ, name)
	p.expect(TokenSemicolon, "after member declaration")
	members := make([]ast.Member, len(vars))
	for i, v := range vars {
		members[i] = v
	}
	return members
}

func (p *Parser) attributes() []*ast.Attribute {
	var attrs []*ast.Attribute
	for p.check(TokenLeftBracket) {
		start := p.advance()
		name := p.expectIdent("attribute name")
		attr := &ast.Attribute{Name: name.Lexeme, Span: span(start)}
		if p.match(TokenLeftParen) {
			for !p.check(TokenRightParen) && !p.isAtEnd() {
				tok := p.advance()
				if tok.Kind == TokenStringLiteral {
					attr.Args = append(attr.Args, strings.Trim(tok.Lexeme, `"`))
				} else if tok.Kind != TokenComma {
					attr.Args = append(attr.Args, tok.Lexeme)
				}
			}
			p.expect(TokenRightParen, "to close attribute arguments")
		}
		p.expect(TokenRightBracket, "to close attribute")
		attrs = append(attrs, attr)
	}
	return attrs
}

var qualifierTokens = map[TokenKind]ast.Qualifier{
	TokenStage:       ast.QualStage,
	TokenStream:      ast.QualStream,
	TokenPatchStream: ast.QualPatchStream,
	TokenCompose:     ast.QualExtern,
	TokenConst:       ast.QualConst,
	TokenStatic:      ast.QualStatic,
	TokenClone:       ast.QualClone,
	TokenOverride:    ast.QualOverride,
	TokenAbstract:    ast.QualAbstract,
	TokenInternal:    ast.QualInternal,
	TokenIn:          ast.QualIn,
	TokenOut:         ast.QualOut,
	TokenInOut:       ast.QualInOut,
}

func (p *Parser) qualifiers() ast.Qualifier {
	var q ast.Qualifier
	for {
		qq, ok := qualifierTokens[p.peek().Kind]
		if !ok {
			return q
		}
		p.advance()
		q |= qq
	}
}

func (p *Parser) structDecl() *ast.StructDecl {
	start := p.advance()
	name := p.expectIdent("struct name")
	s := &ast.StructDecl{Name: name.Lexeme, Span: span(start)}
	p.expect(TokenLeftBrace, "to open struct body")
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		attrs := p.attributes()
		quals := p.qualifiers()
		typ := p.typeSpec()
		id := p.expectIdent("field name")
		s.Fields = append(s.Fields, p.declarators(attrs, quals, typ, id)...)
		p.expect(TokenSemicolon, "after struct field")
	}
	p.expect(TokenRightBrace, "to close struct body")
	p.expect(TokenSemicolon, "after struct declaration")
	return s
}

func (p *Parser) typedef() *ast.Typedef {
	start := p.advance()
	typ := p.typeSpec()
	name := p.expectIdent("typedef name")
	if dims := p.dims(); dims != nil {
		typ = &ast.ArrayType{Elem: typ, Dims: dims, Span: typ.Pos()}
	}
	p.expect(TokenSemicolon, "after typedef")
	return &ast.Typedef{Name: name.Lexeme, Type: typ, Span: span(start)}
}

func (p *Parser) cbuffer(quals ast.Qualifier) []ast.Member {
	p.advance()
	name := p.expectIdent("cbuffer name")
	p.expect(TokenLeftBrace, "to open cbuffer body")
	var members []ast.Member
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		for _, m := range p.member() {
			v, ok := m.(*ast.Variable)
			if !ok {
				p.fail(p.previous(), "only variables may be declared in cbuffer %s", name.Lexeme)
			}
			v.CBuffer = name.Lexeme
			v.Qualifiers |= quals
			members = append(members, v)
		}
	}
	p.expect(TokenRightBrace, "to close cbuffer body")
	p.match(TokenSemicolon)
	return members
}

func (p *Parser) method(attrs []*ast.Attribute, quals ast.Qualifier, ret ast.Type, name Token) *ast.Method {
	m := &ast.Method{
		Name:       name.Lexeme,
		ReturnType: ret,
		Qualifiers: quals,
		Attributes: attrs,
		Span:       span(name),
	}
	p.expect(TokenLeftParen, "to open parameters")
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		pattrs := p.attributes()
		pquals := p.qualifiers()
		typ := p.typeSpec()
		id := p.expectIdent("parameter name")
		param := &ast.Variable{Name: id.Lexeme, Type: typ, Qualifiers: pquals, Attributes: pattrs, Span: span(id)}
		if dims := p.dims(); dims != nil {
			param.Type = &ast.ArrayType{Elem: typ, Dims: dims, Span: typ.Pos()}
		}
		if p.match(TokenColon) {
			param.Semantic = p.expectIdent("semantic").Lexeme
		}
		if p.match(TokenEqual) {
			param.Init = p.expression()
		}
		m.Params = append(m.Params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	p.expect(TokenRightParen, "to close parameters")
	if p.match(TokenColon) {
		m.Semantic = p.expectIdent("semantic").Lexeme
	}
	if p.match(TokenSemicolon) {
		return m
	}
	m.Body = p.block()
	return m
}

// declarators parses the rest of a variable declaration whose type and
// first name are already consumed: dimensions, semantic, initializer and
// further comma-separated names.
func (p *Parser) declarators(attrs []*ast.Attribute, quals ast.Qualifier, typ ast.Type, name Token) []*ast.Variable {
	var vars []*ast.Variable
	for {
		v := &ast.Variable{Name: name.Lexeme, Type: typ, Qualifiers: quals, Attributes: attrs, Span: span(name)}
		if len(vars) > 0 {
			v.Type = ast.CloneType(typ)
		}
		if dims := p.dims(); dims != nil {
			v.Type = &ast.ArrayType{Elem: v.Type, Dims: dims, Span: typ.Pos()}
		}
		if p.match(TokenColon) {
			v.Semantic = p.expectIdent("semantic").Lexeme
		}
		if p.match(TokenEqual) {
			switch {
			case p.check(TokenLeftBrace):
				v.Init = p.initList()
			case p.check(TokenStage):
				// compose T c = stage; shares the stage instance of T.
				tok := p.advance()
				v.Init = &ast.Ident{Name: tok.Lexeme, Span: span(tok)}
			default:
				v.Init = p.assignment()
			}
		}
		vars = append(vars, v)
		if !p.match(TokenComma) {
			return vars
		}
		name = p.expectIdent("variable name")
	}
}

func (p *Parser) dims() []ast.Expr {
	var dims []ast.Expr
	for p.match(TokenLeftBracket) {
		if p.match(TokenRightBracket) {
			dims = append(dims, nil)
			continue
		}
		dims = append(dims, p.expression())
		p.expect(TokenRightBracket, "to close array dimension")
	}
	return dims
}

// typeSpec parses a possibly generic type name.
func (p *Parser) typeSpec() ast.Type {
	tn := p.typeName()
	tn.Class = ast.ClassifyType(tn.Name)
	return tn
}

// typeName parses Name or Name<arg, ...> where each argument is kept as
// source text.
func (p *Parser) typeName() *ast.TypeName {
	id := p.expectIdent("type name")
	tn := &ast.TypeName{Name: id.Lexeme, Span: span(id)}
	if p.check(TokenLess) {
		p.advance()
		tn.Args = p.rawArgs()
	}
	return tn
}

// rawArgs reads comma-separated generic arguments up to the closing '>'.
func (p *Parser) rawArgs() []string {
	var args []string
	var sb strings.Builder
	depth := 0
	for !p.isAtEnd() {
		tok := p.peek()
		switch tok.Kind {
		case TokenLeftParen, TokenLess, TokenLeftBracket:
			depth++
		case TokenRightParen, TokenRightBracket:
			depth--
		case TokenGreater:
			if depth == 0 {
				p.advance()
				return append(args, sb.String())
			}
			depth--
		case TokenComma:
			if depth == 0 {
				p.advance()
				args = append(args, sb.String())
				sb.Reset()
				continue
			}
		case TokenSemicolon, TokenLeftBrace:
			p.fail(tok, "unterminated generic argument list")
		}
		sb.WriteString(p.advance().Lexeme)
	}
	p.fail(p.peek(), "unterminated generic argument list")
	return nil
}

func (p *Parser) block() *ast.BlockStmt {
	start := p.expect(TokenLeftBrace, "to open block")
	b := &ast.BlockStmt{Span: span(start)}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if s := p.statement(); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	p.expect(TokenRightBrace, "to close block")
	return b
}

func (p *Parser) statement() ast.Stmt {
	p.attributes()
	tok := p.peek()
	switch tok.Kind {
	case TokenLeftBrace:
		return p.block()
	case TokenSemicolon:
		p.advance()
		return nil
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenForeach:
		return p.foreachStmt()
	case TokenWhile:
		p.advance()
		p.expect(TokenLeftParen, "after while")
		cond := p.expression()
		p.expect(TokenRightParen, "after while condition")
		return &ast.WhileStmt{Cond: cond, Body: p.body(), Span: span(tok)}
	case TokenDo:
		p.advance()
		body := p.body()
		p.expect(TokenWhile, "after do body")
		p.expect(TokenLeftParen, "after while")
		cond := p.expression()
		p.expect(TokenRightParen, "after while condition")
		p.expect(TokenSemicolon, "after do-while")
		return &ast.WhileStmt{Cond: cond, Body: body, Do: true, Span: span(tok)}
	case TokenReturn:
		p.advance()
		r := &ast.ReturnStmt{Span: span(tok)}
		if !p.check(TokenSemicolon) {
			r.Value = p.expression()
		}
		p.expect(TokenSemicolon, "after return")
		return r
	case TokenBreak, TokenContinue, TokenDiscard:
		p.advance()
		p.expect(TokenSemicolon, "after "+tok.Lexeme)
		kind := ast.BranchBreak
		if tok.Kind == TokenContinue {
			kind = ast.BranchContinue
		} else if tok.Kind == TokenDiscard {
			kind = ast.BranchDiscard
		}
		return &ast.BranchStmt{Kind: kind, Span: span(tok)}
	}
	if p.isDeclStart() {
		d := p.localDecl()
		p.expect(TokenSemicolon, "after declaration")
		return d
	}
	x := p.expression()
	p.expect(TokenSemicolon, "after expression")
	return &ast.ExprStmt{X: x, Span: x.Pos()}
}

func (p *Parser) body() ast.Stmt {
	start := p.peek()
	if s := p.statement(); s != nil {
		return s
	}
	return &ast.BlockStmt{Span: span(start)}
}

func (p *Parser) ifStmt() *ast.IfStmt {
	start := p.advance()
	p.expect(TokenLeftParen, "after if")
	cond := p.expression()
	p.expect(TokenRightParen, "after if condition")
	s := &ast.IfStmt{Cond: cond, Then: p.body(), Span: span(start)}
	if p.match(TokenElse) {
		s.Else = p.body()
	}
	return s
}

func (p *Parser) forStmt() *ast.ForStmt {
	start := p.advance()
	s := &ast.ForStmt{Span: span(start)}
	p.expect(TokenLeftParen, "after for")
	if !p.check(TokenSemicolon) {
		if p.isDeclStart() {
			s.Init = p.localDecl()
		} else {
			x := p.expression()
			s.Init = &ast.ExprStmt{X: x, Span: x.Pos()}
		}
	}
	p.expect(TokenSemicolon, "after for initializer")
	if !p.check(TokenSemicolon) {
		s.Cond = p.expression()
	}
	p.expect(TokenSemicolon, "after for condition")
	if !p.check(TokenRightParen) {
		s.Post = p.expression()
	}
	p.expect(TokenRightParen, "to close for clauses")
	s.Body = p.body()
	return s
}

func (p *Parser) foreachStmt() *ast.ForEachStmt {
	start := p.advance()
	p.expect(TokenLeftParen, "after foreach")
	quals := p.qualifiers()
	typ := p.typeSpec()
	id := p.expectIdent("foreach variable")
	p.expect(TokenIn, "in foreach")
	coll := p.expression()
	p.expect(TokenRightParen, "to close foreach")
	return &ast.ForEachStmt{
		Var:        &ast.Variable{Name: id.Lexeme, Type: typ, Qualifiers: quals, Span: span(id)},
		Collection: coll,
		Body:       p.body(),
		Span:       span(start),
	}
}

func (p *Parser) localDecl() *ast.DeclStmt {
	start := p.peek()
	quals := p.qualifiers()
	typ := p.typeSpec()
	name := p.expectIdent("variable name")
	return &ast.DeclStmt{Vars: p.declarators(nil, quals, typ, name), Span: span(start)}
}

// isDeclStart reports whether the upcoming tokens start a local variable
// declaration: qualifiers, or a type name followed by an identifier.
func (p *Parser) isDeclStart() bool {
	i := p.current
	if _, ok := qualifierTokens[p.tokens[i].Kind]; ok {
		return true
	}
	if p.tokens[i].Kind != TokenIdent {
		return false
	}
	i++
	if p.tokens[i].Kind == TokenLess {
		depth := 0
		for ; i < len(p.tokens); i++ {
			switch p.tokens[i].Kind {
			case TokenLess:
				depth++
			case TokenGreater:
				depth--
			case TokenSemicolon, TokenLeftBrace, TokenEOF:
				return false
			}
			if depth == 0 {
				break
			}
		}
		i++
	}
	return i < len(p.tokens) && p.tokens[i].Kind == TokenIdent
}

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	lhs := p.conditional()
	if isAssignOp(p.peek().Kind) {
		op := p.advance()
		rhs := p.assignment()
		return &ast.AssignExpr{Op: op.Lexeme, Lhs: lhs, Rhs: rhs, Span: lhs.Pos()}
	}
	return lhs
}

func (p *Parser) conditional() ast.Expr {
	cond := p.binary(0)
	if !p.match(TokenQuestion) {
		return cond
	}
	then := p.assignment()
	p.expect(TokenColon, "in conditional expression")
	els := p.conditional()
	return &ast.CondExpr{Cond: cond, Then: then, Else: els, Span: cond.Pos()}
}

func binaryPrec(k TokenKind) int {
	switch k {
	case TokenPipePipe:
		return 1
	case TokenAmpAmp:
		return 2
	case TokenPipe:
		return 3
	case TokenCaret:
		return 4
	case TokenAmpersand:
		return 5
	case TokenEqualEqual, TokenBangEqual:
		return 6
	case TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		return 7
	case TokenLessLess, TokenGreaterGreater:
		return 8
	case TokenPlus, TokenMinus:
		return 9
	case TokenStar, TokenSlash, TokenPercent:
		return 10
	}
	return 0
}

func (p *Parser) binary(minPrec int) ast.Expr {
	x := p.unary()
	for {
		tok := p.peek()
		prec := binaryPrec(tok.Kind)
		if prec <= minPrec {
			return x
		}
		p.advance()
		y := p.binary(prec)
		x = &ast.BinaryExpr{Op: tok.Lexeme, X: x, Y: y, Span: x.Pos()}
	}
}

func (p *Parser) unary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case TokenMinus, TokenPlus, TokenBang, TokenTilde, TokenPlusPlus, TokenMinusMinus:
		p.advance()
		return &ast.UnaryExpr{Op: tok.Lexeme, X: p.unary(), Span: span(tok)}
	case TokenLeftParen:
		// (float3)x is written as the constructor call float3(x).
		if p.isCast() {
			p.advance()
			typ := p.advance()
			p.advance()
			x := p.unary()
			return &ast.CallExpr{Fun: &ast.Ident{Name: typ.Lexeme, Span: span(typ)}, Args: []ast.Expr{x}, Span: span(tok)}
		}
	}
	return p.postfix()
}

func (p *Parser) isCast() bool {
	if p.current+3 >= len(p.tokens) {
		return false
	}
	id, closing, next := p.tokens[p.current+1], p.tokens[p.current+2], p.tokens[p.current+3]
	if id.Kind != TokenIdent || closing.Kind != TokenRightParen || ast.ClassifyType(id.Lexeme) != ast.ClassValue {
		return false
	}
	switch next.Kind {
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral, TokenLeftParen, TokenTrue, TokenFalse:
		return true
	}
	return false
}

func (p *Parser) postfix() ast.Expr {
	x := p.primary()
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenLeftParen:
			p.advance()
			call := &ast.CallExpr{Fun: x, Span: x.Pos()}
			for !p.check(TokenRightParen) && !p.isAtEnd() {
				call.Args = append(call.Args, p.assignment())
				if !p.match(TokenComma) {
					break
				}
			}
			p.expect(TokenRightParen, "to close call arguments")
			x = call
		case TokenDot:
			p.advance()
			member := p.expectIdent("member name")
			x = &ast.MemberExpr{X: x, Member: member.Lexeme, Span: span(member)}
		case TokenLeftBracket:
			p.advance()
			idx := p.expression()
			p.expect(TokenRightBracket, "to close index")
			x = &ast.IndexExpr{X: x, Index: idx, Span: x.Pos()}
		case TokenPlusPlus, TokenMinusMinus:
			p.advance()
			x = &ast.UnaryExpr{Op: tok.Lexeme, X: x, Postfix: true, Span: x.Pos()}
		default:
			return x
		}
	}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		return &ast.Literal{Kind: ast.LitInt, Value: tok.Lexeme, Span: span(tok)}
	case TokenFloatLiteral:
		p.advance()
		return &ast.Literal{Kind: ast.LitFloat, Value: tok.Lexeme, Span: span(tok)}
	case TokenTrue, TokenFalse:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Value: tok.Lexeme, Span: span(tok)}
	case TokenStringLiteral:
		p.advance()
		return &ast.Literal{Kind: ast.LitString, Value: strings.Trim(tok.Lexeme, `"`), Span: span(tok)}
	case TokenIdent:
		p.advance()
		return &ast.Ident{Name: tok.Lexeme, Span: span(tok)}
	case TokenLeftParen:
		p.advance()
		x := p.expression()
		p.expect(TokenRightParen, "to close parenthesis")
		return &ast.ParenExpr{X: x, Span: span(tok)}
	case TokenLeftBrace:
		return p.initList()
	}
	p.fail(tok, "unexpected %q, expected expression", tok.Lexeme)
	return nil
}

func (p *Parser) initList() ast.Expr {
	start := p.expect(TokenLeftBrace, "to open initializer")
	list := &ast.InitList{Span: span(start)}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if p.check(TokenLeftBrace) {
			list.Elems = append(list.Elems, p.initList())
		} else {
			list.Elems = append(list.Elems, p.assignment())
		}
		if !p.match(TokenComma) {
			break
		}
	}
	p.expect(TokenRightBrace, "to close initializer")
	return list
}

func isAssignOp(kind TokenKind) bool {
	switch kind {
	case TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenStarEqual,
		TokenSlashEqual, TokenPercentEqual, TokenAmpEqual, TokenPipeEqual,
		TokenCaretEqual, TokenLessLessEqual, TokenGreaterGreaterEqual:
		return true
	}
	return false
}

func span(t Token) ast.Span {
	return ast.Span{Line: t.Line, Column: t.Column}
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind, context string) Token {
	if !p.check(kind) {
		p.fail(p.peek(), "expected %s %s, found %q", kind, context, p.peek().Lexeme)
	}
	return p.advance()
}

func (p *Parser) expectIdent(what string) Token {
	if !p.check(TokenIdent) {
		p.fail(p.peek(), "expected %s, found %q", what, p.peek().Lexeme)
	}
	return p.advance()
}

func (p *Parser) errorAt(tok Token, format string, args ...any) {
	if len(p.errs) >= maxErrors {
		return
	}
	p.errs = append(p.errs, &diag.Message{
		Severity: diag.SeverityError,
		Code:     diag.ErrParse,
		Span:     span(tok),
		Source:   p.source,
		Text:     fmt.Sprintf(format, args...),
	})
}

func (p *Parser) fail(tok Token, format string, args ...any) {
	p.errorAt(tok, format, args...)
	panic(bailout{})
}

// synchronize skips to the end of the current member: past the next
// top-level semicolon, or up to an unbalanced closing brace.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				p.match(TokenSemicolon)
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}
