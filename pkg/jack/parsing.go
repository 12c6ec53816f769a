package jack

import (
	"fmt"

	"nand2tetris.dev/toolchain/pkg/utils"
)

// ----------------------------------------------------------------------------
// Jack Parser

// Parser is a hand-written recursive-descent parser over the Jack grammar, consuming a
// Tokenizer's cursor and producing a Node parse tree. Unlike pkg/asm and pkg/vm it
// deliberately does not build on goparsec: the whole grammar is LL(1) with a single peek
// in 'term', which a plain cursor expresses more directly than combinators would.
//
// 'opened' tracks the stack of currently-open non-terminal names so Parse can assert, once
// the class is fully parsed, that every opened region was closed.
type Parser struct {
	tok    *Tokenizer
	opened utils.Stack[string]
}

// Initializes a Parser over the given Jack source text.
func NewParser(source string) (*Parser, error) {
	tok, err := NewTokenizer(source)
	if err != nil {
		return nil, err
	}
	return &Parser{tok: tok}, nil
}

// Parses a single Jack class and returns its root Node. No recovery: the first SyntaxError
// or LexError aborts with that error.
func (p *Parser) Parse() (*Node, error) {
	root, err := p.parseClass()
	if err != nil {
		return nil, err
	}
	if p.opened.Count() != 0 {
		return nil, fmt.Errorf("internal error: %d non-terminal(s) left open after parsing", p.opened.Count())
	}
	return root, nil
}

// ----------------------------------------------------------------------------
// Non-terminal open/close bookkeeping

func (p *Parser) open(label string) *Node {
	p.opened.Push(label)
	return &Node{Label: label}
}

func (p *Parser) close(label string) error {
	got, err := p.opened.Pop()
	if err != nil {
		return fmt.Errorf("internal error: cannot close %q, no non-terminal is open", label)
	}
	if got != label {
		return fmt.Errorf("internal error: expected to close %q, found %q open", label, got)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Token consumption helpers

func (p *Parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.tok.CurrLine(), Msg: fmt.Sprintf(format, args...)}
}

// Consumes Curr unconditionally and wraps it in a leaf Node. Fails only at end-of-input.
func (p *Parser) any() (*Node, error) {
	curr := p.tok.Curr()
	if curr == nil {
		return nil, p.errorf("unexpected end of input")
	}
	leaf := leafNode(curr)
	if err := p.tok.Advance(); err != nil {
		return nil, err
	}
	return leaf, nil
}

// Consumes Curr if it's a symbol token matching one of the given literal values.
func (p *Parser) symbol(values ...string) (*Node, error) {
	curr := p.tok.Curr()
	if curr == nil || curr.Type != SymbolTok || !oneOf(curr.Value, values) {
		return nil, p.errorf("expected symbol %s, found %s", quoted(values), describe(curr))
	}
	return p.any()
}

// Consumes Curr if it's a keyword token matching one of the given literal values.
func (p *Parser) keyword(values ...string) (*Node, error) {
	curr := p.tok.Curr()
	if curr == nil || curr.Type != KeywordTok || !oneOf(curr.Value, values) {
		return nil, p.errorf("expected keyword %s, found %s", quoted(values), describe(curr))
	}
	return p.any()
}

// Consumes Curr if it's an identifier token.
func (p *Parser) identifier() (*Node, error) {
	curr := p.tok.Curr()
	if curr == nil || curr.Type != IdentifierTok {
		return nil, p.errorf("expected an identifier, found %s", describe(curr))
	}
	return p.any()
}

func (p *Parser) isKeyword(values ...string) bool {
	curr := p.tok.Curr()
	return curr != nil && curr.Type == KeywordTok && oneOf(curr.Value, values)
}

func (p *Parser) isSymbol(values ...string) bool {
	curr := p.tok.Curr()
	return curr != nil && curr.Type == SymbolTok && oneOf(curr.Value, values)
}

func oneOf(v string, options []string) bool {
	if len(options) == 0 {
		return true
	}
	for _, opt := range options {
		if v == opt {
			return true
		}
	}
	return false
}

func quoted(values []string) string {
	if len(values) == 0 {
		return "<any>"
	}
	out := ""
	for i, v := range values {
		if i > 0 {
			out += " or "
		}
		out += fmt.Sprintf("%q", v)
	}
	return out
}

func describe(tok *Token) string {
	if tok == nil {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Value)
}

// ----------------------------------------------------------------------------
// Grammar: class / classVarDec / subroutineDec

// class ::= 'class' identifier '{' classVarDec* subroutineDec* '}'
func (p *Parser) parseClass() (*Node, error) {
	node := p.open("class")

	kw, err := p.keyword("class")
	if err != nil {
		return nil, err
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	lbrace, err := p.symbol("{")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw, name, lbrace)

	for p.isKeyword("static", "field") {
		decl, err := p.parseClassVarDec()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, decl)
	}
	for p.isKeyword("constructor", "function", "method") {
		decl, err := p.parseSubroutineDec()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, decl)
	}

	rbrace, err := p.symbol("}")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, rbrace)

	if err := p.close("class"); err != nil {
		return nil, err
	}
	return node, nil
}

// classVarDec ::= ('static'|'field') type identifier (',' identifier)* ';'
func (p *Parser) parseClassVarDec() (*Node, error) {
	node := p.open("classVarDec")

	qualifier, err := p.keyword("static", "field")
	if err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, qualifier, typ, name)

	for p.isSymbol(",") {
		comma, err := p.symbol(",")
		if err != nil {
			return nil, err
		}
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, comma, name)
	}

	semi, err := p.symbol(";")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, semi)

	if err := p.close("classVarDec"); err != nil {
		return nil, err
	}
	return node, nil
}

// type ::= 'int' | 'char' | 'boolean' | identifier
func (p *Parser) parseType() (*Node, error) {
	if p.isKeyword("int", "char", "boolean") {
		return p.keyword("int", "char", "boolean")
	}
	return p.identifier()
}

// subroutineDec ::= ('constructor'|'function'|'method') ('void'|type)
//
//	identifier '(' parameterList ')' subroutineBody
func (p *Parser) parseSubroutineDec() (*Node, error) {
	node := p.open("subroutineDec")

	kind, err := p.keyword("constructor", "function", "method")
	if err != nil {
		return nil, err
	}

	var retType *Node
	if p.isKeyword("void") {
		retType, err = p.keyword("void")
	} else {
		retType, err = p.parseType()
	}
	if err != nil {
		return nil, err
	}

	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	lparen, err := p.symbol("(")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kind, retType, name, lparen)

	params, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}
	rparen, err := p.symbol(")")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, params, rparen)

	body, err := p.parseSubroutineBody()
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, body)

	if err := p.close("subroutineDec"); err != nil {
		return nil, err
	}
	return node, nil
}

// parameterList ::= ((type identifier) (',' type identifier)*)?
func (p *Parser) parseParameterList() (*Node, error) {
	node := p.open("parameterList")

	if !p.isSymbol(")") {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, typ, name)

		for p.isSymbol(",") {
			comma, err := p.symbol(",")
			if err != nil {
				return nil, err
			}
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, comma, typ, name)
		}
	}

	if err := p.close("parameterList"); err != nil {
		return nil, err
	}
	return node, nil
}

// subroutineBody ::= '{' varDec* statements '}'
func (p *Parser) parseSubroutineBody() (*Node, error) {
	node := p.open("subroutineBody")

	lbrace, err := p.symbol("{")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, lbrace)

	for p.isKeyword("var") {
		decl, err := p.parseVarDec()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, decl)
	}

	statements, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	rbrace, err := p.symbol("}")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, statements, rbrace)

	if err := p.close("subroutineBody"); err != nil {
		return nil, err
	}
	return node, nil
}

// varDec ::= 'var' type identifier (',' identifier)* ';'
func (p *Parser) parseVarDec() (*Node, error) {
	node := p.open("varDec")

	kw, err := p.keyword("var")
	if err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw, typ, name)

	for p.isSymbol(",") {
		comma, err := p.symbol(",")
		if err != nil {
			return nil, err
		}
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, comma, name)
	}

	semi, err := p.symbol(";")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, semi)

	if err := p.close("varDec"); err != nil {
		return nil, err
	}
	return node, nil
}

// ----------------------------------------------------------------------------
// Grammar: statements

// statements ::= statement*
func (p *Parser) parseStatements() (*Node, error) {
	node := p.open("statements")

	for p.isKeyword("let", "if", "while", "do", "return") {
		var (
			stmt *Node
			err  error
		)
		switch {
		case p.isKeyword("let"):
			stmt, err = p.parseLetStatement()
		case p.isKeyword("if"):
			stmt, err = p.parseIfStatement()
		case p.isKeyword("while"):
			stmt, err = p.parseWhileStatement()
		case p.isKeyword("do"):
			stmt, err = p.parseDoStatement()
		case p.isKeyword("return"):
			stmt, err = p.parseReturnStatement()
		}
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, stmt)
	}

	if err := p.close("statements"); err != nil {
		return nil, err
	}
	return node, nil
}

// letStmt ::= 'let' identifier ('[' expression ']')? '=' expression ';'
func (p *Parser) parseLetStatement() (*Node, error) {
	node := p.open("letStatement")

	kw, err := p.keyword("let")
	if err != nil {
		return nil, err
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw, name)

	if p.isSymbol("[") {
		lbrack, err := p.symbol("[")
		if err != nil {
			return nil, err
		}
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		rbrack, err := p.symbol("]")
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, lbrack, index, rbrack)
	}

	eq, err := p.symbol("=")
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	semi, err := p.symbol(";")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, eq, rhs, semi)

	if err := p.close("letStatement"); err != nil {
		return nil, err
	}
	return node, nil
}

// ifStmt ::= 'if' '(' expression ')' '{' statements '}' ('else' '{' statements '}')?
func (p *Parser) parseIfStatement() (*Node, error) {
	node := p.open("ifStatement")

	kw, err := p.keyword("if")
	if err != nil {
		return nil, err
	}
	lparen, err := p.symbol("(")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	rparen, err := p.symbol(")")
	if err != nil {
		return nil, err
	}
	lbrace, err := p.symbol("{")
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	rbrace, err := p.symbol("}")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw, lparen, cond, rparen, lbrace, then, rbrace)

	if p.isKeyword("else") {
		elseKw, err := p.keyword("else")
		if err != nil {
			return nil, err
		}
		lbrace, err := p.symbol("{")
		if err != nil {
			return nil, err
		}
		elseBlock, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		rbrace, err := p.symbol("}")
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, elseKw, lbrace, elseBlock, rbrace)
	}

	if err := p.close("ifStatement"); err != nil {
		return nil, err
	}
	return node, nil
}

// whileStmt ::= 'while' '(' expression ')' '{' statements '}'
func (p *Parser) parseWhileStatement() (*Node, error) {
	node := p.open("whileStatement")

	kw, err := p.keyword("while")
	if err != nil {
		return nil, err
	}
	lparen, err := p.symbol("(")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	rparen, err := p.symbol(")")
	if err != nil {
		return nil, err
	}
	lbrace, err := p.symbol("{")
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	rbrace, err := p.symbol("}")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw, lparen, cond, rparen, lbrace, body, rbrace)

	if err := p.close("whileStatement"); err != nil {
		return nil, err
	}
	return node, nil
}

// doStmt ::= 'do' subroutineCall ';'
//
// subroutineCall is inlined where used: its tokens become direct children of doStatement,
// with no enclosing "subroutineCall" region.
func (p *Parser) parseDoStatement() (*Node, error) {
	node := p.open("doStatement")

	kw, err := p.keyword("do")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw)

	if err := p.parseSubroutineCall(node); err != nil {
		return nil, err
	}

	semi, err := p.symbol(";")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, semi)

	if err := p.close("doStatement"); err != nil {
		return nil, err
	}
	return node, nil
}

// returnStmt ::= 'return' expression? ';'
func (p *Parser) parseReturnStatement() (*Node, error) {
	node := p.open("returnStatement")

	kw, err := p.keyword("return")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, kw)

	if !p.isSymbol(";") {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, expr)
	}

	semi, err := p.symbol(";")
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, semi)

	if err := p.close("returnStatement"); err != nil {
		return nil, err
	}
	return node, nil
}

// ----------------------------------------------------------------------------
// Grammar: expressions

var opSymbols = []string{"+", "-", "*", "/", "&", "|", "<", ">", "="}
var unarySymbols = []string{"-", "~"}

// expression ::= term (op term)*
//
// Deliberately flat: no operator precedence, evaluation order is plain left-to-right,
// unlike a conventional expression grammar.
func (p *Parser) parseExpression() (*Node, error) {
	node := p.open("expression")

	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, term)

	for p.isSymbol(opSymbols...) {
		op, err := p.symbol(opSymbols...)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, op, rhs)
	}

	if err := p.close("expression"); err != nil {
		return nil, err
	}
	return node, nil
}

// term ::= intConst | stringConst | keywordConst
//
//	| identifier                     -- var
//	| identifier '[' expression ']'  -- array
//	| subroutineCall
//	| '(' expression ')'
//	| unaryOp term
//
// The identifier case disambiguates on Peek: '[' means array access, '(' or '.' means a
// subroutine call, anything else means a plain variable reference — the one place in the
// grammar that needs lookahead beyond Curr.
func (p *Parser) parseTerm() (*Node, error) {
	node := p.open("term")
	curr := p.tok.Curr()

	switch {
	case curr == nil:
		return nil, p.errorf("unexpected end of input, expected a term")

	case curr.Type == IntConstTok, curr.Type == StringConstTok:
		leaf, err := p.any()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, leaf)

	case curr.Type == KeywordTok && oneOf(curr.Value, []string{"true", "false", "null", "this"}):
		leaf, err := p.keyword("true", "false", "null", "this")
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, leaf)

	case curr.Type == SymbolTok && curr.Value == "(":
		lparen, err := p.symbol("(")
		if err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		rparen, err := p.symbol(")")
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, lparen, expr, rparen)

	case curr.Type == SymbolTok && oneOf(curr.Value, unarySymbols):
		op, err := p.symbol(unarySymbols...)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, op, rhs)

	case curr.Type == IdentifierTok:
		peek := p.tok.Peek()
		switch {
		case peek != nil && peek.Type == SymbolTok && peek.Value == "[":
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			lbrack, err := p.symbol("[")
			if err != nil {
				return nil, err
			}
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			rbrack, err := p.symbol("]")
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, name, lbrack, index, rbrack)

		case peek != nil && peek.Type == SymbolTok && (peek.Value == "(" || peek.Value == "."):
			if err := p.parseSubroutineCall(node); err != nil {
				return nil, err
			}

		default:
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, name)
		}

	default:
		return nil, p.errorf("unexpected token %s, expected a term", describe(curr))
	}

	if err := p.close("term"); err != nil {
		return nil, err
	}
	return node, nil
}

// subroutineCall ::= identifier '(' expressionList ')'
//
//	| identifier '.' identifier '(' expressionList ')'
//
// Appends its tokens directly onto 'parent' rather than wrapping them in their own Node:
// subroutineCall has no dedicated parse tree region.
func (p *Parser) parseSubroutineCall(parent *Node) error {
	name, err := p.identifier()
	if err != nil {
		return err
	}
	parent.Children = append(parent.Children, name)

	if p.isSymbol(".") {
		dot, err := p.symbol(".")
		if err != nil {
			return err
		}
		method, err := p.identifier()
		if err != nil {
			return err
		}
		parent.Children = append(parent.Children, dot, method)
	}

	lparen, err := p.symbol("(")
	if err != nil {
		return err
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return err
	}
	rparen, err := p.symbol(")")
	if err != nil {
		return err
	}
	parent.Children = append(parent.Children, lparen, args, rparen)
	return nil
}

// expressionList ::= (expression (',' expression)*)?
func (p *Parser) parseExpressionList() (*Node, error) {
	node := p.open("expressionList")

	if !p.isSymbol(")") {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, expr)

		for p.isSymbol(",") {
			comma, err := p.symbol(",")
			if err != nil {
				return nil, err
			}
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, comma, expr)
		}
	}

	if err := p.close("expressionList"); err != nil {
		return nil, err
	}
	return node, nil
}
