package filter

import (
	"fmt"
	"strings"
)

// Grammar, lowest precedence first:
//
//	expr    = and { ("||" | "or") and }
//	and     = unary { ("&&" | "and") unary }
//	unary   = ("!" | "not") unary | compare
//	compare = operand [ cmpop operand | "in" list ]
//	operand = literal | path | "(" expr ")"
//	list    = "[" [ operand { "," operand } ] "]"
//
// Keywords are case-insensitive. Paths may carry a leading "packet.".

type parser struct {
	toks []token
	pos  int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(words ...string) bool {
	t := p.peek()
	if t.kind != tokIdent {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, o := range ops {
		if t.text == o {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") || p.isKeyword("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{l: left, r: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") || p.isKeyword("and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andNode{l: left, r: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isOp("!") || p.isKeyword("not") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{x: x}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	switch {
	case p.isOp("==", "===", "!=", "!==", "<", "<=", ">", ">="):
		op := normalizeOp(p.next().text)
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &compareNode{op: op, l: left, r: right}, nil
	case p.isKeyword("contains", "startswith", "endswith"):
		op := strings.ToLower(p.next().text)
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &compareNode{op: op, l: left, r: right}, nil
	case p.isKeyword("in"):
		p.next()
		items, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &inNode{x: left, items: items}, nil
	}
	return left, nil
}

func normalizeOp(op string) string {
	switch op {
	case "===":
		return "=="
	case "!==":
		return "!="
	}
	return op
}

func (p *parser) parseList() ([]node, error) {
	t := p.next()
	if t.kind != tokLBrack {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected '[' after in, got %s", t)}
	}
	var items []node
	if p.peek().kind == tokRBrack {
		p.next()
		return items, nil
	}
	for {
		item, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		t := p.next()
		switch t.kind {
		case tokComma:
			continue
		case tokRBrack:
			return items, nil
		default:
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected ',' or ']', got %s", t)}
		}
	}
}

func (p *parser) parseOperand() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &literal{v: t.num}, nil
	case tokString:
		return &literal{v: t.text}, nil
	case tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, &SyntaxError{Pos: c.pos, Msg: fmt.Sprintf("expected ')', got %s", c)}
		}
		return n, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return &literal{v: true}, nil
		case "false":
			return &literal{v: false}, nil
		case "null", "undefined":
			return &literal{v: nil}, nil
		case "and", "or", "not", "in", "contains", "startswith", "endswith":
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected keyword %s", t)}
		}
		path := strings.TrimPrefix(t.text, "packet.")
		if path == "" || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("invalid field %s", t)}
		}
		return &fieldNode{path: path}, nil
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
}
