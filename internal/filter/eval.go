package filter

import (
	"fmt"
	"strings"

	"caramelo/internal/models"
)

// Values are nil (absent), float64, string or bool.
type node interface {
	eval(p *models.Packet) (any, error)
}

type literal struct{ v any }

func (n *literal) eval(*models.Packet) (any, error) { return n.v, nil }

type fieldNode struct{ path string }

func (n *fieldNode) eval(p *models.Packet) (any, error) {
	v, ok := p.Field(n.path)
	if !ok {
		return nil, nil
	}
	return v, nil
}

type notNode struct{ x node }

func (n *notNode) eval(p *models.Packet) (any, error) {
	b, err := evalBool(n.x, p)
	if err != nil {
		return nil, err
	}
	return !b, nil
}

type andNode struct{ l, r node }

func (n *andNode) eval(p *models.Packet) (any, error) {
	b, err := evalBool(n.l, p)
	if err != nil || !b {
		return false, err
	}
	return evalBool(n.r, p)
}

type orNode struct{ l, r node }

func (n *orNode) eval(p *models.Packet) (any, error) {
	b, err := evalBool(n.l, p)
	if err != nil || b {
		return b, err
	}
	return evalBool(n.r, p)
}

type compareNode struct {
	op   string
	l, r node
}

func (n *compareNode) eval(p *models.Packet) (any, error) {
	l, err := n.l.eval(p)
	if err != nil {
		return nil, err
	}
	r, err := n.r.eval(p)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "<", "<=", ">", ">=":
		return order(n.op, l, r)
	case "contains", "startswith", "endswith":
		return match(n.op, l, r)
	}
	return nil, fmt.Errorf("unknown operator %q", n.op)
}

type inNode struct {
	x     node
	items []node
}

func (n *inNode) eval(p *models.Packet) (any, error) {
	x, err := n.x.eval(p)
	if err != nil {
		return nil, err
	}
	for _, item := range n.items {
		v, err := item.eval(p)
		if err != nil {
			return nil, err
		}
		if equal(x, v) {
			return true, nil
		}
	}
	return false, nil
}

// evalBool evaluates n as a condition. Absent values count as false;
// anything that is not a boolean is an error.
func evalBool(n node, p *models.Packet) (bool, error) {
	v, err := n.eval(p)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	}
	return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
}

// equal is strict: values of different types are never equal, and an
// absent value only equals null.
func equal(l, r any) bool {
	switch lv := l.(type) {
	case nil:
		return r == nil
	case float64:
		rv, ok := r.(float64)
		return ok && lv == rv
	case string:
		rv, ok := r.(string)
		return ok && lv == rv
	case bool:
		rv, ok := r.(bool)
		return ok && lv == rv
	}
	return false
}

func order(op string, l, r any) (bool, error) {
	if l == nil || r == nil {
		return false, nil
	}
	var c int
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		if !ok {
			return false, fmt.Errorf("cannot compare number with %T", r)
		}
		switch {
		case lv < rv:
			c = -1
		case lv > rv:
			c = 1
		}
	case string:
		rv, ok := r.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", r)
		}
		c = strings.Compare(lv, rv)
	default:
		return false, fmt.Errorf("cannot order %T values", l)
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	}
	return c >= 0, nil
}

// match implements the case-insensitive substring operators.
func match(op string, l, r any) (bool, error) {
	if l == nil || r == nil {
		return false, nil
	}
	ls, lok := l.(string)
	rs, rok := r.(string)
	if !lok || !rok {
		return false, fmt.Errorf("%s needs strings, got %T and %T", op, l, r)
	}
	ls, rs = strings.ToLower(ls), strings.ToLower(rs)
	switch op {
	case "contains":
		return strings.Contains(ls, rs), nil
	case "startswith":
		return strings.HasPrefix(ls, rs), nil
	}
	return strings.HasSuffix(ls, rs), nil
}
