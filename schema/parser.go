package schema

import (
	"treegen/errs"
)

// rawNode is the parser's pre-analysis representation of a node block:
// nesting encodes derivation directly (a block nested inside another is
// that NodeType's child), and field element types are still raw,
// unresolved names.
type rawNode struct {
	name     string
	doc      string
	line     int
	isError  bool
	fields   []Field
	reorder  []string
	children []*rawNode
}

type rawSpec struct {
	cfg        Config
	primitives []string
	roots      []*rawNode
}

// parser is a recursive-descent parser over the token stream produced by
// lexer. It accepts the small grammar described in the schema
// specification: a run of top-level directives followed by a forest of
// (possibly nested) node blocks.
type parser struct {
	toks []token
	pos  int
	file string
}

func parseSchema(file string, src string) (*rawSpec, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, errs.NewSchemaError(file, 0, "%v", err)
	}
	p := &parser{toks: toks, file: file}
	return p.parseSpec()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errf(format string, args ...any) error {
	return errs.NewSchemaError(p.file, p.cur().line, format, args...)
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.cur().kind != k {
		return token{}, p.errf("expected %s, found %q", what, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectIdent(value string) error {
	if p.cur().kind != tokIdent || p.cur().text != value {
		return p.errf("expected %q, found %q", value, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) parseSpec() (*rawSpec, error) {
	spec := &rawSpec{}
	for !p.atEOF() && p.cur().kind == tokIdent && isDirectiveKeyword(p.cur().text) {
		if err := p.parseDirective(spec); err != nil {
			return nil, err
		}
	}
	for !p.atEOF() {
		n, err := p.parseNodeBlock()
		if err != nil {
			return nil, err
		}
		spec.roots = append(spec.roots, n)
	}
	return spec, nil
}

func isDirectiveKeyword(s string) bool {
	switch s {
	case "namespace", "include", "support", "initialize", "serialize", "source_loc", "ext":
		return true
	default:
		return false
	}
}

func (p *parser) parseDirective(spec *rawSpec) error {
	kw := p.advance().text
	switch kw {
	case "namespace":
		id, err := p.expect(tokIdent, "namespace identifier")
		if err != nil {
			return err
		}
		spec.cfg.Namespace = id.text
	case "include":
		s, err := p.expect(tokString, "include path string")
		if err != nil {
			return err
		}
		spec.cfg.Includes = append(spec.cfg.Includes, s.text)
	case "support":
		id, err := p.expect(tokIdent, "support namespace identifier")
		if err != nil {
			return err
		}
		spec.cfg.SupportNamespace = id.text
	case "initialize":
		id, err := p.expect(tokIdent, "initialize function identifier")
		if err != nil {
			return err
		}
		spec.cfg.InitializeFunc = id.text
	case "serialize":
		ser, err := p.expect(tokIdent, "serialize function identifier")
		if err != nil {
			return err
		}
		if _, err := p.expect(tokComma, "','"); err != nil {
			return err
		}
		des, err := p.expect(tokIdent, "deserialize function identifier")
		if err != nil {
			return err
		}
		spec.cfg.SerializeFunc = ser.text
		spec.cfg.DeserializeFunc = des.text
	case "source_loc":
		id, err := p.expect(tokIdent, "source-location type identifier")
		if err != nil {
			return err
		}
		spec.cfg.SourceLocType = id.text
	case "ext":
		id, err := p.expect(tokIdent, "external primitive type name")
		if err != nil {
			return err
		}
		spec.primitives = append(spec.primitives, id.text)
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return err
	}
	return nil
}

func (p *parser) parseNodeBlock() (*rawNode, error) {
	doc := p.cur().doc
	if err := p.expectIdent("node"); err != nil {
		return nil, err
	}
	name, err := p.expect(tokIdent, "node name")
	if err != nil {
		return nil, err
	}
	n := &rawNode{name: name.text, doc: firstNonEmpty(doc, name.doc), line: name.line}

	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	for p.cur().kind != tokRBrace {
		if p.atEOF() {
			return nil, p.errf("unterminated node block %q", n.name)
		}
		switch {
		case p.cur().kind == tokIdent && p.cur().text == "error":
			p.advance()
			if _, err := p.expect(tokSemicolon, "';' after 'error'"); err != nil {
				return nil, err
			}
			n.isError = true
		case p.cur().kind == tokIdent && p.cur().text == "reorder":
			names, err := p.parseReorder()
			if err != nil {
				return nil, err
			}
			n.reorder = names
		case p.cur().kind == tokIdent && p.cur().text == "node":
			child, err := p.parseNodeBlock()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		case p.cur().kind == tokIdent:
			f, err := p.parseField()
			if err != nil {
				return nil, err
			}
			n.fields = append(n.fields, f)
		default:
			return nil, p.errf("unexpected token %q in node %q", p.cur().text, n.name)
		}
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseReorder() ([]string, error) {
	p.advance() // 'reorder'
	if _, err := p.expect(tokLParen, "'(' after 'reorder'"); err != nil {
		return nil, err
	}
	var names []string
	for {
		id, err := p.expect(tokIdent, "field name")
		if err != nil {
			return nil, err
		}
		names = append(names, id.text)
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "';' after reorder(...)"); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *parser) parseField() (Field, error) {
	doc := p.cur().doc
	nameTok, err := p.expect(tokIdent, "field name")
	if err != nil {
		return Field{}, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return Field{}, err
	}

	f := Field{Name: nameTok.text, Doc: firstNonEmpty(doc, nameTok.doc), Line: nameTok.line}

	typeTok, err := p.expect(tokIdent, "field type")
	if err != nil {
		return Field{}, err
	}
	if kind, ok := parseEdgeKind(typeTok.text); ok && p.cur().kind == tokLAngle {
		p.advance() // '<'
		inner, err := p.expect(tokIdent, "element type inside angle brackets")
		if err != nil {
			return Field{}, err
		}
		if _, err := p.expect(tokRAngle, "'>'"); err != nil {
			return Field{}, err
		}
		f.Kind = kind
		f.RefName = inner.text
	} else {
		f.Kind = EdgeNone
		f.RefName = typeTok.text
	}

	if _, err := p.expect(tokSemicolon, "';' after field declaration"); err != nil {
		return Field{}, err
	}
	return f, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
