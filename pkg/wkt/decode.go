package wkt

import "github.com/openchart/geoio/pkg/geom"

type parser struct {
	tokens  []token
	pos     int
	factory geom.Factory
}

// ToGeometry parses WKT text into a geometry built by factory. M and ZM
// dimension suffixes are accepted but the M ordinate is dropped; Z/ZM
// produce 3D geometries, otherwise coordinates are 2D with z = 0.
func ToGeometry(text string, factory geom.Factory) (geom.Geometry, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, factory: factory}
	g, err := p.parseGeometry()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, &ErrMalformedText{Reason: "unexpected trailing input"}
	}
	return g, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.advance()
	if t.kind != kind {
		return token{}, &ErrMalformedText{Reason: "expected " + what}
	}
	return t, nil
}

// dimFromSuffix consumes an optional Z/M/ZM ident and reports whether the
// geometry carries Z and/or M ordinates. The M ordinate, when present, is
// parsed and dropped.
func (p *parser) dimFromSuffix() (has3D, hasM bool) {
	if p.peek().kind != tokIdent {
		return false, false
	}
	switch p.peek().text {
	case "Z":
		p.advance()
		return true, false
	case "ZM":
		p.advance()
		return true, true
	case "M":
		p.advance()
		return false, true
	}
	return false, false
}

func (p *parser) parseGeometry() (geom.Geometry, error) {
	t, err := p.expect(tokIdent, "geometry type")
	if err != nil {
		return nil, err
	}

	switch t.text {
	case "POINT":
		has3D, hasM := p.dimFromSuffix()
		if p.consumeEmpty() {
			return p.factory.CreatePoint(geom.Coordinate{}), nil
		}
		if _, err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		c, err := p.parsePosition(has3D, hasM)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return p.factory.CreatePoint(c), nil

	case "LINESTRING":
		has3D, hasM := p.dimFromSuffix()
		if p.consumeEmpty() {
			return p.factory.CreateLineString(nil), nil
		}
		coords, err := p.parseCoordList(has3D, hasM)
		if err != nil {
			return nil, err
		}
		return p.factory.CreateLineString(coords), nil

	case "POLYGON":
		has3D, hasM := p.dimFromSuffix()
		if p.consumeEmpty() {
			return p.factory.CreatePolygon(nil, nil), nil
		}
		shell, holes, err := p.parsePolygonBody(has3D, hasM)
		if err != nil {
			return nil, err
		}
		return p.factory.CreatePolygon(shell, holes), nil

	case "MULTIPOINT":
		has3D, hasM := p.dimFromSuffix()
		if p.consumeEmpty() {
			return p.factory.CreateMultiPoint(nil), nil
		}
		if _, err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var coords []geom.Coordinate
		for {
			parenWrapped := p.peek().kind == tokLParen
			if parenWrapped {
				p.advance()
			}
			c, err := p.parsePosition(has3D, hasM)
			if err != nil {
				return nil, err
			}
			coords = append(coords, c)
			if parenWrapped {
				if _, err := p.expect(tokRParen, ")"); err != nil {
					return nil, err
				}
			}
			if p.peek().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return p.factory.CreateMultiPoint(coords), nil

	case "MULTILINESTRING":
		has3D, hasM := p.dimFromSuffix()
		if p.consumeEmpty() {
			return p.factory.CreateMultiLineString(nil), nil
		}
		if _, err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var lines []geom.LineString
		for {
			coords, err := p.parseCoordList(has3D, hasM)
			if err != nil {
				return nil, err
			}
			lines = append(lines, p.factory.CreateLineString(coords))
			if p.peek().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return p.factory.CreateMultiLineString(lines), nil

	case "MULTIPOLYGON":
		has3D, hasM := p.dimFromSuffix()
		if p.consumeEmpty() {
			return p.factory.CreateMultiPolygon(nil), nil
		}
		if _, err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var polys []geom.Polygon
		for {
			shell, holes, err := p.parsePolygonBody(has3D, hasM)
			if err != nil {
				return nil, err
			}
			polys = append(polys, p.factory.CreatePolygon(shell, holes))
			if p.peek().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return p.factory.CreateMultiPolygon(polys), nil

	case "GEOMETRYCOLLECTION":
		if p.consumeEmpty() {
			return p.factory.CreateGeometryCollection(nil), nil
		}
		if _, err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var geoms []geom.Geometry
		for {
			g, err := p.parseGeometry()
			if err != nil {
				return nil, err
			}
			geoms = append(geoms, g)
			if p.peek().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return p.factory.CreateGeometryCollection(geoms), nil

	default:
		return nil, &ErrMalformedText{Reason: "unknown geometry type " + t.text}
	}
}

func (p *parser) consumeEmpty() bool {
	if p.peek().kind == tokIdent && p.peek().text == "EMPTY" {
		p.advance()
		return true
	}
	return false
}

func (p *parser) parsePosition(has3D, hasM bool) (geom.Coordinate, error) {
	x, err := p.expect(tokNumber, "x ordinate")
	if err != nil {
		return geom.Coordinate{}, err
	}
	y, err := p.expect(tokNumber, "y ordinate")
	if err != nil {
		return geom.Coordinate{}, err
	}
	c := geom.Coordinate{X: x.num, Y: y.num}
	if has3D {
		z, err := p.expect(tokNumber, "z ordinate")
		if err != nil {
			return geom.Coordinate{}, err
		}
		c.Z = z.num
	}
	if hasM && p.peek().kind == tokNumber {
		p.advance()
	}
	return c, nil
}

func (p *parser) parseCoordList(has3D, hasM bool) ([]geom.Coordinate, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var coords []geom.Coordinate
	for {
		c, err := p.parsePosition(has3D, hasM)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
		if p.peek().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return coords, nil
}

func (p *parser) parsePolygonBody(has3D, hasM bool) (shell []geom.Coordinate, holes [][]geom.Coordinate, err error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, nil, err
	}
	shell, err = p.parseCoordList(has3D, hasM)
	if err != nil {
		return nil, nil, err
	}
	for p.peek().kind == tokComma {
		p.advance()
		hole, err := p.parseCoordList(has3D, hasM)
		if err != nil {
			return nil, nil, err
		}
		holes = append(holes, hole)
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, nil, err
	}
	return shell, holes, nil
}
