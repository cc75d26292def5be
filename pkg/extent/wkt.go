package extent

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ctessum/geom"

	"github.com/mandelsoft/meshcalc/pkg/scanner"
)

// ParseWKT parses a WKT polygon like
//
//	POLYGON ((0 0, 4 0, 4 4, 0 4, 0 0), (1 1, 2 1, 2 2, 1 1))
//
// The first ring is the outer boundary, all others are holes. Rings are
// closed automatically.
func ParseWKT(s string) (*Polygon, error) {
	p := &wktParser{scanner.NewScanner(s)}
	rings, err := p.parse()
	if err != nil {
		return nil, err
	}
	return NewPolygon(rings...), nil
}

type wktParser struct {
	scanner.Scanner
}

func (p *wktParser) parse() ([][]geom.Point, error) {
	p.SkipBlanks()
	pos := p.Position()
	word := ""
	for unicode.IsLetter(p.Current()) {
		word += string(p.Current())
		p.Next()
	}
	if !strings.EqualFold(word, "POLYGON") {
		return nil, p.ErrorAt(pos, "POLYGON expected")
	}
	p.SkipBlanks()
	if err := p.ConsumeRune('('); err != nil {
		return nil, err
	}
	var rings [][]geom.Point
	for {
		r, err := p.parseRing()
		if err != nil {
			return nil, err
		}
		rings = append(rings, r)
		if p.SkipBlanks() != ',' {
			break
		}
		p.Next()
	}
	if err := p.ConsumeRune(')'); err != nil {
		return nil, err
	}
	if p.SkipBlanks() != 0 {
		return nil, p.Errorf("unexpected %q", string(p.Current()))
	}
	return rings, nil
}

func (p *wktParser) parseRing() ([]geom.Point, error) {
	pos := p.Position()
	p.SkipBlanks()
	if err := p.ConsumeRune('('); err != nil {
		return nil, err
	}
	var ring []geom.Point
	for {
		x, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		y, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		ring = append(ring, geom.Point{X: x, Y: y})
		if p.SkipBlanks() != ',' {
			break
		}
		p.Next()
	}
	if err := p.ConsumeRune(')'); err != nil {
		return nil, err
	}
	if len(ring) > 1 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, p.ErrorAt(pos, "ring requires at least 3 distinct points")
	}
	return ring, nil
}

func (p *wktParser) parseNumber() (float64, error) {
	p.SkipBlanks()
	pos := p.Position()
	num := ""
	for r := p.Current(); unicode.IsDigit(r) || strings.ContainsRune("+-.eE", r); r = p.Current() {
		num += string(r)
		p.Next()
	}
	if num == "" {
		if p.Current() == 0 {
			return 0, p.Errorf("coordinate expected, but found end of input")
		}
		return 0, p.Errorf("coordinate expected, but found %q", string(p.Current()))
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, p.ErrorAt(pos, "invalid coordinate %q", num)
	}
	return v, nil
}
