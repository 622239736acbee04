package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WKTValue is one attribute of a WKT node: a quoted string, a number, or a
// nested node. Exactly one field is meaningful, indicated by Kind.
type WKTValue struct {
	Kind   WKTValueKind
	Text   string
	Number float64
	Node   *WKTNode
}

type WKTValueKind int

const (
	WKTString WKTValueKind = iota
	WKTNumber
	WKTNested
)

// WKTNode is one KEYWORD[...] element of a parsed WKT tree.
type WKTNode struct {
	Keyword string
	Attrs   []WKTValue
}

// Name returns the node's first quoted-string attribute, the conventional
// name slot in WKT 1.
func (n *WKTNode) Name() string {
	for _, a := range n.Attrs {
		if a.Kind == WKTString {
			return a.Text
		}
	}
	return ""
}

// Find returns the first immediate child node with the given keyword, or nil.
func (n *WKTNode) Find(keyword string) *WKTNode {
	for _, a := range n.Attrs {
		if a.Kind == WKTNested && strings.EqualFold(a.Node.Keyword, keyword) {
			return a.Node
		}
	}
	return nil
}

// FindAll returns every immediate child node with the given keyword.
func (n *WKTNode) FindAll(keyword string) []*WKTNode {
	var out []*WKTNode
	for _, a := range n.Attrs {
		if a.Kind == WKTNested && strings.EqualFold(a.Node.Keyword, keyword) {
			out = append(out, a.Node)
		}
	}
	return out
}

// Authority returns the node's own AUTHORITY["name","code"] child, if any.
func (n *WKTNode) Authority() (name string, code int, ok bool) {
	auth := n.Find("AUTHORITY")
	if auth == nil || len(auth.Attrs) < 2 {
		return "", 0, false
	}
	if auth.Attrs[0].Kind != WKTString || auth.Attrs[1].Kind != WKTString {
		return "", 0, false
	}
	c, err := strconv.Atoi(auth.Attrs[1].Text)
	if err != nil {
		return "", 0, false
	}
	return auth.Attrs[0].Text, c, true
}

// ParseWKT parses a WKT 1 string into a node tree. It accepts the grammar
// KEYWORD[attr, attr, ...] where attributes are quoted strings (embedded
// quotes doubled), numbers, bare words, or nested nodes.
func ParseWKT(s string) (*WKTNode, error) {
	p := &wktParser{input: s}
	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("parse WKT: trailing input at offset %d", p.pos)
	}
	return node, nil
}

type wktParser struct {
	input string
	pos   int
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *wktParser) parseNode() (*WKTNode, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && isWKTWordChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("parse WKT: expected keyword at offset %d", start)
	}
	node := &WKTNode{Keyword: strings.ToUpper(p.input[start:p.pos])}

	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '[' {
		return nil, fmt.Errorf("parse WKT: expected '[' after %s", node.Keyword)
	}
	p.pos++ // consume '['

	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("parse WKT: unterminated %s", node.Keyword)
		}
		if p.input[p.pos] == ']' {
			p.pos++
			return node, nil
		}

		attr, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		node.Attrs = append(node.Attrs, attr)

		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
		}
	}
}

func (p *wktParser) parseValue() (WKTValue, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return WKTValue{}, fmt.Errorf("parse WKT: unexpected end of input")
	}

	if p.input[p.pos] == '"' {
		text, err := p.parseQuoted()
		if err != nil {
			return WKTValue{}, err
		}
		return WKTValue{Kind: WKTString, Text: text}, nil
	}

	start := p.pos
	for p.pos < len(p.input) && isWKTWordChar(p.input[p.pos]) {
		p.pos++
	}
	token := p.input[start:p.pos]
	if token == "" {
		return WKTValue{}, fmt.Errorf("parse WKT: unexpected character %q at offset %d", p.input[p.pos], p.pos)
	}

	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '[' {
		// Rewind and let parseNode re-read the keyword.
		p.pos = start
		child, err := p.parseNode()
		if err != nil {
			return WKTValue{}, err
		}
		return WKTValue{Kind: WKTNested, Node: child}, nil
	}

	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return WKTValue{Kind: WKTNumber, Number: n}, nil
	}
	// Bare words (e.g. axis directions NORTH/EAST) are kept as strings.
	return WKTValue{Kind: WKTString, Text: token}, nil
}

func (p *wktParser) parseQuoted() (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '"' {
			// Doubled quote is an escaped quote.
			if p.pos+1 < len(p.input) && p.input[p.pos+1] == '"' {
				b.WriteByte('"')
				p.pos += 2
				continue
			}
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("parse WKT: unterminated string")
}

func isWKTWordChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '+':
		return true
	}
	return false
}

// degreeInRadians is the WKT 1 degree unit conversion factor.
const degreeInRadians = 0.0174532925199433

// WKT renders the CRS as a WKT 1 string (GEOGCS for geographic systems,
// PROJCS for projected ones).
func (c CRS) WKT() string {
	geogcs := fmt.Sprintf(
		`GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",%g,%.9f,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",%.16f,AUTHORITY["EPSG","9122"]]`,
		c.Ellipsoid.A, c.Ellipsoid.InvF, degreeInRadians,
	)
	if c.IsGeographic() {
		return fmt.Sprintf(`%s,AUTHORITY["EPSG","%d"]]`, geogcs, c.Code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `PROJCS[%q,%s]`, c.Name, geogcs)
	switch c.Projection.Method {
	case "merc":
		b.WriteString(`,PROJECTION["Mercator_1SP"]`)
		writeWKTParameter(&b, "central_meridian", c.Projection.CentralMeridian)
		writeWKTParameter(&b, "scale_factor", c.Projection.ScaleFactor)
		writeWKTParameter(&b, "false_easting", c.Projection.FalseEasting)
		writeWKTParameter(&b, "false_northing", c.Projection.FalseNorthing)
	case "utm":
		b.WriteString(`,PROJECTION["Transverse_Mercator"]`)
		writeWKTParameter(&b, "latitude_of_origin", c.Projection.LatitudeOrigin)
		writeWKTParameter(&b, "central_meridian", c.Projection.CentralMeridian)
		writeWKTParameter(&b, "scale_factor", c.Projection.ScaleFactor)
		writeWKTParameter(&b, "false_easting", c.Projection.FalseEasting)
		writeWKTParameter(&b, "false_northing", c.Projection.FalseNorthing)
	}
	fmt.Fprintf(&b, `,UNIT["metre",1,AUTHORITY["EPSG","9001"]],AUTHORITY["EPSG","%d"]]`, c.Code)
	return b.String()
}

func writeWKTParameter(b *strings.Builder, name string, value float64) {
	fmt.Fprintf(b, `,PARAMETER[%q,%s]`, name, strconv.FormatFloat(value, 'f', -1, 64))
}

// CRSFromWKT resolves a WKT string back to a registry CRS. Resolution prefers
// the top-level authority code; without one it falls back on recognising the
// structure (geographic WGS84, Mercator_1SP, Transverse_Mercator zone).
func CRSFromWKT(s string) (CRS, error) {
	node, err := ParseWKT(s)
	if err != nil {
		return CRS{}, err
	}
	if _, code, ok := node.Authority(); ok {
		return LookupEPSG(code)
	}

	switch node.Keyword {
	case "GEOGCS":
		return LookupEPSG(4326)
	case "PROJCS":
		proj := node.Find("PROJECTION")
		if proj == nil {
			return CRS{}, fmt.Errorf("parse WKT: PROJCS %q has no PROJECTION", node.Name())
		}
		switch proj.Name() {
		case "Mercator_1SP":
			return LookupEPSG(3857)
		case "Transverse_Mercator":
			lon0 := wktParameter(node, "central_meridian")
			fn := wktParameter(node, "false_northing")
			zone := int(math.Round((lon0 + 183) / 6))
			if zone < 1 || zone > 60 {
				return CRS{}, fmt.Errorf("parse WKT: central meridian %g is not a UTM zone", lon0)
			}
			if fn > 0 {
				return LookupEPSG(32700 + zone)
			}
			return LookupEPSG(32600 + zone)
		default:
			return CRS{}, fmt.Errorf("parse WKT: unsupported projection %q", proj.Name())
		}
	default:
		return CRS{}, fmt.Errorf("parse WKT: unsupported root keyword %s", node.Keyword)
	}
}

func wktParameter(node *WKTNode, name string) float64 {
	for _, p := range node.FindAll("PARAMETER") {
		if strings.EqualFold(p.Name(), name) {
			for _, a := range p.Attrs {
				if a.Kind == WKTNumber {
					return a.Number
				}
			}
		}
	}
	return 0
}
