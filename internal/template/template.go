// Package template converts legacy XML label templates into command
// envelopes. Templates declare geometry and element positions; rendering
// substitutes field values and emits a minimal command sequence, changing
// font, alignment and direction state only when an element requires it.
package template

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/platen/internal/emitter"
	"github.com/roach88/platen/internal/protocol"
)

// Barcode attribute defaults, matching what the label firmware assumes
// when a template omits them.
const (
	defaultBarcodeType = "DATAMATRIX"
	defaultBarcodeSize = 100
)

// Template is a parsed XML label template.
type Template struct {
	Name        string
	Width       float64
	Height      float64
	Units       string
	BaseFont    string
	DPI         float64
	Description string

	source string
	groups []group
}

// group is a positioned container; element coordinates are offset by it.
type group struct {
	offsetX float64
	offsetY float64
	nodes   []node
}

// node is one renderable template element, in document order.
type node interface {
	node()
}

type fieldNode struct {
	font      string
	size      *float64
	align     string
	direction string
	x, y      float64
	text      string
	name      string
	prefix    string
	suffix    string
}

type barcodeNode struct {
	name      string
	value     string
	kind      string
	align     string
	direction string
	x, y      float64
	width     int64
	ratio     int64
	height    int64
	size      int64
}

type commentNode struct {
	text string
}

func (fieldNode) node()   {}
func (barcodeNode) node() {}
func (commentNode) node() {}

// Parse reads an XML template. The source name is recorded in rendered
// envelopes under the document "source" key.
func Parse(data []byte, source string) (*Template, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	tpl := &Template{source: source}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", source, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "Label" {
			return nil, fmt.Errorf("parse template %s: expected <Label> root, got <%s>", source, start.Name.Local)
		}
		if err := tpl.parseLabel(dec, start); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", source, err)
		}
		break
	}
	if tpl.Name == "" {
		tpl.Name = strings.TrimSuffix(source, ".xml")
	}
	if tpl.Units == "" {
		tpl.Units = protocol.DefaultUnits
	}
	return tpl, nil
}

func (t *Template) parseLabel(dec *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "name":
			t.Name = attr.Value
		case "width":
			t.Width = toFloat(attr.Value, 0)
		case "height":
			t.Height = toFloat(attr.Value, 0)
		case "units":
			t.Units = attr.Value
		case "baseFont":
			t.BaseFont = attr.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "Meta":
				if err := t.parseMeta(dec, el); err != nil {
					return err
				}
			case "Group":
				g, err := parseGroup(dec, el)
				if err != nil {
					return err
				}
				t.groups = append(t.groups, g)
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name.Local == "Label" {
				return nil
			}
		}
	}
}

func (t *Template) parseMeta(dec *xml.Decoder, start xml.StartElement) error {
	var meta struct {
		DpiReference string `xml:"DpiReference"`
		Description  string `xml:"Description"`
	}
	if err := dec.DecodeElement(&meta, &start); err != nil {
		return err
	}
	t.DPI = toFloat(meta.DpiReference, 0)
	t.Description = normalizeText(meta.Description)
	return nil
}

func parseGroup(dec *xml.Decoder, start xml.StartElement) (group, error) {
	g := group{
		offsetX: floatAttr(start, "offsetX", "offsetx"),
		offsetY: floatAttr(start, "offsetY", "offsety"),
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return g, err
		}
		switch el := tok.(type) {
		case xml.Comment:
			if text := normalizeText(string(el)); text != "" {
				g.nodes = append(g.nodes, commentNode{text: text})
			}
		case xml.StartElement:
			switch strings.ToLower(el.Name.Local) {
			case "field":
				g.nodes = append(g.nodes, parseField(el))
			case "barcode":
				g.nodes = append(g.nodes, parseBarcode(el))
			}
			if err := dec.Skip(); err != nil {
				return g, err
			}
		case xml.EndElement:
			if el.Name.Local == "Group" {
				return g, nil
			}
		}
	}
}

func parseField(el xml.StartElement) fieldNode {
	f := fieldNode{}
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case "font":
			f.font = attr.Value
		case "size":
			if strings.TrimSpace(attr.Value) != "" {
				size := toFloat(attr.Value, 0)
				f.size = &size
			}
		case "align":
			f.align = attr.Value
		case "dir":
			f.direction = attr.Value
		case "x":
			f.x = toFloat(attr.Value, 0)
		case "y":
			f.y = toFloat(attr.Value, 0)
		case "text":
			f.text = attr.Value
		case "name":
			f.name = attr.Value
		case "prefix":
			f.prefix = attr.Value
		case "suffix":
			f.suffix = attr.Value
		}
	}
	return f
}

func parseBarcode(el xml.StartElement) barcodeNode {
	b := barcodeNode{
		kind:  defaultBarcodeType,
		width: 1, ratio: 1, height: 1,
		size: defaultBarcodeSize,
	}
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case "name":
			b.name = attr.Value
		case "value":
			b.value = attr.Value
		case "type":
			b.kind = attr.Value
		case "align":
			b.align = attr.Value
		case "dir":
			b.direction = attr.Value
		case "x":
			b.x = toFloat(attr.Value, 0)
		case "y":
			b.y = toFloat(attr.Value, 0)
		case "width":
			b.width = int64(toFloat(attr.Value, 1))
		case "ratio":
			b.ratio = int64(toFloat(attr.Value, 1))
		case "height":
			b.height = int64(toFloat(attr.Value, 1))
		case "size":
			b.size = int64(toFloat(attr.Value, defaultBarcodeSize))
		}
	}
	return b
}

// renderState tracks the printer-side state already emitted, so repeated
// settings collapse into a single command.
type renderState struct {
	font      string
	size      *float64
	align     string
	direction string
}

// Render substitutes values into the template and produces an emitter
// holding the full command sequence. Values arrive as strings; nil maps
// are treated as empty.
func (t *Template) Render(values map[string]string) (*emitter.Emitter, error) {
	em := emitter.New(t.source)
	layout := protocol.LayoutContext{
		Width:      t.Width,
		Height:     t.Height,
		Units:      t.Units,
		Origin:     protocol.DefaultOrigin,
		YDirection: protocol.DefaultYDirection,
		DPI:        t.DPI,
	}
	if err := em.SetLayout(layout); err != nil {
		return nil, fmt.Errorf("render template %s: %w", t.Name, err)
	}
	if t.Description != "" {
		em.SetDocument("description", t.Description)
	}

	em.Emit(protocol.Setup{Name: t.Name})

	state := &renderState{}
	for _, g := range t.groups {
		for _, n := range g.nodes {
			switch el := n.(type) {
			case commentNode:
				em.Emit(protocol.Comment{Text: el.text})
			case fieldNode:
				t.renderField(em, el, values, state, g.offsetX, g.offsetY)
			case barcodeNode:
				t.renderBarcode(em, el, values, state, g.offsetX, g.offsetY)
			}
		}
	}

	em.Emit(protocol.PrintFeed{})
	return em, nil
}

func (t *Template) renderField(em *emitter.Emitter, f fieldNode, values map[string]string, state *renderState, offsetX, offsetY float64) {
	font := f.font
	if font == "" {
		font = t.BaseFont
	}
	state.applyFont(em, font, f.size)
	state.applyAlignment(em, f.align)
	state.applyDirection(em, f.direction)

	em.Emit(protocol.MoveTo{X: offsetX + f.x, Y: offsetY + f.y})
	em.Emit(protocol.DrawText{Text: t.resolveText(f, values)})
}

func (t *Template) renderBarcode(em *emitter.Emitter, b barcodeNode, values map[string]string, state *renderState, offsetX, offsetY float64) {
	// Barcodes inherit font state from surrounding fields.
	state.applyAlignment(em, b.align)
	state.applyDirection(em, b.direction)

	value := b.value
	if b.name != "" {
		if v, ok := values[b.name]; ok {
			value = v
		}
	}

	em.Emit(protocol.MoveTo{X: offsetX + b.x, Y: offsetY + b.y})
	em.Emit(protocol.DrawBarcode{
		Value:  normalizeValue(value),
		Type:   b.kind,
		Width:  b.width,
		Ratio:  b.ratio,
		Height: b.height,
		Size:   b.size,
	})
}

func (s *renderState) applyFont(em *emitter.Emitter, font string, size *float64) {
	chosenSize := 0.0
	switch {
	case size != nil:
		chosenSize = *size
	case s.size != nil:
		chosenSize = *s.size
	}
	if s.font == font && s.size != nil && *s.size == chosenSize {
		return
	}
	em.Emit(protocol.SetFont{Name: font, Size: chosenSize})
	s.font = font
	s.size = &chosenSize
}

func (s *renderState) applyAlignment(em *emitter.Emitter, align string) {
	if align == "" || align == s.align {
		return
	}
	em.Emit(protocol.SetAlignment{Align: align})
	s.align = align
}

func (s *renderState) applyDirection(em *emitter.Emitter, direction string) {
	if direction == "" || direction == s.direction {
		return
	}
	em.Emit(protocol.SetDirection{Direction: direction})
	s.direction = direction
}

func (t *Template) resolveText(f fieldNode, values map[string]string) string {
	if f.text != "" {
		return normalizeValue(substitute(f.text, values))
	}
	composed := f.prefix + values[f.name] + f.suffix
	return normalizeValue(substitute(composed, values))
}

// substitute replaces {name} placeholders with values; unknown
// placeholders pass through unchanged (best-effort, as upstream systems
// sometimes ship literal braces).
func substitute(text string, values map[string]string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	var out strings.Builder
	for {
		open := strings.Index(text, "{")
		if open < 0 {
			out.WriteString(text)
			break
		}
		closing := strings.Index(text[open:], "}")
		if closing < 0 {
			out.WriteString(text)
			break
		}
		closing += open
		out.WriteString(text[:open])
		key := text[open+1 : closing]
		if v, ok := values[key]; ok {
			out.WriteString(v)
		} else {
			out.WriteString(text[open : closing+1])
		}
		text = text[closing+1:]
	}
	return out.String()
}

// normalizeValue NFC-normalizes substituted text. Upstream systems feed
// decomposed Unicode; printers expect composed forms.
func normalizeValue(s string) string {
	return norm.NFC.String(s)
}

// normalizeText collapses runs of whitespace, for XML comment and
// description content.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return f
}

func floatAttr(el xml.StartElement, names ...string) float64 {
	for _, attr := range el.Attr {
		for _, name := range names {
			if attr.Name.Local == name {
				return toFloat(attr.Value, 0)
			}
		}
	}
	return 0
}
