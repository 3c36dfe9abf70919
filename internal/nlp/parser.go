// Package nlp turns short drafting instructions ("draw a red circle at
// (100, 100) with radius 50", "disegna una linea da 0,0 a 10,10",
// "画一个圆，圆心(0,0)，半径20") into intents.
//
// It is a slot filler over a fixed keyword grammar, not a language model. An
// instruction either fills every required slot of one shape or fails with a
// *ParseError; no partially filled intent is ever returned.
package nlp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
	"github.com/Porta048/AutoCad-MCP/internal/version"
)

// DefaultSavePath is used by save instructions that name no file.
const DefaultSavePath = "drawing.dwg"

const cachePrefix = "parse"

var (
	quotedRegex = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|「([^」]+)」|(?:^|\s)'([^']+)'`)
	numberRegex = regexp.MustCompile(numberExpr)
	dwgRegex    = regexp.MustCompile(`(?i)[^\s"'(]+\.dwg\b`)
)

// Options configures a Parser.
type Options struct {
	// DefaultSavePath is the path used by "save" without an explicit file.
	DefaultSavePath string
	// CacheSize bounds the parse result cache; zero disables caching.
	CacheSize int
	// OnCacheHit is called on every cache hit.
	OnCacheHit func()
	Logger     logging.Logger
}

// Parser is safe for concurrent use.
type Parser struct {
	defaultSavePath string
	cache           *lru.Cache[string, cachedResult]
	onCacheHit      func()
	logger          logging.Logger
}

type cachedResult struct {
	in  intent.DrawIntent
	err *ParseError
}

// New creates a parser.
func New(opts Options) (*Parser, error) {
	p := &Parser{
		defaultSavePath: strings.TrimSpace(opts.DefaultSavePath),
		onCacheHit:      opts.OnCacheHit,
		logger:          logging.OrNop(opts.Logger),
	}
	if p.defaultSavePath == "" {
		p.defaultSavePath = DefaultSavePath
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, cachedResult](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create parse cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// Parse converts text into an intent. The returned error is always a *ParseError.
// The intent is not validated; callers pass it through intent.Validate.
func (p *Parser) Parse(text string) (intent.DrawIntent, error) {
	var key string
	if p.cache != nil {
		key = version.GenerateVersionedCacheKey(cachePrefix, text)
		if hit, ok := p.cache.Get(key); ok {
			if p.onCacheHit != nil {
				p.onCacheHit()
			}
			return hit.unpack()
		}
	}

	in, perr := p.parse(text)
	if perr != nil {
		p.logger.Debug("parse failed for %q: %v", text, perr)
	} else {
		p.logger.Debug("parsed %q as %s", text, intent.Summary(in))
	}
	if p.cache != nil {
		p.cache.Add(key, cachedResult{in: in, err: perr})
	}
	return cachedResult{in: in, err: perr}.unpack()
}

func (c cachedResult) unpack() (intent.DrawIntent, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.in, nil
}

func (p *Parser) parse(text string) (intent.DrawIntent, *ParseError) {
	fail := func(reason Reason, slot, format string, args ...any) *ParseError {
		return &ParseError{Text: text, Reason: reason, Slot: slot, Detail: fmt.Sprintf(format, args...)}
	}

	content, scan := extractQuoted(text)
	lower := strings.ToLower(scan)

	shape, ok := findKeyword(lower, shapeWords)
	if !ok {
		if _, save := findKeyword(lower, saveKeywords); save {
			return p.parseSave(content, scan), nil
		}
		return nil, fail(ReasonUnrecognizedShape, "", "no drawing keyword in instruction")
	}
	kind := shapeKeywords[shape.word]
	g := grammars[kind]

	// 1. Labelled values ("radius 50", "pattern ANSI31") consume their spans.
	values := make(map[string]float64)
	pattern := ""
	for _, l := range g.labels {
		loc := l.re.FindStringSubmatchIndex(scan)
		if loc == nil {
			continue
		}
		raw := scan[loc[2]:loc[3]]
		if l.slot == slotPattern {
			pattern = raw
		} else {
			v, err := parseNumber(raw)
			if err != nil {
				return nil, fail(ReasonOutOfRange, l.slot, "value %q is not representable", raw)
			}
			values[l.slot] = v
		}
		scan = blank(scan, loc[0], loc[1])
	}

	// 2. Remaining numbers, in document order.
	numbers, bad := extractNumbers(scan)
	if bad != "" {
		return nil, fail(ReasonOutOfRange, "", "value %q is not representable", bad)
	}

	style := intent.Style{}
	if m, ok := findColor(lower, shape.start); ok {
		c := geometry.ColorCode(colorWords[m.word])
		style.Color = &c
	}

	// 3. Point lists.
	if g.pairs {
		field := "points"
		if kind == intent.KindHatch {
			field = "boundary_points"
		}
		if len(numbers)%2 != 0 {
			return nil, fail(ReasonMissingParameter, field, "coordinate %s has no y value",
				geometry.FormatFloat(numbers[len(numbers)-1]))
		}
		pts := make([]geometry.Point2D, 0, len(numbers)/2)
		for i := 0; i+1 < len(numbers); i += 2 {
			pts = append(pts, geometry.Pt(numbers[i], numbers[i+1]))
		}
		if len(pts) < g.minPoints {
			return nil, fail(ReasonMissingParameter, field, "need at least %d points, found %d", g.minPoints, len(pts))
		}
		if kind == intent.KindHatch {
			scale, ok := values[slotScale]
			if !ok {
				scale = intent.DefaultHatchScale
			}
			if pattern == "" {
				pattern = intent.DefaultHatchPattern
			}
			return intent.Hatch{Boundary: pts, Pattern: strings.ToUpper(pattern), Scale: scale, Style: style}, nil
		}
		_, closed := findKeyword(lower, closedKeywords)
		return intent.Polyline{Points: pts, Closed: closed, Style: style}, nil
	}

	// 4. Positional binding of fixed slots.
	slots, required := g.slots, g.firstOptional
	if kind == intent.KindRectangle {
		_, hasW := values[slotWidth]
		_, hasH := values[slotHeight]
		switch {
		case hasW && hasH:
			// Anchor corner plus size; the anchor defaults to the origin.
			slots, required = slots[:2], 0
		case hasW:
			return nil, fail(ReasonMissingParameter, "height", "width given without height")
		case hasH:
			return nil, fail(ReasonMissingParameter, "width", "height given without width")
		}
	}
	next := 0
	for i, s := range slots {
		if _, ok := values[s.name]; ok {
			continue
		}
		if next < len(numbers) {
			values[s.name] = numbers[next]
			next++
			continue
		}
		if i < required {
			return nil, fail(ReasonMissingParameter, s.field, "expected a value for %s", s.field)
		}
	}
	if next < len(numbers) {
		return nil, fail(ReasonOutOfRange, "", "unexpected extra value %s", geometry.FormatFloat(numbers[next]))
	}

	pt := func(x, y string) geometry.Point2D { return geometry.Pt(values[x], values[y]) }
	switch kind {
	case intent.KindLine:
		return intent.Line{Start: pt("x1", "y1"), End: pt("x2", "y2"), Style: style}, nil
	case intent.KindCircle:
		return intent.Circle{Center: pt("cx", "cy"), Radius: values[slotRadius], Style: style}, nil
	case intent.KindArc:
		return intent.Arc{
			Center:     pt("cx", "cy"),
			Radius:     values[slotRadius],
			StartAngle: values[slotStartAngle],
			EndAngle:   values[slotEndAngle],
			Style:      style,
		}, nil
	case intent.KindEllipse:
		return intent.Ellipse{
			Center:    pt("cx", "cy"),
			MajorAxis: values[slotMajor],
			MinorAxis: values[slotMinor],
			Rotation:  values[slotRotation],
			Style:     style,
		}, nil
	case intent.KindRectangle:
		c1 := pt("x1", "y1")
		if w, ok := values[slotWidth]; ok {
			return intent.Rectangle{Corner1: c1, Corner2: c1.Offset(w, values[slotHeight]), Style: style}, nil
		}
		return intent.Rectangle{Corner1: c1, Corner2: pt("x2", "y2"), Style: style}, nil
	case intent.KindText:
		if content == "" {
			return nil, fail(ReasonMissingParameter, "text", "text content must be quoted")
		}
		height, ok := values[slotHeight]
		if !ok {
			height = intent.DefaultTextHeight
		}
		return intent.Text{
			Position: pt("x", "y"),
			Content:  content,
			Height:   height,
			Rotation: values[slotRotation],
			Style:    style,
		}, nil
	case intent.KindDimension:
		_, hasTX := values["tx"]
		_, hasTY := values["ty"]
		start, end := pt("x1", "y1"), pt("x2", "y2")
		textPos := intent.DefaultTextPosition(start, end)
		switch {
		case hasTX && hasTY:
			textPos = pt("tx", "ty")
		case hasTX:
			return nil, fail(ReasonMissingParameter, "text_position", "text position has no y value")
		}
		return intent.Dimension{Start: start, End: end, TextPosition: textPos, Style: style}, nil
	}
	return nil, fail(ReasonUnrecognizedShape, "", "no grammar for %s", kind)
}

func (p *Parser) parseSave(content, scan string) intent.DrawIntent {
	path := strings.TrimSpace(content)
	if path == "" {
		path = dwgRegex.FindString(scan)
	}
	if path == "" {
		path = p.defaultSavePath
	}
	return intent.SaveDrawing{Path: path}
}

// extractQuoted returns the content of the last quoted span and the text with
// every quoted span blanked out.
func extractQuoted(text string) (string, string) {
	matches := quotedRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return "", text
	}
	content := ""
	last := matches[len(matches)-1]
	for g := 1; g*2+1 < len(last); g++ {
		if last[g*2] >= 0 {
			content = text[last[g*2]:last[g*2+1]]
			break
		}
	}
	scan := text
	for _, m := range matches {
		scan = blank(scan, m[0], m[1])
	}
	return content, scan
}

// blank replaces s[start:end] with spaces, keeping byte offsets stable.
func blank(s string, start, end int) string {
	return s[:start] + strings.Repeat(" ", end-start) + s[end:]
}

// extractNumbers returns the free-standing numeric literals of s. Digits glued
// to a Latin word ("ANSI31", "layer2") are not numbers. The second result is
// the first literal that does not fit a float64.
func extractNumbers(s string) ([]float64, string) {
	var out []float64
	for _, loc := range numberRegex.FindAllStringIndex(s, -1) {
		if loc[0] > 0 {
			prev := s[loc[0]-1]
			if prev == '_' || prev == '.' || (prev|0x20 >= 'a' && prev|0x20 <= 'z') {
				continue
			}
		}
		raw := s[loc[0]:loc[1]]
		v, err := parseNumber(raw)
		if err != nil {
			return nil, raw
		}
		out = append(out, v)
	}
	return out, ""
}

func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if !geometry.IsFinite(v) {
		return 0, errors.New("not finite")
	}
	return v, nil
}
