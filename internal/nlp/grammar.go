package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// shapeKeywords maps English, Italian and Chinese shape words to a kind.
var shapeKeywords = map[string]intent.Kind{
	// English
	"line":      intent.KindLine,
	"circle":    intent.KindCircle,
	"arc":       intent.KindArc,
	"ellipse":   intent.KindEllipse,
	"rectangle": intent.KindRectangle,
	"rect":      intent.KindRectangle,
	"square":    intent.KindRectangle,
	"polyline":  intent.KindPolyline,
	"polygon":   intent.KindPolyline,
	"text":      intent.KindText,
	"dimension": intent.KindDimension,
	"hatch":     intent.KindHatch,
	"fill":      intent.KindHatch,
	// Italian
	"linea":       intent.KindLine,
	"cerchio":     intent.KindCircle,
	"arco":        intent.KindArc,
	"ellisse":     intent.KindEllipse,
	"rettangolo":  intent.KindRectangle,
	"quadrato":    intent.KindRectangle,
	"polilinea":   intent.KindPolyline,
	"poligono":    intent.KindPolyline,
	"testo":       intent.KindText,
	"quota":       intent.KindDimension,
	"quotatura":   intent.KindDimension,
	"riempimento": intent.KindHatch,
	"tratteggio":  intent.KindHatch,
	// Chinese
	"线":    intent.KindLine,
	"直线":   intent.KindLine,
	"圆":    intent.KindCircle,
	"圆形":   intent.KindCircle,
	"弧":    intent.KindArc,
	"圆弧":   intent.KindArc,
	"椭圆":   intent.KindEllipse,
	"椭圆形":  intent.KindEllipse,
	"矩形":   intent.KindRectangle,
	"方形":   intent.KindRectangle,
	"正方形":  intent.KindRectangle,
	"多段线":  intent.KindPolyline,
	"折线":   intent.KindPolyline,
	"多边形":  intent.KindPolyline,
	"文字":   intent.KindText,
	"文本":   intent.KindText,
	"标注":   intent.KindDimension,
	"尺寸":   intent.KindDimension,
	"填充":   intent.KindHatch,
	"图案填充": intent.KindHatch,
}

// saveKeywords select SaveDrawing when no shape keyword is present. Other
// action verbs (draw, crea, 画...) carry no information and are ignored.
var saveKeywords = []string{"save", "salva", "保存"}

// colorWords maps colour names to raw CAD colour indices. Indices outside the
// seven-entry palette are kept here and dropped later by the validator.
var colorWords = map[string]int{
	// English
	"red": 1, "yellow": 2, "green": 3, "cyan": 4, "blue": 5, "magenta": 6, "white": 7,
	"gray": 8, "grey": 8, "black": 250, "orange": 30, "brown": 33, "purple": 200, "pink": 221,
	// Italian
	"rosso": 1, "rossa": 1, "giallo": 2, "gialla": 2, "verde": 3, "ciano": 4,
	"blu": 5, "azzurro": 5, "azzurra": 5, "bianco": 7, "bianca": 7,
	"grigio": 8, "grigia": 8, "nero": 250, "nera": 250, "arancione": 30,
	"marrone": 33, "viola": 200, "rosa": 221,
	// Chinese. Only honoured before the shape keyword, see findColor.
	"红": 1, "红色": 1, "黄": 2, "黄色": 2, "绿": 3, "绿色": 3, "青": 4, "青色": 4,
	"蓝": 5, "蓝色": 5, "洋红": 6, "洋红色": 6, "紫红": 6, "白": 7, "白色": 7,
	"灰": 8, "灰色": 8, "黑": 250, "黑色": 250, "橙": 30, "橙色": 30,
	"棕": 33, "棕色": 33, "紫": 200, "紫色": 200, "粉": 221, "粉色": 221, "粉红": 221,
}

var closedKeywords = []string{"closed", "close", "chiusa", "chiuso", "chiudi", "闭合", "封闭"}

// Labelled slots. The key is the slot name used by the binder.
const (
	slotRadius     = "radius"
	slotStartAngle = "start_angle"
	slotEndAngle   = "end_angle"
	slotMajor      = "major_axis"
	slotMinor      = "minor_axis"
	slotRotation   = "rotation"
	slotHeight     = "height"
	slotWidth      = "width"
	slotScale      = "pattern_scale"
	slotPattern    = "pattern_name"
)

const numberExpr = `-?(?:\d+(?:\.\d+)?|\.\d+)(?:[eE][+-]?\d+)?`

// connector matches the filler between a label and its value:
// "radius 50", "radius=50", "radius of 50", "raggio di 50", "半径为50".
const connector = `(?:\s*(?:=|:|：|\bof\b|\bis\b|\bdi\b|\bpari a\b|\baxis\b|\basse\b|为|是))*\s*`

// label describes one labelled slot: the words that introduce it and whether
// its value is a number or a single word.
type label struct {
	slot string
	re   *regexp.Regexp
}

func newLabel(slot string, latin, cjk []string, valueExpr string) label {
	var alts []string
	if len(latin) > 0 {
		alts = append(alts, `\b(?:`+strings.Join(latin, "|")+`)\b`)
	}
	if len(cjk) > 0 {
		alts = append(alts, `(?:`+strings.Join(cjk, "|")+`)`)
	}
	expr := `(?i)(?:` + strings.Join(alts, "|") + `)` + connector + `(` + valueExpr + `)`
	return label{slot: slot, re: regexp.MustCompile(expr)}
}

var (
	labelRadius = newLabel(slotRadius, []string{"radius", "raggio"}, []string{"半径"}, numberExpr)
	labelStart  = newLabel(slotStartAngle,
		[]string{`start(?:\s+angle)?`, `angolo\s+iniziale`, `inizio`}, []string{"起始角", "起始角度"}, numberExpr)
	labelEnd = newLabel(slotEndAngle,
		[]string{`end(?:\s+angle)?`, `angolo\s+finale`, `fine`}, []string{"终止角", "终止角度"}, numberExpr)
	labelMajor    = newLabel(slotMajor, []string{"major", "maggiore"}, []string{"长轴"}, numberExpr)
	labelMinor    = newLabel(slotMinor, []string{"minor", "minore"}, []string{"短轴"}, numberExpr)
	labelRotation = newLabel(slotRotation, []string{"rotation", "rotazione", `rotated(?:\s+by)?`, `ruotat[oa]`, "angle", "angolo"}, []string{"旋转角", "旋转"}, numberExpr)
	labelHeight   = newLabel(slotHeight, []string{"height", "altezza"}, []string{"高度", "高"}, numberExpr)
	labelWidth    = newLabel(slotWidth, []string{"width", "larghezza"}, []string{"宽度", "宽"}, numberExpr)
	labelScale    = newLabel(slotScale, []string{"scale", "scala"}, []string{"比例"}, numberExpr)
	labelPattern  = newLabel(slotPattern, []string{"pattern", "motivo"}, []string{"图案"}, `[A-Za-z][A-Za-z0-9_\-]*`)
)

// numericSlot is one value the positional binder can fill.
type numericSlot struct {
	name  string
	field string // reported in missing_parameter errors
}

// shapeGrammar lists, per kind, the labels to look for and the positional slots.
// Slots before firstOptional are required.
type shapeGrammar struct {
	labels        []label
	slots         []numericSlot
	firstOptional int
	// pairs reads every remaining number as a point list with a minimum size.
	pairs     bool
	minPoints int
}

var grammars = map[intent.Kind]shapeGrammar{
	intent.KindLine: {
		slots:         []numericSlot{{"x1", "start"}, {"y1", "start"}, {"x2", "end"}, {"y2", "end"}},
		firstOptional: 4,
	},
	intent.KindCircle: {
		labels:        []label{labelRadius},
		slots:         []numericSlot{{"cx", "center"}, {"cy", "center"}, {slotRadius, "radius"}},
		firstOptional: 3,
	},
	intent.KindArc: {
		labels: []label{labelRadius, labelStart, labelEnd},
		slots: []numericSlot{{"cx", "center"}, {"cy", "center"}, {slotRadius, "radius"},
			{slotStartAngle, "start_angle"}, {slotEndAngle, "end_angle"}},
		firstOptional: 5,
	},
	intent.KindEllipse: {
		labels: []label{labelMajor, labelMinor, labelRotation},
		slots: []numericSlot{{"cx", "center"}, {"cy", "center"}, {slotMajor, "major_axis"},
			{slotMinor, "minor_axis"}, {slotRotation, "rotation"}},
		firstOptional: 4,
	},
	intent.KindRectangle: {
		labels:        []label{labelWidth, labelHeight},
		slots:         []numericSlot{{"x1", "corner1"}, {"y1", "corner1"}, {"x2", "corner2"}, {"y2", "corner2"}},
		firstOptional: 4,
	},
	intent.KindPolyline: {pairs: true, minPoints: 2},
	intent.KindText: {
		labels: []label{labelHeight, labelRotation},
		slots: []numericSlot{{"x", "position"}, {"y", "position"},
			{slotHeight, "height"}, {slotRotation, "rotation"}},
		firstOptional: 2,
	},
	intent.KindHatch: {
		labels:    []label{labelPattern, labelScale},
		pairs:     true,
		minPoints: 3,
	},
	intent.KindDimension: {
		slots: []numericSlot{{"x1", "start"}, {"y1", "start"}, {"x2", "end"}, {"y2", "end"},
			{"tx", "text_position"}, {"ty", "text_position"}},
		firstOptional: 4,
	},
}

// keywordMatch is the position of a keyword in the scanned text.
type keywordMatch struct {
	word  string
	start int
}

// findKeyword returns the earliest keyword occurrence, preferring the longest
// keyword when two start at the same offset. Latin keywords only match whole
// words; CJK keywords match anywhere.
func findKeyword(lower string, words []string) (keywordMatch, bool) {
	best := keywordMatch{start: -1}
	for _, w := range words {
		idx := indexKeyword(lower, w)
		if idx < 0 {
			continue
		}
		if best.start < 0 || idx < best.start || (idx == best.start && len(w) > len(best.word)) {
			best = keywordMatch{word: w, start: idx}
		}
	}
	return best, best.start >= 0
}

func indexKeyword(lower, word string) int {
	if !isLatin(word) {
		return strings.Index(lower, word)
	}
	from := 0
	for from <= len(lower) {
		i := strings.Index(lower[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		if wordBoundaryBefore(lower, i) && wordBoundaryAfter(lower, i+len(word)) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isLatin(word string) bool {
	for _, r := range word {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsDigit(r) || (unicode.IsLetter(r) && r <= unicode.MaxLatin1)
}

func wordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// findColor returns the colour keyword of an instruction whose shape keyword
// starts at shapeStart. CJK colours match inside any word, so they only count
// when they precede the shape ("画一个红色的圆"); "白色背景" after it does not.
func findColor(lower string, shapeStart int) (keywordMatch, bool) {
	latin, okLatin := findKeyword(lower, latinColorNames)
	cjk, okCJK := findKeyword(lower[:shapeStart], cjkColorNames)
	switch {
	case okLatin && okCJK:
		if cjk.start < latin.start {
			return cjk, true
		}
		return latin, true
	case okCJK:
		return cjk, true
	default:
		return latin, okLatin
	}
}

func splitLatin(words []string) (latin, other []string) {
	for _, w := range words {
		if isLatin(w) {
			latin = append(latin, w)
		} else {
			other = append(other, w)
		}
	}
	return latin, other
}

var (
	shapeWords                     = keys(shapeKeywords)
	latinColorNames, cjkColorNames = splitLatin(keys(colorWords))
)
