// Package normalize resolves the loosely typed property values found in
// frontmatter and feed records into canonical dates and display strings.
//
// Raw values are converted once into a RawValue (a small tagged union) by
// FromAny; every consumer then switches on RawValue.Kind instead of probing
// dynamic types again.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind tags which field of a RawValue is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindTime
	KindString
	KindNumber
	KindBool
	KindLink
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindLink:
		return "link"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Link is a reference to another document: either a wiki-style
// [[Target|Alias]] string or a structured object carrying path/display fields.
type Link struct {
	Target      string
	Alias       string
	Path        string
	DisplayText string
}

// RawValue is a property value as read from a record.
type RawValue struct {
	Kind   Kind
	Time   time.Time
	Str    string
	Num    float64
	Bool   bool
	Link   Link
	List   []RawValue
	Object map[string]any
}

func Null() RawValue                { return RawValue{Kind: KindNull} }
func Time(t time.Time) RawValue     { return RawValue{Kind: KindTime, Time: t} }
func String(s string) RawValue      { return RawValue{Kind: KindString, Str: s} }
func Number(n float64) RawValue     { return RawValue{Kind: KindNumber, Num: n} }
func Bool(b bool) RawValue          { return RawValue{Kind: KindBool, Bool: b} }
func LinkValue(l Link) RawValue     { return RawValue{Kind: KindLink, Link: l} }
func List(vs ...RawValue) RawValue  { return RawValue{Kind: KindList, List: vs} }
func Object(m map[string]any) RawValue {
	return RawValue{Kind: KindObject, Object: m}
}

// IsNull reports whether the value carries nothing usable.
func (v RawValue) IsNull() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindList:
		return len(v.List) == 0
	default:
		return false
	}
}

// FromAny converts a decoded YAML/JSON value into a RawValue. Strings that
// are a single wiki link become KindLink.
func FromAny(v any) RawValue {
	switch x := v.(type) {
	case nil:
		return Null()
	case RawValue:
		return x
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Null()
		}
		return Time(*x)
	case string:
		if target, alias, ok := ParseWikiLink(x); ok {
			return LinkValue(Link{Target: target, Alias: alias})
		}
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case []string:
		out := make([]RawValue, 0, len(x))
		for _, s := range x {
			out = append(out, FromAny(s))
		}
		return List(out...)
	case []any:
		out := make([]RawValue, 0, len(x))
		for _, e := range x {
			out = append(out, FromAny(e))
		}
		return List(out...)
	case map[string]any:
		return fromMap(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = e
		}
		return fromMap(m)
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}

var (
	displayKeys = []string{"displayText", "display_text", "display"}
	pathKeys    = []string{"path", "filePath", "file_path"}
	targetKeys  = []string{"link", "file", "target"}
)

func fromMap(m map[string]any) RawValue {
	var l Link
	found := false
	if s, ok := firstString(m, displayKeys); ok {
		l.DisplayText = s
		found = true
	}
	if s, ok := firstString(m, pathKeys); ok {
		l.Path = s
		found = true
	}
	if s, ok := firstString(m, targetKeys); ok {
		if target, alias, isLink := ParseWikiLink(s); isLink {
			l.Target, l.Alias = target, alias
		} else {
			l.Target = s
		}
		found = true
	}
	if !found {
		return Object(m)
	}
	return LinkValue(l)
}

func firstString(m map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// ParseWikiLink parses "[[Target]]" or "[[Target|Alias]]". Surrounding
// whitespace and quotes are ignored; anything else around the brackets means
// the string is not a single link.
func ParseWikiLink(s string) (target, alias string, ok bool) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") {
		return "", "", false
	}
	inner := s[2 : len(s)-2]
	if inner == "" || strings.Contains(inner, "[[") || strings.Contains(inner, "]]") {
		return "", "", false
	}
	target, alias, _ = strings.Cut(inner, "|")
	target = strings.TrimSpace(target)
	alias = strings.TrimSpace(alias)
	if target == "" {
		return "", "", false
	}
	return target, alias, true
}

// Properties is a record's property-name to value lookup.
type Properties map[string]RawValue

// Get returns the named property, or a null value.
func (p Properties) Get(name string) RawValue {
	if p == nil || name == "" {
		return Null()
	}
	if v, ok := p[name]; ok {
		return v
	}
	return Null()
}

// Names returns property names in sorted order.
func (p Properties) Names() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PropertiesFromMap converts a decoded frontmatter map.
func PropertiesFromMap(m map[string]any) Properties {
	out := make(Properties, len(m))
	for k, v := range m {
		out[k] = FromAny(v)
	}
	return out
}
