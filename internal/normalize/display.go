package normalize

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// documentExts are stripped from path basenames when shown as labels.
var documentExts = []string{".md", ".markdown", ".canvas", ".txt"}

// DisplayString renders v as a human-readable label. Links resolve to, in
// order: display text, basename of the path, alias, target. Unrecognised
// objects are JSON encoded.
func DisplayString(v RawValue) string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		if TruncateDay(v.Time).Equal(v.Time) {
			return FormatDate(v.Time)
		}
		return FormatDateTime(v.Time)
	case KindLink:
		return linkLabel(v.Link)
	case KindList:
		parts := make([]string, 0, len(v.List))
		for _, e := range v.List {
			if s := DisplayString(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case KindObject:
		data, err := json.Marshal(v.Object)
		if err != nil {
			return fmt.Sprint(v.Object)
		}
		return string(data)
	default:
		return ""
	}
}

func linkLabel(l Link) string {
	if l.DisplayText != "" {
		return l.DisplayText
	}
	if l.Path != "" {
		return trimExt(path.Base(strings.ReplaceAll(l.Path, `\`, "/")))
	}
	if l.Alias != "" {
		return l.Alias
	}
	if l.Target != "" {
		return l.Target
	}
	data, err := json.Marshal(l)
	if err != nil {
		return ""
	}
	return string(data)
}

// LinkTarget returns the document a value points at, for resolving hierarchy
// edges: the link target, else the path basename, else the plain string.
func LinkTarget(v RawValue) string {
	switch v.Kind {
	case KindLink:
		if v.Link.Target != "" {
			return v.Link.Target
		}
		if v.Link.Path != "" {
			return trimExt(path.Base(v.Link.Path))
		}
		return v.Link.DisplayText
	case KindList:
		for _, e := range v.List {
			if s := LinkTarget(e); s != "" {
				return s
			}
		}
		return ""
	default:
		return strings.TrimSpace(DisplayString(v))
	}
}

func trimExt(base string) string {
	if base == "." || base == "/" {
		return ""
	}
	lower := strings.ToLower(base)
	for _, ext := range documentExts {
		if strings.HasSuffix(lower, ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}
