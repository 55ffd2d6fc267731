// Package sourcemap converts source maps between their JSON, base64 and
// comment encodings and lets callers rewrite individual properties.
package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const dataURIPrefix = "data:application/json;charset=utf-8;base64,"

var (
	// ErrNoComment is returned when a source contains no inline map comment.
	ErrNoComment = errors.New("sourcemap: no inline source map comment")

	commentPattern = regexp.MustCompile(`(?m)(?://[#@][ \t]+sourceMappingURL=data:(?:application|text)/json;(?:charset[:=][^;,]+;)?base64,([A-Za-z0-9+/=]+)[ \t]*$)|(?:/\*[#@][ \t]+sourceMappingURL=data:(?:application|text)/json;(?:charset[:=][^;,]+;)?base64,([A-Za-z0-9+/=]+)[ \t]*\*/[ \t]*$)`)
	anyCommentPattern = regexp.MustCompile(`(?m)^[ \t]*(?://[#@][ \t]+sourceMappingURL=data:[^\n]*|/\*[#@][ \t]+sourceMappingURL=data:[^*]*\*/)[ \t]*\n?`)
)

// Converter holds one decoded source map.
type Converter struct {
	sm map[string]any
}

// CommentOptions controls ToComment rendering.
type CommentOptions struct {
	Multiline bool // Render as /*# ... */ instead of //# ...
}

// FromJSON decodes a map from its JSON text.
func FromJSON(raw string) (*Converter, error) {
	var sm map[string]any
	if err := json.Unmarshal([]byte(raw), &sm); err != nil {
		return nil, fmt.Errorf("sourcemap: invalid JSON: %w", err)
	}
	if sm == nil {
		return nil, errors.New("sourcemap: map is null")
	}
	return &Converter{sm: sm}, nil
}

// FromObject wraps an already decoded map. The input is copied.
func FromObject(obj map[string]any) *Converter {
	sm := make(map[string]any, len(obj))
	for k, v := range obj {
		sm[k] = v
	}
	return &Converter{sm: sm}
}

// FromBase64 decodes a base64-encoded JSON map.
func FromBase64(encoded string) (*Converter, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("sourcemap: invalid base64: %w", err)
	}
	return FromJSON(string(raw))
}

// FromComment decodes a single sourceMappingURL comment.
func FromComment(comment string) (*Converter, error) {
	m := commentPattern.FindStringSubmatch(strings.TrimSpace(comment))
	if m == nil {
		return nil, ErrNoComment
	}
	return FromBase64(firstNonEmpty(m[1], m[2]))
}

// FromSource finds the last inline map comment in src and decodes it.
func FromSource(src string) (*Converter, error) {
	all := commentPattern.FindAllStringSubmatch(src, -1)
	if len(all) == 0 {
		return nil, ErrNoComment
	}
	last := all[len(all)-1]
	return FromBase64(firstNonEmpty(last[1], last[2]))
}

// RemoveComments strips every inline map comment from src.
func RemoveComments(src string) string {
	return anyCommentPattern.ReplaceAllString(src, "")
}

// SetProperty replaces one top-level property.
func (c *Converter) SetProperty(name string, value any) *Converter {
	c.sm[name] = value
	return c
}

// Property returns one top-level property.
func (c *Converter) Property(name string) (any, bool) {
	v, ok := c.sm[name]
	return v, ok
}

// Sources returns the sources list as strings.
func (c *Converter) Sources() []string {
	switch s := c.sm["sources"].(type) {
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, v := range s {
			str, _ := v.(string)
			out = append(out, str)
		}
		return out
	}
	return nil
}

// ToObject returns a copy of the decoded map.
func (c *Converter) ToObject() map[string]any {
	out := make(map[string]any, len(c.sm))
	for k, v := range c.sm {
		out[k] = v
	}
	return out
}

// ToJSON encodes the map as compact JSON.
func (c *Converter) ToJSON() (string, error) {
	raw, err := json.Marshal(c.sm)
	if err != nil {
		return "", fmt.Errorf("sourcemap: encode: %w", err)
	}
	return string(raw), nil
}

// ToBase64 encodes the JSON form as standard base64.
func (c *Converter) ToBase64() (string, error) {
	raw, err := c.ToJSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// ToComment renders the map as an inline sourceMappingURL comment.
func (c *Converter) ToComment(opts CommentOptions) (string, error) {
	encoded, err := c.ToBase64()
	if err != nil {
		return "", err
	}
	if opts.Multiline {
		return "/*# sourceMappingURL=" + dataURIPrefix + encoded + " */", nil
	}
	return "//# sourceMappingURL=" + dataURIPrefix + encoded, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
