// Package options holds the configuration record handed to a transform and the
// merge/rename steps that turn it into the option set a minifier receives.
//
// Options values are treated as immutable: every helper returns a fresh map and
// never writes to its receiver.
package options

import (
	"fmt"
	"strings"
)

// Recognized option keys.
const (
	KeyExts      = "exts"
	KeyX         = "x"
	KeyIgnore    = "ignore"
	KeyGlobal    = "global"
	KeyUglify    = "uglify"
	KeySourceMap = "sourceMap"
	KeyCompress  = "compress"
	KeyMangle    = "mangle"
	KeyParse     = "parse"
	KeyBeautify  = "beautify"
	KeyOutput    = "output"
	KeyDefine    = "define"
	KeyFlags     = "_flags"
	KeyArgs      = "_"

	// Source map sub-keys.
	KeyFilename = "filename"
	KeyURL      = "url"
	KeyContent  = "content"
)

// Aliases maps command-line shaped short flags to their long option names.
var Aliases = map[string]string{
	"c": KeyCompress,
	"m": KeyMangle,
	"p": KeyParse,
	"b": KeyBeautify,
	"o": KeyOutput,
	"d": KeyDefine,
}

// aliasOrder keeps renaming deterministic when both forms are present.
var aliasOrder = []string{"c", "m", "p", "b", "o", "d"}

// gateKeys configure the gate and the transform itself; a minifier never sees them.
var gateKeys = []string{KeyGlobal, KeyExts, KeyX, KeyUglify, KeyIgnore}

// Options is a free-form option record. Known keys are listed above; anything
// else is forwarded to the minifier untouched.
type Options map[string]any

// Clone returns a shallow copy. Nested maps are shared, not copied.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Without returns a copy of o with the given keys removed.
func (o Options) Without(keys ...string) Options {
	out := o.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// With returns a copy of o with key set to value.
func (o Options) With(key string, value any) Options {
	out := o.Clone()
	out[key] = value
	return out
}

// Has reports whether key is present, even with a nil value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Merge layers over on top of base, key by key. Values from over win, including
// nested maps, which replace rather than combine with the base value.
func Merge(base, over Options) Options {
	out := make(Options, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Defaults returns the baseline minifier options for file.
func Defaults(file string) Options {
	return Options{
		KeyCompress:  true,
		KeyMangle:    true,
		KeySourceMap: Options{KeyFilename: file},
	}
}

// RenameAliases moves c, m, p, b, o and d onto their long names and drops the
// _flags and _ artifacts left over from command-line parsing. An alias only
// overrides the long key when it carries a truthy value.
func (o Options) RenameAliases() Options {
	out := o.Without(KeyFlags)
	for _, short := range aliasOrder {
		v, ok := out[short]
		if !ok {
			continue
		}
		delete(out, short)
		if truthy(v) {
			out[Aliases[short]] = v
		}
	}
	delete(out, KeyArgs)
	return out
}

// ForMinifier strips the keys that only configure the gate and transform.
func (o Options) ForMinifier() Options {
	return o.Without(gateKeys...)
}

// CleanCompress clones an object-valued compress option and removes its
// positional-arguments field. Boolean compress values are left alone.
func (o Options) CleanCompress() Options {
	c, ok := AsMap(o[KeyCompress])
	if !ok {
		return o
	}
	return o.With(KeyCompress, c.Without(KeyArgs))
}

// Debug reports whether _flags.debug is set.
func (o Options) Debug() bool {
	flags, ok := AsMap(o[KeyFlags])
	if !ok {
		return false
	}
	return truthy(flags["debug"])
}

// SourceMapDisabled reports whether sourceMap is explicitly false.
func (o Options) SourceMapDisabled() bool {
	v, ok := o[KeySourceMap]
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return isBool && !b
}

// Map returns the nested option map stored at key.
func (o Options) Map(key string) (Options, bool) {
	return AsMap(o[key])
}

// Bool returns the boolean stored at key. ok is false when the key is absent or
// holds something other than a bool.
func (o Options) Bool(key string) (val bool, ok bool) {
	val, ok = o[key].(bool)
	return val, ok
}

// String returns the string stored at key.
func (o Options) String(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

// Strings reads a string-or-list value. A single string becomes a one-element list.
func (o Options) Strings(key string) []string {
	return AsStrings(o[key])
}

// Extensions concatenates exts and x, each normalized to a leading dot.
func (o Options) Extensions() []string {
	var exts []string
	for _, e := range append(o.Strings(KeyExts), o.Strings(KeyX)...) {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// AsMap converts the map shapes produced by decoders and callers into Options.
func AsMap(v any) (Options, bool) {
	switch m := v.(type) {
	case Options:
		return m, true
	case map[string]any:
		return Options(m), true
	case map[any]any:
		out := make(Options, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// AsStrings converts a string or list value into a string slice.
func AsStrings(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return []string{s}
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}
