package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = ":"

// TagName is the struct tag read by the default serializer.
const TagName = "cache"

var segmentEscaper = strings.NewReplacer(
	"%", "%25",
	KeySeparator, "%3A",
	"*", "%2A",
	"?", "%3F",
	"[", "%5B",
	"]", "%5D",
	" ", "%20",
)

// defaultKeySerializer implements KeySerializer using reflection.
//
// Structs contribute "name:value" pairs in field order. The name comes from
// the `cache` struct tag (falling back to the field name) and the tag accepts
// two options: omitempty drops zero values, hash replaces the value with its
// xxhash digest so free text does not leak into key names. A tag of "-"
// skips the field.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from a namespace and args.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)

	for _, arg := range args {
		if seg := s.serializeValue(reflect.ValueOf(arg)); seg != "" {
			parts = append(parts, seg)
		}
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem())
	case reflect.Struct:
		if t, ok := rv.Interface().(time.Time); ok {
			return escapeSegment(t.UTC().Format(time.RFC3339Nano))
		}
		return s.serializeStruct(rv)
	case reflect.Slice, reflect.Array:
		return s.serializeList(rv)
	case reflect.Map:
		return s.serializeMap(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// Not stable across processes.
		return fmt.Sprintf("%s:unsupported", rv.Kind())
	}

	return escapeSegment(fmt.Sprint(rv.Interface()))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name, opts := parseTag(field)
		if name == "-" {
			continue
		}

		fv := rv.Field(i)
		if opts.omitEmpty && fv.IsZero() {
			continue
		}

		value := s.serializeValue(fv)
		if opts.hash {
			value = HashSegment(fmt.Sprint(derefInterface(fv)))
		}
		parts = append(parts, name+KeySeparator+value)
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeList(rv reflect.Value) string {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return "nil"
	}
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = s.serializeValue(rv.Index(i))
	}
	return strings.Join(parts, ",")
}

// serializeMap sorts entries by their serialized key for determinism.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	if rv.IsNil() {
		return "nil"
	}
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key())+"="+s.serializeValue(iter.Value()))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

type tagOptions struct {
	omitEmpty bool
	hash      bool
}

func parseTag(field reflect.StructField) (string, tagOptions) {
	var opts tagOptions
	tag, ok := field.Tag.Lookup(TagName)
	if !ok {
		return field.Name, opts
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "omitempty":
			opts.omitEmpty = true
		case "hash":
			opts.hash = true
		}
	}
	return name, opts
}

func derefInterface(rv reflect.Value) any {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// HashSegment returns the hex xxhash digest of s.
func HashSegment(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func escapeSegment(s string) string {
	return segmentEscaper.Replace(s)
}
