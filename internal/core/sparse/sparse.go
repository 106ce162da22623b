// Package sparse turns partially filled structs into column maps that contain
// only the fields the caller actually set.
package sparse

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

type field struct {
	index []int
	name  string
}

var fieldsCache sync.Map // map[reflect.Type][]field

// Update converts v (a struct or pointer to struct) into a map keyed by "db" tag,
// falling back to the "json" tag name. Unset fields are dropped:
// nil pointers, nil slices and maps, nil interfaces and zero time.Time values.
// Non-pointer scalars are always kept, a zero number is a real value.
// Fields tagged db:"-" or json:"-" are skipped.
func Update(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return map[string]any{}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return map[string]any{}
	}

	fields := fieldsOf(rv.Type())
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fv := rv.FieldByIndex(f.index)
		if isUnset(fv) {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			fv = fv.Elem()
		}
		out[f.name] = fv.Interface()
	}
	return out
}

func isUnset(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
	}
	return false
}

func fieldsOf(t reflect.Type) []field {
	if cached, ok := fieldsCache.Load(t); ok {
		return cached.([]field)
	}
	fields := collect(t, nil)
	fieldsCache.Store(t, fields)
	return fields
}

func collect(t reflect.Type, prefix []int) []field {
	var out []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(append([]int{}, prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			out = append(out, collect(sf.Type, idx)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name := tagName(sf.Tag.Get("db"))
		if name == "" {
			name = tagName(sf.Tag.Get("json"))
		}
		if name == "" || name == "-" {
			continue
		}
		out = append(out, field{index: idx, name: name})
	}
	return out
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}
