// Package layering merges partially populated snapshots. A nil pointer,
// slice, map or interface is unset and yields to weaker snapshots; every
// other value of a stronger snapshot wins.
package layering

import (
	"reflect"
	"strings"
)

// Merge composes snapshots ordered from strongest to weakest.
func Merge[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	merged := cloneValue(reflect.ValueOf(&layers[len(layers)-1]).Elem())
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(&layers[i]).Elem(), merged)
	}
	return merged.Interface().(T)
}

// Clone returns a deep copy of value.
func Clone[T any](value T) T {
	return cloneValue(reflect.ValueOf(&value).Elem()).Interface().(T)
}

// IsSet reports whether the field tagged name is populated in snapshot.
func IsSet(snapshot any, name string) bool {
	_, ok := Lookup(snapshot, name)
	return ok
}

// Lookup returns the value of the struct field whose json tag (or Go name)
// is name. Unset fields report false; pointers are dereferenced.
func Lookup(snapshot any, name string) (any, bool) {
	v := reflect.ValueOf(snapshot)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	field, ok := fieldByName(v, name)
	if !ok || unset(field) {
		return nil, false
	}
	if field.Kind() == reflect.Pointer {
		field = field.Elem()
	}
	return field.Interface(), true
}

// Fields lists the lookup names of snapshot's exported fields in
// declaration order.
func Fields(snapshot any) []string {
	t := reflect.TypeOf(snapshot)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		names = append(names, fieldName(field))
	}
	return names
}

func fieldByName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if fieldName(field) == name || field.Name == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func fieldName(field reflect.StructField) string {
	tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return field.Name
	}
	return tag
}

func unset(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	case reflect.Invalid:
		return true
	default:
		return false
	}
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if unset(strong) {
		if weak.IsValid() {
			return cloneValue(weak)
		}
		return reflect.Zero(strong.Type())
	}
	switch strong.Kind() {
	case reflect.Struct:
		out := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			var weakField reflect.Value
			if weak.IsValid() && weak.Type() == strong.Type() {
				weakField = weak.Field(i)
			}
			out.Field(i).Set(mergeValue(strong.Field(i), weakField))
		}
		return out
	case reflect.Pointer:
		if strong.Elem().Kind() != reflect.Struct {
			return cloneValue(strong)
		}
		var weakElem reflect.Value
		if weak.IsValid() && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		out := reflect.New(strong.Type().Elem())
		out.Elem().Set(mergeValue(strong.Elem(), weakElem))
		return out
	case reflect.Map:
		out := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && !weak.IsNil() {
			iter := weak.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	default:
		return cloneValue(strong)
	}
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(cloneValue(v.Field(i)))
			}
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
