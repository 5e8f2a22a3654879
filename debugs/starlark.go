package debugs

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// ToValue converts a Go value to starlark.
// Structs become dicts of exported fields, and keys implementing fmt.Stringer become strings.
func ToValue(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case []byte:
		return starlark.Bytes(v), nil
	}
	return toValue(reflect.ValueOf(v))
}

func toValue(value reflect.Value) (starlark.Value, error) {
	switch value.Kind() {

	case reflect.Bool:
		return starlark.Bool(value.Bool()), nil

	case reflect.String:
		return starlark.String(value.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(value.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float()), nil

	case reflect.Slice, reflect.Array:
		if value.Kind() == reflect.Slice && value.IsNil() {
			return starlark.NewList(nil), nil
		}
		elems := make([]starlark.Value, value.Len())
		for i := range value.Len() {
			elem, err := toValue(value.Index(i))
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return starlark.NewList(elems), nil

	case reflect.Map:
		d := starlark.NewDict(value.Len())
		iter := value.MapRange()
		for iter.Next() {
			key, err := keyValue(iter.Key())
			if err != nil {
				return nil, err
			}
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(key, elem); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Struct:
		typ := value.Type()
		d := starlark.NewDict(value.NumField())
		for i := range value.NumField() {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			elem, err := toValue(value.Field(i))
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(field.Name), elem); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			return starlark.None, nil
		}
		return toValue(value.Elem())

	case reflect.Func:
		if value.IsNil() {
			return starlark.None, nil
		}
		return starlarkutil.MakeFunc("", value.Interface()), nil

	case reflect.Invalid:
		return starlark.None, nil

	}

	return nil, fmt.Errorf("unsupported type for starlark: %v", value.Type())
}

var (
	stringerType      = reflect.TypeFor[fmt.Stringer]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// keyValue converts a map key, which must be hashable in starlark.
// Keys with a text form use it.
func keyValue(key reflect.Value) (starlark.Value, error) {
	if key.Type().Implements(textMarshalerType) {
		text, err := key.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, err
		}
		return starlark.String(text), nil
	}
	if key.Type().Implements(stringerType) {
		return starlark.String(key.Interface().(fmt.Stringer).String()), nil
	}
	switch key.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return toValue(key)
	}
	return nil, fmt.Errorf("unsupported key type for starlark: %v", key.Type())
}

// ToStringDict converts globals for a starlark thread.
func ToStringDict(globals map[string]any) (starlark.StringDict, error) {
	ret := make(starlark.StringDict, len(globals))
	for name, v := range globals {
		value, err := ToValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		ret[name] = value
	}
	return ret, nil
}
