package metrics

import (
	"reflect"
)

func toFloat(v any) (float64, bool) {
	value := reflect.ValueOf(v)
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(value.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(value.Uint()), true
	case reflect.Float32, reflect.Float64:
		return value.Float(), true
	case reflect.Bool:
		if value.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.Interface, reflect.Pointer:
		if value.IsNil() {
			return 0, false
		}
		return toFloat(value.Elem().Interface())
	}
	return 0, false
}
