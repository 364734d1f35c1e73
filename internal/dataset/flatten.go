package dataset

import (
	"fmt"
	"reflect"
)

// Flatten walks the nested slices returned by the netCDF reader and returns
// their numeric leaves as float64 in row-major order.
func Flatten(values any) ([]float64, error) {
	if values == nil {
		return nil, nil
	}
	out := make([]float64, 0, 64)
	if err := flattenValue(reflect.ValueOf(values), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenValue(v reflect.Value, out *[]float64) error {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		// Fast paths for the common leaf slices.
		switch s := v.Interface().(type) {
		case []float64:
			*out = append(*out, s...)
			return nil
		case []float32:
			for _, x := range s {
				*out = append(*out, float64(x))
			}
			return nil
		case []int32:
			for _, x := range s {
				*out = append(*out, float64(x))
			}
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := flattenValue(v.Index(i), out); err != nil {
				return err
			}
		}
		return nil
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return fmt.Errorf("%w: nil element", ErrUnsupportedType)
		}
		return flattenValue(v.Elem(), out)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, float64(v.Uint()))
	case reflect.Float32, reflect.Float64:
		*out = append(*out, v.Float())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
	return nil
}

// Floats converts an attribute value (a scalar or a slice of numbers) to
// float64s. ok is false for non-numeric values such as strings.
func Floats(value any) (vals []float64, ok bool) {
	if _, isString := value.(string); isString {
		return nil, false
	}
	vals, err := Flatten(value)
	if err != nil {
		return nil, false
	}
	return vals, true
}
