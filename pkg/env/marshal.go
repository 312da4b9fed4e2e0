// Package env renders config structs back into .env file content, the
// inverse of caarlos0/env parsing.
package env

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// MarshalEnv writes one KEY=value line per non-zero field carrying an env
// tag. Nested structs are walked with their envPrefix applied. c must be a
// pointer to a struct.
func MarshalEnv(c any) (string, error) {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("marshal env: want pointer to struct, got %T", c)
	}

	var lines []string
	collect(v.Elem(), "", &lines)
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Merge overlays the KEY=value lines of update onto base. Keys present in
// both keep their position in base.
func Merge(base, update string) string {
	values := map[string]string{}
	var order []string
	for _, content := range []string{base, update} {
		for _, line := range strings.Split(content, "\n") {
			key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
			if !ok || key == "" || strings.HasPrefix(key, "#") {
				continue
			}
			if _, seen := values[key]; !seen {
				order = append(order, key)
			}
			values[key] = val
		}
	}

	var b strings.Builder
	for _, key := range order {
		fmt.Fprintf(&b, "%s=%s\n", key, values[key])
	}
	return b.String()
}

func collect(v reflect.Value, prefix string, lines *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		val := v.Field(i)

		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			collect(val, prefix+field.Tag.Get("envPrefix"), lines)
			continue
		}

		key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if key == "" || val.IsZero() {
			continue
		}
		*lines = append(*lines, prefix+key+"="+formatValue(val))
	}
}

func formatValue(v reflect.Value) string {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}
	switch v.Kind() {
	case reflect.String:
		return quoteIfNeeded(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map:
		// envSeparator "," and envKeyValSeparator ":"
		parts := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			parts = append(parts, fmt.Sprintf("%v:%v", iter.Key().Interface(), iter.Value().Interface()))
		}
		slices.Sort(parts)
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v.Interface())
	}
}

// quoteIfNeeded wraps values godotenv would otherwise split or truncate.
func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " #\"'\t") {
		return strconv.Quote(s)
	}
	return s
}
