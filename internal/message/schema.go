// Package message implements the typed command schema of §4.5: each named
// command maps to a Go struct whose fields carry `ts:"key"` tags naming
// their wire key and whether they belong to the static or list section.
// This plays the role the spec assigns to a declaration table plus a
// generator ("the spec describes the SHAPE of what they emit, not the
// generator") — the generator itself is out of scope, so the "generated"
// structs below are hand-written in the shape a generator would produce,
// and bound to the wire via a small reflection-based codec, the way the
// teacher's rlp package binds Go structs to its wire encoding via struct
// tags instead of per-type marshal code.
package message

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/imxeno/tsclientlib/internal/command"
	"github.com/imxeno/tsclientlib/internal/tserr"
)

type fieldSpec struct {
	index     int
	key       string
	static    bool
	optional  bool
}

func parseTag(raw string) (key string, static, optional bool) {
	parts := strings.Split(raw, ",")
	key = parts[0]
	for _, p := range parts[1:] {
		switch p {
		case "static":
			static = true
		case "optional":
			optional = true
		}
	}
	return
}

func fieldSpecs(t reflect.Type) ([]fieldSpec, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("message: %s is not a struct", t)
	}
	var specs []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("ts")
		if !ok {
			continue
		}
		key, static, optional := parseTag(tag)
		specs = append(specs, fieldSpec{index: i, key: key, static: static, optional: optional})
	}
	return specs, nil
}

// setField decodes a command.Pair's value into struct field v, following
// Go's usual scalar kinds plus `*T` for an optional field absent from the
// row.
func setField(v reflect.Value, raw string, hasValue bool) error {
	if v.Kind() == reflect.Ptr {
		if !hasValue {
			return nil
		}
		elem := reflect.New(v.Type().Elem())
		if err := setField(elem.Elem(), raw, true); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		v.SetBool(raw == "1" || strings.EqualFold(raw, "true"))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return tserr.Wrap(tserr.KindParseCommand, err, "field value %q is not an integer", raw)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return tserr.Wrap(tserr.KindParseCommand, err, "field value %q is not an unsigned integer", raw)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return tserr.Wrap(tserr.KindParseCommand, err, "field value %q is not a float", raw)
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("message: unsupported field kind %s", v.Kind())
	}
	return nil
}

func fieldToString(v reflect.Value) (string, bool) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", false
		}
		return fieldToString(v.Elem())
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		if v.Bool() {
			return "1", true
		}
		return "0", true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	default:
		return "", false
	}
}

// unmarshalRow fills dst (a pointer to a struct) from one canonical row.
func unmarshalRow(row []command.Pair, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("message: Unmarshal target must be a pointer to struct")
	}
	specs, err := fieldSpecs(v.Elem().Type())
	if err != nil {
		return err
	}
	byKey := make(map[string]command.Pair, len(row))
	for _, p := range row {
		byKey[p.Key] = p
	}
	for _, fs := range specs {
		p, ok := byKey[fs.key]
		fv := v.Elem().Field(fs.index)
		if !ok {
			if fs.optional || fv.Kind() == reflect.Ptr {
				continue
			}
			return tserr.New(tserr.KindParseCommand, "missing required field %q", fs.key)
		}
		if err := setField(fv, p.Value, p.HasValue); err != nil {
			return err
		}
	}
	return nil
}
