package bencode

import (
	"math"
	"reflect"
	"strings"
)

// Marshaler is implemented by types that produce their own bencode encoding.
type Marshaler interface {
	MarshalBencode() ([]byte, error)
}

// Unmarshaler is implemented by types that decode themselves from the canonical encoding of a value.
type Unmarshaler interface {
	UnmarshalBencode([]byte) error
}

var (
	valueType       = reflect.TypeOf(Value{})
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
)

// Marshal encodes a Go value. Structs are written as dictionaries keyed by their `bencode:".."` tags.
func Marshal(v interface{}, opts ...Option) ([]byte, error) {
	val, err := ValueOf(v, opts...)
	if err != nil {
		return nil, err
	}
	return Encode(val, opts...)
}

// ValueOf converts a Go value into a Value. Supported are bool (as 0 or 1), integers, strings, byte slices and
// arrays, slices, arrays, maps keyed by strings or byte arrays, tagged structs, pointers, Value and Marshaler.
// Anything else fails with ErrInvalidValue. Containers, pointers and interfaces all count towards the depth
// limit, so a self-referential value fails with ErrNestingTooDeep.
func ValueOf(v interface{}, opts ...Option) (Value, error) {
	if v == nil {
		return Value{}, invalidValue("nil")
	}
	vb := &valueBuilder{maxDepth: newOptions(opts).maxDepth}
	return vb.valueOf(reflect.ValueOf(v))
}

type valueBuilder struct {
	depth    int
	maxDepth int
}

func (vb *valueBuilder) enter() error {
	vb.depth++
	if vb.depth > vb.maxDepth {
		return newEncodeError(ErrNestingTooDeep, "exceeds %d levels", vb.maxDepth)
	}
	return nil
}

func (vb *valueBuilder) leave() {
	vb.depth--
}

func (vb *valueBuilder) valueOf(v reflect.Value) (Value, error) {
	t := v.Type()
	if t == valueType {
		val := v.Interface().(Value)
		if !val.IsValid() {
			return Value{}, invalidValue("uninitialized value")
		}
		return val, nil
	}
	if t.Implements(marshalerType) {
		return marshalerValue(v)
	}
	if v.CanAddr() && reflect.PointerTo(t).Implements(marshalerType) {
		return marshalerValue(v.Addr())
	}

	switch t.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return NewInteger(1), nil
		}
		return NewInteger(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInteger(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return Value{}, invalidValue("%d overflows int64", u)
		}
		return NewInteger(int64(u)), nil
	case reflect.String:
		return NewString(v.String()), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return NewBytes(v.Bytes()), nil
		}
		return vb.listOf(v)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return Value{kind: KindBytes, bytes: b}, nil
		}
		return vb.listOf(v)
	case reflect.Map:
		return vb.dictOf(v)
	case reflect.Struct:
		return vb.structOf(v)
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return Value{}, invalidValue("nil %s", t)
		}
		if err := vb.enter(); err != nil {
			return Value{}, err
		}
		defer vb.leave()
		return vb.valueOf(v.Elem())
	default:
		return Value{}, invalidValue("unsupported type %s", t)
	}
}

func marshalerValue(v reflect.Value) (Value, error) {
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return Value{}, invalidValue("nil %s", v.Type())
	}
	b, err := v.Interface().(Marshaler).MarshalBencode()
	if err != nil {
		return Value{}, err
	}
	val, err := Decode(b)
	if err != nil {
		return Value{}, invalidValue("%s produced invalid bencode: %v", v.Type(), err)
	}
	return val, nil
}

func (vb *valueBuilder) listOf(v reflect.Value) (Value, error) {
	if err := vb.enter(); err != nil {
		return Value{}, err
	}
	defer vb.leave()
	l := make([]Value, v.Len())
	for i := 0; i != v.Len(); i++ {
		item, err := vb.valueOf(v.Index(i))
		if err != nil {
			return Value{}, withPath(err, indexPath(i))
		}
		l[i] = item
	}
	return Value{kind: KindList, list: l}, nil
}

func (vb *valueBuilder) dictOf(v reflect.Value) (Value, error) {
	if err := vb.enter(); err != nil {
		return Value{}, err
	}
	defer vb.leave()
	kt := v.Type().Key()
	d := NewDict()
	iter := v.MapRange()
	for iter.Next() {
		var key string
		switch {
		case kt.Kind() == reflect.String:
			key = iter.Key().String()
		case kt.Kind() == reflect.Array && kt.Elem().Kind() == reflect.Uint8:
			b := make([]byte, kt.Len())
			reflect.Copy(reflect.ValueOf(b), iter.Key())
			key = string(b)
		default:
			return Value{}, invalidValue("dictionary key type %s is not a byte string", kt)
		}
		val, err := vb.valueOf(iter.Value())
		if err != nil {
			return Value{}, withPath(err, keyPath(key))
		}
		d.SetString(key, val)
	}
	return NewDictValue(d), nil
}

type field struct {
	name      string
	index     int
	omitEmpty bool
}

// structFields lists the tagged, exported fields of t. An exported field without a tag is an error; a tag of
// "-" skips the field.
func structFields(t reflect.Type) ([]field, error) {
	fields := make([]field, 0, t.NumField())
	seen := make(map[string]bool)
	for i := 0; i != t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("bencode")
		if tag == "" {
			return nil, invalidValue("expected bencode tag on %s.%s", t, f.Name)
		}
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if seen[name] {
			return nil, invalidValue("duplicate bencode tag %q on %s", name, t)
		}
		seen[name] = true
		fields = append(fields, field{name: name, index: i, omitEmpty: opts == "omitempty"})
	}
	return fields, nil
}

func (vb *valueBuilder) structOf(v reflect.Value) (Value, error) {
	if err := vb.enter(); err != nil {
		return Value{}, err
	}
	defer vb.leave()
	fields, err := structFields(v.Type())
	if err != nil {
		return Value{}, err
	}
	d := NewDict()
	for _, f := range fields {
		fv := v.Field(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		val, err := vb.valueOf(fv)
		if err != nil {
			return Value{}, withPath(err, keyPath(f.name))
		}
		d.SetString(f.name, val)
	}
	return NewDictValue(d), nil
}
