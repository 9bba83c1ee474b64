package bencode

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

// UnmarshalTypeError describes a decoded value that does not fit the Go type it is assigned to.
type UnmarshalTypeError struct {
	Path   string
	Kind   Kind
	Type   reflect.Type
	Detail string
}

func (e *UnmarshalTypeError) Error() string {
	path := e.Path
	if path == "" {
		path = "value"
	}
	if e.Detail != "" {
		return fmt.Sprintf("bencode: cannot unmarshal %s into %s at %s: %s", e.Kind, e.Type, path, e.Detail)
	}
	return fmt.Sprintf("bencode: cannot unmarshal %s into %s at %s", e.Kind, e.Type, path)
}

func typeError(v Value, t reflect.Type, msg string, vars ...interface{}) error {
	return &UnmarshalTypeError{Kind: v.kind, Type: t, Detail: fmt.Sprintf(msg, vars...)}
}

// Unmarshal decodes buf strictly and stores the result in the value pointed to by target.
//
// Struct fields are matched by their `bencode:".."` tags. A field missing from the dictionary is an error unless
// its tag carries omitempty; keys without a matching field are ignored.
func Unmarshal(buf []byte, target interface{}, opts ...Option) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Newf("bencode: unmarshal target must be a non-nil pointer, got %T", target)
	}
	v, err := Decode(buf, opts...)
	if err != nil {
		return err
	}
	return Assign(v, target)
}

// Assign stores an already decoded value in the value pointed to by target, following the rules of Unmarshal.
func Assign(v Value, target interface{}) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Newf("bencode: assign target must be a non-nil pointer, got %T", target)
	}
	return assign(rv.Elem(), v)
}

func assign(dst reflect.Value, v Value) error {
	t := dst.Type()
	if t == valueType {
		dst.Set(reflect.ValueOf(v))
		return nil
	}
	if dst.CanAddr() && reflect.PointerTo(t).Implements(unmarshalerType) {
		b, err := Encode(v)
		if err != nil {
			return err
		}
		return dst.Addr().Interface().(Unmarshaler).UnmarshalBencode(b)
	}

	switch t.Kind() {
	case reflect.Bool:
		n, ok := v.Integer()
		if !ok || (n != 0 && n != 1) {
			return typeError(v, t, "expected integer 0 or 1")
		}
		dst.SetBool(n == 1)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.Integer()
		if !ok {
			return typeError(v, t, "")
		}
		if dst.OverflowInt(n) {
			return typeError(v, t, "%d overflows", n)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := v.Integer()
		if !ok {
			return typeError(v, t, "")
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return typeError(v, t, "%d overflows", n)
		}
		dst.SetUint(uint64(n))
	case reflect.String:
		b, ok := v.Bytes()
		if !ok {
			return typeError(v, t, "")
		}
		dst.SetString(string(b))
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, ok := v.Bytes()
			if !ok {
				return typeError(v, t, "")
			}
			dst.SetBytes(append([]byte{}, b...))
			return nil
		}
		l, ok := v.List()
		if !ok {
			return typeError(v, t, "")
		}
		s := reflect.MakeSlice(t, len(l), len(l))
		for i, item := range l {
			if err := assign(s.Index(i), item); err != nil {
				return withPath(err, indexPath(i))
			}
		}
		dst.Set(s)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b, ok := v.Bytes()
			if !ok {
				return typeError(v, t, "")
			}
			if len(b) != t.Len() {
				return typeError(v, t, "expected %d bytes, got %d", t.Len(), len(b))
			}
			reflect.Copy(dst, reflect.ValueOf(b))
			return nil
		}
		l, ok := v.List()
		if !ok {
			return typeError(v, t, "")
		}
		if len(l) != t.Len() {
			return typeError(v, t, "expected %d items, got %d", t.Len(), len(l))
		}
		for i, item := range l {
			if err := assign(dst.Index(i), item); err != nil {
				return withPath(err, indexPath(i))
			}
		}
	case reflect.Map:
		return assignMap(dst, v)
	case reflect.Struct:
		return assignStruct(dst, v)
	case reflect.Pointer:
		p := reflect.New(t.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return typeError(v, t, "only empty interfaces are supported")
		}
		if x := v.Interface(); x != nil {
			dst.Set(reflect.ValueOf(x))
		}
	default:
		return typeError(v, t, "unsupported type")
	}
	return nil
}

func assignMap(dst reflect.Value, v Value) error {
	t := dst.Type()
	d, ok := v.Dict()
	if !ok {
		return typeError(v, t, "")
	}
	kt := t.Key()
	isArrayKey := kt.Kind() == reflect.Array && kt.Elem().Kind() == reflect.Uint8
	if kt.Kind() != reflect.String && !isArrayKey {
		return typeError(v, t, "map key type %s is not a byte string", kt)
	}
	m := reflect.MakeMapWithSize(t, d.Len())
	for _, k := range d.sortedKeys() {
		key := reflect.New(kt).Elem()
		if isArrayKey {
			if len(k) != kt.Len() {
				return withPath(typeError(NewString(k), kt, "expected %d bytes, got %d", kt.Len(), len(k)), keyPath(k))
			}
			reflect.Copy(key, reflect.ValueOf([]byte(k)))
		} else {
			key.SetString(k)
		}
		val := reflect.New(t.Elem()).Elem()
		if err := assign(val, d.entries[k]); err != nil {
			return withPath(err, keyPath(k))
		}
		m.SetMapIndex(key, val)
	}
	dst.Set(m)
	return nil
}

func assignStruct(dst reflect.Value, v Value) error {
	t := dst.Type()
	d, ok := v.Dict()
	if !ok {
		return typeError(v, t, "")
	}
	fields, err := structFields(t)
	if err != nil {
		return err
	}
	for _, f := range fields {
		item, ok := d.GetString(f.name)
		if !ok {
			if f.omitEmpty {
				continue
			}
			return withPath(typeError(v, t, "missing key for %s", f.name), keyPath(f.name))
		}
		if err := assign(dst.Field(f.index), item); err != nil {
			return withPath(err, keyPath(f.name))
		}
	}
	return nil
}

// RawMessage holds the canonical encoding of a value whose decoding is deferred.
type RawMessage []byte

var (
	_ Unmarshaler = &RawMessage{}
	_ Marshaler   = RawMessage{}
)

func (m RawMessage) MarshalBencode() ([]byte, error) {
	if len(m) == 0 {
		return nil, invalidValue("empty RawMessage")
	}
	return m, nil
}

func (m *RawMessage) UnmarshalBencode(b []byte) error {
	*m = append((*m)[:0], b...)
	return nil
}
