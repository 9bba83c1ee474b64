package bencode

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Kind identifies which of the four bencode types a Value holds.
type Kind uint8

const (
	// KindInvalid is the kind of the zero Value. It cannot be encoded.
	KindInvalid Kind = iota
	KindInteger
	KindBytes
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBytes:
		return "byte string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	}
	return "invalid"
}

// Value is a bencode value. Lists and dictionaries own their children; nothing is shared between values
// produced by the codec.
type Value struct {
	kind  Kind
	num   int64
	bytes []byte
	list  []Value
	dict  *Dict
}

func NewInteger(n int64) Value {
	return Value{kind: KindInteger, num: n}
}

// NewBytes returns a byte string holding a copy of b.
func NewBytes(b []byte) Value {
	return Value{kind: KindBytes, bytes: append([]byte{}, b...)}
}

func NewString(s string) Value {
	return Value{kind: KindBytes, bytes: []byte(s)}
}

func NewList(items ...Value) Value {
	l := make([]Value, len(items))
	copy(l, items)
	return Value{kind: KindList, list: l}
}

// NewDictValue wraps d. A nil d is an empty dictionary.
func NewDictValue(d *Dict) Value {
	if d == nil {
		d = NewDict()
	}
	return Value{kind: KindDict, dict: d}
}

// Pair is a single dictionary entry used by DictOf.
type Pair struct {
	Key   Value
	Value Value
}

// DictOf builds a dictionary from pairs. Every key must be a byte string; later pairs overwrite earlier ones
// with the same key.
func DictOf(pairs ...Pair) (Value, error) {
	d := NewDict()
	for i, p := range pairs {
		if p.Key.kind != KindBytes {
			return Value{}, withPath(invalidValue("dictionary key is a %s", p.Key.kind), indexPath(i))
		}
		d.Set(p.Key.bytes, p.Value)
	}
	return NewDictValue(d), nil
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

func (v Value) Integer() (int64, bool) {
	return v.num, v.kind == KindInteger
}

// Bytes returns the raw content of a byte string. The slice is owned by v.
func (v Value) Bytes() ([]byte, bool) {
	return v.bytes, v.kind == KindBytes
}

// Text returns the byte string as text. It fails with ErrNotText when v is not a byte string or is not valid
// UTF-8.
func (v Value) Text() (string, error) {
	if v.kind != KindBytes {
		return "", errors.Wrapf(ErrNotText, "value is a %s", v.kind)
	}
	if !utf8.Valid(v.bytes) {
		return "", errors.Wrapf(ErrNotText, "%d-byte string", len(v.bytes))
	}
	return string(v.bytes), nil
}

func (v Value) List() ([]Value, bool) {
	return v.list, v.kind == KindList
}

func (v Value) Dict() (*Dict, bool) {
	return v.dict, v.kind == KindDict
}

// Equal reports whether v and o hold the same bencode value. Dictionary comparison ignores insertion order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.num == o.num
	case KindBytes:
		return bytes.Equal(v.bytes, o.bytes)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if v.dict.Len() != o.dict.Len() {
			return false
		}
		for k, ev := range v.dict.entries {
			ov, ok := o.dict.entries[k]
			if !ok || !ev.Equal(ov) {
				return false
			}
		}
		return true
	}
	return true
}

// String renders v for humans. Byte strings are quoted with Go escapes, so bytes that are not valid text are
// shown rather than replaced.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.num, 10))
	case KindBytes:
		sb.WriteString(strconv.Quote(string(v.bytes)))
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.format(sb)
		}
		sb.WriteByte(']')
	case KindDict:
		sb.WriteByte('{')
		for i, k := range v.dict.sortedKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			item := v.dict.entries[k]
			item.format(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("<invalid>")
	}
}

// Dict is a bencode dictionary. Keys are compared by raw byte content; a Go string is only used as an
// immutable container for those bytes.
type Dict struct {
	entries map[string]Value
}

func NewDict() *Dict {
	return &Dict{entries: make(map[string]Value)}
}

// Set stores v under key, replacing any previous value. The zero Dict is ready to use.
func (d *Dict) Set(key []byte, v Value) {
	d.SetString(string(key), v)
}

func (d *Dict) SetString(key string, v Value) {
	if d.entries == nil {
		d.entries = make(map[string]Value)
	}
	d.entries[key] = v
}

func (d *Dict) Get(key []byte) (Value, bool) {
	return d.GetString(string(key))
}

func (d *Dict) GetString(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.entries[key]
	return v, ok
}

func (d *Dict) Has(key []byte) bool {
	_, ok := d.Get(key)
	return ok
}

func (d *Dict) Delete(key []byte) {
	delete(d.entries, string(key))
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Keys returns copies of the keys in ascending byte order.
func (d *Dict) Keys() [][]byte {
	sorted := d.sortedKeys()
	keys := make([][]byte, len(sorted))
	for i, k := range sorted {
		keys[i] = []byte(k)
	}
	return keys
}

// Range calls fn for every entry in ascending key order until fn returns false.
func (d *Dict) Range(fn func(key []byte, v Value) bool) {
	for _, k := range d.sortedKeys() {
		if !fn([]byte(k), d.entries[k]) {
			return
		}
	}
}

// sortedKeys orders keys byte-lexicographically. Go compares strings bytewise, so this is independent of any
// text interpretation.
func (d *Dict) sortedKeys() []string {
	if d == nil {
		return nil
	}
	keys := maps.Keys(d.entries)
	slices.Sort(keys)
	return keys
}
