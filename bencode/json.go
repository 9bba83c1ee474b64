package bencode

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
)

// FromJSON builds a Value from a JSON document. Objects become dictionaries, arrays lists, strings byte
// strings, integers integers and booleans 0 or 1. Fractional numbers and null have no bencode form and fail
// with ErrInvalidValue. Anything but whitespace after the document fails with ErrTrailingData.
func FromJSON(data []byte) (Value, error) {
	val, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, errors.Wrap(err, "bencode: parse json")
	}
	if rest := bytes.TrimLeft(data[end:], " \t\r\n"); len(rest) != 0 {
		return Value{}, errors.Wrapf(ErrTrailingData, "bencode: %d bytes after json value at offset %d", len(rest), end)
	}
	return parseJSONValue(dataType, val)
}

func parseJSONValue(dataType jsonparser.ValueType, data []byte) (Value, error) {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return Value{}, errors.Wrap(err, "bencode: parse json string")
		}
		return NewString(s), nil
	case jsonparser.Number:
		n, err := jsonparser.ParseInt(data)
		if err != nil {
			return Value{}, invalidValue("json number %s is not a 64-bit integer", data)
		}
		return NewInteger(n), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return Value{}, errors.Wrap(err, "bencode: parse json boolean")
		}
		if b {
			return NewInteger(1), nil
		}
		return NewInteger(0), nil
	case jsonparser.Array:
		items := make([]Value, 0)
		var itemErr error
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			item, err := parseJSONValue(dataType, value)
			if err != nil {
				itemErr = withPath(err, indexPath(len(items)))
				return
			}
			items = append(items, item)
		})
		if itemErr != nil {
			return Value{}, itemErr
		}
		if err != nil {
			return Value{}, errors.Wrap(err, "bencode: parse json array")
		}
		return Value{kind: KindList, list: items}, nil
	case jsonparser.Object:
		d := NewDict()
		err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
			item, err := parseJSONValue(dataType, value)
			if err != nil {
				return withPath(err, keyPath(string(key)))
			}
			d.Set(key, item)
			return nil
		})
		if err != nil {
			return Value{}, err
		}
		return NewDictValue(d), nil
	case jsonparser.Null:
		return Value{}, invalidValue("json null has no bencode form")
	}
	return Value{}, invalidValue("unsupported json value %s", data)
}

// MarshalJSON renders v as JSON. Byte strings must be valid UTF-8: one that is not fails with ErrNotText (or
// ErrNonTextKey for dictionary keys) rather than being replaced with U+FFFD.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil)
}

func (v Value) appendJSON(dst []byte) ([]byte, error) {
	switch v.kind {
	case KindInteger:
		return strconv.AppendInt(dst, v.num, 10), nil
	case KindBytes:
		if !utf8.Valid(v.bytes) {
			return nil, newEncodeError(ErrNotText, "%d-byte string is not valid utf-8", len(v.bytes))
		}
		return appendJSONString(dst, string(v.bytes))
	case KindList:
		dst = append(dst, '[')
		for i, item := range v.list {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = item.appendJSON(dst)
			if err != nil {
				return nil, withPath(err, indexPath(i))
			}
		}
		return append(dst, ']'), nil
	case KindDict:
		dst = append(dst, '{')
		for i, k := range v.dict.sortedKeys() {
			if !utf8.ValidString(k) {
				return nil, newEncodeError(ErrNonTextKey, "key %q is not valid utf-8", k)
			}
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendJSONString(dst, k); err != nil {
				return nil, err
			}
			dst = append(dst, ':')
			if dst, err = v.dict.entries[k].appendJSON(dst); err != nil {
				return nil, withPath(err, keyPath(k))
			}
		}
		return append(dst, '}'), nil
	}
	return nil, invalidValue("uninitialized value")
}

func appendJSONString(dst []byte, s string) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
