package bencode

import (
	"unicode/utf8"
)

// Interface converts v to plain Go values: int64, []byte, []interface{} and map[string]interface{}. Map keys
// carry the raw key bytes. The zero Value converts to nil.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInteger:
		return v.num
	case KindBytes:
		return append([]byte{}, v.bytes...)
	case KindList:
		l := make([]interface{}, len(v.list))
		for i, item := range v.list {
			l[i] = item.Interface()
		}
		return l
	case KindDict:
		m := make(map[string]interface{}, v.dict.Len())
		for k, item := range v.dict.entries {
			m[k] = item.Interface()
		}
		return m
	}
	return nil
}

// TextInterface is Interface with a text view layered on top: byte strings that are valid UTF-8 become string,
// the rest stay []byte. A dictionary key that is not valid UTF-8 fails with ErrNonTextKey, since it has no
// faithful text form. That failure is reported as an *EncodeError whose Path locates the dictionary; match it
// with errors.Is rather than by type.
func (v Value) TextInterface() (interface{}, error) {
	switch v.kind {
	case KindInteger:
		return v.num, nil
	case KindBytes:
		if utf8.Valid(v.bytes) {
			return string(v.bytes), nil
		}
		return append([]byte{}, v.bytes...), nil
	case KindList:
		l := make([]interface{}, len(v.list))
		for i, item := range v.list {
			x, err := item.TextInterface()
			if err != nil {
				return nil, withPath(err, indexPath(i))
			}
			l[i] = x
		}
		return l, nil
	case KindDict:
		m := make(map[string]interface{}, v.dict.Len())
		for _, k := range v.dict.sortedKeys() {
			if !utf8.ValidString(k) {
				return nil, newEncodeError(ErrNonTextKey, "key %q is not valid utf-8", k)
			}
			x, err := v.dict.entries[k].TextInterface()
			if err != nil {
				return nil, withPath(err, keyPath(k))
			}
			m[k] = x
		}
		return m, nil
	}
	return nil, invalidValue("uninitialized value")
}
