package bencode

import (
	"strconv"
)

// Encode serializes v to its canonical bencode form.
func Encode(v Value, opts ...Option) ([]byte, error) {
	return AppendEncode(nil, v, opts...)
}

// AppendEncode appends the canonical encoding of v to dst. On error dst is returned unchanged.
func AppendEncode(dst []byte, v Value, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	w := newWriter(dst, o.maxDepth)
	if err := w.writeValue(v); err != nil {
		return dst, err
	}
	return w.buf, nil
}

type writer struct {
	buf      []byte
	depth    int
	maxDepth int
}

func newWriter(dst []byte, maxDepth int) writer {
	return writer{
		buf:      dst,
		maxDepth: maxDepth,
	}
}

func (w *writer) writeByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) writeBytes(b []byte) {
	w.buf = strconv.AppendInt(w.buf, int64(len(b)), 10)
	w.buf = append(w.buf, bytesLengthSep)
	w.buf = append(w.buf, b...)
}

func (w *writer) writeKey(k string) {
	w.buf = strconv.AppendInt(w.buf, int64(len(k)), 10)
	w.buf = append(w.buf, bytesLengthSep)
	w.buf = append(w.buf, k...)
}

func (w *writer) writeSignedNumber(n int64) {
	w.buf = append(w.buf, numberStart)
	w.buf = strconv.AppendInt(w.buf, n, 10)
	w.writeByte(bencodeEnd)
}

func (w *writer) enter() error {
	w.depth++
	if w.depth > w.maxDepth {
		return newEncodeError(ErrNestingTooDeep, "exceeds %d levels", w.maxDepth)
	}
	return nil
}

func (w *writer) writeValue(v Value) error {
	switch v.kind {
	case KindInteger:
		w.writeSignedNumber(v.num)
		return nil
	case KindBytes:
		w.writeBytes(v.bytes)
		return nil
	case KindList:
		if err := w.enter(); err != nil {
			return err
		}
		w.writeByte(listStart)
		for i, item := range v.list {
			if err := w.writeValue(item); err != nil {
				return withPath(err, indexPath(i))
			}
		}
		w.writeByte(bencodeEnd)
		w.depth--
		return nil
	case KindDict:
		if err := w.enter(); err != nil {
			return err
		}
		w.writeByte(dictStart)
		for _, k := range v.dict.sortedKeys() {
			w.writeKey(k)
			if err := w.writeValue(v.dict.entries[k]); err != nil {
				return withPath(err, keyPath(k))
			}
		}
		w.writeByte(bencodeEnd)
		w.depth--
		return nil
	default:
		return invalidValue("uninitialized value")
	}
}
