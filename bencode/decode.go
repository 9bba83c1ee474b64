package bencode

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// Decode parses buf as exactly one bencode value. Bytes left over after the value fail with ErrTrailingData.
func Decode(buf []byte, opts ...Option) (Value, error) {
	r := newReader(buf, newOptions(opts))
	v, err := r.readValue()
	if err != nil {
		return Value{}, err
	}
	if !r.isAtEnd() {
		return Value{}, r.fail(ErrTrailingData, r.pos, "%d bytes after top-level value", len(r.buf)-r.pos)
	}
	return v, nil
}

// DecodePrefix parses the bencode value at the start of buf and returns it with the number of bytes it
// occupied. Whatever follows the value is left unread.
func DecodePrefix(buf []byte, opts ...Option) (Value, int, error) {
	r := newReader(buf, newOptions(opts))
	v, err := r.readValue()
	if err != nil {
		return Value{}, 0, err
	}
	return v, r.pos, nil
}

type reader struct {
	buf   []byte
	pos   int
	depth int
	opts  *options
}

func newReader(buf []byte, o *options) reader {
	return reader{
		buf:  buf,
		pos:  0,
		opts: o,
	}
}

func (r *reader) fail(kind error, offset int, msg string, vars ...interface{}) error {
	err := newDecodeError(kind, offset, msg, vars...)
	r.opts.log.Debugw("rejected bencode input", "kind", kind.Error(), "offset", offset, "detail", err.Detail)
	return err
}

func (r *reader) peek() byte {
	return r.buf[r.pos]
}

func (r *reader) isAtEnd() bool {
	return r.pos >= len(r.buf)
}

func (r *reader) enter(start int) error {
	r.depth++
	if r.depth > r.opts.maxDepth {
		return r.fail(ErrNestingTooDeep, start, "exceeds %d levels", r.opts.maxDepth)
	}
	return nil
}

func (r *reader) leave() {
	r.depth--
}

func (r *reader) readValue() (Value, error) {
	if r.isAtEnd() {
		return Value{}, r.fail(ErrInvalidPrefix, r.pos, "unexpected end of input")
	}
	c := r.peek()
	switch {
	case c == numberStart:
		n, err := r.readInt()
		if err != nil {
			return Value{}, err
		}
		return NewInteger(n), nil
	case isDigit(c):
		b, err := r.readBytes()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindBytes, bytes: b}, nil
	case c == listStart:
		return r.readList()
	case c == dictStart:
		return r.readDict()
	case c == minusSign && r.pos+1 < len(r.buf) && isDigit(r.buf[r.pos+1]):
		return Value{}, r.fail(ErrMalformedLength, r.pos, "negative length")
	default:
		return Value{}, r.fail(ErrInvalidPrefix, r.pos, "unexpected byte 0x%02x", c)
	}
}

func (r *reader) readInt() (int64, error) {
	start := r.pos
	r.pos++
	neg := false
	if !r.isAtEnd() && r.peek() == minusSign {
		neg = true
		r.pos++
	}
	digitsStart := r.pos
	for !r.isAtEnd() && isDigit(r.peek()) {
		r.pos++
	}
	digits := r.buf[digitsStart:r.pos]
	if len(digits) == 0 {
		if r.isAtEnd() {
			return 0, r.fail(ErrMalformedInteger, r.pos, "expected digits, no more bytes left")
		}
		return 0, r.fail(ErrMalformedInteger, r.pos, "expected digits, got 0x%02x", r.peek())
	}
	if digits[0] == '0' && len(digits) > 1 {
		return 0, r.fail(ErrMalformedInteger, digitsStart, "leading zero")
	}
	if neg && digits[0] == '0' {
		return 0, r.fail(ErrMalformedInteger, start+1, "negative zero not allowed")
	}
	if r.isAtEnd() {
		return 0, r.fail(ErrMalformedInteger, r.pos, "expected 0x%x, but no more bytes left", bencodeEnd)
	}
	if c := r.peek(); c != bencodeEnd {
		return 0, r.fail(ErrMalformedInteger, r.pos, "expected 0x%x got 0x%02x", bencodeEnd, c)
	}
	n, err := strconv.ParseInt(string(r.buf[start+1:r.pos]), 10, 64)
	if err != nil {
		return 0, r.fail(ErrMalformedInteger, start, "%s does not fit in 64 bits", r.buf[start+1:r.pos])
	}
	r.pos++
	return n, nil
}

// readBytes returns a copy of the byte string at the current position so decoded values never alias the input.
func (r *reader) readBytes() ([]byte, error) {
	start := r.pos
	for !r.isAtEnd() && isDigit(r.peek()) {
		r.pos++
	}
	digits := r.buf[start:r.pos]
	if len(digits) == 0 {
		return nil, r.fail(ErrMalformedLength, start, "expected 1 or more digits")
	}
	if digits[0] == '0' && len(digits) > 1 {
		return nil, r.fail(ErrMalformedLength, start, "leading zero")
	}
	if r.isAtEnd() {
		return nil, r.fail(ErrMalformedLength, r.pos, "expected 0x%x, but no more bytes left", bytesLengthSep)
	}
	if c := r.peek(); c != bytesLengthSep {
		return nil, r.fail(ErrMalformedLength, r.pos, "expected 0x%x got 0x%02x", bytesLengthSep, c)
	}
	r.pos++
	remaining := len(r.buf) - r.pos
	l, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil || l > int64(remaining) {
		return nil, r.fail(ErrTruncatedString, start, "declared %s bytes, %d remain", digits, remaining)
	}
	b := make([]byte, l)
	copy(b, r.buf[r.pos:r.pos+int(l)])
	r.pos += int(l)
	return b, nil
}

func (r *reader) readList() (Value, error) {
	start := r.pos
	if err := r.enter(start); err != nil {
		return Value{}, err
	}
	defer r.leave()
	r.pos++
	items := make([]Value, 0)
	for {
		if r.isAtEnd() {
			return Value{}, r.fail(ErrUnterminatedList, r.pos, "list opened at offset %d", start)
		}
		if r.peek() == bencodeEnd {
			r.pos++
			return Value{kind: KindList, list: items}, nil
		}
		item, err := r.readValue()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
}

func (r *reader) readDict() (Value, error) {
	start := r.pos
	if err := r.enter(start); err != nil {
		return Value{}, err
	}
	defer r.leave()
	r.pos++
	d := NewDict()
	var prev []byte
	for {
		if r.isAtEnd() {
			return Value{}, r.fail(ErrUnterminatedMapping, r.pos, "dictionary opened at offset %d", start)
		}
		c := r.peek()
		if c == bencodeEnd {
			r.pos++
			return NewDictValue(d), nil
		}
		keyStart := r.pos
		switch c {
		case numberStart:
			return Value{}, r.fail(ErrNonStringKey, keyStart, "key is an %s", KindInteger)
		case listStart:
			return Value{}, r.fail(ErrNonStringKey, keyStart, "key is a %s", KindList)
		case dictStart:
			return Value{}, r.fail(ErrNonStringKey, keyStart, "key is a %s", KindDict)
		}
		if !isDigit(c) {
			_, err := r.readValue()
			return Value{}, err
		}
		key, err := r.readBytes()
		if err != nil {
			return Value{}, err
		}
		if r.opts.text && !utf8.Valid(key) {
			return Value{}, r.fail(ErrNonTextKey, keyStart, "key %q is not valid utf-8", key)
		}
		if r.opts.rejectDuplicates && d.Has(key) {
			return Value{}, r.fail(ErrDuplicateKey, keyStart, "key %q", key)
		}
		if r.opts.strictOrder && prev != nil && bytes.Compare(prev, key) >= 0 {
			return Value{}, r.fail(ErrUnsortedKeys, keyStart, "key %q after %q", key, prev)
		}
		if r.isAtEnd() {
			return Value{}, r.fail(ErrUnterminatedMapping, r.pos, "missing value for key %q", key)
		}
		val, err := r.readValue()
		if err != nil {
			return Value{}, err
		}
		d.Set(key, val)
		prev = key
	}
}
