package bencode

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by the codec wraps exactly one of these, so callers branch with errors.Is.
var (
	ErrInvalidPrefix       = errors.New("invalid prefix")
	ErrMalformedInteger    = errors.New("malformed integer")
	ErrMalformedLength     = errors.New("malformed length")
	ErrTruncatedString     = errors.New("truncated string")
	ErrUnterminatedList    = errors.New("unterminated list")
	ErrUnterminatedMapping = errors.New("unterminated mapping")
	ErrNonStringKey        = errors.New("non-string key")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrUnsortedKeys        = errors.New("unsorted keys")
	ErrNonTextKey          = errors.New("non-text key")
	ErrTrailingData        = errors.New("trailing data")
	ErrNestingTooDeep      = errors.New("nesting too deep")
	ErrInvalidValue        = errors.New("invalid value")
	ErrNotText             = errors.New("not valid utf-8 text")
)

// DecodeError is returned by every decode entry point. Offset is the position in the input at which the
// violation was detected.
type DecodeError struct {
	Kind   error
	Offset int
	Detail string
}

func newDecodeError(kind error, offset int, msg string, vars ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(msg, vars...)}
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bencode: %v at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("bencode: %v at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// EncodeError is returned when a value cannot be represented in bencode. Path locates the offending node,
// e.g. `["info"]["files"][2]`.
type EncodeError struct {
	Kind   error
	Path   string
	Detail string
}

func newEncodeError(kind error, msg string, vars ...interface{}) *EncodeError {
	return &EncodeError{Kind: kind, Detail: fmt.Sprintf(msg, vars...)}
}

func invalidValue(msg string, vars ...interface{}) *EncodeError {
	return newEncodeError(ErrInvalidValue, msg, vars...)
}

func (e *EncodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "value"
	}
	return fmt.Sprintf("bencode: %v at %s: %s", e.Kind, path, e.Detail)
}

func (e *EncodeError) Unwrap() error {
	return e.Kind
}

// withPath prefixes the location of a failing child onto an EncodeError or UnmarshalTypeError. Other errors
// pass through untouched.
func withPath(err error, elem string) error {
	var ee *EncodeError
	if errors.As(err, &ee) {
		ee.Path = elem + ee.Path
		return err
	}
	var ue *UnmarshalTypeError
	if errors.As(err, &ue) {
		ue.Path = elem + ue.Path
	}
	return err
}

func indexPath(i int) string {
	return fmt.Sprintf("[%d]", i)
}

func keyPath(key string) string {
	return fmt.Sprintf("[%q]", key)
}
