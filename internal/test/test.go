// This package holds fixtures shared by the package tests: conformance vectors and a random value generator.
package test

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/rand"

	"github.com/meow-io/go-bencode/bencode"
)

// Vector is a single decode conformance case. Err is nil for input that must decode.
type Vector struct {
	Name  string
	Input string
	Err   error
}

var ValidVectors = []Vector{
	{Name: "zero", Input: "i0e"},
	{Name: "negative", Input: "i-123e"},
	{Name: "max int64", Input: "i9223372036854775807e"},
	{Name: "min int64", Input: "i-9223372036854775808e"},
	{Name: "empty string", Input: "0:"},
	{Name: "string", Input: "5:hello"},
	{Name: "binary string", Input: "4:\xff\x00\xaa\xbb"},
	{Name: "empty list", Input: "le"},
	{Name: "empty dict", Input: "de"},
	{Name: "list", Input: "l4:spami42ee"},
	{Name: "dict", Input: "d3:agei25e4:name4:johne"},
	{Name: "nested", Input: "d4:infod3:foo3:bare4:listli1ei2eee"},
	{Name: "empty key", Input: "d0:i1ee"},
}

var InvalidVectors = []Vector{
	{Name: "empty input", Input: "", Err: bencode.ErrInvalidPrefix},
	{Name: "garbage", Input: "xyz", Err: bencode.ErrInvalidPrefix},
	{Name: "bare end", Input: "e", Err: bencode.ErrInvalidPrefix},
	{Name: "leading zero", Input: "i01e", Err: bencode.ErrMalformedInteger},
	{Name: "negative zero", Input: "i-0e", Err: bencode.ErrMalformedInteger},
	{Name: "negative leading zero", Input: "i-01e", Err: bencode.ErrMalformedInteger},
	{Name: "missing integer end", Input: "i123", Err: bencode.ErrMalformedInteger},
	{Name: "empty integer", Input: "ie", Err: bencode.ErrMalformedInteger},
	{Name: "lone minus", Input: "i-e", Err: bencode.ErrMalformedInteger},
	{Name: "non-digit integer", Input: "i12a3e", Err: bencode.ErrMalformedInteger},
	{Name: "plus sign", Input: "i+1e", Err: bencode.ErrMalformedInteger},
	{Name: "integer overflow", Input: "i9223372036854775808e", Err: bencode.ErrMalformedInteger},
	{Name: "truncated string", Input: "10:abc", Err: bencode.ErrTruncatedString},
	{Name: "huge length", Input: "99999999999999999999:a", Err: bencode.ErrTruncatedString},
	{Name: "negative length", Input: "-5:abc", Err: bencode.ErrMalformedLength},
	{Name: "length leading zero", Input: "03:abc", Err: bencode.ErrMalformedLength},
	{Name: "missing colon", Input: "5hello", Err: bencode.ErrMalformedLength},
	{Name: "length at end", Input: "5", Err: bencode.ErrMalformedLength},
	{Name: "unterminated list", Input: "l4:abci5e", Err: bencode.ErrUnterminatedList},
	{Name: "open list", Input: "l", Err: bencode.ErrUnterminatedList},
	{Name: "unterminated dict", Input: "d1:a1:b1:c1:d", Err: bencode.ErrUnterminatedMapping},
	{Name: "dict key without value", Input: "d1:a", Err: bencode.ErrUnterminatedMapping},
	{Name: "integer key", Input: "di1e1:ae", Err: bencode.ErrNonStringKey},
	{Name: "list key", Input: "dle1:ae", Err: bencode.ErrNonStringKey},
	{Name: "dict key", Input: "dde1:ae", Err: bencode.ErrNonStringKey},
	{Name: "trailing data", Input: "i1ei2e", Err: bencode.ErrTrailingData},
	{Name: "trailing byte", Input: "lex", Err: bencode.ErrTrailingData},
}

// Seed returns a random seed for math/rand. Tests log it so failures can be replayed.
func Seed() int64 {
	var b [8]byte
	_, err := io.ReadFull(crypto_rand.Reader, b[:])
	if err != nil {
		panic("short read from random source")
	}
	return int64(binary.LittleEndian.Uint64(b[:]) & math.MaxInt64)
}

// RandomBytes returns up to max arbitrary bytes, frequently not valid UTF-8.
func RandomBytes(r *rand.Rand, max int) []byte {
	b := make([]byte, r.Intn(max+1))
	r.Read(b)
	return b
}

// RandomValue builds a random value nested at most depth levels deep.
func RandomValue(r *rand.Rand, depth int) bencode.Value {
	kind := r.Intn(4)
	if depth <= 0 {
		kind = r.Intn(2)
	}
	switch kind {
	case 0:
		switch r.Intn(4) {
		case 0:
			return bencode.NewInteger(0)
		case 1:
			return bencode.NewInteger(math.MinInt64 + r.Int63n(2))
		case 2:
			return bencode.NewInteger(math.MaxInt64 - r.Int63n(2))
		}
		return bencode.NewInteger(r.Int63n(2000) - 1000)
	case 1:
		return bencode.NewBytes(RandomBytes(r, 24))
	case 2:
		items := make([]bencode.Value, r.Intn(5))
		for i := range items {
			items[i] = RandomValue(r, depth-1)
		}
		return bencode.NewList(items...)
	}
	d := bencode.NewDict()
	for n := r.Intn(5); n > 0; n-- {
		d.Set(RandomBytes(r, 8), RandomValue(r, depth-1))
	}
	return bencode.NewDictValue(d)
}

// RandomTextValue is RandomValue restricted to printable ASCII byte strings, for comparison against
// implementations that only handle text.
func RandomTextValue(r *rand.Rand, depth int) bencode.Value {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 :ile"
	text := func(max int) string {
		b := make([]byte, r.Intn(max+1))
		for i := range b {
			b[i] = charset[r.Intn(len(charset))]
		}
		return string(b)
	}
	kind := r.Intn(4)
	if depth <= 0 {
		kind = r.Intn(2)
	}
	switch kind {
	case 0:
		return bencode.NewInteger(r.Int63n(1<<40) - 1<<39)
	case 1:
		return bencode.NewString(text(16))
	case 2:
		items := make([]bencode.Value, r.Intn(5))
		for i := range items {
			items[i] = RandomTextValue(r, depth-1)
		}
		return bencode.NewList(items...)
	}
	d := bencode.NewDict()
	for n := r.Intn(5); n > 0; n-- {
		d.SetString(text(8), RandomTextValue(r, depth-1))
	}
	return bencode.NewDictValue(d)
}
