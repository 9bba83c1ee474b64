// This package defines a strict bencode codec. Values are modelled as a tagged union of integers, byte strings,
// lists and dictionaries. Encoding is canonical (dictionary keys are always written in ascending byte order) and
// decoding rejects every malformed or ambiguous input instead of guessing.
//
// Byte strings are raw bytes. A text view is available through Value.Text, Value.TextInterface and the WithText
// option, each of which fails explicitly instead of substituting bytes.
//
// Marshal and Unmarshal bridge Go values to the codec. Structs are mapped through `bencode:".."` tags.
package bencode

const (
	numberStart    = 0x69
	dictStart      = 0x64
	listStart      = 0x6c
	bencodeEnd     = 0x65
	bytesLengthSep = 0x3a
	minusSign      = 0x2d
)

func isDigit(c byte) bool {
	return c >= 0x30 && c <= 0x39
}
