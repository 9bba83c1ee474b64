package bencode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecodeScalars(t *testing.T) {
	require := require.New(t)

	v, err := Decode([]byte("i0e"))
	require.Nil(err)
	require.True(v.Equal(NewInteger(0)))

	v, err = Decode([]byte("i-123e"))
	require.Nil(err)
	n, ok := v.Integer()
	require.True(ok)
	require.Equal(int64(-123), n)

	v, err = Decode([]byte("0:"))
	require.Nil(err)
	b, ok := v.Bytes()
	require.True(ok)
	require.Empty(b)

	v, err = Decode([]byte("5:hello"))
	require.Nil(err)
	require.True(v.Equal(NewString("hello")))
}

func TestDecodeStructures(t *testing.T) {
	require := require.New(t)

	v, err := Decode([]byte("le"))
	require.Nil(err)
	l, ok := v.List()
	require.True(ok)
	require.Empty(l)

	v, err = Decode([]byte("de"))
	require.Nil(err)
	d, ok := v.Dict()
	require.True(ok)
	require.Equal(0, d.Len())

	v, err = Decode([]byte("l4:spami42ee"))
	require.Nil(err)
	require.True(v.Equal(NewList(NewString("spam"), NewInteger(42))))

	v, err = Decode([]byte("d3:agei25e4:name4:johne"))
	require.Nil(err)
	want, err := DictOf(
		Pair{NewString("name"), NewString("john")},
		Pair{NewString("age"), NewInteger(25)},
	)
	require.Nil(err)
	require.True(v.Equal(want))
}

func TestDecodeErrorKinds(t *testing.T) {
	tests := []struct {
		in     string
		kind   error
		offset int
	}{
		{"xyz", ErrInvalidPrefix, 0},
		{"", ErrInvalidPrefix, 0},
		{"i01e", ErrMalformedInteger, 1},
		{"i-0e", ErrMalformedInteger, 1},
		{"i123", ErrMalformedInteger, 4},
		{"i1x", ErrMalformedInteger, 2},
		{"10:abc", ErrTruncatedString, 0},
		{"-5:abc", ErrMalformedLength, 0},
		{"l4:abci5e", ErrUnterminatedList, 9},
		{"d1:a1:b1:c1:d", ErrUnterminatedMapping, 13},
		{"d1:ai1ei2ei3ee", ErrNonStringKey, 7},
		{"li1ee5:extra", ErrTrailingData, 5},
		{"l1:ax", ErrInvalidPrefix, 4},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			require := require.New(t)
			v, err := Decode([]byte(test.in))
			require.ErrorIs(err, test.kind)
			require.False(v.IsValid())
			var de *DecodeError
			require.ErrorAs(err, &de)
			require.Equal(test.offset, de.Offset)
		})
	}
}

func TestDecodeCopiesInput(t *testing.T) {
	require := require.New(t)

	buf := []byte("l3:abce")
	v, err := Decode(buf)
	require.Nil(err)
	buf[3] = 'X'
	require.True(v.Equal(NewList(NewString("abc"))))
}

func TestDecodeBinaryFidelity(t *testing.T) {
	require := require.New(t)

	raw := []byte{0xff, 0xfe, 0x00, 0xfa, 'h', 'i'}
	buf, err := Encode(NewBytes(raw))
	require.Nil(err)
	v, err := Decode(buf)
	require.Nil(err)
	b, ok := v.Bytes()
	require.True(ok)
	require.Equal(raw, b)

	_, err = v.Text()
	require.ErrorIs(err, ErrNotText)
}

func TestDecodePrefix(t *testing.T) {
	require := require.New(t)

	v, n, err := DecodePrefix([]byte("i123e456"))
	require.Nil(err)
	require.Equal(5, n)
	require.True(v.Equal(NewInteger(123)))

	v, n, err = DecodePrefix([]byte("3:abc123"))
	require.Nil(err)
	require.Equal(5, n)
	require.True(v.Equal(NewString("abc")))

	_, _, err = DecodePrefix([]byte("l3:abc"))
	require.ErrorIs(err, ErrUnterminatedList)
}

func TestDecodeDuplicateKeys(t *testing.T) {
	require := require.New(t)

	v, err := Decode([]byte("d1:ai1e1:bi2e1:ai3ee"))
	require.Nil(err)
	d, _ := v.Dict()
	require.Equal(2, d.Len())
	a, ok := d.GetString("a")
	require.True(ok)
	require.True(a.Equal(NewInteger(3)))

	_, err = Decode([]byte("d1:ai1e1:bi2e1:ai3ee"), WithRejectDuplicates())
	require.ErrorIs(err, ErrDuplicateKey)
	var de *DecodeError
	require.ErrorAs(err, &de)
	require.Equal(13, de.Offset)
}

func TestDecodeKeyOrder(t *testing.T) {
	require := require.New(t)

	unsorted := []byte("d1:bi1e1:ai2ee")
	v, err := Decode(unsorted)
	require.Nil(err)
	buf, err := Encode(v)
	require.Nil(err)
	require.Equal([]byte("d1:ai2e1:bi1ee"), buf)

	_, err = Decode(unsorted, WithStrictOrder())
	require.ErrorIs(err, ErrUnsortedKeys)

	_, err = Decode([]byte("d1:ai1e1:ai2ee"), WithCanonical())
	require.ErrorIs(err, ErrDuplicateKey)

	_, err = Decode([]byte("d1:ai1e1:ai2ee"), WithStrictOrder())
	require.ErrorIs(err, ErrUnsortedKeys)

	v, err = Decode([]byte("d0:i0e1:ai1e2:abi2e1:\xffi3ee"), WithCanonical())
	require.Nil(err)
	d, _ := v.Dict()
	require.Equal(4, d.Len())
}

func TestDecodeTextMode(t *testing.T) {
	require := require.New(t)

	v, err := Decode([]byte("d4:name2:\xff\xfee"), WithText())
	require.Nil(err)
	d, _ := v.Dict()
	name, _ := d.GetString("name")
	b, _ := name.Bytes()
	require.Equal([]byte{0xff, 0xfe}, b)

	_, err = Decode([]byte("d2:\xff\xfe4:namee"), WithText())
	require.ErrorIs(err, ErrNonTextKey)

	_, err = Decode([]byte("d2:\xff\xfe4:namee"))
	require.Nil(err)
}

func TestDecodeNestingTooDeep(t *testing.T) {
	require := require.New(t)

	deep := strings.Repeat("l", DefaultMaxDepth+1) + strings.Repeat("e", DefaultMaxDepth+1)
	_, err := Decode([]byte(deep))
	require.ErrorIs(err, ErrNestingTooDeep)

	ok := strings.Repeat("l", DefaultMaxDepth) + strings.Repeat("e", DefaultMaxDepth)
	_, err = Decode([]byte(ok))
	require.Nil(err)

	_, err = Decode([]byte("ld1:ald1:alleeeee"), WithMaxDepth(4))
	require.ErrorIs(err, ErrNestingTooDeep)

	// Adversarial input far beyond the limit fails without recursing through it.
	_, err = Decode([]byte(strings.Repeat("l", 10_000_000)))
	require.ErrorIs(err, ErrNestingTooDeep)
}

func TestDecodeLogsRejections(t *testing.T) {
	require := require.New(t)

	core, logs := observer.New(zap.DebugLevel)
	_, err := Decode([]byte("i01e"), WithLogger(zap.New(core).Sugar()))
	require.ErrorIs(err, ErrMalformedInteger)
	require.Equal(1, logs.Len())
	entry := logs.All()[0]
	require.Equal("rejected bencode input", entry.Message)
	require.Equal(int64(1), entry.ContextMap()["offset"])
}

func TestDecodeStruct(t *testing.T) {
	require := require.New(t)

	obj := struct {
		Mary   []byte `bencode:"m"`
		Joseph []byte `bencode:"j"`
		Peter  int64  `bencode:"p"`
		Paul   string `bencode:"pp"`
	}{}
	buf := []byte("d1:j10:01234567891:m4:01231:pi1234e2:pp10:abcdefghije")
	err := Unmarshal(buf, &obj)
	require.Nil(err)
	require.Equal(obj.Peter, int64(1234))
	require.Equal(obj.Joseph, []byte("0123456789"))
	require.Equal(obj.Mary, []byte("0123"))
	require.Equal(obj.Paul, "abcdefghij")
}

func TestDecodeMap(t *testing.T) {
	require := require.New(t)

	obj := make(map[string]string)
	buf := []byte("d10:abcdefghij10:abcdefghije")
	err := Unmarshal(buf, &obj)
	require.Nil(err)
	require.Equal(obj["abcdefghij"], "abcdefghij")
}

func TestOutOfOrderDictionary(t *testing.T) {
	require := require.New(t)

	obj := struct {
		Mary   []byte `bencode:"m"`
		Joseph []byte `bencode:"j"`
		Peter  string `bencode:"p"`
		Paul   string `bencode:"pp"`
	}{}
	buf := []byte("d1:m4:01231:j10:01234567891:p4:12342:pp10:abcdefghije")
	err := Unmarshal(buf, &obj, WithStrictOrder())
	require.ErrorIs(err, ErrUnsortedKeys)

	err = Unmarshal(buf, &obj)
	require.Nil(err)
	require.Equal("1234", obj.Peter)
}

func TestMissingKey(t *testing.T) {
	require := require.New(t)

	obj := struct {
		Mary   []byte `bencode:"m"`
		Joseph []byte `bencode:"j"`
		Peter  string `bencode:"p"`
		Paul   string `bencode:"pp"`
	}{}
	buf := []byte("d1:j10:01234567891:p4:12342:pp10:abcdefghije")
	err := Unmarshal(buf, &obj)
	require.NotNil(err)
	var ue *UnmarshalTypeError
	require.ErrorAs(err, &ue)
	require.Equal(`["m"]`, ue.Path)
}

func TestDecodeMapOfStruct(t *testing.T) {
	require := require.New(t)
	type inner struct {
		One string `bencode:"a"`
		Two string `bencode:"b"`
	}

	obj := struct {
		Mary map[[8]byte]inner `bencode:"m"`
	}{}
	buf := []byte(strings.Replace("d 1:m d 8:12345678 d 1:a 5:abcde 1:b 6:abcabc e 8:abcdefgh d 1:a 5:efghi 1:b 6:cbacba e e e", " ", "", -1))
	err := Unmarshal(buf, &obj)
	require.Nil(err)
	k := [8]byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38}
	require.Equal("abcde", obj.Mary[k].One)
}

func TestArrayOfStruct(t *testing.T) {
	require := require.New(t)
	type inner struct {
		One string `bencode:"a"`
		Two string `bencode:"b"`
	}
	obj := struct {
		Mary []inner `bencode:"m"`
	}{}
	buf := []byte(strings.Replace("d 1:m l d 1:a 5:abcde 1:b 6:abcabc e d 1:a 5:efghi 1:b 6:cbacba e e e", " ", "", -1))
	err := Unmarshal(buf, &obj)
	require.Nil(err)
	require.Equal("abcde", obj.Mary[0].One)
}

func TestNumberOverflow(t *testing.T) {
	require := require.New(t)
	obj := struct {
		Mary int64 `bencode:"m"`
	}{}
	buf := []byte("d1:mi9223372036854775808ee")
	err := Unmarshal(buf, &obj)
	require.ErrorIs(err, ErrMalformedInteger)

	small := struct {
		Mary int8 `bencode:"m"`
	}{}
	err = Unmarshal([]byte("d1:mi128ee"), &small)
	var ue *UnmarshalTypeError
	require.ErrorAs(err, &ue)

	unsigned := struct {
		Mary uint32 `bencode:"m"`
	}{}
	err = Unmarshal([]byte("d1:mi-1ee"), &unsigned)
	require.ErrorAs(err, &ue)
}

type lowered string

func (l *lowered) UnmarshalBencode(b []byte) error {
	v, err := Decode(b)
	if err != nil {
		return err
	}
	s, err := v.Text()
	if err != nil {
		return err
	}
	*l = lowered(strings.ToLower(s))
	return nil
}

func TestUnmarshalHooksAndDynamicValues(t *testing.T) {
	require := require.New(t)

	obj := struct {
		Name    lowered        `bencode:"n"`
		Raw     RawMessage     `bencode:"r"`
		Any     interface{}    `bencode:"a"`
		Val     Value          `bencode:"v"`
		Flag    bool           `bencode:"f"`
		Ptr     *int           `bencode:"p"`
		Hash    [2]byte        `bencode:"h"`
		Missing *string        `bencode:"x,omitempty"`
		Nested  [][]int        `bencode:"l"`
		ByKey   map[string]int `bencode:"m"`
	}{}
	buf := []byte("d1:a3:any1:fi1e1:h2:\x01\x021:lli1eeli2ei3eee1:md1:ki9ee1:n5:SHOUT1:pi5e1:rd1:bi1e1:ai2ee1:v3:rawe")
	err := Unmarshal(buf, &obj)
	require.Nil(err)
	require.Equal(lowered("shout"), obj.Name)
	require.Equal(RawMessage("d1:ai2e1:bi1ee"), obj.Raw)
	require.Equal([]byte("any"), obj.Any)
	require.True(obj.Val.Equal(NewString("raw")))
	require.True(obj.Flag)
	require.Equal(5, *obj.Ptr)
	require.Equal([2]byte{1, 2}, obj.Hash)
	require.Nil(obj.Missing)
	require.Equal([][]int{{1}, {2, 3}}, obj.Nested)
	require.Equal(map[string]int{"k": 9}, obj.ByKey)
}

func TestUnmarshalTypeMismatch(t *testing.T) {
	require := require.New(t)

	var s string
	err := Unmarshal([]byte("i1e"), &s)
	var ue *UnmarshalTypeError
	require.ErrorAs(err, &ue)
	require.Equal(KindInteger, ue.Kind)

	var hash [20]byte
	err = Unmarshal([]byte("3:abc"), &hash)
	require.ErrorAs(err, &ue)

	var b bool
	err = Unmarshal([]byte("i2e"), &b)
	require.ErrorAs(err, &ue)

	err = Unmarshal([]byte("i1e"), s)
	require.NotNil(err)
}
