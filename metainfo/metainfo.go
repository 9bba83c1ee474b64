// This package defines BitTorrent metainfo (.torrent) files on top of the bencode codec.
package metainfo

import (
	"crypto/sha1"

	"github.com/cockroachdb/errors"
	"github.com/ipfs/go-cid"
	"github.com/meow-io/go-bencode/bencode"
	"github.com/multiformats/go-multihash"
)

// PieceHashSize is the length of a v1 piece hash, a SHA-1 digest.
const PieceHashSize = sha1.Size

var (
	ErrInvalidPieces = errors.New("metainfo: pieces is not a multiple of 20 bytes")
	ErrInvalidInfo   = errors.New("metainfo: invalid info dictionary")
)

type File struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type Info struct {
	Name        string `bencode:"name"`
	PieceLength int64  `bencode:"piece length"`
	Pieces      []byte `bencode:"pieces,omitempty"`
	Length      int64  `bencode:"length,omitempty"`
	Files       []File `bencode:"files,omitempty"`
	Private     bool   `bencode:"private,omitempty"`
	MetaVersion int64  `bencode:"meta version,omitempty"`
}

// MetaInfo is the outer dictionary of a torrent file. The info dictionary is kept as its exact encoding so
// the info hash can be computed over the bytes that were read.
type MetaInfo struct {
	Announce     string             `bencode:"announce,omitempty"`
	AnnounceList [][]string         `bencode:"announce-list,omitempty"`
	Comment      string             `bencode:"comment,omitempty"`
	CreatedBy    string             `bencode:"created by,omitempty"`
	CreationDate int64              `bencode:"creation date,omitempty"`
	InfoBytes    bencode.RawMessage `bencode:"info"`
}

// Parse decodes a torrent file. Input must be canonical: a torrent whose dictionaries are unsorted or repeat
// keys would hash differently once re-encoded, so it is rejected.
func Parse(buf []byte, opts ...bencode.Option) (*MetaInfo, error) {
	opts = append([]bencode.Option{bencode.WithCanonical()}, opts...)
	m := &MetaInfo{}
	if err := bencode.Unmarshal(buf, m, opts...); err != nil {
		return nil, errors.Wrap(err, "metainfo: parse")
	}
	if _, err := m.Info(); err != nil {
		return nil, err
	}
	return m, nil
}

// Bytes returns the canonical encoding of m.
func (m *MetaInfo) Bytes() ([]byte, error) {
	return bencode.Marshal(m)
}

// SetInfo replaces the info dictionary with the encoding of info.
func (m *MetaInfo) SetInfo(info *Info) error {
	if err := info.validate(); err != nil {
		return err
	}
	b, err := bencode.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "metainfo: encode info")
	}
	m.InfoBytes = b
	return nil
}

func (m *MetaInfo) Info() (*Info, error) {
	info := &Info{}
	if err := bencode.Unmarshal(m.InfoBytes, info); err != nil {
		return nil, errors.Wrap(err, "metainfo: decode info")
	}
	if err := info.validate(); err != nil {
		return nil, err
	}
	return info, nil
}

// InfoHash is the v1 identity of the torrent: SHA-1 over the encoded info dictionary.
func (m *MetaInfo) InfoHash() [20]byte {
	return sha1.Sum(m.InfoBytes)
}

// InfoHashV2 is the v2 identity of the torrent as a sha2-256 multihash.
func (m *MetaInfo) InfoHashV2() (multihash.Multihash, error) {
	return multihash.Sum(m.InfoBytes, multihash.SHA2_256, -1)
}

// ContentID addresses the complete torrent file as a raw CIDv1.
func ContentID(buf []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(buf, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Trackers flattens announce and announce-list into a list without repeats, announce first.
func (m *MetaInfo) Trackers() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	add(m.Announce)
	for _, tier := range m.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return out
}

func (i *Info) validate() error {
	if i.Name == "" {
		return errors.Wrap(ErrInvalidInfo, "missing name")
	}
	if i.PieceLength <= 0 {
		return errors.Wrapf(ErrInvalidInfo, "piece length %d", i.PieceLength)
	}
	if len(i.Pieces)%PieceHashSize != 0 {
		return errors.Wrapf(ErrInvalidPieces, "got %d bytes", len(i.Pieces))
	}
	if i.MetaVersion == 2 {
		return nil
	}
	if i.Length != 0 && len(i.Files) != 0 {
		return errors.Wrap(ErrInvalidInfo, "both length and files are set")
	}
	if i.Length < 0 {
		return errors.Wrapf(ErrInvalidInfo, "length %d", i.Length)
	}
	for n, f := range i.Files {
		if f.Length < 0 || len(f.Path) == 0 {
			return errors.Wrapf(ErrInvalidInfo, "file %d", n)
		}
	}
	return nil
}

// PieceHashes splits pieces into individual SHA-1 digests.
func (i *Info) PieceHashes() ([][PieceHashSize]byte, error) {
	if len(i.Pieces)%PieceHashSize != 0 {
		return nil, errors.Wrapf(ErrInvalidPieces, "got %d bytes", len(i.Pieces))
	}
	hashes := make([][PieceHashSize]byte, len(i.Pieces)/PieceHashSize)
	for n := range hashes {
		copy(hashes[n][:], i.Pieces[n*PieceHashSize:])
	}
	return hashes, nil
}

// TotalLength is the size of the content described by i.
func (i *Info) TotalLength() int64 {
	if len(i.Files) == 0 {
		return i.Length
	}
	var total int64
	for _, f := range i.Files {
		total += f.Length
	}
	return total
}
