package metainfo

import (
	"crypto/sha1"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/meow-io/go-bencode/clock"
)

const DefaultPieceLength = 256 << 10

// Builder creates v1 torrents from files on disk.
type Builder struct {
	PieceLength int64
	// Trackers is a list of tiers. The first tracker becomes announce; announce-list is only written when
	// there is more than one tracker.
	Trackers  [][]string
	Comment   string
	CreatedBy string
	Private   bool
	Clock     clock.Clock
}

// Build describes the file or directory at root. Directory entries are visited in lexical order so the same
// tree always produces the same info hash.
func (b *Builder) Build(root string) (*MetaInfo, error) {
	pieceLength := b.PieceLength
	if pieceLength == 0 {
		pieceLength = DefaultPieceLength
	}
	if pieceLength < 0 {
		return nil, errors.Wrapf(ErrInvalidInfo, "piece length %d", pieceLength)
	}
	c := b.Clock
	if c == nil {
		c = clock.NewSystemClock()
	}

	st, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "metainfo: build")
	}
	info := &Info{
		Name:        filepath.Base(root),
		PieceLength: pieceLength,
		Private:     b.Private,
	}
	ph := newPieceHasher(pieceLength)

	if st.Mode().IsRegular() {
		if info.Length, err = ph.addFile(root); err != nil {
			return nil, errors.Wrap(err, "metainfo: build")
		}
	} else {
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.Type().IsRegular() {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			n, err := ph.addFile(p)
			if err != nil {
				return err
			}
			info.Files = append(info.Files, File{Length: n, Path: strings.Split(filepath.ToSlash(rel), "/")})
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "metainfo: build")
		}
		if len(info.Files) == 0 {
			return nil, errors.Newf("metainfo: build: no files under %s", root)
		}
	}
	info.Pieces = ph.sum()

	m := &MetaInfo{
		Comment:      b.Comment,
		CreatedBy:    b.CreatedBy,
		CreationDate: c.CurrentTimeSec(),
	}
	var count int
	for _, tier := range b.Trackers {
		for _, u := range tier {
			if m.Announce == "" {
				m.Announce = u
			}
			count++
		}
	}
	if count > 1 {
		m.AnnounceList = b.Trackers
	}
	if err := m.SetInfo(info); err != nil {
		return nil, err
	}
	return m, nil
}

// pieceHasher hashes a stream in fixed size pieces. Pieces span file boundaries.
type pieceHasher struct {
	pieceLength int64
	h           hash.Hash
	filled      int64
	pieces      []byte
}

func newPieceHasher(pieceLength int64) *pieceHasher {
	return &pieceHasher{pieceLength: pieceLength, h: sha1.New()}
}

func (ph *pieceHasher) Write(p []byte) (int, error) {
	written := len(p)
	for len(p) > 0 {
		n := ph.pieceLength - ph.filled
		if int64(len(p)) < n {
			n = int64(len(p))
		}
		ph.h.Write(p[:n])
		ph.filled += n
		p = p[n:]
		if ph.filled == ph.pieceLength {
			ph.pieces = ph.h.Sum(ph.pieces)
			ph.h.Reset()
			ph.filled = 0
		}
	}
	return written, nil
}

func (ph *pieceHasher) addFile(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(ph, f)
}

func (ph *pieceHasher) sum() []byte {
	if ph.filled > 0 {
		ph.pieces = ph.h.Sum(ph.pieces)
		ph.h.Reset()
		ph.filled = 0
	}
	return ph.pieces
}
