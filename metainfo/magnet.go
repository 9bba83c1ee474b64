package metainfo

import (
	"encoding/base32"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/multiformats/go-multihash"
)

const (
	btihPrefix = "urn:btih:"
	btmhPrefix = "urn:btmh:"
)

var ErrInvalidMagnet = errors.New("metainfo: invalid magnet link")

// Magnet is the content of a magnet link. InfoHashV2 is nil for links without a v2 hash.
type Magnet struct {
	InfoHash   [20]byte
	InfoHashV2 multihash.Multihash
	Name       string
	Trackers   []string
}

func (m Magnet) String() string {
	var sb strings.Builder
	sb.WriteString("magnet:?xt=")
	sb.WriteString(btihPrefix)
	sb.WriteString(hex.EncodeToString(m.InfoHash[:]))
	if m.InfoHashV2 != nil {
		sb.WriteString("&xt=")
		sb.WriteString(btmhPrefix)
		sb.WriteString(m.InfoHashV2.HexString())
	}
	if m.Name != "" {
		sb.WriteString("&dn=")
		sb.WriteString(url.QueryEscape(m.Name))
	}
	for _, tr := range m.Trackers {
		sb.WriteString("&tr=")
		sb.WriteString(url.QueryEscape(tr))
	}
	return sb.String()
}

// Magnet describes m as a magnet link. The v2 hash is only included for torrents declaring meta version 2.
func (m *MetaInfo) Magnet() (Magnet, error) {
	info, err := m.Info()
	if err != nil {
		return Magnet{}, err
	}
	mag := Magnet{
		InfoHash: m.InfoHash(),
		Name:     info.Name,
		Trackers: m.Trackers(),
	}
	if info.MetaVersion == 2 {
		if mag.InfoHashV2, err = m.InfoHashV2(); err != nil {
			return Magnet{}, err
		}
	}
	return mag, nil
}

func (m *MetaInfo) MagnetURI() (string, error) {
	mag, err := m.Magnet()
	if err != nil {
		return "", err
	}
	return mag.String(), nil
}

// ParseMagnet reads a magnet link. The v1 hash may be hex or base32 encoded; at least one of the v1 and v2
// hashes must be present.
func ParseMagnet(link string) (Magnet, error) {
	u, err := url.Parse(link)
	if err != nil {
		return Magnet{}, errors.Mark(errors.Wrap(err, "metainfo: parse magnet"), ErrInvalidMagnet)
	}
	if u.Scheme != "magnet" {
		return Magnet{}, errors.Wrapf(ErrInvalidMagnet, "scheme %q", u.Scheme)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Magnet{}, errors.Mark(errors.Wrap(err, "metainfo: parse magnet"), ErrInvalidMagnet)
	}

	m := Magnet{Name: q.Get("dn"), Trackers: q["tr"]}
	var haveV1 bool
	for _, xt := range q["xt"] {
		switch {
		case strings.HasPrefix(xt, btihPrefix):
			if m.InfoHash, err = decodeBtih(strings.TrimPrefix(xt, btihPrefix)); err != nil {
				return Magnet{}, err
			}
			haveV1 = true
		case strings.HasPrefix(xt, btmhPrefix):
			mh, err := multihash.FromHexString(strings.TrimPrefix(xt, btmhPrefix))
			if err != nil {
				return Magnet{}, errors.Mark(errors.Wrap(err, "metainfo: btmh"), ErrInvalidMagnet)
			}
			m.InfoHashV2 = mh
		}
	}
	if !haveV1 && m.InfoHashV2 == nil {
		return Magnet{}, errors.Wrap(ErrInvalidMagnet, "no info hash")
	}
	return m, nil
}

func decodeBtih(s string) ([20]byte, error) {
	var h [20]byte
	var b []byte
	var err error
	switch len(s) {
	case 40:
		b, err = hex.DecodeString(s)
	case 32:
		b, err = base32.StdEncoding.DecodeString(strings.ToUpper(s))
	default:
		return h, errors.Wrapf(ErrInvalidMagnet, "btih of length %d", len(s))
	}
	if err != nil {
		return h, errors.Mark(errors.Wrap(err, "metainfo: btih"), ErrInvalidMagnet)
	}
	copy(h[:], b)
	return h, nil
}
