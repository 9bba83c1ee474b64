package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/meow-io/go-bencode/bencode"
	"github.com/meow-io/go-bencode/config"
	"github.com/meow-io/go-bencode/metainfo"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const maxParallelChecks = 8

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runDecode(w io.Writer, in []byte, cfg *config.Config, asJSON bool) error {
	log := cfg.Logger("decode")
	defer func() { _ = log.Sync() }()

	v, err := bencode.Decode(in, cfg.DecodeOptions(log)...)
	if err != nil {
		return err
	}
	if !asJSON {
		_, err = fmt.Fprintln(w, v)
		return err
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func runEncode(w io.Writer, in []byte) error {
	v, err := bencode.FromJSON(in)
	if err != nil {
		return err
	}
	b, err := bencode.Encode(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// runCheck decodes every file and reports each result. It fails if any file failed.
func runCheck(ctx context.Context, w io.Writer, paths []string, cfg *config.Config) error {
	log := cfg.Logger("check")
	defer func() { _ = log.Sync() }()
	opts := cfg.DecodeOptions(log)

	results := make([]error, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := os.ReadFile(p)
			if err == nil {
				_, err = bencode.Decode(buf, opts...)
			}
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all error
	for i, p := range paths {
		if results[i] != nil {
			fmt.Fprintf(w, "%s: %v\n", p, results[i])
			all = multierr.Append(all, errors.Wrapf(results[i], "%s", p))
		} else {
			fmt.Fprintf(w, "%s: ok\n", p)
		}
	}
	return all
}

func runInfo(w io.Writer, in []byte, cfg *config.Config) error {
	log := cfg.Logger("info")
	defer func() { _ = log.Sync() }()

	m, err := metainfo.Parse(in, cfg.DecodeOptions(log)...)
	if err != nil {
		return err
	}
	info, err := m.Info()
	if err != nil {
		return err
	}
	hash := m.InfoHash()
	magnet, err := m.MagnetURI()
	if err != nil {
		return err
	}
	id, err := metainfo.ContentID(in)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Name: %s\n", info.Name)
	for _, tr := range m.Trackers() {
		fmt.Fprintf(w, "Tracker: %s\n", tr)
	}
	fmt.Fprintf(w, "Length: %d\n", info.TotalLength())
	fmt.Fprintf(w, "Piece Length: %d\n", info.PieceLength)
	fmt.Fprintf(w, "Info Hash: %s\n", hex.EncodeToString(hash[:]))
	if info.MetaVersion == 2 {
		v2, err := m.InfoHashV2()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Info Hash v2: %s\n", v2.HexString())
	}
	hashes, err := info.PieceHashes()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Piece Hashes:")
	for _, h := range hashes {
		fmt.Fprintln(w, hex.EncodeToString(h[:]))
	}
	fmt.Fprintf(w, "Magnet: %s\n", magnet)
	fmt.Fprintf(w, "CID: %s\n", id)
	log.Debugw("described torrent", "name", info.Name, "pieces", len(hashes))
	return nil
}

// runCreate builds a torrent for root and writes it to out, or to w when out is empty. Nothing is written when
// the build fails.
func runCreate(w io.Writer, out, root string, b *metainfo.Builder, cfg *config.Config) error {
	log := cfg.Logger("create")
	defer func() { _ = log.Sync() }()

	m, err := b.Build(root)
	if err != nil {
		return err
	}
	buf, err := m.Bytes()
	if err != nil {
		return err
	}
	hash := m.InfoHash()
	log.Infow("created torrent", "path", root, "info_hash", hex.EncodeToString(hash[:]), "bytes", len(buf))
	if out != "" {
		return os.WriteFile(out, buf, 0o644)
	}
	_, err = w.Write(buf)
	return err
}
