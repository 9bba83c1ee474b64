package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/meow-io/go-bencode/bencode"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require := require.New(t)

	c := NewConfig(WithDebug(false))
	require.Equal(bencode.DefaultMaxDepth, c.MaxDepth)
	require.Equal("bencode", c.LoggingPrefix)
	require.Nil(c.writer)
	require.False(c.TextKeys)
	require.Len(c.DecodeOptions(nil), 1)
}

func TestDecodeOptions(t *testing.T) {
	require := require.New(t)

	var console bytes.Buffer
	c := NewConfig(
		WithDebug(true),
		WithMaxDepth(2),
		WithTextKeys(true),
		WithRejectDuplicates(true),
		WithStrictOrder(true),
		WithConsole(&console),
	)
	log := c.Logger("decode")
	opts := c.DecodeOptions(log)

	_, err := bencode.Decode([]byte("llleee"), opts...)
	require.ErrorIs(err, bencode.ErrNestingTooDeep)
	_, err = bencode.Decode([]byte("d1:ai1e1:ai2ee"), opts...)
	require.ErrorIs(err, bencode.ErrDuplicateKey)
	_, err = bencode.Decode([]byte("d1:bi1e1:ai2ee"), opts...)
	require.ErrorIs(err, bencode.ErrUnsortedKeys)
	_, err = bencode.Decode([]byte("d1:\xffi1ee"), opts...)
	require.ErrorIs(err, bencode.ErrNonTextKey)

	require.Nil(log.Sync())
	require.Contains(console.String(), "rejected bencode input")
	require.Contains(console.String(), "bencode:decode")
}

func TestLoggerLevels(t *testing.T) {
	require := require.New(t)

	var console bytes.Buffer
	c := NewConfig(WithDebug(false), WithConsole(&console), WithLoggingPrefix("cli"))
	log := c.Logger("")
	log.Debug("hidden")
	log.Info("shown")
	require.NotContains(console.String(), "hidden")
	require.Contains(console.String(), "shown")
	require.Contains(console.String(), `"source": "cli"`)
}

func TestFileLog(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	var console bytes.Buffer
	c := NewConfig(WithRootDir(dir), WithConsole(&console), WithDebug(false))
	log := c.Logger("file")
	log.Infow("decoded", "bytes", 12)
	require.Nil(log.Sync())

	b, err := os.ReadFile(filepath.Join(dir, "bencode.log"))
	require.Nil(err)
	require.Contains(string(b), `"M":"decoded"`)
	require.Contains(string(b), `"bytes":12`)
}
