// This package defines a common config struct shared by the bencode command line tools and their hosts.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meow-io/go-bencode/bencode"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Debug            bool
	RootDir          string
	LoggingPrefix    string
	MaxDepth         int
	TextKeys         bool
	RejectDuplicates bool
	StrictOrder      bool
	writer           io.Writer
	console          io.Writer
}

func (c Config) Logger(source string) *zap.SugaredLogger {
	var p string
	if source == "" {
		p = c.LoggingPrefix
	} else {
		p = fmt.Sprintf("%s:%s", c.LoggingPrefix, source)
	}

	level := zapcore.InfoLevel
	if c.Debug {
		level = zapcore.DebugLevel
	}
	opts := []zap.Option{
		zap.Fields(zap.String("source", p)),
	}

	de := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(de), zapcore.AddSync(c.console), level),
	}
	if c.writer != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(de), zapcore.AddSync(c.writer), level))
	}
	logger := zap.New(zapcore.NewTee(cores...), opts...)
	sugar := logger.Sugar()
	return sugar
}

// DecodeOptions translates the decoding policy into codec options, logging rejections to log.
func (c Config) DecodeOptions(log *zap.SugaredLogger) []bencode.Option {
	opts := []bencode.Option{bencode.WithMaxDepth(c.MaxDepth)}
	if c.TextKeys {
		opts = append(opts, bencode.WithText())
	}
	if c.RejectDuplicates {
		opts = append(opts, bencode.WithRejectDuplicates())
	}
	if c.StrictOrder {
		opts = append(opts, bencode.WithStrictOrder())
	}
	if log != nil {
		opts = append(opts, bencode.WithLogger(log))
	}
	return opts
}

type Option func(*Config)

func WithDebug(d bool) Option {
	return func(c *Config) {
		c.Debug = d
	}
}

// WithRootDir sets where bencode.log is written. An empty dir disables the file log.
func WithRootDir(d string) Option {
	return func(c *Config) {
		c.RootDir = d
	}
}

func WithLoggingPrefix(p string) Option {
	return func(c *Config) {
		c.LoggingPrefix = p
	}
}

func WithMaxDepth(n int) Option {
	return func(c *Config) {
		c.MaxDepth = n
	}
}

func WithTextKeys(t bool) Option {
	return func(c *Config) {
		c.TextKeys = t
	}
}

func WithRejectDuplicates(r bool) Option {
	return func(c *Config) {
		c.RejectDuplicates = r
	}
}

func WithStrictOrder(s bool) Option {
	return func(c *Config) {
		c.StrictOrder = s
	}
}

// WithConsole redirects console logging, which goes to stderr by default.
func WithConsole(w io.Writer) Option {
	return func(c *Config) {
		c.console = w
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		Debug:         os.Getenv("DEBUG") == "1",
		MaxDepth:      bencode.DefaultMaxDepth,
		LoggingPrefix: "bencode",
		RootDir:       "",

		writer:  nil,
		console: os.Stderr,
	}
	for _, o := range opts {
		o(c)
	}

	if c.RootDir != "" {
		c.writer = &lumberjack.Logger{
			Filename:   filepath.Join(c.RootDir, "bencode.log"),
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	return c
}
