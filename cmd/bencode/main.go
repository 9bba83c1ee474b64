package main

import (
	"fmt"
	"os"

	"github.com/meow-io/go-bencode/bencode"
	"github.com/meow-io/go-bencode/clock"
	"github.com/meow-io/go-bencode/config"
	"github.com/meow-io/go-bencode/metainfo"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "bencode"
	app.Usage = "Inspect and produce bencoded data"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "log rejected input and other diagnostics",
			EnvVars: []string{"DEBUG"},
		},
		&cli.StringFlag{
			Name:  "log-dir",
			Usage: "also write a rotated JSON log to bencode.log in this directory",
		},
	}
	decodeFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "text",
			Usage: "require dictionary keys to be valid UTF-8",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "reject unsorted and duplicate dictionary keys",
		},
		&cli.BoolFlag{
			Name:  "reject-duplicates",
			Usage: "reject duplicate dictionary keys",
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "maximum nesting of lists and dictionaries",
			Value: bencode.DefaultMaxDepth,
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "decode",
			Usage:     "Decode a bencoded file or standard input",
			UsageText: "bencode decode [options] [file]",
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print JSON instead of the quoted form; fails on byte strings that are not text",
				},
			}, decodeFlags...),
			Action: func(c *cli.Context) error {
				in, err := readInput(c.Args().First())
				if err != nil {
					return err
				}
				return runDecode(c.App.Writer, in, configFrom(c), c.Bool("json"))
			},
		},
		{
			Name:      "encode",
			Usage:     "Encode a JSON document from a file or standard input",
			UsageText: "bencode encode [file]",
			Action: func(c *cli.Context) error {
				in, err := readInput(c.Args().First())
				if err != nil {
					return err
				}
				return runEncode(c.App.Writer, in)
			},
		},
		{
			Name:      "check",
			Usage:     "Validate bencoded files",
			UsageText: "bencode check [options] file...",
			Flags:     decodeFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() == 0 {
					return cli.Exit("no files given", 2)
				}
				return runCheck(c.Context, c.App.Writer, c.Args().Slice(), configFrom(c))
			},
		},
		{
			Name:      "create",
			Usage:     "Create a torrent for a file or directory",
			UsageText: "bencode create [options] path",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:  "piece-length",
					Usage: "bytes per piece",
					Value: metainfo.DefaultPieceLength,
				},
				&cli.StringSliceFlag{
					Name:    "tracker",
					Aliases: []string{"t"},
					Usage:   "tracker URL, each in its own tier; the first one is the announce URL",
				},
				&cli.StringFlag{
					Name:  "comment",
					Usage: "free-form comment",
				},
				&cli.BoolFlag{
					Name:  "private",
					Usage: "mark the torrent private",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write the torrent here instead of standard output",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.Exit("expected exactly one path", 2)
				}
				var tiers [][]string
				for _, tr := range c.StringSlice("tracker") {
					tiers = append(tiers, []string{tr})
				}
				b := &metainfo.Builder{
					PieceLength: c.Int64("piece-length"),
					Trackers:    tiers,
					Comment:     c.String("comment"),
					CreatedBy:   "bencode",
					Private:     c.Bool("private"),
					Clock:       clock.NewSystemClock(),
				}
				return runCreate(c.App.Writer, c.String("output"), c.Args().First(), b, configFrom(c))
			},
		},
		{
			Name:      "info",
			Usage:     "Describe a torrent file",
			UsageText: "bencode info file",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.Exit("expected exactly one torrent file", 2)
				}
				in, err := os.ReadFile(c.Args().First())
				if err != nil {
					return err
				}
				return runInfo(c.App.Writer, in, configFrom(c))
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func configFrom(c *cli.Context) *config.Config {
	opts := []config.Option{
		config.WithDebug(c.Bool("debug")),
		config.WithRootDir(c.String("log-dir")),
		config.WithTextKeys(c.Bool("text")),
		config.WithRejectDuplicates(c.Bool("reject-duplicates") || c.Bool("strict")),
		config.WithStrictOrder(c.Bool("strict")),
	}
	if c.IsSet("max-depth") {
		opts = append(opts, config.WithMaxDepth(c.Int("max-depth")))
	}
	return config.NewConfig(opts...)
}
