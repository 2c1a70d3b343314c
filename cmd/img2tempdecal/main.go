package main

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/nm004/img2tempdecal"
	"github.com/nm004/img2tempdecal/mip"
	"github.com/nm004/img2tempdecal/palette"
	"github.com/nm004/img2tempdecal/store"
	"github.com/nm004/img2tempdecal/wad"
	"github.com/urfave/cli/v2"
)

const defaultOutput = "tempdecal.wad"

var (
	errOutputWithMany = errors.New("--output can only be used with a single image")
	errStdinWithMany  = errors.New("standard input can only be used with a single image")
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// A single image goes to output, or tempdecal.wad if that's empty. Several
// images each go next to the source with a .wad extension
func outputNames(inputs []string, output string) ([]string, error) {
	if len(inputs) == 1 {
		if output == "" {
			output = defaultOutput
		}
		return []string{output}, nil
	}

	if output != "" {
		return nil, errOutputWithMany
	}

	outputs := make([]string, len(inputs))
	for i, input := range inputs {
		if input == stdio {
			return nil, errStdinWithMany
		}
		outputs[i] = strings.TrimSuffix(input, filepath.Ext(input)) + ".wad"
	}
	return outputs, nil
}

func openStore(c *cli.Context) (*store.Store, error) {
	if c.String("db") == "" {
		return nil, nil
	}
	return store.Open(c.String("db"))
}

func inspect(w io.Writer, t *wad.Texture) {
	used := make(map[uint8]struct{})
	for _, m := range t.Mips {
		for _, p := range m {
			used[p] = struct{}{}
		}
	}
	_, transparent := used[palette.Transparent]
	delete(used, palette.Transparent)

	fmt.Fprintf(w, "Name: %s\n", t.Name)
	fmt.Fprintf(w, "Size: %dx%d\n", t.Width, t.Height)
	for i := 0; i < mip.Levels; i++ {
		fmt.Fprintf(w, "Mip %d: %dx%d\n", i, t.Width>>i, t.Height>>i)
	}
	fmt.Fprintf(w, "Colors: %d\n", len(used))
	fmt.Fprintf(w, "Transparent: %t\n", transparent)
	fmt.Fprintf(w, "File size: %d bytes\n", t.Size())
}

func main() {
	app := cli.NewApp()

	app.Name = "img2tempdecal"
	app.Usage = "Convert images into GoldSrc spray decals"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"IMG2TEMPDECAL_DB"},
			Usage:   "path to database of previous conversions",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert images into spray decals",
			Description: "",
			ArgsUsage:   "IMAGE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output file, - for standard output",
				},
				&cli.BoolFlag{
					Name:    "large",
					Aliases: []string{"l"},
					Usage:   "allow the larger decal size supported by Sven Co-op",
				},
				&cli.BoolFlag{
					Name:    "point-resample",
					Aliases: []string{"p"},
					Usage:   "resize with nearest neighbour sampling",
				},
				&cli.BoolFlag{
					Name:    "dither",
					Aliases: []string{"d"},
					Usage:   "dither colors rather than picking the nearest",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				inputs := c.Args().Slice()
				outputs, err := outputNames(inputs, c.String("output"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				logger := newLogger(c)

				db, err := openStore(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if db != nil {
					defer db.Close()
				}

				w := img2tempdecal.NewWorker(img2tempdecal.New(logger))
				defer w.Close()

				cv := &converter{
					worker: w,
					db:     db,
					opts: img2tempdecal.Options{
						AllowLargerOutputSize: c.Bool("large"),
						UsePointResample:      c.Bool("point-resample"),
						UseDithering:          c.Bool("dither"),
					},
					logger: logger,
					stdin:  os.Stdin,
					stdout: os.Stdout,
				}

				if err := cv.run(inputs, outputs); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "inspect",
			Usage:       "Describe a spray decal",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "png",
					Usage: "also write the largest mip level to a PNG file",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				t, err := wad.Decode(f)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				inspect(os.Stdout, t)

				if file := c.String("png"); file != "" {
					out, err := os.Create(file)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					defer out.Close()

					if err := png.Encode(out, t.Image(0)); err != nil {
						return cli.NewExitError(err, 1)
					}
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
