package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/tmpim/assemblifier"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/bmp"
)

const defaultOutput = "generated.s"

var generateCommand = cli.Command{
	Name:      "generate",
	Aliases:   []string{"gen"},
	Usage:     "convert one or more images (PNG, JPEG or BMP)",
	ArgsUsage: "input_image [input_image...]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "o",
			Usage: "set location of output source (single input only)",
			Value: defaultOutput,
		},
		cli.IntFlag{
			Name:  "cols",
			Usage: "scale the image to this many columns (0 = keep size)",
			Value: assemblifier.DefaultColumns,
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "seed for the slot shuffle (default: current time)",
		},
		cli.BoolFlag{
			Name:  "zstd",
			Usage: "compress the output with zstd and append .zst",
		},
		cli.BoolFlag{
			Name:  "preview",
			Usage: "write a PNG preview of the quantized cells next to the output",
		},
		cli.BoolFlag{
			Name:  "verify",
			Usage: "walk the linked records after encoding",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log image dimensions and record counts",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of images converted at once",
			Value: 4,
		},
	},
	Action: runGenerate,
}

type job struct {
	input   string
	output  string
	seed    int64
	cols    int
	zstd    bool
	preview bool
	opts    assemblifier.Options
}

func runGenerate(c *cli.Context) error {
	inputs := c.Args()
	if len(inputs) == 0 {
		cli.ShowCommandHelp(c, c.Command.Name)
		return errors.New("no input image provided")
	}

	if c.IsSet("o") && len(inputs) > 1 {
		return errors.New("-o cannot be used with more than one input")
	}

	if c.Int("cols") < 0 {
		return errors.New("cols cannot be negative")
	}

	workers := c.Int("workers")
	if workers < 1 {
		return errors.New("workers must be at least 1")
	}

	seed := time.Now().UnixNano()
	if c.IsSet("seed") {
		seed = c.Int64("seed")
	}

	start := time.Now()

	var g errgroup.Group
	g.SetLimit(workers)

	for i, input := range inputs {
		j := job{
			input:   input,
			output:  outputPath(input, c.String("o"), len(inputs) > 1),
			seed:    seed + int64(i),
			cols:    c.Int("cols"),
			zstd:    c.Bool("zstd"),
			preview: c.Bool("preview"),
			opts: assemblifier.Options{
				Verify: c.Bool("verify"),
				Debug:  c.Bool("debug"),
			},
		}

		g.Go(func() error {
			if err := j.run(); err != nil {
				return fmt.Errorf("%s: %w", j.input, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Println("Done! That took " + time.Since(start).String() + ".")
	return nil
}

// outputPath returns where the source for input is written. A batch writes
// next to each input.
func outputPath(input, output string, batch bool) string {
	if !batch {
		if output == "" {
			return defaultOutput
		}
		return output
	}

	return strings.TrimSuffix(input, filepath.Ext(input)) + ".s"
}

func (j job) run() error {
	img, err := decodeImage(j.input)
	if err != nil {
		return err
	}

	if j.cols > 0 {
		img, err = assemblifier.FitColumns(img, j.cols)
		if err != nil {
			return err
		}
	}

	log.Printf("%s: image loaded (%dx%d), converting...", j.input,
		img.Bounds().Dx(), img.Bounds().Dy())

	j.opts.Rand = rand.New(rand.NewSource(j.seed))

	pix, width, height := assemblifier.FromImage(img)
	enc, err := assemblifier.Encode(pix, width, height, j.opts)
	if err != nil {
		return err
	}

	output := j.output
	if j.zstd {
		output += ".zst"
	}

	if err := writeListing(output, enc.Listing, j.zstd); err != nil {
		return err
	}

	if j.preview {
		preview := strings.TrimSuffix(j.output, filepath.Ext(j.output)) + ".preview.png"
		if err := writePreview(preview, assemblifier.Preview(enc.Records, width, height)); err != nil {
			log.Printf("%s: warning: failed to write preview: %v", j.input, err)
		} else {
			log.Printf("%s: preview outputted to %q", j.input, preview)
		}
	}

	log.Printf("%s: %d records outputted to %q", j.input, len(enc.Listing), output)
	return nil
}

func decodeImage(path string) (image.Image, error) {
	input, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer input.Close()

	img, _, err := image.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

func writeListing(path string, l assemblifier.Listing, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var wr io.Writer = f
	if compress {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return zerr
		}
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		wr = zw
	}

	_, err = l.WriteTo(wr)
	return err
}

func writePreview(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
