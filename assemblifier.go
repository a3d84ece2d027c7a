// Package assemblifier converts RGBA images into shuffled, linked lists of
// terminal paint instructions rendered as assembler .quad directives.
package assemblifier

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Options configures an encode. The zero value is ready to use.
type Options struct {
	// Rand shuffles the record slots. Defaults to a time seeded source.
	// A Shuffler is not shared between concurrent encodes.
	Rand Shuffler

	// MaxRecords overrides the record limit, mostly for tests. Zero means
	// MaxRecords.
	MaxRecords uint64

	// Verify walks the linked records after packing and checks that they
	// decode back to the scanned records.
	Verify bool

	// Debug logs the image dimensions and record count to Logger.
	Debug  bool
	Logger *log.Logger
}

func (o *Options) rng() Shuffler {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (o *Options) logf(format string, args ...interface{}) {
	if !o.Debug {
		return
	}
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Encoding is the result of an encode: the scanned records in logical order
// and the packed listing in physical order.
type Encoding struct {
	Records []Record
	Slots   []uint32
	Listing Listing
}

// Encode runs the full pipeline on an RGBA buffer.
func Encode(pix []byte, width, height int, opts Options) (*Encoding, error) {
	opts.logf("assemblifier: image width: %d", width)
	opts.logf("assemblifier: image height: %d", height)
	opts.logf("assemblifier: data size: %d", len(pix))

	records, err := Scan(pix, width, height, opts.MaxRecords)
	if err != nil {
		return nil, err
	}

	opts.logf("assemblifier: records: %d", len(records))

	words, slots := Link(records, opts.rng())

	if opts.Verify {
		if err := verify(records, words); err != nil {
			return nil, err
		}
	}

	return &Encoding{
		Records: records,
		Slots:   slots,
		Listing: Listing(words),
	}, nil
}

func verify(records []Record, words []uint64) error {
	walked, err := Walk(words)
	if err != nil {
		return err
	}

	for i := range records {
		if walked[i] != records[i] {
			return fmt.Errorf("%w: record %d decoded as %+v, want %+v",
				ErrBrokenChain, i, walked[i], records[i])
		}
	}

	return nil
}

// Generate encodes an RGBA buffer and returns the assembler source.
func Generate(pix []byte, width, height int, opts Options) (string, error) {
	enc, err := Encode(pix, width, height, opts)
	if err != nil {
		return "", err
	}

	return enc.Listing.String(), nil
}

// Result is the status/message pair handed back to hosts. Status 0 carries
// the generated source in Message, status -1 an error description.
type Result struct {
	Status  int32  `json:"status"`
	Message string `json:"message"`
}

const (
	StatusOK    = 0
	StatusError = -1
)

// NewResult folds a Generate outcome into a Result.
func NewResult(text string, err error) Result {
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	return Result{Status: StatusOK, Message: text}
}

// Convert is Generate with the host calling convention.
func Convert(pix []byte, width, height int32, opts Options) Result {
	return NewResult(Generate(pix, int(width), int(height), opts))
}

// GenerateRawData converts an RGBA buffer with default options.
func GenerateRawData(pix []byte, width, height int32) Result {
	return Convert(pix, width, height, Options{})
}
