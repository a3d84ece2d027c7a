package assemblifier

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	// MaxRepeat is the longest run a single record can describe.
	MaxRepeat = 255

	// MaxRecords is the largest record count a listing can hold, bounded by
	// the 32 bit successor pointer.
	MaxRecords = 1 << 32

	charSpace   = 0x20
	charNewline = 0x0a
)

// Record is a single paint instruction: either a run of Repeat cells painted
// with Background, or a row terminator.
type Record struct {
	Background uint8
	Foreground uint8
	Repeat     uint8
	Char       uint8
}

// Newline is the record appended after every row.
var Newline = Record{Repeat: 1, Char: charNewline}

// IsNewline returns whether the record terminates a row.
func (r Record) IsNewline() bool {
	return r.Char == charNewline
}

// RowScanner run length encodes pixels one row at a time.
type RowScanner struct {
	maxRecords uint64

	lastColor uint8
	runCount  uint8
	records   []Record
}

// NewRowScanner returns a scanner that fails with ErrCapacityExceeded once
// more than maxRecords records would be emitted. A zero maxRecords means
// MaxRecords.
func NewRowScanner(maxRecords uint64) *RowScanner {
	if maxRecords == 0 {
		maxRecords = MaxRecords
	}

	return &RowScanner{maxRecords: maxRecords}
}

// Push adds the next pixel of the current row.
func (s *RowScanner) Push(r, g, b uint8) error {
	col := TerminalColor(r, g, b)

	if col == s.lastColor {
		if s.runCount == MaxRepeat {
			if err := s.flush(); err != nil {
				return err
			}
			s.runCount = 0
		}

		s.runCount++
		return nil
	}

	if s.runCount != 0 {
		if err := s.flush(); err != nil {
			return err
		}
	}

	s.lastColor = col
	s.runCount = 1
	return nil
}

// EndRow flushes the pending run, appends a row terminator and resets the
// scanner for the next row.
func (s *RowScanner) EndRow() error {
	if s.runCount != 0 {
		if err := s.flush(); err != nil {
			return err
		}
	}

	if err := s.emit(Newline); err != nil {
		return err
	}

	s.lastColor = 0
	s.runCount = 0
	return nil
}

// Records returns the records emitted so far in emission order.
func (s *RowScanner) Records() []Record {
	return s.records
}

func (s *RowScanner) flush() error {
	var fg uint8
	if s.lastColor == 0 {
		fg = 1
	}

	return s.emit(Record{
		Background: s.lastColor,
		Foreground: fg,
		Repeat:     s.runCount,
		Char:       charSpace,
	})
}

func (s *RowScanner) emit(rec Record) error {
	if uint64(len(s.records)) >= s.maxRecords {
		return fmt.Errorf("%w: more than %d records", ErrCapacityExceeded, s.maxRecords)
	}

	s.records = append(s.records, rec)
	return nil
}

// CheckDimensions verifies that a buffer of length n holds exactly
// width*height RGBA pixels.
func CheckDimensions(n, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d",
			ErrFormat, width, height)
	}

	if n == 0 || n%4 != 0 {
		return fmt.Errorf("%w: buffer length %d is not a positive multiple of 4",
			ErrFormat, n)
	}

	hi, pixels := bits.Mul64(uint64(width), uint64(height))
	carry, size := bits.Mul64(pixels, 4)
	if hi != 0 || carry != 0 || size > math.MaxInt {
		return fmt.Errorf("%w: %dx%d", ErrSizeConversion, width, height)
	}

	if uint64(n) != size {
		return fmt.Errorf("%w: buffer length %d does not match %dx%d RGBA (%d)",
			ErrFormat, n, width, height, size)
	}

	return nil
}

// Scan run length encodes an RGBA buffer row by row. The alpha channel is
// ignored.
func Scan(pix []byte, width, height int, maxRecords uint64) ([]Record, error) {
	if err := CheckDimensions(len(pix), width, height); err != nil {
		return nil, err
	}

	s := NewRowScanner(maxRecords)
	stride := width * 4

	for y := 0; y < height; y++ {
		row := pix[y*stride : (y+1)*stride]
		for x := 0; x < len(row); x += 4 {
			if err := s.Push(row[x], row[x+1], row[x+2]); err != nil {
				return nil, err
			}
		}

		if err := s.EndRow(); err != nil {
			return nil, err
		}
	}

	return s.Records(), nil
}
