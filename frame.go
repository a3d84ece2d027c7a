package assemblifier

import (
	"bufio"
	"io"
	"strconv"
)

const preamble = ".section .text\nMESSAGE:\n"

// Listing is a set of packed records in physical slot order.
type Listing []uint64

// WriteTo writes the listing as assembler source: the preamble followed by
// one .quad directive per slot.
func (l Listing) WriteTo(w io.Writer) (int64, error) {
	wr := bufio.NewWriter(w)

	total, err := wr.WriteString(preamble)
	if err != nil {
		return int64(total), err
	}

	line := make([]byte, 0, 32)
	for _, word := range l {
		line = appendQuad(line[:0], word)
		n, err := wr.Write(line)
		total += n
		if err != nil {
			return int64(total), err
		}
	}

	return int64(total), wr.Flush()
}

// String returns the listing as assembler source.
func (l Listing) String() string {
	buf := make([]byte, 0, len(preamble)+len(l)*quadLineLen)
	buf = append(buf, preamble...)
	for _, word := range l {
		buf = appendQuad(buf, word)
	}
	return string(buf)
}

// "    .quad 0x" + 16 digits + "\n"
const quadLineLen = 4 + 6 + 2 + 16 + 1

func appendQuad(dst []byte, word uint64) []byte {
	dst = append(dst, "    .quad 0x"...)

	var digits [16]byte
	hex := strconv.AppendUint(digits[:0], word, 16)
	for i := len(hex); i < 16; i++ {
		dst = append(dst, '0')
	}
	dst = append(dst, hex...)

	return append(dst, '\n')
}
