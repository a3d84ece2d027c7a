package assemblifier

// Pack encodes a record and the physical slot of its successor into one
// word, most significant field first:
//
//	[63:56] background  [55:48] foreground  [47:16] next
//	[15:8]  repeat      [7:0]   character
func Pack(r Record, next uint32) uint64 {
	return uint64(r.Background)<<56 |
		uint64(r.Foreground)<<48 |
		uint64(next)<<16 |
		uint64(r.Repeat)<<8 |
		uint64(r.Char)
}

// Unpack is the inverse of Pack.
func Unpack(word uint64) (Record, uint32) {
	return Record{
		Background: uint8(word >> 56),
		Foreground: uint8(word >> 48),
		Repeat:     uint8(word >> 8),
		Char:       uint8(word),
	}, uint32(word >> 16)
}
