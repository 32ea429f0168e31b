package succinct

import (
	"encoding/binary"
	"math"

	serrors "github.com/tamirms/succinct/errors"
)

const (
	// magic number for serialized sequences.
	// "SUCC" in little-endian
	formatMagic = uint32(0x53554343)

	// formatVersion is the current format version
	formatVersion = uint16(0x0001)

	// headerSize is the exact size of the serialized header (96 bytes)
	headerSize = 96

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32

	// flagAuxTables marks blobs that embed the rank and select tables.
	// Blobs without it are smaller; the tables are rebuilt at load time.
	flagAuxTables = uint16(1 << 0)

	// rankBlocksPerWord is how many 16-bit rank block counters pack into
	// one 64-bit word.
	rankBlocksPerWord = 4
)

// header is the 96-byte blob header.
//
// Layout:
//
//	Offset  Size  Field             Type
//	0       4     Magic             0x53554343 ("SUCC")
//	4       2     Version           0x0001
//	6       2     Flags             uint16_le (bit 0: aux tables embedded)
//	8       8     Count             uint64_le (number of values)
//	16      8     Universe          uint64_le (exclusive upper bound)
//	24      8     NumLowWords       uint64_le
//	32      8     NumHighWords      uint64_le
//	40      8     NumRankSuper      uint64_le
//	48      8     NumRankBlocks     uint64_le
//	56      8     NumSelectSamples  uint64_le
//	64      1     LowBitWidth       uint8
//	65      1     RankBlockLog      uint8
//	66      1     RankSuperLog      uint8
//	67      1     SelectQuantumLog  uint8 (0xFF = no sampling)
//	68      28    Reserved          [28]byte (zero)
//
// The sections that follow are all sequences of 64-bit words, so every
// section starts 8-byte aligned: low bits, high bits, rank superblock
// counters, rank block counters (four 16-bit counters per word, zero
// padded), select samples. The section lengths are stored redundantly;
// they are fully determined by Count, Universe, and the geometry bytes,
// and the loader rejects blobs where the two disagree.
type header struct {
	Magic            uint32   // 4 bytes: magic number 0x53554343
	Version          uint16   // 2 bytes: format version
	Flags            uint16   // 2 bytes: bit 0 set when aux tables are embedded
	Count            uint64   // 8 bytes: number of values
	Universe         uint64   // 8 bytes: exclusive upper bound
	NumLowWords      uint64   // 8 bytes: words in the low-bits section
	NumHighWords     uint64   // 8 bytes: words in the high-bits section
	NumRankSuper     uint64   // 8 bytes: rank superblock counters
	NumRankBlocks    uint64   // 8 bytes: rank block counters
	NumSelectSamples uint64   // 8 bytes: select samples
	LowBitWidth      uint8    // 1 byte: low-bit split width
	RankBlockLog     uint8    // 1 byte: log2 bits per rank block
	RankSuperLog     uint8    // 1 byte: log2 blocks per superblock
	SelectQuantumLog uint8    // 1 byte: log2 select quantum, 0xFF = none
	Reserved         [28]byte // 28 bytes: reserved (zero)
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint64(buf[8:16], h.Count)
	binary.LittleEndian.PutUint64(buf[16:24], h.Universe)
	binary.LittleEndian.PutUint64(buf[24:32], h.NumLowWords)
	binary.LittleEndian.PutUint64(buf[32:40], h.NumHighWords)
	binary.LittleEndian.PutUint64(buf[40:48], h.NumRankSuper)
	binary.LittleEndian.PutUint64(buf[48:56], h.NumRankBlocks)
	binary.LittleEndian.PutUint64(buf[56:64], h.NumSelectSamples)
	buf[64] = h.LowBitWidth
	buf[65] = h.RankBlockLog
	buf[66] = h.RankSuperLog
	buf[67] = h.SelectQuantumLog
	copy(buf[68:96], h.Reserved[:])
}

// decodeHeader parses and validates a 96-byte header. Every field that is
// derivable from Count, Universe, and the geometry bytes is cross-checked,
// so a header that decodes cleanly describes a self-consistent blob.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, serrors.ErrTruncated
	}

	h := &header{
		Magic:            binary.LittleEndian.Uint32(buf[0:4]),
		Version:          binary.LittleEndian.Uint16(buf[4:6]),
		Flags:            binary.LittleEndian.Uint16(buf[6:8]),
		Count:            binary.LittleEndian.Uint64(buf[8:16]),
		Universe:         binary.LittleEndian.Uint64(buf[16:24]),
		NumLowWords:      binary.LittleEndian.Uint64(buf[24:32]),
		NumHighWords:     binary.LittleEndian.Uint64(buf[32:40]),
		NumRankSuper:     binary.LittleEndian.Uint64(buf[40:48]),
		NumRankBlocks:    binary.LittleEndian.Uint64(buf[48:56]),
		NumSelectSamples: binary.LittleEndian.Uint64(buf[56:64]),
		LowBitWidth:      buf[64],
		RankBlockLog:     buf[65],
		RankSuperLog:     buf[66],
		SelectQuantumLog: buf[67],
	}
	copy(h.Reserved[:], buf[68:96])

	if h.Magic != formatMagic {
		return nil, serrors.ErrInvalidMagic
	}
	if h.Version != formatVersion {
		return nil, serrors.ErrInvalidVersion
	}
	if h.Flags&^flagAuxTables != 0 {
		return nil, serrors.ErrCorruptedFormat
	}
	if h.Universe == 0 && h.Count > 0 {
		return nil, serrors.ErrCorruptedFormat
	}

	l := int(h.LowBitWidth)
	if l != lowBitWidth(h.Count, h.Universe) {
		return nil, serrors.ErrCorruptedFormat
	}
	if l > 0 && h.Count > math.MaxUint64/uint64(l) {
		return nil, serrors.ErrCorruptedFormat
	}
	if h.NumLowWords != wordsFor(h.Count*uint64(l)) {
		return nil, serrors.ErrCorruptedFormat
	}
	if highLenOverflows(h.Count, h.Universe, l) {
		return nil, serrors.ErrCorruptedFormat
	}
	highBits := highLen(h.Count, h.Universe, l)
	if h.NumHighWords != wordsFor(highBits) {
		return nil, serrors.ErrCorruptedFormat
	}

	blockLog := int(h.RankBlockLog)
	superLog := int(h.RankSuperLog)
	if blockLog < 6 || blockLog > 15 || superLog > 10 {
		return nil, serrors.ErrCorruptedFormat
	}
	if (1<<(blockLog+superLog))-(1<<blockLog) > maxRelativeBlockCount {
		return nil, serrors.ErrCorruptedFormat
	}
	quantumLog := int(h.SelectQuantumLog)
	if quantumLog != quantumLogDisabled && (quantumLog < 3 || quantumLog > 20) {
		return nil, serrors.ErrCorruptedFormat
	}

	if h.Flags&flagAuxTables != 0 {
		numBlocks := (highBits + 1<<blockLog - 1) >> blockLog
		numSuper := (numBlocks + 1<<superLog - 1) >> superLog
		if h.NumRankBlocks != numBlocks || h.NumRankSuper != numSuper {
			return nil, serrors.ErrCorruptedFormat
		}
		if h.NumSelectSamples != expectedSamples(h.Count, quantumLog) {
			return nil, serrors.ErrCorruptedFormat
		}
	} else if h.NumRankSuper != 0 || h.NumRankBlocks != 0 || h.NumSelectSamples != 0 {
		return nil, serrors.ErrCorruptedFormat
	}

	return h, nil
}

// auxEmbedded reports whether the blob carries its rank and select tables.
func (h *header) auxEmbedded() bool {
	return h.Flags&flagAuxTables != 0
}

// expectedSamples returns the select sample count for ones set bits.
func expectedSamples(ones uint64, quantumLog int) uint64 {
	if quantumLog == quantumLogDisabled || ones == 0 {
		return 0
	}
	return (ones-1)>>quantumLog + 1
}

// rankBlockWords returns the words needed to pack numBlocks 16-bit rank
// block counters.
func rankBlockWords(numBlocks uint64) uint64 {
	return (numBlocks + rankBlocksPerWord - 1) / rankBlocksPerWord
}

// blobLayout gives the byte offset of every section of a serialized blob.
type blobLayout struct {
	lowOff     uint64
	highOff    uint64
	superOff   uint64
	blocksOff  uint64
	samplesOff uint64
	footerOff  uint64
	total      uint64
}

func (h *header) layout() blobLayout {
	var lt blobLayout
	lt.lowOff = headerSize
	lt.highOff = lt.lowOff + h.NumLowWords*8
	lt.superOff = lt.highOff + h.NumHighWords*8
	lt.blocksOff = lt.superOff + h.NumRankSuper*8
	lt.samplesOff = lt.blocksOff + rankBlockWords(h.NumRankBlocks)*8
	lt.footerOff = lt.samplesOff + h.NumSelectSamples*8
	lt.total = lt.footerOff + footerSize
	return lt
}

// buildHeader fills a header describing ef.
func buildHeader(ef *EliasFano, embedAux bool) *header {
	h := &header{
		Magic:            formatMagic,
		Version:          formatVersion,
		Count:            ef.n,
		Universe:         ef.u,
		NumLowWords:      uint64(len(ef.low.words)),
		NumHighWords:     uint64(len(ef.high.words)),
		LowBitWidth:      uint8(ef.l),
		RankBlockLog:     uint8(ef.rk.blockLog),
		RankSuperLog:     uint8(ef.rk.superLog),
		SelectQuantumLog: uint8(ef.sel.quantumLog),
	}
	if embedAux {
		h.Flags = flagAuxTables
		h.NumRankSuper = uint64(len(ef.rk.super))
		h.NumRankBlocks = uint64(len(ef.rk.blocks))
		h.NumSelectSamples = uint64(len(ef.sel.samples))
	}
	return h
}

// footer is the 32-byte blob footer.
//
// Layout:
//
//	Offset  Size  Field      Type
//	0       8     TotalSize  uint64_le (length of the whole blob)
//	8       8     Checksum   uint64_le (xxHash64 of every preceding byte)
//	16      16    Reserved   [16]byte (zero)
//
// The checksum covers the header, all sections, and the TotalSize field.
type footer struct {
	TotalSize uint64   // 8 bytes: length of the whole blob including footer
	Checksum  uint64   // 8 bytes: xxHash64 of all preceding bytes
	Reserved  [16]byte // 16 bytes: reserved for future use
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.TotalSize)
	binary.LittleEndian.PutUint64(buf[8:16], f.Checksum)
	copy(buf[16:32], f.Reserved[:])
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, serrors.ErrTruncated
	}

	f := &footer{
		TotalSize: binary.LittleEndian.Uint64(buf[0:8]),
		Checksum:  binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])

	return f, nil
}
