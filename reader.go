package succinct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	serrors "github.com/tamirms/succinct/errors"
)

// minBlobSize is the smallest possible serialized sequence:
// headerSize(96) + footerSize(32) with every section empty.
const minBlobSize = headerSize + footerSize

// Mapped is a read-only EliasFano sequence served directly from a
// memory-mapped file or a caller-provided byte slice. The low and high
// bits are queried in place without copying; when the blob embeds its rank
// and select tables those are used in place too, otherwise they are
// rebuilt on the heap at open time.
//
// Thread Safety:
//   - Query methods are safe for concurrent use
//   - Close is NOT safe to call concurrently with queries
//   - After Close, methods returning an error fail with ErrClosed; Rank
//     and Contains return zero values without touching the mapping
type Mapped struct {
	mmap mmap.MMap
	data []byte

	header *header
	ef     *EliasFano

	closed atomic.Bool // Atomic for lock-free close check
}

// Stats describes a serialized sequence.
type Stats struct {
	Count        uint64
	Universe     uint64
	LowBitWidth  int
	LowBytes     uint64
	HighBytes    uint64
	RankBytes    uint64
	SelectBytes  uint64
	AuxEmbedded  bool
	BitsPerValue float64
	BlobSize     int64
}

// Open opens a serialized sequence file for querying.
// It opens the file, memory-maps it, and closes the file descriptor.
//
// The blob checksum is verified by default; WithChecksumVerify(false)
// skips that pass, leaving only structural validation between queries and
// a blob corrupted in ways the structure cannot expose.
func Open(path string, opts ...Option) (*Mapped, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}
	m, err := OpenFile(file, opts...)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}
	if err := file.Close(); err != nil {
		return nil, errors.Join(err, m.Close())
	}
	return m, nil
}

// OpenFile opens a serialized sequence by memory-mapping the given file.
// The caller is responsible for closing f. Per POSIX mmap(2), f may be
// closed immediately after OpenFile returns.
func OpenFile(f *os.File, opts ...Option) (*Mapped, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat sequence file: %w", err)
	}
	if stat.Size() < int64(minBlobSize) {
		return nil, serrors.ErrTruncated
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap sequence file: %w", err)
	}

	m := &Mapped{
		mmap: mm,
		data: []byte(mm),
	}
	if err := m.initFromData(cfg); err != nil {
		return nil, errors.Join(err, m.Close())
	}
	// Queries jump around the mapping; tell the kernel not to read ahead.
	madviseRandom(m.data)
	return m, nil
}

// OpenBytes creates a sequence from an in-memory byte slice. No file is
// opened or memory-mapped; Close is a no-op. The caller must ensure data
// is not modified while the sequence is in use. The slice must be 8-byte
// aligned so the word sections can be reinterpreted in place; misaligned
// input fails with ErrMisaligned.
func OpenBytes(data []byte, opts ...Option) (*Mapped, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(data) < minBlobSize {
		return nil, serrors.ErrTruncated
	}
	if uintptr(unsafe.Pointer(&data[0]))&7 != 0 {
		return nil, serrors.ErrMisaligned
	}
	m := &Mapped{
		data: data,
	}
	if err := m.initFromData(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// initFromData parses and validates the blob and wires the query structure
// over views into m.data.
func (m *Mapped) initFromData(cfg *config) error {
	if len(m.data) < minBlobSize {
		return serrors.ErrTruncated
	}
	h, err := decodeHeader(m.data[:headerSize])
	if err != nil {
		return err
	}
	lt := h.layout()
	if uint64(len(m.data)) < lt.total {
		return serrors.ErrTruncated
	}
	if uint64(len(m.data)) > lt.total {
		return serrors.ErrCorruptedFormat
	}
	if cfg.verifyChecksum {
		if err := verifyBlob(m.data); err != nil {
			return err
		}
	}
	s, err := viewSections(m.data, h, lt)
	if err != nil {
		return err
	}
	ef, err := assembleFromParts(h, s)
	if err != nil {
		return err
	}
	m.header = h
	m.ef = ef
	return nil
}

// Close releases the mapping. All queries must have completed before Close
// is called; afterwards every query fails with ErrClosed.
func (m *Mapped) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	if m.mmap != nil {
		return m.mmap.Unmap()
	}
	return nil
}

// Len returns the number of values. Valid after Close.
func (m *Mapped) Len() uint64 {
	return m.ef.n
}

// Universe returns the exclusive upper bound. Valid after Close.
func (m *Mapped) Universe() uint64 {
	return m.ef.u
}

// BitWidth returns the low-bit split width. Valid after Close.
func (m *Mapped) BitWidth() int {
	return m.ef.l
}

// Get returns the value at index i.
func (m *Mapped) Get(i uint64) (uint64, error) {
	if m.closed.Load() {
		return 0, serrors.ErrClosed
	}
	return m.ef.Get(i)
}

// Min returns the smallest value.
func (m *Mapped) Min() (uint64, error) {
	if m.closed.Load() {
		return 0, serrors.ErrClosed
	}
	return m.ef.Min()
}

// Max returns the largest value.
func (m *Mapped) Max() (uint64, error) {
	if m.closed.Load() {
		return 0, serrors.ErrClosed
	}
	return m.ef.Max()
}

// Rank returns the number of values strictly below x, or 0 after Close.
func (m *Mapped) Rank(x uint64) uint64 {
	if m.closed.Load() {
		return 0
	}
	return m.ef.Rank(x)
}

// Contains reports whether v occurs in the sequence, or false after Close.
func (m *Mapped) Contains(v uint64) bool {
	if m.closed.Load() {
		return false
	}
	return m.ef.Contains(v)
}

// IndexOf returns the index of the first occurrence of v.
func (m *Mapped) IndexOf(v uint64) (uint64, error) {
	if m.closed.Load() {
		return 0, serrors.ErrClosed
	}
	return m.ef.IndexOf(v)
}

// Successor returns the index and value of the smallest element >= x.
func (m *Mapped) Successor(x uint64) (uint64, uint64, error) {
	if m.closed.Load() {
		return 0, 0, serrors.ErrClosed
	}
	return m.ef.Successor(x)
}

// Predecessor returns the index and value of the largest element <= x.
func (m *Mapped) Predecessor(x uint64) (uint64, uint64, error) {
	if m.closed.Load() {
		return 0, 0, serrors.ErrClosed
	}
	return m.ef.Predecessor(x)
}

// Iterator returns an iterator positioned at index from. The iterator
// reads the mapping and must not be used after Close.
func (m *Mapped) Iterator(from uint64) (*Iterator, error) {
	if m.closed.Load() {
		return nil, serrors.ErrClosed
	}
	return m.ef.Iterator(from)
}

// Sequence returns the underlying in-place sequence. It shares the mapped
// data and must not be used after Close.
func (m *Mapped) Sequence() *EliasFano {
	return m.ef
}

// Verify checks the blob checksum over the whole mapping.
func (m *Mapped) Verify() error {
	if m.closed.Load() {
		return serrors.ErrClosed
	}
	return verifyBlob(m.data)
}

// Stats returns statistics for the sequence.
func (m *Mapped) Stats() *Stats {
	h := m.header
	lt := h.layout()
	s := &Stats{
		Count:       h.Count,
		Universe:    h.Universe,
		LowBitWidth: int(h.LowBitWidth),
		LowBytes:    h.NumLowWords * 8,
		HighBytes:   h.NumHighWords * 8,
		RankBytes:   h.NumRankSuper*8 + rankBlockWords(h.NumRankBlocks)*8,
		SelectBytes: h.NumSelectSamples * 8,
		AuxEmbedded: h.auxEmbedded(),
		BlobSize:    int64(lt.total),
	}
	if h.Count > 0 {
		s.BitsPerValue = float64(lt.total*8) / float64(h.Count)
	}
	return s
}

// GetStats returns statistics for a sequence file.
func GetStats(path string) (*Stats, error) {
	m, err := Open(path)
	if err != nil {
		return nil, err
	}
	return m.Stats(), m.Close()
}

// Load reads a serialized sequence from r into freshly allocated memory.
// The result owns its storage and outlives r. Unlike the mapped variants
// the sections are decoded field by field, so Load works on any host.
func Load(r io.Reader, opts ...Option) (*EliasFano, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return LoadBytes(data, opts...)
}

// LoadBytes decodes a serialized sequence from data into fresh memory.
// The blob may be discarded or reused afterwards.
func LoadBytes(data []byte, opts ...Option) (*EliasFano, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(data) < minBlobSize {
		return nil, serrors.ErrTruncated
	}
	h, err := decodeHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}
	lt := h.layout()
	if uint64(len(data)) < lt.total {
		return nil, serrors.ErrTruncated
	}
	if uint64(len(data)) > lt.total {
		return nil, serrors.ErrCorruptedFormat
	}
	if cfg.verifyChecksum {
		if err := verifyBlob(data); err != nil {
			return nil, err
		}
	}
	s, err := copySections(data, h, lt)
	if err != nil {
		return nil, err
	}
	return assembleFromParts(h, s)
}

// verifyBlob checks the footer's TotalSize and checksum against data.
func verifyBlob(data []byte) error {
	ft, err := decodeFooter(data[len(data)-footerSize:])
	if err != nil {
		return err
	}
	if ft.TotalSize != uint64(len(data)) {
		return serrors.ErrCorruptedFormat
	}
	if xxhash.Sum64(data[:len(data)-footerSize+8]) != ft.Checksum {
		return serrors.ErrChecksumMismatch
	}
	return nil
}

// sections holds the materialized word sections of a blob, either as views
// into the blob or as owned copies.
type sections struct {
	low     []uint64
	high    []uint64
	super   []uint64
	blocks  []uint16
	samples []uint64
}

// viewSections reinterprets the blob's sections in place. The serialized
// layout is little-endian, which matches the in-memory representation on
// the platforms this package supports.
func viewSections(data []byte, h *header, lt blobLayout) (sections, error) {
	var s sections
	s.low = wordsView(data[lt.lowOff:lt.highOff])
	s.high = wordsView(data[lt.highOff:lt.superOff])
	if h.auxEmbedded() {
		s.super = wordsView(data[lt.superOff:lt.blocksOff])
		s.blocks = u16View(data[lt.blocksOff : lt.blocksOff+h.NumRankBlocks*2])
		s.samples = wordsView(data[lt.samplesOff:lt.footerOff])
	}
	return s, checkBlockPadding(data, h, lt)
}

// copySections decodes the blob's sections into fresh slices.
func copySections(data []byte, h *header, lt blobLayout) (sections, error) {
	var s sections
	s.low = readWords(data[lt.lowOff:lt.highOff])
	s.high = readWords(data[lt.highOff:lt.superOff])
	if h.auxEmbedded() {
		s.super = readWords(data[lt.superOff:lt.blocksOff])
		s.blocks = make([]uint16, h.NumRankBlocks)
		for i := range s.blocks {
			s.blocks[i] = binary.LittleEndian.Uint16(data[lt.blocksOff+uint64(i)*2:])
		}
		s.samples = readWords(data[lt.samplesOff:lt.footerOff])
	}
	return s, checkBlockPadding(data, h, lt)
}

// checkBlockPadding rejects blobs with nonzero bytes between the last rank
// block counter and the next section boundary.
func checkBlockPadding(data []byte, h *header, lt blobLayout) error {
	for _, b := range data[lt.blocksOff+h.NumRankBlocks*2 : lt.samplesOff] {
		if b != 0 {
			return serrors.ErrCorruptedFormat
		}
	}
	return nil
}

// assembleFromParts wires decoded sections into a queryable sequence,
// rebuilding the rank and select tables when the blob does not embed them.
func assembleFromParts(h *header, s sections) (*EliasFano, error) {
	l := int(h.LowBitWidth)
	low, err := CompactVectorFromWords(s.low, h.Count, l)
	if err != nil {
		return nil, err
	}
	highBits := highLen(h.Count, h.Universe, l)
	high, err := BitVectorFromWords(s.high, highBits)
	if err != nil {
		return nil, err
	}

	blockLog := int(h.RankBlockLog)
	superLog := int(h.RankSuperLog)
	quantumLog := int(h.SelectQuantumLog)

	var rk *RankIndex
	var sel *SelectIndex
	if h.auxEmbedded() {
		if err := validateAux(h, s, highBits); err != nil {
			return nil, err
		}
		rk = newRankFromParts(high, s.super, s.blocks, h.Count, blockLog, superLog)
		sel = newSelectFromParts(rk, s.samples, quantumLog)
	} else {
		rk = buildRankIndex(high, blockLog, superLog)
		if rk.ones != h.Count {
			return nil, serrors.ErrCorruptedFormat
		}
		sel = buildSelectIndex(rk, quantumLog)
	}
	return assembleEliasFano(low, high, rk, sel, h.Count, h.Universe, l), nil
}

// validateAux structurally checks embedded rank counters and select
// samples: superblock counters must be monotone, bounded by the value
// count and by their bit position; block counters must be zero at
// superblock starts, non-decreasing within a superblock, and bounded by
// their block offset; samples must point into the high bits. Counters
// that understate the data in ways no structural check can expose are
// contained at query time, where the word scans stop at the end of the
// vector. Content-level integrity is the checksum's job.
func validateAux(h *header, s sections, highBits uint64) error {
	superBitsLog := int(h.RankBlockLog) + int(h.RankSuperLog)
	var prev uint64
	for i, c := range s.super {
		if c < prev || c > h.Count || c > uint64(i)<<superBitsLog {
			return serrors.ErrCorruptedFormat
		}
		prev = c
	}
	for b, c := range s.blocks {
		off := uint64(b) & (1<<h.RankSuperLog - 1)
		if off == 0 {
			if c != 0 {
				return serrors.ErrCorruptedFormat
			}
			continue
		}
		if c < s.blocks[b-1] || uint64(c) > off<<h.RankBlockLog {
			return serrors.ErrCorruptedFormat
		}
	}
	for _, p := range s.samples {
		if p >= highBits {
			return serrors.ErrCorruptedFormat
		}
	}
	return nil
}

func wordsView(b []byte) []uint64 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), len(b)/8)
}

func u16View(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}

func readWords(b []byte) []uint64 {
	words := make([]uint64, len(b)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return words
}
