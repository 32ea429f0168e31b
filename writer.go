package succinct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
)

// writeChunkBytes is the conversion buffer size used by streaming writes.
const writeChunkBytes = 1 << 16

// WriteTo serializes the sequence to w and implements io.WriterTo. The
// blob layout is header, low bits, high bits, rank counters, select
// samples, footer; the footer checksum is computed while streaming, so the
// sequence is written in one pass. The rank and select tables are always
// embedded; Store with WithAuxTables(false) produces the trimmed form.
func (ef *EliasFano) WriteTo(w io.Writer) (int64, error) {
	return ef.encodeBlob(w, true)
}

func (ef *EliasFano) encodeBlob(w io.Writer, embedAux bool) (int64, error) {
	h := buildHeader(ef, embedAux)
	lt := h.layout()

	hasher := xxhash.New()
	mw := io.MultiWriter(w, hasher)
	buf := make([]byte, writeChunkBytes)
	var written int64

	h.encodeTo(buf[:headerSize])
	m, err := mw.Write(buf[:headerSize])
	written += int64(m)
	if err != nil {
		return written, err
	}

	for _, words := range [][]uint64{ef.low.words, ef.high.words} {
		n, err := writeWords(mw, words, buf)
		written += n
		if err != nil {
			return written, err
		}
	}
	if embedAux {
		n, err := writeWords(mw, ef.rk.super, buf)
		written += n
		if err != nil {
			return written, err
		}
		n, err = writeBlockCounters(mw, ef.rk.blocks, buf)
		written += n
		if err != nil {
			return written, err
		}
		n, err = writeWords(mw, ef.sel.samples, buf)
		written += n
		if err != nil {
			return written, err
		}
	}

	// TotalSize is covered by the checksum, so fold it into the digest
	// before the digest is read.
	var fbuf [footerSize]byte
	binary.LittleEndian.PutUint64(fbuf[0:8], lt.total)
	if _, err := hasher.Write(fbuf[0:8]); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}
	binary.LittleEndian.PutUint64(fbuf[8:16], hasher.Sum64())
	m, err = w.Write(fbuf[:])
	written += int64(m)
	return written, err
}

// writeWords streams words little-endian through buf.
func writeWords(w io.Writer, words []uint64, buf []byte) (int64, error) {
	var written int64
	for len(words) > 0 {
		n := len(words)
		if n > len(buf)/8 {
			n = len(buf) / 8
		}
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint64(buf[i*8:], words[i])
		}
		m, err := w.Write(buf[:n*8])
		written += int64(m)
		if err != nil {
			return written, err
		}
		words = words[n:]
	}
	return written, nil
}

// writeBlockCounters streams 16-bit rank block counters little-endian,
// zero padded to the section's word boundary.
func writeBlockCounters(w io.Writer, blocks []uint16, buf []byte) (int64, error) {
	var written int64
	remaining := blocks
	for len(remaining) > 0 {
		n := len(remaining)
		if n > len(buf)/2 {
			n = len(buf) / 2
		}
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(buf[i*2:], remaining[i])
		}
		m, err := w.Write(buf[:n*2])
		written += int64(m)
		if err != nil {
			return written, err
		}
		remaining = remaining[n:]
	}
	if pad := int(rankBlockWords(uint64(len(blocks)))*8) - len(blocks)*2; pad > 0 {
		var zeros [8]byte
		m, err := w.Write(zeros[:pad])
		written += int64(m)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Store writes the sequence to a file at path using mmap-based zero-copy
// writes. The file is pre-allocated at its exact final size, so a disk-full
// condition surfaces as an error up front instead of a SIGBUS mid-write.
// WithAuxTables(false) omits the rank and select tables; Open rebuilds them
// at load time.
func (ef *EliasFano) Store(path string, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}
	h := buildHeader(ef, cfg.auxTables)
	lt := h.layout()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := fallocateFile(file, int64(lt.total)); err != nil {
		primaryErr := fmt.Errorf("failed to allocate disk space: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	mm, err := mmap.MapRegion(file, int(lt.total), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("failed to mmap file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	data := []byte(mm)
	prefaultRegion(data)

	h.encodeTo(data[:headerSize])
	putWords(data[lt.lowOff:], ef.low.words)
	putWords(data[lt.highOff:], ef.high.words)
	if cfg.auxTables {
		putWords(data[lt.superOff:], ef.rk.super)
		putBlockCounters(data[lt.blocksOff:], ef.rk.blocks)
		putWords(data[lt.samplesOff:], ef.sel.samples)
	}

	ftr := footer{TotalSize: lt.total}
	binary.LittleEndian.PutUint64(data[lt.footerOff:], ftr.TotalSize)
	ftr.Checksum = xxhash.Sum64(data[:lt.footerOff+8])
	ftr.encodeTo(data[lt.footerOff:])

	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, mm.Unmap(), file.Close())
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	return file.Close()
}

func putWords(dst []byte, words []uint64) {
	for i, w := range words {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
}

// putBlockCounters packs 16-bit counters into dst. Padding bytes up to the
// word boundary are left as the zeros of the fresh mapping.
func putBlockCounters(dst []byte, blocks []uint16) {
	for i, b := range blocks {
		binary.LittleEndian.PutUint16(dst[i*2:], b)
	}
}
