package packet

import "io"

// partialChunkPower sets the partial body chunk to 2^13 = 8 KiB.
const partialChunkPower = 13

// PartialChunkSize is the size of each partial body chunk.
const PartialChunkSize = 1 << partialChunkPower

// PartialWriter streams one packet body with partial body lengths. It holds
// at most one chunk in memory. A body that never fills a chunk is written
// with a definite length instead.
type PartialWriter struct {
	w      io.Writer
	tag    Tag
	buf    []byte
	header bool
	closed bool
}

// NewPartialWriter starts a packet of type tag on w.
func NewPartialWriter(w io.Writer, tag Tag) *PartialWriter {
	return &PartialWriter{w: w, tag: tag, buf: make([]byte, 0, PartialChunkSize)}
}

// Write buffers p, flushing full chunks to the underlying writer.
func (pw *PartialWriter) Write(p []byte) (int, error) {
	if pw.closed {
		return 0, io.ErrClosedPipe
	}
	n := 0
	for len(p) > 0 {
		take := min(PartialChunkSize-len(pw.buf), len(p))
		pw.buf = append(pw.buf, p[:take]...)
		p = p[take:]
		n += take
		if len(pw.buf) == PartialChunkSize && len(p) > 0 {
			if err := pw.flushChunk(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (pw *PartialWriter) flushChunk() error {
	var hdr []byte
	if !pw.header {
		hdr = append(hdr, 0xC0|byte(pw.tag))
		pw.header = true
	}
	hdr = append(hdr, 0xE0|partialChunkPower)
	if _, err := pw.w.Write(hdr); err != nil {
		return err
	}
	if _, err := pw.w.Write(pw.buf); err != nil {
		return err
	}
	pw.buf = pw.buf[:0]
	return nil
}

// Close writes the final length and remaining bytes. It does not close the
// underlying writer.
func (pw *PartialWriter) Close() error {
	if pw.closed {
		return nil
	}
	pw.closed = true
	var hdr []byte
	if pw.header {
		hdr = AppendLength(nil, len(pw.buf))
	} else {
		hdr = AppendHeader(nil, pw.tag, len(pw.buf))
	}
	if _, err := pw.w.Write(hdr); err != nil {
		return err
	}
	if len(pw.buf) > 0 {
		if _, err := pw.w.Write(pw.buf); err != nil {
			return err
		}
	}
	pw.buf = nil
	return nil
}
