package trace

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/fxamacker/cbor/v2"

	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
)

// Version is the current trace format version.
const Version = 1

var magic = [4]byte{'S', 'K', 'T', 'R'}

// preambleSize is the magic, the format version and the compression tag.
const preambleSize = len(magic) + 2

// Header describes the recorded matrix.
type Header struct {
	Rows     uint8    `cbor:"1,keyasint"`
	Cols     uint8    `cbor:"2,keyasint"`
	TickRate uint32   `cbor:"3,keyasint"`
	Side     pkg.Side `cbor:"4,keyasint"`
}

func (h Header) validate() error {
	if h.Rows == 0 || h.Rows > matrix.MaxRows || h.Cols == 0 || h.Cols > matrix.MaxCols {
		return fmt.Errorf("header dimensions %dx%d: %w", h.Rows, h.Cols, pkg.ErrTrace)
	}
	return nil
}

// Record is the grid that became current at Tick, one bitmask per row.
type Record struct {
	Tick uint64   `cbor:"1,keyasint"`
	Rows []uint16 `cbor:"2,keyasint"`
}

// RecordOf packs g as the grid current at tick.
func RecordOf(tick uint64, g *matrix.Grid) Record {
	rec := Record{Tick: tick, Rows: make([]uint16, g.Rows())}
	for r := range rec.Rows {
		rec.Rows[r] = g.Row(r)
	}
	return rec
}

// Grid unpacks the record into a grid of the given dimensions.
func (r Record) Grid(rows, cols int) matrix.Grid {
	g := matrix.NewGrid(rows, cols)
	for i, bits := range r.Rows {
		g.SetRow(i, bits)
	}
	return g
}

// Writer writes a trace.
type Writer struct {
	z      io.WriteCloser
	enc    *cbor.Encoder
	header Header
	last   matrix.Grid
	tick   uint64
	count  int
	wrote  bool
}

// NewWriter writes the preamble and header to w and returns a writer for
// records. Close must be called to flush compressed output; it does not
// close w.
func NewWriter(w io.Writer, c Compression, h Header) (*Writer, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	pre := append(append([]byte(nil), magic[:]...), Version, byte(c))
	if _, err := w.Write(pre); err != nil {
		return nil, fmt.Errorf("write preamble: %w", err)
	}
	z, err := compressor(w, c)
	if err != nil {
		return nil, err
	}
	tw := &Writer{z: z, enc: encMode.NewEncoder(z), header: h}
	if err := tw.enc.Encode(h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return tw, nil
}

// Header returns the trace header.
func (w *Writer) Header() Header { return w.header }

// Count returns the number of records written.
func (w *Writer) Count() int { return w.count }

// Write records g as current at tick. Grids equal to the previously
// written one are skipped. Ticks must not decrease.
func (w *Writer) Write(tick uint64, g *matrix.Grid) error {
	if w.wrote && tick < w.tick {
		return fmt.Errorf("tick %d after %d: %w", tick, w.tick, pkg.ErrInvalidParameter)
	}
	if g.Rows() != int(w.header.Rows) || g.Cols() != int(w.header.Cols) {
		return fmt.Errorf("grid %dx%d in %dx%d trace: %w",
			g.Rows(), g.Cols(), w.header.Rows, w.header.Cols, pkg.ErrInvalidParameter)
	}
	if w.wrote && g.Equal(&w.last) {
		return nil
	}
	if err := w.enc.Encode(RecordOf(tick, g)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.last, w.tick, w.wrote = *g, tick, true
	w.count++
	return nil
}

// Close flushes buffered output.
func (w *Writer) Close() error {
	return w.z.Close()
}

// Reader reads a trace.
type Reader struct {
	dec         *cbor.Decoder
	header      Header
	compression Compression
	release     func()
	tick        uint64
	read        bool
}

// NewReader reads the preamble and header from r.
func NewReader(r io.Reader) (*Reader, error) {
	var pre [preambleSize]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, fmt.Errorf("read preamble: %w: %w", pkg.ErrTrace, err)
	}
	if [4]byte(pre[:4]) != magic {
		return nil, fmt.Errorf("bad magic %q: %w", pre[:4], pkg.ErrTrace)
	}
	if pre[4] != Version {
		return nil, fmt.Errorf("version %d: %w", pre[4], pkg.ErrTrace)
	}
	c := Compression(pre[5])
	z, release, err := decompressor(r, c)
	if err != nil {
		return nil, err
	}
	tr := &Reader{dec: decMode.NewDecoder(z), compression: c, release: release}
	if err := tr.dec.Decode(&tr.header); err != nil {
		release()
		return nil, fmt.Errorf("read header: %w: %w", pkg.ErrTrace, err)
	}
	if err := tr.header.validate(); err != nil {
		release()
		return nil, err
	}
	return tr, nil
}

// Header returns the trace header.
func (r *Reader) Header() Header { return r.header }

// Compression returns the stream compression.
func (r *Reader) Compression() Compression { return r.compression }

// Next returns the next record, or io.EOF after the last.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("read record: %w: %w", pkg.ErrTrace, err)
	}
	if len(rec.Rows) != int(r.header.Rows) {
		return rec, fmt.Errorf("record at tick %d has %d rows, want %d: %w",
			rec.Tick, len(rec.Rows), r.header.Rows, pkg.ErrTrace)
	}
	if r.read && rec.Tick < r.tick {
		return rec, fmt.Errorf("record tick %d after %d: %w", rec.Tick, r.tick, pkg.ErrTrace)
	}
	r.tick, r.read = rec.Tick, true
	return rec, nil
}

// Records yields records until the end of the trace or the first error.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Close releases decompressor resources. It does not close the
// underlying reader.
func (r *Reader) Close() {
	r.release()
}
