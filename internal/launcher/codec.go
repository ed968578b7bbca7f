package launcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxLineSize is the longest request line the Decoder accepts.
const MaxLineSize = 1024 * 1024

var errLineTooLong = errors.New("line too long")

// Decoder reads requests, one JSON value per line.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next request. Blank lines are skipped. A line that does
// not decode, or is longer than MaxLineSize, yields an error wrapping
// ErrMalformed; the line is consumed and the decoder stays usable.
// io.EOF is returned when the input ends.
func (d *Decoder) Next() (Request, error) {
	for {
		raw, err := d.readLine()
		if errors.Is(err, errLineTooLong) {
			return Request{}, fmt.Errorf("%w: line exceeds %d bytes", ErrMalformed, MaxLineSize)
		}
		if errors.Is(err, io.EOF) {
			return Request{}, io.EOF
		}
		if err != nil {
			return Request{}, fmt.Errorf("read request: %w", err)
		}

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if errors.Is(err, ErrMalformed) {
				return Request{}, err
			}
			return Request{}, fmt.Errorf("%w: %v", ErrMalformed, err) //nolint:errorlint // only the sentinel is matched
		}
		return req, nil
	}
}

// readLine returns the next line including its newline. An oversized line
// is read to its end and discarded.
func (d *Decoder) readLine() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := d.r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > MaxLineSize {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
		case errors.Is(err, io.EOF):
			if len(line) == 0 && !tooLong {
				return nil, io.EOF
			}
		default:
			return nil, err
		}

		if tooLong {
			return nil, errLineTooLong
		}
		return line, nil
	}
}

// Encoder writes responses, one JSON value per line. Every response is
// flushed before Emit returns.
type Encoder struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Emit writes one response line.
func (e *Encoder) Emit(ctx context.Context, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode %s: %w", resp.Kind, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", resp.Kind, err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", resp.Kind, err)
	}
	return nil
}
