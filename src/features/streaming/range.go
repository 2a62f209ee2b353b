package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for malformed or unsatisfiable Range headers.
// The handler answers 416 with the size the client should retry against.
var ErrInvalidRange = errors.New("requested range not satisfiable")

// ByteRange is an inclusive byte span [Start, End] within a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a file of size.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange parses a "bytes=start-end" Range header against a file size.
// A nil range with nil error means no range was requested (empty header).
// The end position is optional and defaults to size-1; an end beyond the
// file is clamped. A missing or non-numeric start, an inverted span or a
// start at or past the file size is ErrInvalidRange.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	// Multi-range requests are not supported for audio seeking.
	if strings.Contains(spec, ",") {
		return nil, ErrInvalidRange
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, ErrInvalidRange
	}
	if start >= size {
		return nil, ErrInvalidRange
	}

	end := size - 1
	if trimmed := strings.TrimSpace(endStr); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil || end < start {
			return nil, ErrInvalidRange
		}
		if end > size-1 {
			end = size - 1
		}
	}

	return &ByteRange{Start: start, End: end}, nil
}
