package bytesutil

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("read limit exceeded before delim")
)

// ReadUntil reads from r until delim. The output will include delim.
//
// io.EOF is returned only if r is exhausted before a single byte is read.
// Running out of bytes in the middle results in [io.ErrUnexpectedEOF].
func ReadUntil(r *bufio.Reader, delim []byte) ([]byte, error) {
	return ReadUntilLimit(r, delim, 0)
}

// ReadUntilLimit is ReadUntil that gives up with [ErrLimitExceeded]
// once more than limit bytes were read without finding delim.
// At most limit plus the size of r's buffer is held in memory.
// Zero limit means no limit.
func ReadUntilLimit(r *bufio.Reader, delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	var buf []byte
	for {
		b, err := r.ReadSlice(delim[len(delim)-1])
		buf = append(buf, b...)
		if limit > 0 && uint(len(buf)) > limit {
			return nil, ErrLimitExceeded
		}

		if err != nil {
			switch {
			case errors.Is(err, bufio.ErrBufferFull):
				continue
			case err == io.EOF && len(buf) > 0:
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if bytes.HasSuffix(buf, delim) {
			return buf, nil
		}
	}
}
