package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"sockethttp/application/util/rule"
	bytesutil "sockethttp/util/bytes"

	"github.com/pkg/errors"
)

// ChunkedReader converts chunked http message into byte stream.
// Chunk extensions and trailer fields are read and dropped.
type ChunkedReader struct {
	br *bufio.Reader

	remain   uint64 // bytes left in the current chunk
	inChunk  bool
	done     bool
	crlfDump []byte
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(br *bufio.Reader) *ChunkedReader {
	return &ChunkedReader{
		br:       br,
		crlfDump: make([]byte, 2),
	}
}

func (cr *ChunkedReader) Read(b []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if !cr.inChunk {
		size, err := cr.decodeChunkHeader()
		if err != nil {
			return 0, errors.Wrap(err, "decoding chunk")
		}

		if size == 0 {
			// Last chunk.
			if err := cr.discardTrailers(); err != nil {
				return 0, errors.Wrap(err, "discarding trailers")
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remain = size
		cr.inChunk = true
	}

	if uint64(len(b)) > cr.remain {
		b = b[:cr.remain]
	}

	n, err := cr.br.Read(b)
	cr.remain -= uint64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, errors.Wrapf(ErrShortBody, "chunk ended %d bytes early", cr.remain)
		}
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.remain == 0 {
		if _, err := io.ReadFull(cr.br, cr.crlfDump); err != nil {
			return n, errors.Wrapf(ErrMalformedChunk, "reading chunk delimiter: %s", err)
		}

		if !bytes.Equal(cr.crlfDump, rule.CRLF) {
			return n, errors.Wrap(ErrMalformedChunk, "CRLF delimiter not found")
		}

		cr.inChunk = false
	}

	return n, nil
}

// decodeChunkHeader reads a chunk-size line and returns the size.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
func (cr *ChunkedReader) decodeChunkHeader() (uint64, error) {
	line, err := readLine(cr.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.Wrap(ErrShortBody, "stream ended before last chunk")
		}
		return 0, err
	}

	// Extensions are not used.
	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.TrimFunc(sizeRaw, rule.IsWhitespace)

	return decodeChunkSize(sizeRaw)
}

func decodeChunkSize(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, errors.Wrap(ErrMalformedChunk, "chunk size is empty")
	}

	for _, c := range b {
		if !rule.IsHexDigit(rune(c)) {
			return 0, errors.Wrapf(ErrMalformedChunk, "failed to decode hex: %q", string(b))
		}
	}

	size, err := strconv.ParseUint(string(b), 16, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedChunk, "chunk size too large: %q", string(b))
	}

	return size, nil
}

func (cr *ChunkedReader) discardTrailers() error {
	for {
		line, err := readLine(cr.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Peer stopped right after the last chunk. Nothing is missing.
				return nil
			}
			return errors.Wrap(err, "reading line")
		}

		if len(line) == 0 {
			// Last field.
			return nil
		}
	}
}

// maxLineLength caps chunk-size and trailer lines.
const maxLineLength = 4 << 10

// readLine reads until LF and cuts the line terminator.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := bytesutil.ReadUntilLimit(br, []byte{rule.LF}, maxLineLength)
	if err != nil {
		if errors.Is(err, bytesutil.ErrLimitExceeded) {
			return nil, errors.Wrapf(ErrMalformedChunk, "line longer than %d bytes", maxLineLength)
		}
		return nil, err
	}

	return bytes.TrimSuffix(line[:len(line)-1], []byte{rule.CR}), nil
}
