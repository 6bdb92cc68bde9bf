// Package transfer reads message bodies framed by Content-Length or by the chunked transfer coding.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6
package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"sockethttp/application/http"
	"sockethttp/application/util/rule"

	"github.com/pkg/errors"
)

type Coding string

const (
	CodingChunked Coding = "chunked"
)

var (
	ErrMalformedChunk       = errors.WithMessage(http.ErrMalformedMessage, "chunk is malformed")
	ErrShortBody            = errors.WithMessage(http.ErrMalformedMessage, "body is shorter than advertised")
	ErrInvalidContentLength = errors.WithMessage(http.ErrMalformedMessage, "content-length is not valid")
)

// IsChunked reports whether chunked is the final transfer coding in headers.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.4.1
func IsChunked(headers http.Fields) bool {
	te, ok := headers.Get("Transfer-Encoding")
	if !ok {
		return false
	}

	codings := rule.SplitList(te)
	if len(codings) == 0 {
		return false
	}

	return strings.EqualFold(codings[len(codings)-1], string(CodingChunked))
}

// ContentLength returns the value of Content-Length, zero if absent.
func ContentLength(headers http.Fields) (uint64, error) {
	raw, ok := headers.Get("Content-Length")
	if !ok {
		return 0, nil
	}

	raw = strings.TrimFunc(raw, rule.IsOWS)
	n, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidContentLength, "%q", raw)
	}

	return n, nil
}

// ReadBody reads the whole body following a response head.
// The chunked coding takes precedence over Content-Length; without either the body is empty.
func ReadBody(br *bufio.Reader, headers http.Fields) ([]byte, error) {
	if IsChunked(headers) {
		body, err := io.ReadAll(NewChunkedReader(br))
		if err != nil {
			return nil, errors.Wrap(err, "reading chunked body")
		}
		return body, nil
	}

	n, err := ContentLength(headers)
	if err != nil {
		return nil, err
	}

	return ReadFixed(br, n)
}

// ReadFixed reads exactly n bytes from r.
func ReadFixed(r io.Reader, n uint64) ([]byte, error) {
	// Don't trust n for the initial allocation.
	const maxPrealloc = 64 << 10

	buf := bytes.NewBuffer(make([]byte, 0, min(n, maxPrealloc)))
	copied, err := io.CopyN(buf, r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(ErrShortBody, "got %d of %d bytes", copied, n)
		}
		return nil, errors.Wrap(err, "reading body")
	}

	return buf.Bytes(), nil
}
