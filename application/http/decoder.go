package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"sockethttp/application/util/rule"
	bytesutil "sockethttp/util/bytes"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// LenientWhitespace replaces all [rule.Whitespaces] into [rule.SP].
	// And also trims preceding and trailinig whitespace.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-3
	LenientWhitespace bool

	// MaxFieldLineLength sets the limit of field line length on headers.
	MaxFieldLineLength uint

	// MaxStatusLineLength sets the limit of status line length.
	MaxStatusLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:         false,
	LenientWhitespace:   false,
	MaxFieldLineLength:  0,
	MaxStatusLineLength: 0,
}

var (
	errLineTooLong       = errors.New("line length exceeeds limit")
	ErrMissingCRBeforeLF = malformed("missing CR before LF")
)

func readLine(br *bufio.Reader, opts DecodeOptions, limit uint) ([]byte, error) {
	b, err := bytesutil.ReadUntilLimit(br, []byte{rule.LF}, limit)
	if err != nil {
		if errors.Is(err, bytesutil.ErrLimitExceeded) {
			return nil, errLineTooLong
		}
		return nil, err
	}

	b = b[:len(b)-1] // Remove LF.

	if !opts.AllowSoleLF {
		if len(b) == 0 || b[len(b)-1] != rule.CR {
			return nil, ErrMissingCRBeforeLF
		}
	}
	b = bytes.TrimSuffix(b, []byte{rule.CR})

	if opts.LenientWhitespace {
		for _, c := range rule.Whitespaces {
			b = bytes.ReplaceAll(b, []byte{c}, []byte{rule.SP})
		}
		b = bytes.Trim(b, string([]byte{rule.SP}))
		return b, nil
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
	b = bytes.ReplaceAll(b, []byte{rule.CR}, []byte{rule.SP})

	return b, nil
}

var (
	ErrNoResponse          = errors.New("stream closed before a response was received")
	ErrStatusLineTooLong   = malformed("status line length exceeds limit")
	ErrMalformedStatusLine = malformed("status line is malformed")
	ErrFieldLineTooLong    = malformed("field line length exceeds limit")
	ErrMalformedFieldLine  = malformed("field line is malformed")
)

// ResponseDecoder decodes response heads from br.
// The body is left unread on br, so the same reader must be used to consume it.
type ResponseDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

func NewResponseDecoder(br *bufio.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{br: br, opts: opts}
}

// r MUST be a non-nil pointer
func (rd *ResponseDecoder) Decode(r *Response) error {
	if err := rd.decodeStatusLine(&r.statusLine); err != nil {
		return errors.Wrap(err, "parsing status line")
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	return nil
}

func (rd *ResponseDecoder) decodeStatusLine(statLine *statusLine) error {
	var line []byte
	for {
		b, err := readLine(rd.br, rd.opts, rd.opts.MaxStatusLineLength)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// Nothing came from the peer at all.
				return ErrNoResponse
			case errors.Is(err, errLineTooLong):
				return ErrStatusLineTooLong
			}
			return errors.Wrap(err, "reading line")
		}

		// An empty line can be received before message.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(b) > 0 {
			line = b
			break
		}
	}

	parsed, err := parseStatusLine(line)
	if err != nil {
		return errors.Wrapf(ErrMalformedStatusLine, "%q: %s", line, err)
	}

	*statLine = parsed
	return nil
}

func (rd *ResponseDecoder) decodeHeaders(headers *Fields) error {
	tmpHeaders := make(Fields, 0)
	for {
		fieldLine, err := readLine(rd.br, rd.opts, rd.opts.MaxFieldLineLength)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return io.ErrUnexpectedEOF
			case errors.Is(err, errLineTooLong):
				return ErrFieldLineTooLong
			}
			return errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more headers.
			break
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return errors.Wrapf(ErrMalformedFieldLine, "%s", err)
		}

		tmpHeaders = append(tmpHeaders, field)
	}

	*headers = tmpHeaders
	return nil
}

func parseStatusLine(line []byte) (statusLine, error) {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return statusLine{}, errors.New("status code not found")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return statusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCodeStr := string(parts[1])
	statusCode, err := strconv.ParseUint(statusCodeStr, 10, 64)
	if err != nil || len(statusCodeStr) != 3 {
		return statusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	var reasonPhrase string
	if len(parts) == 3 {
		reasonPhrase = string(parts[2])
	}

	return statusLine{Version: ver, StatusCode: int(statusCode), ReasonPhrase: reasonPhrase}, nil
}
