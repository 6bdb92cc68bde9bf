package http

import (
	"bufio"
	"bytes"
	"io"

	"sockethttp/application/util/rule"

	"github.com/pkg/errors"
)

type EncodeOptions struct {
	// UseSoleLF specifies wheter a single LF character should be used as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	UseSoleLF bool
}

var DefaultEncodeOptions = EncodeOptions{
	UseSoleLF: false,
}

var (
	ErrInvalidMethod     = errors.New("method is not a valid token")
	ErrInvalidTarget     = errors.New("request target is not valid")
	ErrInvalidFieldName  = errors.New("field name is not a valid token")
	ErrInvalidFieldValue = errors.New("field value contains control characters")
)

type RequestEncoder struct {
	bw   *bufio.Writer
	opts EncodeOptions
}

func NewRequestEncoder(w io.Writer, opts EncodeOptions) *RequestEncoder {
	return &RequestEncoder{
		bw:   bufio.NewWriter(w),
		opts: opts,
	}
}

// Encode writes request line, header section and body, then flushes.
// Nothing is written if the request is not valid.
func (re *RequestEncoder) Encode(request Request) error {
	if err := request.Validate(); err != nil {
		return err
	}

	if err := re.encodeRequestLine(request.requestLine); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(request.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	// Body is sent as is. Framing it is up to the caller.
	if _, err := re.bw.Write(request.Body); err != nil {
		return errors.Wrap(err, "writing request body")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request")
	}

	return nil
}

// Validate checks that the request can be written without breaking the message framing.
func (request Request) Validate() error {
	if !rule.IsValidToken(request.Method) {
		return errors.Wrapf(ErrInvalidMethod, "%q", request.Method)
	}

	if request.Target == "" {
		return errors.Wrap(ErrInvalidTarget, "empty")
	}
	for i := 0; i < len(request.Target); i++ {
		if c := request.Target[i]; c == rule.SP || rule.IsCTL(c) {
			return errors.Wrapf(ErrInvalidTarget, "%q", request.Target)
		}
	}

	for _, field := range request.Headers {
		if !rule.IsValidToken(field.Name) {
			return errors.Wrapf(ErrInvalidFieldName, "%q", field.Name)
		}
		if !rule.IsValidFieldValue(field.Value) {
			return errors.Wrapf(ErrInvalidFieldValue, "field %q", field.Name)
		}
	}

	return nil
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	term := rule.CRLF
	if re.opts.UseSoleLF {
		term = term[1:]
	}

	if _, err := re.bw.Write(term); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (re *RequestEncoder) encodeRequestLine(reqLine requestLine) error {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(reqLine.Method)
	buf.WriteByte(rule.SP)
	buf.WriteString(reqLine.Target)
	buf.WriteByte(rule.SP)
	buf.Write(reqLine.Version.Text())

	if err := re.writeLine(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing line")
	}

	return nil
}

func (re *RequestEncoder) encodeHeaders(headers Fields) error {
	for _, field := range headers {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// Write a empty line as all the headers are written.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}
