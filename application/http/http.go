package http

import (
	"bytes"
	"strconv"
	"strings"

	"sockethttp/application/util/rule"

	"github.com/pkg/errors"
)

// ErrMalformedMessage is wrapped by every error caused by a message
// violating the HTTP/1.1 grammar.
var ErrMalformedMessage = errors.New("malformed http message")

func malformed(msg string) error { return errors.WithMessage(ErrMalformedMessage, msg) }

type requestLine struct {
	Method  string
	Target  string
	Version Version
}

type Request struct {
	requestLine
	Headers Fields

	// Body is written verbatim after the header section.
	Body []byte
}

func NewRequest(method, target string, headers Fields, body []byte) Request {
	return Request{
		requestLine: requestLine{Method: method, Target: target, Version: Version11},
		Headers:     headers,
		Body:        body,
	}
}

type statusLine struct {
	Version      Version
	StatusCode   int
	ReasonPhrase string
}

// Response is a decoded response head. The body is left on the stream.
type Response struct {
	statusLine
	Headers Fields
}

// [Major, Minor]
type Version [2]uint

var Version11 = Version{1, 1}

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	// Get major and minor version.
	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(strconv.FormatUint(uint64(ver[0]), 10)))
	buf.Write([]byte{'.'})
	buf.Write([]byte(strconv.FormatUint(uint64(ver[1]), 10)))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

// Less reports whether ver is an older version than other.
func (ver Version) Less(other Version) bool {
	if ver[0] != other[0] {
		return ver[0] < other[0]
	}
	return ver[1] < other[1]
}

type Field struct{ Name, Value string }

func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon seperator not found on header: %q", string(fieldLine))
	}

	if len(name) == 0 {
		return Field{}, errors.New("field name is empty")
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	for _, c := range rule.OWS {
		if bytes.HasSuffix(name, []byte{c}) {
			return Field{}, errors.New("field name has trailing whitespace")
		}
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-3
	value = bytes.TrimFunc(value, rule.IsOWS)

	return Field{Name: string(name), Value: string(value)}, nil
}

func (f *Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(f.Name)
	buf.Write([]byte(": "))
	buf.WriteString(f.Value)
	return buf.Bytes()
}

// Fields keeps header fields in the order they were sent or received.
type Fields []Field

// Get returns the value of the last field named name, ignoring case.
func (fs Fields) Get(name string) (value string, ok bool) {
	for idx := len(fs) - 1; idx >= 0; idx-- {
		if strings.EqualFold(fs[idx].Name, name) {
			return fs[idx].Value, true
		}
	}
	return "", false
}

// Has reports whether a field named name exists, ignoring case.
func (fs Fields) Has(name string) bool {
	_, ok := fs.Get(name)
	return ok
}
