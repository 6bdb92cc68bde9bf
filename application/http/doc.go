// Package http implements the HTTP/1.1 message syntax needed by a client:
// encoding of requests and decoding of response heads.
//
// Message bodies are framed by package transfer.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
