// Package uri implements the part of Uniform Resource Identifier (URI) handling
// an HTTP client needs: parsing absolute URIs and references, and resolving
// references against a base URI.
//
// Components are kept in their escaped form, so a parsed path and query can be
// written into a request line as they are.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986
package uri
