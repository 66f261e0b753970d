// Package schema owns the AM43 payload shapes and the static dispatch
// registry that binds (direction, message type) to candidate shapes.
//
// Ownership boundary:
// - one Go type per payload shape with explicit encode/decode
// - the request and response dispatch tables
// - payload preparation from a value, named fields or a success flag
package schema
