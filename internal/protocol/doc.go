// Package protocol owns the AM43 wire primitives.
//
// Ownership boundary:
// - message types and directions
// - field codecs (byte cursors, bit-packed groups, enums, flag sets, ranges)
// - error kinds shared by schema, frame and envelope
//
// Shapes live in protocol/schema, framing in protocol/frame and the tagged,
// footer-checked envelope in protocol/envelope.
package protocol
