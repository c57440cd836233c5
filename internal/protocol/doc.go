// Package protocol defines the neutral label-printer command protocol.
//
// This package contains the envelope model only: the canonical layout
// geometry (LayoutContext), the closed set of typed commands, and the
// wire codec with its error taxonomy. All other internal packages import
// protocol; protocol imports nothing internal.
//
// Key design constraints:
//   - Commands are a closed tagged variant set. The untyped name/args
//     wire shape exists only at the decode boundary; after DecodeEnvelope
//     every command carries validated, typed arguments.
//   - Coordinates are authored in one canonical space (bottom-left origin,
//     Y increasing upward). Backends perform the final transform via
//     LayoutContext.ToDeviceCoords against their own native convention.
//   - Command order is significant and preserved end to end: it encodes
//     printer-side stateful sequencing (SetFont before DrawText).
package protocol
