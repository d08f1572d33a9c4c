// Package diag defines the diagnostic model shared by the optimizer passes,
// the driver and the CLI.
//
// # Purpose
//
//   - Provide deterministic, serialisable records of what a pass noticed:
//     uses it could not rewrite, types it could not resolve, ids it could not
//     canonicalise.
//   - Offer light-weight utilities (Reporter, Bag) that let passes emit
//     diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does no formatting beyond the one-line short form and no IO.
// Rendering lives in internal/diagfmt; collection per input file lives in
// internal/driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier (see codes.go) with a stable string
//     form such as OPT1001.
//   - Message: short, human oriented text.
//   - Primary: a Location naming the instruction by word offset in the input
//     binary, opcode and result id.
//   - Notes: optional secondary locations.
//
// # Emitting diagnostics
//
// Passes hold a Reporter. Reporting is fire-and-forget: it never fails and
// never changes what the pass does next. Use ReportError/ReportWarning/
// ReportInfo with WithNote and Emit, or call Report directly.
//
// Diagnostics are also stored in the result cache, so keep every field
// plain data.
package diag
