// Package logx configures pacer's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - The zero-value Logger a safe no-op, so library code can take one
//     optionally without nil checks
package logx
