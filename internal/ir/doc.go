// Package ir provides the shared record types for asngen.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Items are string-valued attribute maps and are never mutated by the
//     matching engine; per-attempt rewrites happen on a Clone
//   - Reprocess entries (ProcessList) are self-contained and carry their own items
//   - All JSON tags use snake_case
//   - Ordering uses logical sequence numbers, never wall-clock timestamps
package ir
