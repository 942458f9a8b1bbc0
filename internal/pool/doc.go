// Package pool loads item pools from disk.
//
// Two formats are supported, chosen by file extension:
//
//   - .yaml, .yml: a YAML sequence of mappings. Scalar values of any YAML
//     type are rendered as strings; nested collections are rejected.
//   - .csv, .txt, .dat: a pipe-delimited table whose first non-comment row
//     names the columns. Lines starting with '#' are comments.
//
// Keys are lower-cased. Values are trimmed and NFC normalized, so that two
// pools written by different tools hash to the same item keys.
package pool
