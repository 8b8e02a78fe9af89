// Package content turns raw corpus text into publishable posts and derives
// the content fingerprints used for deduplication.
//
// Two normalizations exist and are deliberately distinct:
//   - Normalize produces the publish form: media trailers stripped, link-bearing
//     text rejected, double spaces turned into paragraph breaks, lines trimmed,
//     and the result capped at MaxLength characters.
//   - Fingerprint hashes a looser form (lines right-trimmed, whole text
//     trimmed) so ledger entries stay stable if the publish form changes.
//
// Both functions are pure and safe for concurrent use.
package content
