// Package storage is the delivery journal.
//
// It records:
//   - an audit entry per delivery attempt (sent or failed)
//   - dedup marks keyed by record revision, so a rerun does not post the same
//     revision twice within the dedup window
package storage
