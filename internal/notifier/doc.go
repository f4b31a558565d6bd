// Package notifier turns a ChangeSet into outgoing notifications.
//
// The Dispatcher walks the ChangeSet in order and, for each record, builds a
// sink-neutral transport.Notification (branding, body, fields, accent colour)
// and hands it to the primary sink and then to any mirrors.
//
// # NSFW records
//
// Records tagged NSFW never expose the original thumbnail. A blurred copy is
// uploaded as an attachment instead; when that copy cannot be produced the
// record is skipped, which is not a delivery error.
//
// # Errors
//
// Delivery is synchronous with no retries. ErrorPolicy decides whether the
// first failed record stops the run (Abort) or is recorded in the Report
// while the rest go out (Continue).
//
// # Journal
//
// With a storage.Store attached, every attempt is audited and delivered
// revisions (id@dateUpdated) are marked so a rerun within the dedup window
// does not post them again.
package notifier
