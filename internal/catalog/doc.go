// Package catalog holds the game-listing data model.
//
// A Dataset is the decoded form of one catalog snapshot (a JSON array of
// records). Decoding is strict: a record missing a required key fails the
// whole load with a *ValidationError naming the index and the field, so that
// nothing downstream has to guess about partially populated records.
//
// Keys the model does not know about are kept verbatim and written back when a
// dataset is saved, so the baseline file round-trips the upstream document.
package catalog
