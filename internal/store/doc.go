// Package store is the SQLite journal of batch fold runs.
//
// A run row records the flags and target a batch was folded under; its
// fold records hold each request in text form with the outcome. The
// journal is for audit and replay only: folding never reads it back as a
// cache.
//
// Record ids are content addressed (see ir.FoldRecordID) and every query
// orders by seq ASC, id ASC COLLATE BINARY so reads are deterministic.
package store
