// Package segment splits and joins the ordered segment collection of a
// document.
//
// Both operations are pure: they take a segment slice and return a new
// one, leaving the caller to persist the result. A split carves one
// segment in two at an interior offset, consuming a single border
// character (space or newline) when the split lands on one. A join fuses
// two consecutive segments, merging cached text and per-language
// translations.
//
// Requests that have nothing to do (a split outside the segment, a join
// of non-consecutive segments) return a nil slice rather than an error.
package segment
