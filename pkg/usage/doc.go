// Package usage records token usage and cost for every successful call in a
// run and summarizes them.
//
// A Tracker owns an ordered, append-only sequence of immutable Records. Each
// RecordCall prints one status line to the tracker's sink:
//
//	a.txt: 150 tokens, $0.000045
//
// Summary is recomputed from the full sequence on every call, so it always
// equals the sum of the records and calling it twice yields the same result.
package usage
