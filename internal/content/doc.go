// Package content defines the structural page extraction produced by the
// fetcher and the aligned source/target pairing consumed by the evaluator.
//
// Alignment is positional within each content class: the nth heading on the
// source page pairs with the nth heading on the target page. Length
// mismatches leave the counterpart side absent rather than inventing a
// correspondence, so a pair side is always either the extracted text or nil.
package content
