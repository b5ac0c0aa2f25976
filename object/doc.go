// Package object defines the tagged-pointer value representation shared by
// every other package in this module.
//
// A Ref is a single machine word. Its low bits classify the word the way
// wasm.ValType's low byte classifies a value on the WASM stack
// (see wasm/constants.go in the reference pack this package is grounded on):
// a small set of tag patterns, checked with a mask-and-compare, select one
// of a handful of representations with no separate type descriptor.
package object
