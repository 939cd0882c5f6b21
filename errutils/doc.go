package errutils

// Package errutils provides a set of utilities for working with errors in Go.

// Example:
//
// The following example demonstrates how to use a `MultiError` to collect several errors:
//
//     package main
//
//     import (
//         "fmt"
//         "oss.jalse.dev/jalse/errutils"
//     )
//
//     func main() {
//         errs := errutils.NewMultiErr(nil)
//         errs.Add(firstStep())
//         errs.Add(secondStep())
//         if errs.HasErrors() {
//             fmt.Println(errs)
//         }
//     }
//
// In the above example, `Add` keeps every non-nil error returned by `firstStep()` and `secondStep()`.
// The resulting error prints each collected error on its own line.
