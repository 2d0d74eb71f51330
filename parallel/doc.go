// Package parallel contains a bounded, cancellable ForEach.
package parallel
