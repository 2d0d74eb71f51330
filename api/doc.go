// Package api serves the model over HTTP following the DEEPaaS v2 routes:
// metadata, prediction, and training runs.
package api
