// Package asyncx holds the small set of concurrency helpers the portal uses
// to keep side effects off the request path: fire-and-forget goroutines with
// their own deadline, and a bounded worker pool for sweeps.
package asyncx
