// Package factory creates and tracks daemon controllers. It fills controller
// options from configuration, allocates disposable temp repositories, and
// tears the whole set down in one sweep. Controllers remain independent; the
// factory never routes traffic between them.
package factory
