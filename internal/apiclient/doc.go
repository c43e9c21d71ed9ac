// Package apiclient is the thin handle the controller hands to callers once a
// daemon is reachable. It decodes announced multiaddrs into dialable
// endpoints and covers the two API calls the lifecycle itself needs: fetching
// node identity after startup and requesting remote shutdown of an attached
// daemon.
package apiclient
