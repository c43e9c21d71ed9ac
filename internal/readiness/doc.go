// Package readiness extracts startup markers from streamed daemon output.
//
// A casd process announces its API and gateway listen addresses and finally a
// ready phrase on stdout. The announcements may repeat, arrive in any order,
// and be split across arbitrary I/O chunk boundaries, so the detector keeps an
// accumulating buffer and re-evaluates its rules after every chunk instead of
// scanning line by line. Consumers receive discrete events and decide what to
// do with each observation.
package readiness
