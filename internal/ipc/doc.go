// Package ipc exposes a controller factory over JSON-RPC Unix sockets and
// ships the matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and the
// conversion from live controllers to lightweight wire snapshots. The server
// embeds the factory; the client keeps calls simple so CLI commands fail fast
// when the endpoint is offline.
package ipc
