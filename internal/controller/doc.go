// Package controller manages the lifecycle of a single casd daemon: repo
// initialization, process spawn with readiness detection, graceful and forced
// shutdown, and repository cleanup. A controller either spawns and owns a
// daemon process or attaches to one already serving the repository's API.
package controller
