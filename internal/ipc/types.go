package ipc

// Instance is the wire snapshot of one factory-managed controller.
type Instance struct {
	ID          string `json:"id"`
	RepoPath    string `json:"repo_path"`
	Disposable  bool   `json:"disposable"`
	Initialized bool   `json:"initialized"`
	Started     bool   `json:"started"`
	APIAddr     string `json:"api_addr,omitempty"`
	GatewayAddr string `json:"gateway_addr,omitempty"`
	PeerID      string `json:"peer_id,omitempty"`
	PID         int    `json:"pid,omitempty"`
}

// SpawnRequest asks the endpoint to create a controller.
type SpawnRequest struct {
	RepoPath        string   `json:"repo_path,omitempty"`
	Keep            bool     `json:"keep,omitempty"`
	SkipInit        bool     `json:"skip_init,omitempty"`
	SkipStart       bool     `json:"skip_start,omitempty"`
	EmptyRepo       bool     `json:"empty_repo,omitempty"`
	Profiles        []string `json:"profiles,omitempty"`
	ExtraDaemonArgs []string `json:"extra_daemon_args,omitempty"`
}

// SpawnResponse carries the created instance snapshot.
type SpawnResponse struct {
	Instance Instance `json:"instance"`
}

// ListRequest fetches all registered instances.
type ListRequest struct{}

// ListResponse lists instances in spawn order.
type ListResponse struct {
	Instances []Instance `json:"instances"`
}

// StopRequest stops one instance's daemon.
type StopRequest struct {
	ID string `json:"id"`
	// TimeoutSeconds overrides the configured stop timeout when positive.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// DisableForceKill leaves the daemon running if it ignores SIGTERM.
	DisableForceKill bool `json:"disable_force_kill,omitempty"`
}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// CleanRequest tears down every instance.
type CleanRequest struct{}

// CleanResponse reports how many instances were swept.
type CleanResponse struct {
	Cleaned int    `json:"cleaned"`
	Message string `json:"message,omitempty"`
}
