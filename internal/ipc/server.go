package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"casctl/internal/controller"
	"casctl/internal/factory"
	"casctl/internal/logging"
	"casctl/internal/repo"
)

// Server exposes a controller factory via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	factory   *factory.Factory
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, f *factory.Factory, logger *slog.Logger) (*Server, error) {
	if f == nil {
		return nil, errors.New("ipc server requires factory")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{factory: f, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Casctl", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		factory:   f,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart casctld if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	factory *factory.Factory
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func snapshot(inst *factory.Instance) Instance {
	ctrl := inst.Controller
	out := Instance{
		ID:          inst.ID,
		RepoPath:    ctrl.RepoPath(),
		Disposable:  ctrl.Disposable(),
		Initialized: ctrl.Initialized(),
		Started:     ctrl.Started(),
		APIAddr:     ctrl.APIAddr(),
		GatewayAddr: ctrl.GatewayAddr(),
	}
	if pid, err := ctrl.PID(); err == nil {
		out.PID = pid
	}
	if client := ctrl.Client(); client != nil {
		out.PeerID = client.Identity.ID
	}
	return out
}

func (s *service) Spawn(req SpawnRequest, resp *SpawnResponse) error {
	s.log().Debug("spawn requested")
	opts := factory.SpawnOptions{
		RepoPath:        req.RepoPath,
		Keep:            req.Keep,
		SkipInit:        req.SkipInit,
		SkipStart:       req.SkipStart,
		ExtraDaemonArgs: req.ExtraDaemonArgs,
	}
	if req.EmptyRepo || len(req.Profiles) > 0 {
		opts.InitOptions = &repo.InitOptions{EmptyRepo: req.EmptyRepo, Profiles: req.Profiles}
	}
	inst, err := s.factory.Spawn(s.ctx, opts)
	if err != nil {
		return err
	}
	resp.Instance = snapshot(inst)
	s.log().Info("instance spawned via IPC",
		logging.String(logging.FieldEventType, "instance_spawn"),
		logging.String("instance", inst.ID))
	return nil
}

func (s *service) List(_ ListRequest, resp *ListResponse) error {
	instances := s.factory.List()
	resp.Instances = make([]Instance, 0, len(instances))
	for _, inst := range instances {
		resp.Instances = append(resp.Instances, snapshot(inst))
	}
	return nil
}

func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	if req.ID == "" {
		return errors.New("stop requires an instance id")
	}
	s.log().Debug("stop requested", logging.String("instance", req.ID))
	opts := &controller.StopOptions{DisableForceKill: req.DisableForceKill}
	if req.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	if err := s.factory.Stop(s.ctx, req.ID, opts); err != nil {
		return err
	}
	resp.Stopped = true
	s.log().Info("instance stopped via IPC",
		logging.String(logging.FieldEventType, "instance_stop"),
		logging.String("instance", req.ID))
	return nil
}

func (s *service) Clean(_ CleanRequest, resp *CleanResponse) error {
	s.log().Debug("clean requested")
	count := len(s.factory.List())
	err := s.factory.Clean(s.ctx)
	resp.Cleaned = count
	if err != nil {
		resp.Message = err.Error()
	}
	s.log().Info("instances cleaned via IPC",
		logging.String(logging.FieldEventType, "instance_clean"),
		logging.Int("count", count))
	return nil
}
