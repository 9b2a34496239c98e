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

	"log/slog"

	"bibleref/internal/api"
	"bibleref/internal/daemon"
	"bibleref/internal/logging"
	"bibleref/internal/queue"
)

// serviceName is the RPC receiver name clients address.
const serviceName = "Bibleref"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. onStop, when
// non-nil, runs after a client asks the daemon to stop.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, onStop func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
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
	srv := &service{
		daemon: d,
		logger: logging.NewComponentLogger(logger, "ipc"),
		ctx:    ctx,
		onStop: onStop,
	}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
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
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.Event("ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
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
			logging.Event("ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
	onStop func()
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	*resp = api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		VaultDir:     status.VaultDir,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Migration:    api.FromMigrationStatus(status.Migration),
	}
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	filter := make(map[queue.Status]bool, len(req.Statuses))
	for _, raw := range req.Statuses {
		status, ok := queue.ParseStatus(raw)
		if !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
		filter[status] = true
	}
	tasks := s.daemon.QueueTasks()
	resp.Tasks = make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if len(filter) > 0 && !filter[task.Status] {
			continue
		}
		resp.Tasks = append(resp.Tasks, api.FromTask(task))
	}
	return nil
}

func (s *service) Migrate(req MigrateRequest, resp *MigrateResponse) error {
	task, created, err := s.daemon.Migrate(s.ctx, req.EntityID, req.OldID, req.NewID)
	if err != nil {
		return err
	}
	resp.Task = api.FromTask(&task)
	resp.Created = created
	s.logger.Info("migration requested via IPC",
		logging.Event("ipc_migrate"),
		logging.String("task_id", task.ID),
		logging.Bool("created", created))
	return nil
}

func (s *service) Resume(_ ResumeRequest, resp *ResumeResponse) error {
	if err := s.daemon.Resume(s.ctx); err != nil {
		return err
	}
	resp.Queued = len(s.daemon.QueueTasks())
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.Event("daemon_stop"))
	if s.onStop != nil {
		go s.onStop()
	}
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.TableExists = health.TableExists
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalTasks = health.TotalTasks
	resp.Error = health.Error
	return err
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
