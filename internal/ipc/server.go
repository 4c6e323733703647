package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sort"
	"sync"

	"log/slog"

	"locaudit/internal/api"
	"locaudit/internal/daemon"
	"locaudit/internal/logging"
)

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

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
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
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Locaudit", srv); err != nil {
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
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
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.AuditStats = make(map[string]int, len(status.Workflow.AuditStats))
	for k, v := range status.Workflow.AuditStats {
		resp.AuditStats[string(k)] = v
	}
	resp.LastError = status.Workflow.LastError
	if status.Workflow.LastAudit != nil {
		view := api.FromAudit(status.Workflow.LastAudit)
		resp.LastAudit = &view
	}
	if len(status.Workflow.StageHealth) > 0 {
		names := make([]string, 0, len(status.Workflow.StageHealth))
		for name := range status.Workflow.StageHealth {
			names = append(names, name)
		}
		sort.Strings(names)
		resp.StageHealth = make([]StageHealth, 0, len(names))
		for _, name := range names {
			health := status.Workflow.StageHealth[name]
			resp.StageHealth = append(resp.StageHealth, StageHealth{
				Name:   health.Name,
				Ready:  health.Ready,
				Detail: health.Detail,
			})
		}
	}
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	view, err := s.daemon.SubmitAudit(s.ctx, req.Audit)
	if err != nil {
		return err
	}
	resp.Audit = *view
	s.log().Info("audit submitted via IPC",
		logging.String(logging.FieldEventType, "audit_submit"),
		logging.Int64(logging.FieldAuditID, view.ID))
	return nil
}

func (s *service) AuditShow(req AuditShowRequest, resp *AuditShowResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid audit id %d", req.ID)
	}
	view, err := s.daemon.GetAudit(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Audit = *view
	return nil
}

func (s *service) AuditList(req AuditListRequest, resp *AuditListResponse) error {
	page, err := s.daemon.ListAudits(s.ctx, req.Owner, req.Offset, req.Limit)
	if err != nil {
		return err
	}
	resp.Page = *page
	return nil
}

func (s *service) AuditRetry(req AuditRetryRequest, resp *AuditRetryResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid audit id %d", req.ID)
	}
	view, err := s.daemon.RetryAudit(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Audit = *view
	s.log().Info("blocked audit retried",
		logging.String(logging.FieldEventType, "audit_retry"),
		logging.Int64(logging.FieldAuditID, req.ID))
	return nil
}

func (s *service) AuditProceed(req AuditProceedRequest, resp *AuditProceedResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid audit id %d", req.ID)
	}
	view, err := s.daemon.ProceedAudit(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Audit = *view
	s.log().Info("blocked audit released on partial evidence",
		logging.String(logging.FieldEventType, "audit_proceed"),
		logging.Int64(logging.FieldAuditID, req.ID))
	return nil
}

func (s *service) AuditDelete(req AuditDeleteRequest, resp *AuditDeleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid audit id %d", req.ID)
	}
	if err := s.daemon.DeleteAudit(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Deleted = true
	s.log().Info("audit deleted via IPC",
		logging.String(logging.FieldEventType, "audit_delete"),
		logging.Int64(logging.FieldAuditID, req.ID))
	return nil
}

func (s *service) GlossaryList(req GlossaryListRequest, resp *GlossaryListResponse) error {
	glossaries, err := s.daemon.ListGlossaries(s.ctx, req.Owner)
	if err != nil {
		return err
	}
	resp.Glossaries = glossaries
	return nil
}

func (s *service) GlossaryShow(req GlossaryShowRequest, resp *GlossaryShowResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid glossary id %d", req.ID)
	}
	view, err := s.daemon.GetGlossary(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Glossary = *view
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
