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

	"reelmatch/internal/api"
	"reelmatch/internal/daemon"
	"reelmatch/internal/logging"
	"reelmatch/internal/logs"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/workflow"
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
	if err := rpcServer.RegisterName("Reelmatch", srv); err != nil {
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
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
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
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun reelmatch daemon stop"))
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
	return s.logger.With(logging.String("component", "ipc"))
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
	resp.IngestActive = status.Workflow.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.SocketPath = status.SocketPath
	resp.LockPath = status.LockFilePath
	resp.LastError = status.Workflow.LastError
	resp.RunStats = api.MergeRunStats(status.Workflow.RunStats)
	resp.Current = api.FromIngestStatus(status.Workflow.Current)
	return nil
}

func (s *service) Progress(_ ProgressRequest, resp *ProgressResponse) error {
	resp.Status = api.FromIngestStatus(s.daemon.Progress())
	return nil
}

func (s *service) IngestStart(req IngestStartRequest, resp *IngestStartResponse) error {
	s.log().Debug("ingest start requested", logging.Int("item_count", len(req.Items)))
	runID, err := s.daemon.StartIngest(s.ctx, api.ToCandidates(req.Items), workflow.StartOptions{MaxRating: req.MaxRating})
	if err != nil {
		return err
	}
	resp.RunID = runID
	s.log().Info("ingest run started via IPC",
		logging.String(logging.FieldEventType, "ingest_start"),
		logging.String(logging.FieldRunID, runID),
		logging.Int("item_count", len(req.Items)))
	return nil
}

func (s *service) IngestStop(_ IngestStopRequest, resp *IngestStopResponse) error {
	s.log().Debug("ingest stop requested")
	resp.Stopping = s.daemon.StopIngest()
	if resp.Stopping {
		s.log().Info("ingest stop accepted",
			logging.String(logging.FieldEventType, "ingest_stop"))
	}
	return nil
}

func (s *service) RunList(req RunListRequest, resp *RunListResponse) error {
	runs, err := s.daemon.History().List(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = runs
	return nil
}

func (s *service) RunDescribe(req RunDescribeRequest, resp *RunDescribeResponse) error {
	if req.RunID == "" {
		return errors.New("run describe requires a run id")
	}
	detail, err := s.daemon.History().Describe(s.ctx, req.RunID)
	if err != nil {
		return err
	}
	if detail == nil {
		return fmt.Errorf("run %q not found", req.RunID)
	}
	resp.Run = detail.Run
	resp.Results = detail.Results
	return nil
}

func (s *service) RunsClear(_ RunsClearRequest, resp *RunsClearResponse) error {
	s.log().Debug("runs clear requested")
	removed, err := s.daemon.ClearRuns(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("run history cleared",
		logging.String(logging.FieldEventType, "runs_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) RunsPrune(req RunsPruneRequest, resp *RunsPruneResponse) error {
	s.log().Debug("runs prune requested", logging.Int("keep", req.Keep))
	removed, err := s.daemon.PruneRuns(s.ctx, req.Keep)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("run history pruned",
		logging.String(logging.FieldEventType, "runs_prune"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) Resolve(req ResolveRequest, resp *ResolveResponse) error {
	cand := reconcile.Candidate{
		Title:      req.Title,
		Year:       req.Year,
		ExternalID: req.ExternalID,
	}
	matches, err := s.daemon.Resolve(s.ctx, cand)
	if err != nil {
		return err
	}
	resp.Candidate = api.FromCandidate(cand)
	resp.Matches = api.FromMatches(matches)
	return nil
}

func (s *service) Recommend(req RecommendRequest, resp *RecommendResponse) error {
	result, err := s.daemon.Recommend(s.ctx, api.ToPreferences(req.Preferences))
	if err != nil {
		return err
	}
	resp.Entries = api.FromRecommendedMatches(result.Matches)
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
