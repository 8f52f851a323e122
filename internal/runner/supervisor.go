package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"octopanel/internal/domain"
	"octopanel/internal/ws"
)

var (
	ErrNotRunning        = errors.New("server is not running")
	ErrInvalidTransition = errors.New("power action not allowed in current state")
	ErrNoStartup         = errors.New("server has no startup command")
)

type ActiveProcess struct {
	Cmd       *exec.Cmd
	Stdin     io.WriteCloser
	StartedAt time.Time

	netRx, netTx int64
	restart      bool
	done         chan struct{}
}

// Supervisor runs the startup command of each server and reports its power
// state, console and resource usage on the server's channel.
type Supervisor struct {
	store       domain.ServerRepository
	hubs        *ws.HubManager
	serversPath string
	sampler     *Sampler
	logger      *slog.Logger

	mu        sync.Mutex
	processes map[string]*ActiveProcess
	states    map[string]domain.PowerState
}

func NewSupervisor(store domain.ServerRepository, hubs *ws.HubManager, serversPath string, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		store:       store,
		hubs:        hubs,
		serversPath: serversPath,
		sampler:     NewSampler(),
		logger:      logger,
		processes:   make(map[string]*ActiveProcess),
		states:      make(map[string]domain.PowerState),
	}
}

func (s *Supervisor) ServerDir(id string) string {
	return filepath.Join(s.serversPath, id)
}

func (s *Supervisor) State(id string) domain.PowerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(id)
}

func (s *Supervisor) stateLocked(id string) domain.PowerState {
	if st, ok := s.states[id]; ok {
		return st
	}
	return domain.PowerOffline
}

// setStateLocked records and announces a state change. Callers hold s.mu.
func (s *Supervisor) setStateLocked(id string, st domain.PowerState) {
	if s.states[id] == st {
		return
	}
	s.states[id] = st
	s.hubs.GetHub(id).Broadcast(domain.Event{Event: domain.EventStatus, Args: []string{string(st)}})
}

func (s *Supervisor) lookup(id string) (*domain.Server, error) {
	srv, err := s.store.GetServerByID(id)
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, domain.ErrServerNotFound
	}
	return srv, nil
}

// Power applies a power action. Restart of a running server returns once the
// stop was requested; the start follows when the process exits.
func (s *Supervisor) Power(id string, action domain.PowerAction) error {
	switch action {
	case domain.ActionStart:
		return s.Start(id)
	case domain.ActionStop:
		return s.Stop(id)
	case domain.ActionRestart:
		return s.Restart(id)
	case domain.ActionKill:
		return s.Kill(id)
	}
	return fmt.Errorf("unknown power action %q", action)
}

func (s *Supervisor) Start(id string) error {
	srv, err := s.lookup(id)
	if err != nil {
		return err
	}
	if srv.IsSuspended {
		return domain.ErrSuspended
	}
	if strings.TrimSpace(srv.Startup) == "" {
		return ErrNoStartup
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.stateLocked(srv.ID); st != domain.PowerOffline {
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidTransition, st)
	}
	s.setStateLocked(srv.ID, domain.PowerStarting)

	if err := s.spawnLocked(srv); err != nil {
		s.setStateLocked(srv.ID, domain.PowerOffline)
		return err
	}
	s.setStateLocked(srv.ID, domain.PowerRunning)
	return nil
}

func (s *Supervisor) spawnLocked(srv *domain.Server) error {
	dir := s.ServerDir(srv.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating server directory: %w", err)
	}

	cmd := shellCommand(srv.Startup)
	cmd.Dir = dir
	prepareCommand(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	rx, tx := hostNetCounters()
	proc := &ActiveProcess{
		Cmd:       cmd,
		Stdin:     stdin,
		StartedAt: time.Now(),
		netRx:     rx,
		netTx:     tx,
		done:      make(chan struct{}),
	}
	s.processes[srv.ID] = proc

	hub := s.hubs.GetHub(srv.ID)
	var readers sync.WaitGroup
	for _, r := range []io.Reader{stdout, stderr} {
		readers.Add(1)
		go func(r io.Reader) {
			defer readers.Done()
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				hub.Broadcast(domain.Event{Event: domain.EventConsoleOutput, Args: []string{scanner.Text()}})
			}
		}(r)
	}

	s.logger.Info("Server process started", "server", srv.ID, "pid", cmd.Process.Pid)

	go func() {
		readers.Wait()
		err := cmd.Wait()
		s.exited(srv.ID, proc, err)
	}()
	return nil
}

func (s *Supervisor) exited(id string, proc *ActiveProcess, err error) {
	s.sampler.Forget(int32(proc.Cmd.Process.Pid))

	s.mu.Lock()
	delete(s.processes, id)
	s.setStateLocked(id, domain.PowerOffline)
	restart := proc.restart
	s.mu.Unlock()
	close(proc.done)

	if err != nil {
		s.logger.Info("Server process exited", "server", id, "error", err)
	} else {
		s.logger.Info("Server process exited", "server", id)
	}

	if restart {
		if err := s.Start(id); err != nil {
			s.logger.Error("Restart failed", "server", id, "error", err)
			s.hubs.GetHub(id).Broadcast(domain.Event{Event: domain.EventDaemonError, Args: []string{err.Error()}})
		}
	}
}

func (s *Supervisor) Stop(id string) error {
	srv, err := s.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(srv)
}

func (s *Supervisor) stopLocked(srv *domain.Server) error {
	proc, ok := s.processes[srv.ID]
	if !ok {
		return ErrNotRunning
	}
	switch st := s.stateLocked(srv.ID); st {
	case domain.PowerStarting, domain.PowerRunning:
	default:
		return fmt.Errorf("%w: cannot stop while %s", ErrInvalidTransition, st)
	}

	s.setStateLocked(srv.ID, domain.PowerStopping)

	stop := strings.TrimSpace(srv.StopCommand)
	if stop == "" || stop == "^C" {
		return interrupt(proc.Cmd)
	}
	_, err := io.WriteString(proc.Stdin, stop+"\n")
	return err
}

// Restart stops a running server and starts it again once it exited. An
// offline server is simply started.
func (s *Supervisor) Restart(id string) error {
	srv, err := s.lookup(id)
	if err != nil {
		return err
	}
	if srv.IsSuspended {
		return domain.ErrSuspended
	}

	s.mu.Lock()
	proc, running := s.processes[srv.ID]
	if !running {
		s.mu.Unlock()
		return s.Start(id)
	}
	proc.restart = true
	if s.stateLocked(srv.ID) == domain.PowerStopping {
		s.mu.Unlock()
		return nil
	}
	err = s.stopLocked(srv)
	s.mu.Unlock()
	return err
}

// Kill terminates a server that is already stopping.
func (s *Supervisor) Kill(id string) error {
	srv, err := s.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	proc, ok := s.processes[srv.ID]
	if !ok {
		return ErrNotRunning
	}
	if st := s.stateLocked(srv.ID); st != domain.PowerStopping {
		return fmt.Errorf("%w: kill requires stopping, state is %s", ErrInvalidTransition, st)
	}
	proc.restart = false
	return kill(proc.Cmd)
}

func (s *Supervisor) SendCommand(id string, line string) error {
	s.mu.Lock()
	proc, ok := s.processes[id]
	s.mu.Unlock()

	if !ok {
		return ErrNotRunning
	}
	_, err := io.WriteString(proc.Stdin, line+"\n")
	return err
}

// Wait blocks until the server process exits or ctx is done.
func (s *Supervisor) Wait(ctx context.Context, id string) error {
	s.mu.Lock()
	proc, ok := s.processes[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-proc.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats samples the current resource usage of a server.
func (s *Supervisor) Stats(id string) (domain.ServerStats, error) {
	srv, err := s.lookup(id)
	if err != nil {
		return domain.ServerStats{}, err
	}

	s.mu.Lock()
	proc := s.processes[srv.ID]
	stats := domain.ServerStats{
		State:       s.stateLocked(srv.ID),
		IsSuspended: srv.IsSuspended,
	}
	s.mu.Unlock()

	stats.DiskUsageInBytes = DirSize(s.ServerDir(srv.ID))

	if proc != nil {
		cpu, rss, err := s.sampler.Sample(int32(proc.Cmd.Process.Pid))
		if err == nil {
			stats.CPUUsagePercent = cpu
			stats.MemoryUsageInBytes = rss
		}
		rx, tx := hostNetCounters()
		stats.NetworkRxBytes = max(rx-proc.netRx, 0)
		stats.NetworkTxBytes = max(tx-proc.netTx, 0)
		stats.UptimeMs = time.Since(proc.StartedAt).Milliseconds()
	}
	return stats, nil
}

// HandleEvent serves events sent by channel clients.
func (s *Supervisor) HandleEvent(serverID string, c *ws.Client, ev domain.Event) {
	var err error
	switch ev.Event {
	case domain.EventSendStats:
		var stats domain.ServerStats
		stats, err = s.Stats(serverID)
		if err == nil {
			c.Send(domain.StatsEvent(stats))
			c.Send(domain.Event{Event: domain.EventStatus, Args: []string{string(stats.State)}})
		}
	case domain.EventSetState:
		if len(ev.Args) == 0 {
			return
		}
		var action domain.PowerAction
		action, err = domain.ParsePowerAction(ev.Args[0])
		if err == nil {
			err = s.Power(serverID, action)
		}
	case domain.EventSendCommand:
		if len(ev.Args) == 0 {
			return
		}
		err = s.SendCommand(serverID, ev.Args[0])
	default:
		return
	}

	if err != nil {
		c.Send(domain.Event{Event: domain.EventDaemonError, Args: []string{err.Error()}})
	}
}

// Run pushes stats of every running server each interval until ctx is done,
// then kills the remaining processes.
func (s *Supervisor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.KillAll()
			return nil
		case <-ticker.C:
			s.mu.Lock()
			ids := make([]string, 0, len(s.processes))
			for id := range s.processes {
				ids = append(ids, id)
			}
			s.mu.Unlock()

			for _, id := range ids {
				stats, err := s.Stats(id)
				if err != nil {
					s.logger.Warn("Stats sampling failed", "server", id, "error", err)
					continue
				}
				s.hubs.GetHub(id).Broadcast(domain.StatsEvent(stats))
			}
		}
	}
}

func (s *Supervisor) KillAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, proc := range s.processes {
		proc.restart = false
		if err := kill(proc.Cmd); err != nil {
			s.logger.Warn("Could not kill server", "server", id, "error", err)
		}
	}
}

// Terminate kills a server regardless of its state, for suspension and
// deletion. It is a no-op when the server is offline.
func (s *Supervisor) Terminate(ctx context.Context, id string) error {
	s.mu.Lock()
	proc, ok := s.processes[id]
	if ok {
		proc.restart = false
		if err := kill(proc.Cmd); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Wait(ctx, id)
}
