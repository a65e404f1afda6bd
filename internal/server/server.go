// Package server wires the Proxy Engine and ambient middleware into an
// HTTP server: gin routing, graceful shutdown, and address-in-use
// diagnostics for a developer who starts the proxy twice on the same port.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/middleware"
	"github.com/aicodeswitch/aicodeswitch/internal/proxy"
)

type Server struct {
	config *config.Manager
	engine *proxy.Engine
	logger *slog.Logger
	http   *http.Server
}

func New(configManager *config.Manager, engine *proxy.Engine, logger *slog.Logger) *Server {
	return &Server{
		config: configManager,
		engine: engine,
		logger: logger,
	}
}

func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 30 * time.Second,
	}

	s.logger.Info("starting server", "address", addr)

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
			if strings.Contains(err.Error(), "address already in use") {
				s.handleAddressInUse(addr)
				os.Exit(1)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.logger.Info("server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server exited")

	return nil
}

func (s *Server) Stop() error {
	if s.http == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.http.Shutdown(ctx)
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	proxyGroup := r.Group("/")
	proxyGroup.Use(
		middleware.StatsigBlocker(),
		middleware.MetricsBlocker(),
		middleware.Logging(s.logger),
	)
	proxyGroup.Any("/claude-code/*path", gin.WrapH(s.engine))
	proxyGroup.Any("/codex/*path", gin.WrapH(s.engine))

	return r
}

// handleAddressInUse attempts to find and display the PID using the
// specified address, to help a developer who started the proxy twice.
func (s *Server) handleAddressInUse(addr string) {
	s.logger.Error("address already in use", "address", addr)

	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		s.logger.Error("failed to parse address", "address", addr, "error", err)
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		s.logger.Error("invalid port number", "port", portStr, "error", err)
		return
	}

	pid := s.findProcessUsingPort(port)
	if pid <= 0 {
		s.logger.Error("could not determine which process is using the port", "port", port)
		return
	}

	s.logger.Error("port is being used by another process",
		"port", port, "pid", pid, "process", s.getProcessInfo(pid))
}

func (s *Server) findProcessUsingPort(port int) int {
	switch runtime.GOOS {
	case "linux", "darwin":
		return s.findProcessUsingPortUnix(port)
	case "windows":
		return s.findProcessUsingPortWindows(port)
	default:
		s.logger.Warn("unsupported OS for port detection", "os", runtime.GOOS)
		return 0
	}
}

func (s *Server) findProcessUsingPortUnix(port int) int {
	if pid := s.tryLsof(port); pid > 0 {
		return pid
	}
	return s.tryNetstatOrSS(port, "netstat", "-tlnp", "LISTEN")
}

func (s *Server) tryLsof(port int) int {
	if port < 1 || port > 65535 {
		return 0
	}
	cmd := exec.Command("lsof", "-ti", fmt.Sprintf(":%d", port))

	output, err := cmd.Output()
	if err != nil {
		return 0
	}

	pidStr := strings.TrimSpace(string(output))
	if pidStr == "" {
		return 0
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0
	}
	return pid
}

func (s *Server) tryNetstatOrSS(port int, name string, args ...string) int {
	cmd := exec.Command(name, args...)

	output, err := cmd.Output()
	if err != nil {
		return 0
	}

	portPattern := fmt.Sprintf(":%d ", port)
	marker := args[len(args)-1]

	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, portPattern) || !strings.Contains(line, marker) {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 7 {
			continue
		}
		pidProgram := parts[len(parts)-1]
		pidStr := strings.Split(pidProgram, "/")[0]
		if pidStr == "-" {
			continue
		}
		if pid, err := strconv.Atoi(pidStr); err == nil {
			return pid
		}
	}

	return 0
}

func (s *Server) findProcessUsingPortWindows(port int) int {
	cmd := exec.Command("netstat", "-ano")

	output, err := cmd.Output()
	if err != nil {
		return 0
	}

	portPattern := fmt.Sprintf(":%d ", port)

	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, portPattern) || !strings.Contains(line, "LISTENING") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 {
			continue
		}
		if pid, err := strconv.Atoi(parts[4]); err == nil {
			return pid
		}
	}

	return 0
}

func (s *Server) getProcessInfo(pid int) string {
	switch runtime.GOOS {
	case "linux", "darwin":
		return s.getProcessInfoUnix(pid)
	case "windows":
		return s.getProcessInfoWindows(pid)
	default:
		return fmt.Sprintf("PID %d", pid)
	}
}

func (s *Server) getProcessInfoUnix(pid int) string {
	if pid < 1 || pid > 4194304 {
		return fmt.Sprintf("PID %d (invalid)", pid)
	}

	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "comm=")

	output, err := cmd.Output()
	if err != nil {
		return fmt.Sprintf("PID: %d", pid)
	}

	name := strings.TrimSpace(string(output))
	if name == "" {
		return fmt.Sprintf("PID: %d", pid)
	}
	return fmt.Sprintf("%s (PID: %d)", name, pid)
}

func (s *Server) getProcessInfoWindows(pid int) string {
	cmd := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH")

	output, err := cmd.Output()
	if err != nil {
		return fmt.Sprintf("PID: %d", pid)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return fmt.Sprintf("PID: %d", pid)
	}

	parts := strings.Split(lines[0], ",")
	if len(parts) == 0 {
		return fmt.Sprintf("PID: %d", pid)
	}

	return fmt.Sprintf("%s (PID: %d)", strings.Trim(parts[0], "\""), pid)
}
