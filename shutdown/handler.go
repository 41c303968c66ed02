package shutdown

import (
	// Go Internal Packages
	"context"
	"fmt"
	"sync"
	"time"

	// External Packages
	"go.uber.org/zap"
)

const exitFailure = 1

// Disconnector is the connection the handler closes before exiting
type Disconnector interface {
	Disconnect(ctx context.Context)
}

// Handler is the single place an unrecoverable failure is turned into a
// process exit. It disconnects the tracked connection first.
type Handler struct {
	Logger  *zap.Logger
	Timeout time.Duration

	exit func(code int)
	once sync.Once
	mu   sync.Mutex
	conn Disconnector
}

func NewHandler(logger *zap.Logger, timeout time.Duration, exit func(code int)) *Handler {
	return &Handler{Logger: logger, Timeout: timeout, exit: exit}
}

// Track registers the connection to close on failure
func (h *Handler) Track(conn Disconnector) {
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
}

// Handle logs err, disconnects and exits with status 1. Only the first call
// has any effect.
func (h *Handler) Handle(err error) {
	h.once.Do(func() {
		h.Logger.Error("unrecoverable failure, shutting down", zap.Error(err))
		h.disconnect()
		_ = h.Logger.Sync()
		h.exit(exitFailure)
	})
}

// Recover routes a panic through Handle. Use it with defer.
func (h *Handler) Recover() {
	if r := recover(); r != nil {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", r)
		}
		h.Handle(err)
	}
}

// Close disconnects without exiting, for a clean stop
func (h *Handler) Close() {
	h.disconnect()
}

func (h *Handler) disconnect() {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.Logger.Warn("disconnect failed", zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	conn.Disconnect(ctx)
}
