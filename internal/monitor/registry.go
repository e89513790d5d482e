package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/metrics"
)

// LoopFactory builds a stopped loop for chatID watching pool.
type LoopFactory func(id, chatID string, pool domain.PoolConfig) (*Loop, error)

// Handle binds a chat to a running loop.
type Handle struct {
	ID        string
	ChatID    string
	Pool      domain.PoolConfig
	StartedAt time.Time

	loop *Loop
}

func (h *Handle) Status() domain.MonitorStatus {
	return h.loop.Status()
}

func (h *Handle) Recent(n int) []*domain.ClassifiedSwap {
	return h.loop.Recent(n)
}

type key struct {
	chatID string
	poolID string
}

// Registry is the process-wide table of running monitors keyed by (chat, pool).
// All methods are safe for concurrent use. The table lock is never held across
// RPC calls: a starting monitor reserves its key until its loop is up.
type Registry struct {
	ctx     context.Context
	mu      sync.Mutex
	handles map[key]*Handle
	pending map[key]struct{}
	factory LoopFactory
	log     *slog.Logger
}

// NewRegistry creates a registry whose monitors live until ctx ends or they are stopped.
func NewRegistry(ctx context.Context, factory LoopFactory) *Registry {
	return &Registry{
		ctx:     ctx,
		handles: make(map[key]*Handle),
		pending: make(map[key]struct{}),
		factory: factory,
		log:     slog.Default().With("component", "registry"),
	}
}

// Start launches a monitor for (chatID, pool.ID). A second start for the same
// key fails with ErrAlreadyRunning, also while the first is still starting.
func (r *Registry) Start(chatID string, pool domain.PoolConfig) (*Handle, error) {
	k := key{chatID: chatID, poolID: pool.ID}

	r.mu.Lock()
	_, running := r.handles[k]
	_, starting := r.pending[k]
	if running || starting {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: chat %s pool %s", domain.ErrAlreadyRunning, chatID, pool.ID)
	}
	r.pending[k] = struct{}{}
	r.mu.Unlock()

	h, err := r.launch(chatID, pool)

	r.mu.Lock()
	delete(r.pending, k)
	if err == nil && r.ctx.Err() != nil {
		err = fmt.Errorf("start monitor: %w", r.ctx.Err())
	}
	if err != nil {
		r.mu.Unlock()
		if h != nil {
			h.loop.Stop(context.Background())
		}
		return nil, err
	}
	r.handles[k] = h
	metrics.ActiveMonitors.Set(float64(len(r.handles)))
	r.mu.Unlock()

	r.log.Info("Monitor registered", "id", h.ID, "chat", chatID, "pool", pool.ID, "chain", pool.Network)
	return h, nil
}

// launch builds and starts a loop. It runs without the table lock.
func (r *Registry) launch(chatID string, pool domain.PoolConfig) (*Handle, error) {
	id := uuid.New().String()
	loop, err := r.factory(id, chatID, pool)
	if err != nil {
		return nil, fmt.Errorf("create monitor: %w", err)
	}
	if err := loop.Start(r.ctx); err != nil {
		return nil, fmt.Errorf("start monitor: %w", err)
	}
	return &Handle{
		ID:        id,
		ChatID:    chatID,
		Pool:      pool,
		StartedAt: time.Now(),
		loop:      loop,
	}, nil
}

// Stop removes the monitor for (chatID, poolID) and waits for its loop to exit.
// When ctx ends first the monitor is already unregistered and finishes on its
// own; Stop then reports MonitorStopping instead of an error.
func (r *Registry) Stop(ctx context.Context, chatID, poolID string) (domain.MonitorState, error) {
	k := key{chatID: chatID, poolID: poolID}

	r.mu.Lock()
	h, ok := r.handles[k]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: chat %s pool %s", domain.ErrNotRunning, chatID, poolID)
	}
	delete(r.handles, k)
	metrics.ActiveMonitors.Set(float64(len(r.handles)))
	r.mu.Unlock()

	if err := h.loop.Stop(ctx); err != nil && !isNotRunning(err) {
		r.log.Warn("Monitor unregistered, still stopping", "id", h.ID, "chat", chatID, "pool", poolID, "error", err)
		return domain.MonitorStopping, nil
	}
	r.log.Info("Monitor unregistered", "id", h.ID, "chat", chatID, "pool", poolID)
	return domain.MonitorStopped, nil
}

// Status returns the pool ids monitored for chatID, sorted.
func (r *Registry) Status(chatID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for k := range r.handles {
		if k.chatID == chatID {
			ids = append(ids, k.poolID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Statuses returns a snapshot of every monitor, or only those of chatID when it is non-empty.
func (r *Registry) Statuses(chatID string) []domain.MonitorStatus {
	out := make([]domain.MonitorStatus, 0)
	for _, h := range r.Handles() {
		if chatID == "" || h.ChatID == chatID {
			out = append(out, h.Status())
		}
	}
	return out
}

// Recent returns up to n recent swaps of the monitor, most recent first.
func (r *Registry) Recent(chatID, poolID string, n int) ([]*domain.ClassifiedSwap, error) {
	h, ok := r.Get(chatID, poolID)
	if !ok {
		return nil, fmt.Errorf("%w: chat %s pool %s", domain.ErrNotRunning, chatID, poolID)
	}
	return h.Recent(n), nil
}

func (r *Registry) Get(chatID, poolID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[key{chatID: chatID, poolID: poolID}]
	return h, ok
}

// Handles returns all handles ordered by chat then pool.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ChatID != out[j].ChatID {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].Pool.ID < out[j].Pool.ID
	})
	return out
}

// StopAll stops every monitor, collecting all failures.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[key]*Handle)
	r.mu.Unlock()
	metrics.ActiveMonitors.Set(0)

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		result *multierror.Error
	)
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			if err := h.loop.Stop(ctx); err != nil && !isNotRunning(err) {
				errMu.Lock()
				result = multierror.Append(result, fmt.Errorf("stop %s/%s: %w", h.ChatID, h.Pool.ID, err))
				errMu.Unlock()
			}
		}(h)
	}
	wg.Wait()
	return result.ErrorOrNil()
}

// isNotRunning covers loops that already exited because their context ended.
func isNotRunning(err error) bool {
	return errors.Is(err, domain.ErrNotRunning)
}
