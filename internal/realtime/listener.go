package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const NotifyChannel = "table_changes"

type Publisher interface {
	Publish(e model.ChangeEvent)
}

// TodoFetcher reloads a task whose row did not fit into a notification.
type TodoFetcher interface {
	Get(ctx context.Context, id string) (model.Todo, error)
}

// PGListener holds one pooled connection in LISTEN mode and republishes every
// notification on the hub.
type PGListener struct {
	pool    *pgxpool.Pool
	hub     Publisher
	todos   TodoFetcher
	logger  *zap.Logger
	backoff time.Duration
}

func NewPGListener(pool *pgxpool.Pool, hub Publisher, todos TodoFetcher, logger *zap.Logger) *PGListener {
	return &PGListener{
		pool:    pool,
		hub:     hub,
		todos:   todos,
		logger:  logger,
		backoff: time.Second,
	}
}

// Run listens until ctx is cancelled, re-acquiring a connection after failures.
func (l *PGListener) Run(ctx context.Context) {
	l.logger.Info("Starting change listener", zap.String("channel", NotifyChannel))
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.logger.Info("Change listener stopped")
			return
		}
		l.logger.Error("change listener error", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		e, err := DecodeNotification(n.Payload)
		if err != nil {
			l.logger.Warn("bad change notification", zap.Error(err))
			continue
		}
		if e.Truncated {
			if e, err = l.refetch(ctx, e); err != nil {
				l.logger.Warn("failed to refetch truncated row", zap.String("table", e.Table), zap.Error(err))
				continue
			}
		}
		l.hub.Publish(e)
	}
}

func (l *PGListener) refetch(ctx context.Context, e model.ChangeEvent) (model.ChangeEvent, error) {
	if e.Table != model.TableTodos {
		return e, fmt.Errorf("cannot refetch rows of %s", e.Table)
	}
	id, err := e.RowID()
	if err != nil {
		return e, err
	}
	t, err := l.todos.Get(ctx, id)
	if err != nil {
		return e, err
	}
	if e.New, err = json.Marshal(t); err != nil {
		return e, err
	}
	e.Old = nil
	e.Truncated = false
	return e, nil
}

// DecodeNotification parses a payload produced by the notify_table_change trigger.
func DecodeNotification(payload string) (model.ChangeEvent, error) {
	var e model.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return e, err
	}
	switch e.Type {
	case model.EventInsert, model.EventUpdate, model.EventDelete:
	default:
		return e, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Table == "" {
		return e, fmt.Errorf("missing table")
	}
	if e.Type == model.EventDelete && len(e.Old) == 0 {
		return e, fmt.Errorf("delete without old row")
	}
	if e.Type != model.EventDelete && len(e.New) == 0 && !e.Truncated {
		return e, fmt.Errorf("%s without new row", e.Type)
	}
	return e, nil
}
