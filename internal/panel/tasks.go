package panel

import (
	"context"
	"time"

	"github.com/teamchat/tchat/internal/client"
)

// TaskKind names a best-effort background task.
type TaskKind string

const (
	TaskMarkRead     TaskKind = "mark_read"
	TaskRefreshRooms TaskKind = "refresh_rooms"
)

// maxTaskLog bounds the retained task results.
const maxTaskLog = 64

// TaskResult records how a background task ended.
type TaskResult struct {
	Kind   TaskKind
	RoomID string
	Err    error
	At     time.Time
}

// OK reports whether the task succeeded.
func (r TaskResult) OK() bool {
	return r.Err == nil
}

// Tasks returns the retained background task results, oldest first.
func (p *Panel) Tasks() []TaskResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TaskResult(nil), p.tasks...)
}

// background runs fn in a tracked goroutine bounded by the task timeout.
// Its result goes to the task log, the logger and the OnTask hook.
func (p *Panel) background(kind TaskKind, roomID string, fn func(ctx context.Context) error) {
	p.mu.Lock()
	base := p.taskCtx
	p.mu.Unlock()
	if base == nil {
		base = context.Background()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(base, p.taskTimeout)
		defer cancel()

		res := TaskResult{Kind: kind, RoomID: roomID, At: time.Now()}
		res.Err = fn(ctx)

		p.mu.Lock()
		p.tasks = append(p.tasks, res)
		if len(p.tasks) > maxTaskLog {
			p.tasks = p.tasks[len(p.tasks)-maxTaskLog:]
		}
		p.mu.Unlock()

		if res.Err != nil {
			p.logger.Warn("background task failed",
				"task", kind,
				"room_id", roomID,
				"kind", client.Classify(res.Err),
				"error", res.Err,
			)
		} else {
			p.logger.Debug("background task done", "task", kind, "room_id", roomID)
		}

		if p.onTask != nil {
			p.onTask(res)
		}
	}()
}
