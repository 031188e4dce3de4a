package tui

import "github.com/teamchat/tchat/internal/panel"

// TaskSink forwards panel background task results into the program loop.
// Results are dropped when the buffer is full.
type TaskSink struct {
	ch chan panel.TaskResult
}

// NewTaskSink creates a sink with the given buffer size.
func NewTaskSink(size int) *TaskSink {
	if size <= 0 {
		size = 16
	}
	return &TaskSink{ch: make(chan panel.TaskResult, size)}
}

// Send is suitable as panel.Options.OnTask.
func (s *TaskSink) Send(res panel.TaskResult) {
	select {
	case s.ch <- res:
	default:
	}
}
