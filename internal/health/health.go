// Package health probes chat backend instances via GET /api/health and rolls
// the per-instance results into a pass/fail report.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teamchat/tchat/internal/client"
)

// DefaultTimeout is the per-instance probe timeout.
const DefaultTimeout = 5 * time.Second

// Status is the outcome of a single probe.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Result is the probe result for one instance.
type Result struct {
	URL      string               `json:"url"`
	Status   Status               `json:"status"`
	Message  string               `json:"message,omitempty"`
	Kind     client.ErrorKind     `json:"kind,omitempty"`
	Report   *client.HealthReport `json:"report,omitempty"`
	Duration time.Duration        `json:"duration_ns"`
}

// OK reports whether the instance is healthy.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Report aggregates the results of a probe run, in instance order.
type Report struct {
	Results []Result `json:"results"`
}

// AllOK reports whether every instance passed. An empty report is not OK.
func (r Report) AllOK() bool {
	if len(r.Results) == 0 {
		return false
	}
	return r.Passed() == len(r.Results)
}

// Passed counts healthy instances.
func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Options configures a probe run.
type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// Probe checks each instance in order, one at a time.
func Probe(ctx context.Context, instances []string, opts Options) Report {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	report := Report{Results: make([]Result, 0, len(instances))}
	for _, inst := range instances {
		res := Check(ctx, inst, timeout)
		if res.OK() {
			logger.Debug("instance healthy", "url", inst, "instance", res.Report.Instance, "duration", res.Duration)
		} else {
			logger.Warn("instance unhealthy", "url", inst, "kind", res.Kind, "message", res.Message)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// Check probes a single instance.
func Check(ctx context.Context, instance string, timeout time.Duration) Result {
	start := time.Now()
	c := client.New(strings.TrimRight(instance, "/")).WithTimeout(timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rep, err := c.Health(ctx)
	res := Result{URL: instance, Duration: time.Since(start)}
	if err != nil {
		res.Status = StatusError
		res.Kind = client.Classify(err)
		res.Message = describe(err, res.Kind)
		return res
	}
	res.Status = StatusOK
	res.Report = rep
	return res
}

func describe(err error, kind client.ErrorKind) string {
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldPath(fe.StructNamespace()))
		}
		return "missing fields: " + strings.Join(fields, ", ")
	}
	switch kind {
	case client.KindDecode:
		return "invalid JSON"
	case client.KindTimeout:
		return "timeout"
	case client.KindNetwork:
		return "connection error: " + rootCause(err)
	}
	return err.Error()
}

// fieldPath turns "HealthReport.Connections.Websockets" into
// "connections.websockets".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
