package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/ritzau/pom-graph/pkg/logging"
)

// Debouncer batches rapid change events to avoid excessive re-analysis.
// A batch is emitted once the input has been quiet for quietPeriod, or at the
// latest maxWait after the first event of the batch.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
	logger      *slog.Logger
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
		logger:      logging.New("watcher"),
	}
}

// Start begins processing events. Output is closed when ctx is cancelled or
// the input channel closes; a pending batch is flushed when the input closes.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		paths    []string
		seen     = make(map[string]bool)
		count    int
		quiet    *time.Timer
		deadline *time.Timer
	)

	// nil channels block forever in select
	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	flush := func() {
		if quiet != nil {
			quiet.Stop()
			quiet = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadline = nil
		}
		if count == 0 {
			return
		}

		d.logger.Debug("flushing accumulated events", "count", count, "paths", len(paths))
		event := ChangeEvent{Paths: paths, Timestamp: time.Now()}
		paths = nil
		seen = make(map[string]bool)
		count = 0

		select {
		case d.output <- event:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			count++
			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					paths = append(paths, p)
				}
			}

			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				quiet.Reset(d.quietPeriod)
			}
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			flush()

		case <-timerC(deadline):
			flush()
		}
	}
}
