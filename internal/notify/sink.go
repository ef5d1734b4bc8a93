package notify

import "log/slog"

// LogSink writes notifications to a structured logger. It is the default
// sink for headless runs and tests.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink writing to logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(n Notification) error {
	s.logger.Info("notification",
		"kind", string(n.Kind),
		"time", n.Time,
		"medication_id", n.MedicationID,
		"title", n.Title,
		"body", n.Body,
	)
	return nil
}

func (s *LogSink) SetBadge(count int) error {
	s.logger.Info("badge", "count", count)
	return nil
}

var _ Sink = (*LogSink)(nil)
