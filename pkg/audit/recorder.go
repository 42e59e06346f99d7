package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig contains configuration for the asynchronous recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds how long Record waits for queue space and how long
	// a single store write may take.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes audit records to storage on a background worker so the
// request path never blocks on the database.
type Recorder struct {
	storage    Storage
	config     RecorderConfig
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	dropped    atomic.Int64
	logger     *slog.Logger
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(storage Storage, config RecorderConfig) *Recorder {
	defaults := DefaultRecorderConfig()
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = defaults.AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record assigns an ID and timestamp to record and enqueues it. If the queue
// stays full past WriteTimeout the record is dropped and an error returned.
func (r *Recorder) Record(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
		r.dropped.Add(1)
		return NewRecorderError(record.ID, context.Canceled)
	default:
	}

	select {
	case r.recordChan <- record:
		return nil
	case <-timer.C:
		r.dropped.Add(1)
		r.logger.Error("audit queue full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		r.dropped.Add(1)
		return NewRecorderError(record.ID, context.Canceled)
	case <-ctx.Done():
		r.dropped.Add(1)
		return NewRecorderError(record.ID, ctx.Err())
	}
}

// Dropped returns the number of records that were never written.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting records, drains the queue, and waits for the
// worker. It does not close the storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder stopped", "dropped", r.Dropped())
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, record); err != nil {
		r.dropped.Add(1)
		r.logger.Error("failed to write audit record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
	}
}
