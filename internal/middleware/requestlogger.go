package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/aman-churiwal/media-quota/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	logBatchSize  = 100
	logFlushEvery = 5 * time.Second
)

type RequestLogStore interface {
	CreateBatch(ctx context.Context, logs []models.RequestLog) error
}

// Persists request logs asynchronously in batches. Entries are dropped rather
// than blocking a request when the buffer is full.
type RequestLogWriter struct {
	store      RequestLogStore
	entries    chan models.RequestLog
	flushEvery time.Duration
	log        logrus.FieldLogger
	quit       chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
}

func NewRequestLogWriter(store RequestLogStore, bufferSize int, log logrus.FieldLogger) *RequestLogWriter {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &RequestLogWriter{
		store:      store,
		entries:    make(chan models.RequestLog, bufferSize),
		flushEvery: logFlushEvery,
		log:        log,
		quit:       make(chan struct{}),
	}
}

// Starts the background batch writer
func (w *RequestLogWriter) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		batch := make([]models.RequestLog, 0, logBatchSize)
		ticker := time.NewTicker(w.flushEvery)
		defer ticker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}
			w.insertBatch(batch)
			batch = make([]models.RequestLog, 0, logBatchSize)
		}

		for {
			select {
			case entry := <-w.entries:
				batch = append(batch, entry)
				if len(batch) >= logBatchSize {
					flush()
				}
			case <-ticker.C:
				flush()
			case <-w.quit:
				// Drain what is already buffered, then exit
				for {
					select {
					case entry := <-w.entries:
						batch = append(batch, entry)
					default:
						flush()
						return
					}
				}
			}
		}
	}()
}

// Flushes buffered entries and stops the writer
func (w *RequestLogWriter) Stop() {
	w.once.Do(func() {
		close(w.quit)
		w.wg.Wait()
	})
}

func (w *RequestLogWriter) insertBatch(logs []models.RequestLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.store.CreateBatch(ctx, logs); err != nil {
		w.log.WithError(err).WithField("count", len(logs)).Error("failed to insert request logs")
	}
}

// Records every request, including ones rejected by the rate limiter
func (w *RequestLogWriter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := models.RequestLog{
			Timestamp:      start.UTC(),
			RequestID:      c.GetString(RequestIDKey),
			SubjectID:      SubjectID(c),
			Zone:           c.GetString(ZoneKey),
			RateLimited:    c.GetBool(RateLimitedKey),
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(time.Since(start).Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
		}

		select {
		case w.entries <- entry:
		default:
			w.log.Warn("request log buffer full, dropping entry")
		}
	}
}
