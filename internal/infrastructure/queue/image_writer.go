package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 10 * time.Second
)

// ErrQueueFull is returned by Put when the worker for an image is saturated.
var ErrQueueFull = errors.New("image write queue full")

type imageJob struct {
	qrID string
	png  []byte
}

// ImageWriter moves image uploads off the request path. Writes are routed to
// a fixed set of workers by hashing the QR id, so retries of the same id stay
// ordered. Reads go straight to the backing store.
type ImageWriter struct {
	workers []chan imageJob
	store   ports.ImageStore
	log     zerolog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewImageWriter creates an ImageWriter with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewImageWriter(numWorkers int, store ports.ImageStore, log zerolog.Logger) *ImageWriter {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	w := &ImageWriter{
		workers: make([]chan imageJob, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range w.workers {
		w.workers[i] = make(chan imageJob, channelBuffer)
	}
	return w
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled or Close is called; Wait blocks until they have.
func (w *ImageWriter) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	for i, ch := range w.workers {
		w.wg.Add(1)
		go w.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (w *ImageWriter) Wait() {
	w.wg.Wait()
}

// Close stops the workers after they flush what is queued and waits for
// them. Call it once nothing can Put anymore.
func (w *ImageWriter) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Put enqueues an upload without blocking.
func (w *ImageWriter) Put(_ context.Context, qrID string, png []byte) error {
	select {
	case w.workers[w.shardIndex(qrID)] <- imageJob{qrID: qrID, png: png}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Get reads from the backing store. Images still queued are reported missing.
func (w *ImageWriter) Get(ctx context.Context, qrID string) ([]byte, error) {
	return w.store.Get(ctx, qrID)
}

// shardIndex maps a QR id deterministically to a worker index.
func (w *ImageWriter) shardIndex(qrID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(qrID))
	return int(h.Sum32() % uint32(len(w.workers)))
}

func (w *ImageWriter) runWorker(ctx context.Context, id int, ch <-chan imageJob) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.drain(id, ch)
			return
		case job := <-ch:
			w.write(context.Background(), id, job)
		}
	}
}

// drain flushes whatever is already buffered at shutdown.
func (w *ImageWriter) drain(id int, ch <-chan imageJob) {
	for {
		select {
		case job := <-ch:
			w.write(context.Background(), id, job)
		default:
			return
		}
	}
}

func (w *ImageWriter) write(ctx context.Context, id int, job imageJob) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := w.store.Put(ctx, job.qrID, job.png); err != nil {
		w.log.Error().Err(err).
			Str("qr_id", job.qrID).
			Int("worker_id", id).
			Msg("image upload failed")
	}
}
