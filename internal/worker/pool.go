package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAudit = "jobs:audit"
	QueueEmail = "jobs:email"

	JobAudit             = "audit"
	JobPurchaseOrderMail = "purchase_order_email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// Handler processes one job payload. A returned error sends the job to the DLQ.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAudit pushes an audit entry to Redis.
func (d *Dispatcher) EnqueueAudit(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueAudit, JobAudit, payload, 0)
}

// EnqueuePurchaseOrderEmail pushes a vendor notification job to Redis.
func (d *Dispatcher) EnqueuePurchaseOrderEmail(ctx context.Context, payload PurchaseOrderEmailPayload) error {
	return d.enqueue(ctx, QueueEmail, JobPurchaseOrderMail, payload, 0)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.push(ctx, queue, Job{Type: jobType, Payload: data, Attempts: attempts})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers maps job types to their processors.
type Handlers map[string]Handler

// StartWorkerPool launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int) {
	queues := []string{QueueAudit, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[job.Type]
	if !ok {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "no handler", job.Attempts+1)
		return
	}
	if err := h.Process(ctx, job.Payload); err != nil {
		log.Error().Err(err).Str("type", job.Type).Str("queue", queue).Msg("job failed")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts+1)
	}
}
