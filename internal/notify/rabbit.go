package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/logger/adapter/stdlogger"
)

// RabbitQueue publishes jobs to a durable rabbitmq queue and consumes them.
type RabbitQueue struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	workers  int

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewRabbitQueue connects and declares a direct exchange bound to a durable queue.
func NewRabbitQueue(url, exchange, queue string, workers int) (*RabbitQueue, error) {
	amqp.SetLogger(stdlogger.New("amqp"))

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	q := &RabbitQueue{conn: conn, channel: ch, exchange: exchange, queue: queue, workers: max(workers, 1)}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	if err := ch.Qos(q.workers, 0, false); err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	log.Info().Str("exchange", exchange).Str("queue", queue).Msg("RabbitMQ notification queue initialized")

	return q, nil
}

// Publish implements Publisher.
func (q *RabbitQueue) Publish(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.channel.PublishWithContext(ctx, q.exchange, q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job %s: %w", job.ID, err)
	}

	return nil
}

// Start consumes the queue on the configured number of goroutines.
// Undecodable messages are dropped, failed jobs are requeued.
func (q *RabbitQueue) Start(ctx context.Context, h Handler) error {
	msgs, err := q.channel.ConsumeWithContext(ctx, q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", q.queue, err)
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)

		go func() {
			defer q.wg.Done()

			for d := range msgs {
				q.handle(ctx, d, h)
			}
		}()
	}

	log.Info().Str("queue", q.queue).Int("workers", q.workers).Msg("Started consuming notification jobs")

	return nil
}

func (q *RabbitQueue) handle(ctx context.Context, d amqp.Delivery, h Handler) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("Dropping undecodable notification job")
		_ = d.Nack(false, false)

		return
	}

	if err := h(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Bool("redelivered", d.Redelivered).Msg("Notification job failed")
		// one retry, then drop
		_ = d.Nack(false, !d.Redelivered)

		return
	}

	_ = d.Ack(false)
}

// Close closes channel and connection and waits for running handlers.
func (q *RabbitQueue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}

	var err error
	if q.conn != nil {
		err = q.conn.Close()
	}

	q.wg.Wait()
	log.Info().Msg("RabbitMQ connection closed")

	return err
}
