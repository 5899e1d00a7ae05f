package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
)

// Consumer listens to the reservation.created queue and appends one line
// per event to LogPath.
type Consumer struct {
	URL     string
	LogPath string
	Log     *logger.Logger

	mu sync.Mutex
}

func NewConsumer(url, logPath string, log *logger.Logger) *Consumer {
	return &Consumer{URL: url, LogPath: logPath, Log: log}
}

// Run connects to RabbitMQ, declares the durable queue and consumes until
// ctx is cancelled.  Broker failures trigger a reconnect with exponential
// backoff; malformed messages are rejected without requeue so the loop
// keeps going.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("QUEUE", fmt.Sprintf("dial failed: %v; retrying in %s", err, backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		c.Log.LogQueue("CONNECT", ReservationCreatedQueue, "consumer connected")

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("QUEUE", fmt.Sprintf("consume loop ended: %v; reconnecting", err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("QUEUE", fmt.Sprintf("set QoS failed: %v", err))
	}
	if _, err := ch.QueueDeclare(ReservationCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, ReservationCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.HandleMessage(d.Body); err != nil {
			c.Log.Error("QUEUE", fmt.Sprintf("handle message failed: %v", err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends its log line.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev ReservationCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human readable line.
func FormatLine(ev ReservationCreatedEvent) string {
	seats := make([]string, 0, len(ev.Tickets))
	for _, t := range ev.Tickets {
		seats = append(seats, fmt.Sprintf("session=%d %q @ %q %s row=%d seat=%d",
			t.SessionID, t.ShowTitle, t.DomeName, t.ShowTime.UTC().Format(time.RFC3339), t.Row, t.Seat))
	}
	return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | user_id=%d | tickets=%d | [%s]\n",
		ev.CreatedAt.UTC().Format(time.RFC3339), ev.ReservationID, ev.UserID, len(ev.Tickets), strings.Join(seats, "; "))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
