package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptvault/internal/metrics"
	"promptvault/internal/queue"
)

// Dispatcher delivers queued webhook payloads. It runs inside the worker
// process; failed deliveries are retried by asynq.
type Dispatcher struct {
	db         *pgxpool.Pool
	httpClient *http.Client
}

func NewDispatcher(db *pgxpool.Pool, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		db: db,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (d *Dispatcher) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal delivery payload: %w", err)
	}

	metrics.Global().WebhookDeliveries.Inc()

	body := []byte(p.Body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", p.Event)
	req.Header.Set("X-Webhook-Signature", sign(body, p.Secret))
	req.Header.Set("X-Webhook-ID", p.WebhookID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		metrics.Global().WebhookFailures.Inc()
		d.recordDelivery(ctx, p, 0)
		return fmt.Errorf("deliver webhook %s: %w", p.WebhookID, err)
	}
	defer resp.Body.Close()

	d.recordDelivery(ctx, p, resp.StatusCode)

	if resp.StatusCode >= 400 {
		metrics.Global().WebhookFailures.Inc()
		return fmt.Errorf("webhook %s returned status %d", p.WebhookID, resp.StatusCode)
	}

	slog.Info("webhook delivered", "webhook_id", p.WebhookID, "event", p.Event, "status", resp.StatusCode)
	return nil
}

func (d *Dispatcher) recordDelivery(ctx context.Context, p queue.WebhookDeliverPayload, status int) {
	var deliveredAt *time.Time
	if status > 0 && status < 400 {
		now := time.Now()
		deliveredAt = &now
	}

	_, err := d.db.Exec(ctx,
		`INSERT INTO webhook_deliveries (webhook_id, event, payload, response_status, attempts, delivered_at)
		 VALUES ($1, $2, $3, $4, 1, $5)`,
		p.WebhookID, p.Event, []byte(p.Body), status, deliveredAt,
	)
	if err != nil {
		slog.Error("record webhook delivery", "error", err)
	}
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}
