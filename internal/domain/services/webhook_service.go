package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinel-lab/internal/config"
	"sentinel-lab/internal/streaming"
	"sentinel-lab/pkg/logger"
)

const webhookMaxAttempts = 3

// WebhookService pushes engagement events to the endpoints declared
// in configuration. Deliveries are queued and processed by a fixed
// worker pool; a full queue drops rather than blocks.
type WebhookService struct {
	endpoints  []config.WebhookEndpoint
	queue      chan *webhookDelivery
	httpClient *http.Client
	logger     *logger.Logger

	wg          sync.WaitGroup
	stopCh      chan struct{}
	stopOnce    sync.Once
	workerCount int
}

type webhookDelivery struct {
	endpoint config.WebhookEndpoint
	event    *streaming.EngagementEvent
	id       string
	attempt  int
}

// NewWebhookService creates a webhook service and starts its workers
func NewWebhookService(cfg config.WebhooksConfig, log *logger.Logger) *WebhookService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 3
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	svc := &WebhookService{
		endpoints: cfg.Endpoints,
		queue:     make(chan *webhookDelivery, queueSize),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:      log.WithComponent("webhook-service"),
		stopCh:      make(chan struct{}),
		workerCount: workers,
	}

	for i := 0; i < workers; i++ {
		svc.wg.Add(1)
		go svc.deliveryWorker(i)
	}
	svc.logger.Info().
		Int("workers", workers).
		Int("endpoints", len(cfg.Endpoints)).
		Msg("webhook delivery workers started")

	return svc
}

// Stop drains nothing; in-flight deliveries finish, queued ones are
// abandoned.
func (s *WebhookService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.logger.Info().Msg("webhook service stopped")
	})
}

// Notify queues the event for every endpoint whose filter matches
func (s *WebhookService) Notify(event *streaming.EngagementEvent) {
	for _, ep := range s.endpoints {
		if !endpointMatches(ep, event.Type) {
			continue
		}
		job := &webhookDelivery{
			endpoint: ep,
			event:    event,
			id:       uuid.New().String(),
			attempt:  0,
		}
		select {
		case s.queue <- job:
		default:
			s.logger.Warn().Str("url", ep.URL).Msg("delivery queue full, dropping webhook")
		}
	}
}

// endpointMatches checks the endpoint's event filter; an empty filter
// matches everything, and "scam.*"-style prefixes are honored.
func endpointMatches(ep config.WebhookEndpoint, eventType streaming.EventType) bool {
	if len(ep.Events) == 0 {
		return true
	}
	for _, e := range ep.Events {
		if e == "*" || e == string(eventType) {
			return true
		}
		if strings.HasSuffix(e, ".*") && strings.HasPrefix(string(eventType), strings.TrimSuffix(e, ".*")) {
			return true
		}
	}
	return false
}

func (s *WebhookService) deliveryWorker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			s.logger.Debug().Int("worker", id).Msg("webhook worker stopping")
			return
		case job := <-s.queue:
			s.processDelivery(job)
		}
	}
}

func (s *WebhookService) processDelivery(job *webhookDelivery) {
	start := time.Now()

	payload, err := json.Marshal(job.event)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal webhook payload")
		return
	}

	req, err := http.NewRequest(http.MethodPost, job.endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		s.logger.Error().Err(err).Str("url", job.endpoint.URL).Msg("failed to create webhook request")
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Sentinel-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", string(job.event.Type))
	req.Header.Set("X-Webhook-Delivery", job.id)
	req.Header.Set("X-Webhook-Timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	if job.endpoint.Secret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+signPayload(payload, job.endpoint.Secret))
	}

	job.attempt++
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.retryOrDrop(job, err.Error())
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.logger.Info().
			Str("url", job.endpoint.URL).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("webhook delivered")
		return
	}

	s.retryOrDrop(job, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)))
}

// retryOrDrop requeues with linear backoff until the attempt budget
// is spent.
func (s *WebhookService) retryOrDrop(job *webhookDelivery, errMsg string) {
	if job.attempt >= webhookMaxAttempts {
		s.logger.Warn().
			Str("url", job.endpoint.URL).
			Int("attempts", job.attempt).
			Str("error", errMsg).
			Msg("webhook delivery abandoned")
		return
	}

	s.logger.Debug().
		Str("url", job.endpoint.URL).
		Int("attempt", job.attempt).
		Str("error", errMsg).
		Msg("webhook delivery failed, retrying")

	go func() {
		select {
		case <-time.After(time.Duration(job.attempt) * 2 * time.Second):
		case <-s.stopCh:
			return
		}
		select {
		case s.queue <- job:
		default:
		}
	}()
}

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
