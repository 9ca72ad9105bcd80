package main

// Consume document.ingested events and verify each stored document:
//   EVENTS_SQS_QUEUE_URL=... go run ./cmd/worker

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"docsearch-backend/internal/bootstrap"
	"docsearch-backend/internal/shared/config"
	"docsearch-backend/internal/shared/metrics"
	"docsearch-backend/internal/shared/storage/db"
	"docsearch-backend/internal/shared/telemetry"
	"docsearch-backend/internal/workerproc"
)

const (
	defaultRegion             = "us-east-1"
	defaultVisibilitySeconds  = 120
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	queueURL := strings.TrimSpace(cfg.EventsQueueURL)
	if queueURL == "" {
		log.Fatal("EVENTS_SQS_QUEUE_URL is required")
	}
	// The verifier only reads; it must not publish events of its own.
	cfg.EventsQueueURL = ""

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("WORKER_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	region := cfg.AWSRegion
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(ctx, cfg, db.DefaultServerOptions())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close(context.Background())
	verifier := &workerproc.Verifier{Repo: app.Repo, Archive: app.Archive}

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue_url":   queueURL,
		"concurrency": concurrency,
		"visibility":  visibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncEventsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, queueURL, verifier, m)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{})
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage verifies one event. Messages that can never verify are deleted;
// retryable failures stay on the queue until their visibility timeout lapses.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, v *workerproc.Verifier, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	err := workerproc.HandleMessage(ctx, v, body)
	if err == nil {
		if deleteMessage(ctx, client, queueURL, msg) {
			telemetry.Info("worker.event.verified", baseFields(msg, body))
			metrics.IncEventsVerified()
		}
		return
	}

	fields := baseFields(msg, body)
	fields["error"] = err.Error()

	if workerproc.Retryable(err) {
		telemetry.Error("worker.event.failed", fields)
		metrics.IncEventsFailed()
		return
	}

	reason := dropReason(err)
	fields["reason"] = reason
	telemetry.Error("worker.event.dropped", fields)
	if deleteMessage(ctx, client, queueURL, msg) {
		metrics.IncEventsDropped(reason)
	}
}

func dropReason(err error) string {
	var (
		empty    workerproc.ErrEmptyBody
		decode   workerproc.ErrDecode
		invalid  workerproc.ErrInvalidEvent
		mismatch workerproc.ErrMismatch
	)
	switch {
	case errors.As(err, &empty):
		return "empty_body"
	case errors.As(err, &decode):
		return "decode_failed"
	case errors.As(err, &invalid):
		return "invalid_event"
	case errors.As(err, &mismatch):
		return "mismatch"
	default:
		return "unrecoverable"
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, "")
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, "")
		fields["error"] = err.Error()
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, body string) map[string]any {
	meta := workerproc.ComputeMeta(body)
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
		"body_len":       meta.BodyLen,
	}
	if parsed, _, err := workerproc.ParseMessage(body); err == nil {
		fields["document_id"] = parsed.DocumentID
		if parsed.RequestID != "" {
			fields["request_id"] = parsed.RequestID
		}
	} else if meta.BodySHA != "" {
		fields["body_sha256"] = meta.BodySHA
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
