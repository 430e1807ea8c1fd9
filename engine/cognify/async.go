package cognify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/topoteretes/cognee-go/engine/storage"
	"github.com/topoteretes/cognee-go/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

const (
	// TriggerSubject is the NATS subject a cognify_pipeline run is
	// requested on: Add() publishes here instead of running cognify
	// inline, so ingestion latency doesn't block the caller.
	TriggerSubject = "cognee.cognify.trigger"
	// DLQSubject receives triggers that failed MaxRetries times.
	DLQSubject = "cognee.cognify.dlq"
	// MaxRetries before a failing trigger is dead-lettered.
	MaxRetries = 3
)

// Trigger is the message published to TriggerSubject: enough to load the
// document bytes and run them through a dataset's cognify pipeline.
type Trigger struct {
	OwnerID   string `json:"owner_id"`
	DatasetID string `json:"dataset_id"`
	DocID     string `json:"doc_id"`
	Path      string `json:"path"`
	Strategy  ChunkStrategy `json:"strategy"`
}

// dlqMessage is published to DLQSubject on repeated failure.
type dlqMessage struct {
	Trigger Trigger `json:"trigger"`
	Error   string  `json:"error"`
	Retries int     `json:"retries"`
}

// PipelineFor resolves a (owner, dataset) pair to the Config its cognify
// run should use — in practice backed by engine/router's per-dataset
// store handles.
type PipelineFor func(ctx context.Context, ownerID, datasetID string) (Config, error)

// StartConsumer subscribes to TriggerSubject and runs each trigger
// through DefaultPipeline, retrying transient failures up to MaxRetries
// before publishing to DLQSubject — the same retry/DLQ shape the
// teacher's ingestion consumer used for scraped posts. dedupe may be nil
// to disable redelivery protection; when set, a doc_id already marked
// seen is acknowledged without re-running the pipeline.
func StartConsumer(nc *nats.Conn, files storage.FileStorage, pipelineFor PipelineFor, dedupe Dedupe, log *slog.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(TriggerSubject, func(msg *nats.Msg) {
		var trig Trigger
		if err := json.Unmarshal(msg.Data, &trig); err != nil {
			log.Error("cognify: unmarshal trigger failed", "error", err)
			return
		}

		ctx := context.Background()
		retries := retryCount(msg)

		if dedupe != nil {
			if seen, err := dedupe.Seen(trig.DocID); err != nil {
				log.Warn("cognify: dedupe lookup failed", "error", err, "doc_id", trig.DocID)
			} else if seen {
				log.Info("cognify: trigger already processed, skipping", "doc_id", trig.DocID)
				return
			}
		}

		if err := runTrigger(ctx, trig, files, pipelineFor); err != nil {
			retries++
			log.Error("cognify: trigger failed", "error", err, "doc_id", trig.DocID, "retry", retries)

			if retries >= MaxRetries {
				dlq := dlqMessage{Trigger: trig, Error: err.Error(), Retries: retries}
				if pubErr := natsutil.Publish(ctx, nc, DLQSubject, dlq); pubErr != nil {
					log.Error("cognify: dlq publish failed", "error", pubErr)
				}
				return
			}

			retryMsg := nats.NewMsg(TriggerSubject)
			retryMsg.Data = msg.Data
			retryMsg.Header = nats.Header{}
			retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
			if pubErr := nc.PublishMsg(retryMsg); pubErr != nil {
				log.Error("cognify: retry publish failed", "error", pubErr)
			}
			return
		}

		if dedupe != nil {
			if err := dedupe.MarkSeen(trig.DocID); err != nil {
				log.Warn("cognify: dedupe mark failed", "error", err, "doc_id", trig.DocID)
			}
		}
		log.Info("cognify: trigger succeeded", "doc_id", trig.DocID, "dataset_id", trig.DatasetID)
	})
}

func retryCount(msg *nats.Msg) int {
	if msg.Header == nil {
		return 0
	}
	retries := 0
	fmt.Sscanf(msg.Header.Get("X-Retry-Count"), "%d", &retries)
	return retries
}

func runTrigger(ctx context.Context, trig Trigger, files storage.FileStorage, pipelineFor PipelineFor) error {
	body, err := files.Read(ctx, trig.Path)
	if err != nil {
		return fmt.Errorf("cognify: read %s: %w", trig.Path, err)
	}

	cfg, err := pipelineFor(ctx, trig.OwnerID, trig.DatasetID)
	if err != nil {
		return fmt.Errorf("cognify: resolve pipeline for dataset %s: %w", trig.DatasetID, err)
	}
	cfg.DatasetID = trig.DatasetID

	pipeline := DefaultPipeline(cfg)
	_, err = pipeline.Run(ctx, Document{ID: trig.DocID, Text: string(body), Strategy: trig.Strategy})
	if err != nil {
		return fmt.Errorf("cognify: run pipeline: %w", err)
	}
	return nil
}
