// Package worker provides a NATS worker that executes Fish Audio jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/book-expert/fishaudio-service/internal/core"
	"github.com/book-expert/fishaudio-service/internal/node"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 5 * time.Minute

var (
	// ErrNoReplySubject indicates a job arrived without a reply subject.
	ErrNoReplySubject = errors.New("job message has no reply subject")
	// ErrEmptyBinaryKey indicates a binary reference without an object key.
	ErrEmptyBinaryKey = errors.New("binary reference has empty key")
)

// Executor runs a batch of items through the operation router.
// *node.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, batch node.Batch, policy node.ErrorPolicy) ([]node.OperationResult, error)
}

// NatsWorker listens for jobs on a NATS subject and replies with their results.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	executor       Executor
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	executor Executor,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		executor:       executor,
		log:            log,
	}, nil
}

// Run starts the worker and blocks until ctx is done. Messages are handled
// one at a time in arrival order.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for jobs on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	if msg.Reply == "" {
		w.log.Error("Dropping job on %s: %v", msg.Subject, ErrNoReplySubject)

		return
	}

	var job JobRequest

	err := json.Unmarshal(msg.Data, &job)
	if err != nil {
		w.log.Error("Failed to unmarshal job: %v", err)
		w.reply(msg, &JobResult{Error: fmt.Sprintf("failed to unmarshal job: %v", err)})

		return
	}

	result := w.processJob(ctx, &job)
	if result.Error != "" {
		w.log.Error("Job %s (%s/%s) failed: %s", job.Header.WorkflowID, job.Resource, job.Operation, result.Error)
	}

	w.reply(msg, result)
}

// processJob resolves input binaries, runs the batch and stores output binaries.
func (w *NatsWorker) processJob(ctx context.Context, job *JobRequest) *JobResult {
	result := &JobResult{Header: job.Header, Items: []JobResultItem{}}

	route := node.Route{Resource: node.Resource(job.Resource), Operation: node.Operation(job.Operation)}
	if !node.Supported(route) {
		result.Error = fmt.Errorf("%w: %s", node.ErrUnsupportedOperation, route).Error()

		return result
	}

	policy := node.StopOnError
	if job.ContinueOnFail {
		policy = node.ContinueOnError
	}

	outputs, execErr := w.executor.Execute(ctx, w.buildBatch(ctx, route, job), policy)

	for _, output := range outputs {
		item, storeErr := w.storeResult(ctx, output)
		if storeErr != nil {
			result.Error = storeErr.Error()

			return result
		}

		result.Items = append(result.Items, item)
	}

	if execErr != nil {
		result.Error = execErr.Error()
	}

	return result
}

// buildBatch converts job items into batch items. An attachment that cannot
// be downloaded fails only the item that references it.
func (w *NatsWorker) buildBatch(ctx context.Context, route node.Route, job *JobRequest) node.Batch {
	batch := node.Batch{
		Resource:  route.Resource,
		Operation: route.Operation,
		Items:     make([]node.Item, 0, len(job.Items)),
	}

	for _, jobItem := range job.Items {
		item := node.Item{
			JSON:       jobItem.JSON,
			Parameters: jobItem.Parameters,
			Binary:     make(map[string]node.BinaryData, len(jobItem.Binary)),
		}

		for field, ref := range jobItem.Binary {
			data, err := w.downloadBinary(ctx, ref)
			if err != nil {
				item.Err = fmt.Errorf("field %q: %w", field, err)

				break
			}

			item.Binary[field] = data
		}

		batch.Items = append(batch.Items, item)
	}

	return batch
}

func (w *NatsWorker) downloadBinary(ctx context.Context, ref BinaryRef) (node.BinaryData, error) {
	if ref.Key == "" {
		return node.BinaryData{}, ErrEmptyBinaryKey
	}

	obj, err := w.store.Download(ctx, ref.Key)
	if err != nil {
		return node.BinaryData{}, fmt.Errorf("failed to download binary '%s': %w", ref.Key, err)
	}

	data := node.BinaryData{Data: obj.Data, MimeType: obj.MimeType, FileName: obj.FileName}

	if ref.MimeType != "" {
		data.MimeType = ref.MimeType
	}

	if ref.FileName != "" {
		data.FileName = ref.FileName
	}

	return data, nil
}

func (w *NatsWorker) storeResult(ctx context.Context, output node.OperationResult) (JobResultItem, error) {
	item := JobResultItem{
		JSON:            output.JSON,
		SourceItemIndex: output.SourceItemIndex,
		Error:           output.Error,
	}

	if len(output.Binary) == 0 {
		return item, nil
	}

	item.Binary = make(map[string]BinaryRef, len(output.Binary))

	for field, data := range output.Binary {
		key := uuid.NewString() + filepath.Ext(data.FileName)

		err := w.store.Upload(ctx, key, core.Object{
			Data:     data.Data,
			MimeType: data.MimeType,
			FileName: data.FileName,
		})
		if err != nil {
			return JobResultItem{}, fmt.Errorf("failed to upload binary for key '%s': %w", key, err)
		}

		item.Binary[field] = BinaryRef{Key: key, MimeType: data.MimeType, FileName: data.FileName}
	}

	return item, nil
}

// reply marshals and responds with the JobResult.
func (w *NatsWorker) reply(msg *nats.Msg, result *JobResult) {
	replyData, err := json.Marshal(result)
	if err != nil {
		w.log.Error("Failed to marshal job result: %v", err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish job result: %v", err)
	}
}
