package node

import (
	"context"
	"fmt"

	"github.com/book-expert/fishaudio-service/internal/fishaudio"
	"github.com/book-expert/logger"
)

// Log formats.
const (
	logFmtBatchStarted   = "Executing %s for %d item(s)"
	logFmtBatchFinished  = "Finished %s: %d result(s)"
	logFmtItemContinued  = "Item %d of %s failed, continuing: %v"
	logFmtItemAborted    = "Item %d of %s failed, aborting batch: %v"
	logFmtUnsupported    = "Rejected unsupported operation %s"
	errFmtItemFailed     = "item %d: %w"
	resultErrorFieldName = "error"
)

// API is the subset of the Fish Audio client the handlers use.
// *fishaudio.Client implements it.
type API interface {
	fishaudio.PageLister
	GenerateSpeech(ctx context.Context, req fishaudio.TTSRequest, model string) ([]byte, error)
	Transcribe(ctx context.Context, req fishaudio.ASRRequest) (map[string]any, error)
	GetCredits(ctx context.Context) (map[string]any, error)
	GetModel(ctx context.Context, id string) (map[string]any, error)
	DeleteModel(ctx context.Context, id string) error
	CreateModel(ctx context.Context, req fishaudio.CreateModelRequest) (map[string]any, error)
}

// ErrorPolicy decides what a per-item failure does to the rest of a batch.
type ErrorPolicy int

const (
	// StopOnError returns the first failure and skips the remaining items.
	StopOnError ErrorPolicy = iota
	// ContinueOnError records the failure as a result and moves on.
	ContinueOnError
)

// BinaryData is an attachment on an input or output record.
type BinaryData struct {
	Data     []byte
	MimeType string
	FileName string
}

// Item is one input record. A non-nil Err marks an item that could not be
// prepared; it fails at its own index without reaching the API.
type Item struct {
	JSON       map[string]any
	Parameters map[string]any
	Binary     map[string]BinaryData
	Err        error
}

// OperationResult is one output record. SourceItemIndex is the index of the
// input item that produced it. Error is set only for records produced by a
// failure under ContinueOnError.
type OperationResult struct {
	JSON            map[string]any
	Binary          map[string]BinaryData
	SourceItemIndex int
	Error           string
}

// Batch is a set of input records sharing one resource/operation pair.
type Batch struct {
	Resource  Resource
	Operation Operation
	Items     []Item
}

// Route returns the batch's resource/operation pair.
func (b Batch) Route() Route {
	return Route{Resource: b.Resource, Operation: b.Operation}
}

// Dispatcher executes batches against the Fish Audio API. It keeps no state
// between calls.
type Dispatcher struct {
	api API
	log *logger.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(api API, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		api: api,
		log: log,
	}
}

// Execute runs the batch's operation for each item in index order.
//
// An unknown resource/operation pair fails with ErrUnsupportedOperation
// before any request is sent, regardless of policy.
func (d *Dispatcher) Execute(ctx context.Context, batch Batch, policy ErrorPolicy) ([]OperationResult, error) {
	route := batch.Route()

	entry, ok := lookupRoute(route)
	if !ok {
		d.log.Error(logFmtUnsupported, route)

		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, route)
	}

	items := batch.Items
	if entry.once && len(items) > 1 {
		items = items[:1]
	}

	d.log.Info(logFmtBatchStarted, route, len(items))

	results := make([]OperationResult, 0, len(items))

	for index, item := range items {
		err := ctx.Err()
		if err != nil {
			return results, fmt.Errorf(errFmtItemFailed, index, err)
		}

		var itemResults []OperationResult

		if item.Err != nil {
			err = item.Err
		} else {
			itemResults, err = entry.handle(ctx, d, newOperationRequest(route, index, item.Parameters), item)
		}

		if err != nil {
			if policy != ContinueOnError {
				d.log.Error(logFmtItemAborted, index, route, err)

				return results, fmt.Errorf(errFmtItemFailed, index, err)
			}

			d.log.Warn(logFmtItemContinued, index, route, err)
			results = append(results, failureResult(index, err))

			continue
		}

		for i := range itemResults {
			itemResults[i].SourceItemIndex = index
		}

		results = append(results, itemResults...)
	}

	d.log.Info(logFmtBatchFinished, route, len(results))

	return results, nil
}

func failureResult(index int, err error) OperationResult {
	return OperationResult{
		JSON:            map[string]any{resultErrorFieldName: err.Error()},
		SourceItemIndex: index,
		Error:           err.Error(),
	}
}
