package worker

import "github.com/book-expert/events"

// BinaryRef points at an attachment held in the object store.
type BinaryRef struct {
	Key      string `json:"key"`
	MimeType string `json:"mime_type,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// JobItem is one input record of a job.
type JobItem struct {
	JSON       map[string]any       `json:"json,omitempty"`
	Parameters map[string]any       `json:"parameters,omitempty"`
	Binary     map[string]BinaryRef `json:"binary,omitempty"`
}

// JobRequest asks the worker to run one resource/operation over a set of items.
type JobRequest struct {
	Header         events.EventHeader `json:"header"`
	Resource       string             `json:"resource"`
	Operation      string             `json:"operation"`
	ContinueOnFail bool               `json:"continue_on_fail"`
	Items          []JobItem          `json:"items"`
}

// JobResultItem is one output record of a job.
type JobResultItem struct {
	JSON            map[string]any       `json:"json"`
	Binary          map[string]BinaryRef `json:"binary,omitempty"`
	SourceItemIndex int                  `json:"source_item_index"`
	Error           string               `json:"error,omitempty"`
}

// JobResult is the reply to a JobRequest. Error is set when the job failed
// as a whole; Items then holds whatever completed before the failure.
type JobResult struct {
	Header events.EventHeader `json:"header"`
	Items  []JobResultItem    `json:"items"`
	Error  string             `json:"error,omitempty"`
}
