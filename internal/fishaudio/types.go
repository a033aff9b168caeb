package fishaudio

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Prosody adjusts the delivery of synthesized speech.
type Prosody struct {
	Speed *float64 `json:"speed,omitempty"`
}

// TTSRequest is the JSON body of POST /v1/tts. Optional fields are pointers
// so that an unset option is omitted rather than sent as a zero value.
type TTSRequest struct {
	Text        string   `json:"text"`
	ReferenceID string   `json:"reference_id,omitempty"`
	Format      string   `json:"format"`
	Latency     string   `json:"latency,omitempty"`
	Prosody     *Prosody `json:"prosody,omitempty"`
	SampleRate  *int     `json:"sample_rate,omitempty"`
	Normalize   *bool    `json:"normalize,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// File is one file part of a multipart upload.
type File struct {
	Data     []byte
	MimeType string
	FileName string
}

// ASRRequest describes a transcription upload.
type ASRRequest struct {
	Audio            File
	Language         string
	IgnoreTimestamps bool
}

// CreateModelRequest describes a voice-model creation upload. Tags is a
// comma-separated list.
type CreateModelRequest struct {
	Title       string
	Description string
	Visibility  string
	Tags        string
	Voices      []File
	CoverImage  *File
}

// ModelFilters narrows a voice-model listing. Tags is a comma-separated list.
type ModelFilters struct {
	SelfOnly bool
	Title    string
	Tags     string
	Language string
	SortBy   string
}

// PageQuery addresses one page of the voice-model listing.
type PageQuery struct {
	PageSize   int
	PageNumber int
	Filters    ModelFilters
}

// Values encodes the query as URL parameters. Empty filters are omitted.
func (q PageQuery) Values() url.Values {
	values := url.Values{}

	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}

	if q.PageNumber > 0 {
		values.Set("page_number", strconv.Itoa(q.PageNumber))
	}

	if q.Filters.SelfOnly {
		values.Set("self", "true")
	}

	if q.Filters.Title != "" {
		values.Set("title", q.Filters.Title)
	}

	for _, tag := range SplitList(q.Filters.Tags) {
		values.Add("tag", tag)
	}

	if q.Filters.Language != "" {
		values.Set("language", q.Filters.Language)
	}

	if q.Filters.SortBy != "" {
		values.Set("sort_by", q.Filters.SortBy)
	}

	return values
}

// ModelPage is one page of GET /model.
type ModelPage struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
}

// VoiceAuthor is the author block of a voice model.
type VoiceAuthor struct {
	Nickname string `json:"nickname"`
}

// VoiceModel holds the fields of a voice model used for display.
type VoiceModel struct {
	ID        string       `json:"_id"`
	Title     string       `json:"title"`
	TaskCount int64        `json:"task_count"`
	Author    *VoiceAuthor `json:"author"`
}
