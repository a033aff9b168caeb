package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/book-expert/fishaudio-service/internal/fishaudio"
)

// Voice-model defaults.
const (
	defaultListLimit       = 50
	defaultVisibility      = "private"
	defaultVoiceAudioField = "data"
)

var visibilities = map[string]struct{}{
	"private":  {},
	"public":   {},
	"unlisted": {},
}

var sortOrders = map[string]struct{}{
	"task_count": {},
	"created_at": {},
}

// listFilters is the "filters" collection of voiceModel/list.
type listFilters struct {
	Language string `param:"language"`
	SelfOnly bool   `param:"selfOnly"`
	SortBy   string `param:"sortBy"`
	Tags     string `param:"tags"`
	Title    string `param:"title"`
}

func executeVoiceModelList(ctx context.Context, d *Dispatcher, req OperationRequest, _ Item) ([]OperationResult, error) {
	returnAll, err := req.Bool("returnAll", false)
	if err != nil {
		return nil, err
	}

	limit, err := req.Int("limit", defaultListLimit)
	if err != nil {
		return nil, err
	}

	if !returnAll && (limit < 1 || limit > fishaudio.MaxPageSize) {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidParameter, fishaudio.MaxPageSize, limit)
	}

	var filters listFilters

	err = req.Collection("filters", &filters)
	if err != nil {
		return nil, err
	}

	if filters.SortBy != "" {
		if _, ok := sortOrders[filters.SortBy]; !ok {
			return nil, fmt.Errorf("%w: unknown sort order %q", ErrInvalidParameter, filters.SortBy)
		}
	}

	query := fishaudio.PageQuery{
		PageSize: limit,
		Filters: fishaudio.ModelFilters{
			SelfOnly: filters.SelfOnly,
			Title:    filters.Title,
			Tags:     filters.Tags,
			Language: filters.Language,
			SortBy:   filters.SortBy,
		},
	}

	if returnAll {
		query.PageSize = fishaudio.MaxPageSize
	}

	var results []OperationResult

	for raw, fetchErr := range fishaudio.FetchAll(ctx, d.api, query, returnAll) {
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to list voice models: %w", fetchErr)
		}

		model, decodeErr := decodeObject(raw)
		if decodeErr != nil {
			return nil, decodeErr
		}

		results = append(results, OperationResult{JSON: model})

		if !returnAll && len(results) >= limit {
			break
		}
	}

	return results, nil
}

func executeVoiceModelGet(ctx context.Context, d *Dispatcher, req OperationRequest, _ Item) ([]OperationResult, error) {
	modelID, err := req.RequiredResourceID("modelId")
	if err != nil {
		return nil, err
	}

	model, err := d.api.GetModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice model %s: %w", modelID, err)
	}

	return []OperationResult{{JSON: model}}, nil
}

func executeVoiceModelDelete(ctx context.Context, d *Dispatcher, req OperationRequest, _ Item) ([]OperationResult, error) {
	modelID, err := req.RequiredResourceID("modelId")
	if err != nil {
		return nil, err
	}

	err = d.api.DeleteModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete voice model %s: %w", modelID, err)
	}

	return []OperationResult{{JSON: map[string]any{"id": modelID, "deleted": true}}}, nil
}

// createOptions is the "options" collection of voiceModel/create.
type createOptions struct {
	Description     string `param:"description"`
	Visibility      string `param:"visibility"`
	Tags            string `param:"tags"`
	CoverImageField string `param:"coverImageField"`
}

func executeVoiceModelCreate(ctx context.Context, d *Dispatcher, req OperationRequest, item Item) ([]OperationResult, error) {
	title, err := req.RequiredString("title")
	if err != nil {
		return nil, err
	}

	voiceAudioField, err := req.String("voiceAudioField", defaultVoiceAudioField)
	if err != nil {
		return nil, err
	}

	fields := fishaudio.SplitList(voiceAudioField)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingRequiredParameter, "voiceAudioField")
	}

	voices := make([]fishaudio.File, 0, len(fields))

	for _, field := range fields {
		voice, fieldErr := binaryField(item, field)
		if fieldErr != nil {
			return nil, fieldErr
		}

		voices = append(voices, voice)
	}

	var opts createOptions

	err = req.Collection("options", &opts)
	if err != nil {
		return nil, err
	}

	if opts.Visibility == "" {
		opts.Visibility = defaultVisibility
	}

	if _, ok := visibilities[opts.Visibility]; !ok {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidParameter, opts.Visibility)
	}

	createReq := fishaudio.CreateModelRequest{
		Title:       title,
		Description: opts.Description,
		Visibility:  opts.Visibility,
		Tags:        opts.Tags,
		Voices:      voices,
	}

	coverField := strings.TrimSpace(opts.CoverImageField)
	if coverField != "" {
		cover, coverErr := binaryField(item, coverField)
		if coverErr != nil {
			return nil, coverErr
		}

		createReq.CoverImage = &cover
	}

	model, err := d.api.CreateModel(ctx, createReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice model: %w", err)
	}

	return []OperationResult{{JSON: model}}, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	var object map[string]any

	err := json.Unmarshal(raw, &object)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voice model: %w", err)
	}

	return object, nil
}
