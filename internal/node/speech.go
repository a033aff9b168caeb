package node

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/book-expert/fishaudio-service/internal/fishaudio"
)

// Speech defaults.
const (
	defaultSpeechModel        = "s1"
	defaultAudioFormat        = "mp3"
	defaultBinaryPropertyName = "data"
	fallbackAudioMimeType     = "audio/mpeg"
)

var audioMimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"opus": "audio/opus",
	"pcm":  "audio/pcm",
}

var speechModels = map[string]struct{}{
	"s1":         {},
	"speech-1.6": {},
	"speech-1.5": {},
}

var sampleRates = map[int]struct{}{
	8000:  {},
	16000: {},
	24000: {},
	32000: {},
	44100: {},
}

var latencyModes = map[string]struct{}{
	"balanced": {},
	"normal":   {},
}

// Speed bounds for prosody.speed.
const (
	minSpeed = 0.5
	maxSpeed = 2.0
)

// generateOptions is the "additionalOptions" collection of speech/generate.
type generateOptions struct {
	Latency     string   `param:"latency"`
	Speed       *float64 `param:"speed"`
	SampleRate  *int     `param:"sampleRate"`
	Normalize   *bool    `param:"normalize"`
	Temperature *float64 `param:"temperature"`
	TopP        *float64 `param:"topP"`
}

func (o generateOptions) validate() error {
	if o.Latency != "" {
		if _, ok := latencyModes[o.Latency]; !ok {
			return fmt.Errorf("%w: unknown latency mode %q", ErrInvalidParameter, o.Latency)
		}
	}

	if o.Speed != nil && (*o.Speed < minSpeed || *o.Speed > maxSpeed) {
		return fmt.Errorf("%w: speed must be between %.1f and %.1f, got %g", ErrInvalidParameter, minSpeed, maxSpeed, *o.Speed)
	}

	if o.SampleRate != nil {
		if _, ok := sampleRates[*o.SampleRate]; !ok {
			return fmt.Errorf("%w: unsupported sample rate %d", ErrInvalidParameter, *o.SampleRate)
		}
	}

	if o.Temperature != nil && (*o.Temperature < 0 || *o.Temperature > 1) {
		return fmt.Errorf("%w: temperature must be between 0 and 1, got %g", ErrInvalidParameter, *o.Temperature)
	}

	if o.TopP != nil && (*o.TopP < 0 || *o.TopP > 1) {
		return fmt.Errorf("%w: topP must be between 0 and 1, got %g", ErrInvalidParameter, *o.TopP)
	}

	return nil
}

// buildTTSRequest assembles the synthesis body. Options left unset are
// omitted from the request.
func buildTTSRequest(text, voiceID, format string, opts generateOptions) fishaudio.TTSRequest {
	req := fishaudio.TTSRequest{
		Text:        text,
		ReferenceID: voiceID,
		Format:      format,
		Latency:     opts.Latency,
		SampleRate:  opts.SampleRate,
		Normalize:   opts.Normalize,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}

	if opts.Speed != nil {
		req.Prosody = &fishaudio.Prosody{Speed: opts.Speed}
	}

	return req
}

func audioMimeType(format string) string {
	mimeType, ok := audioMimeTypes[format]
	if !ok {
		return fallbackAudioMimeType
	}

	return mimeType
}

func executeSpeechGenerate(ctx context.Context, d *Dispatcher, req OperationRequest, _ Item) ([]OperationResult, error) {
	text, err := req.RequiredString("text")
	if err != nil {
		return nil, err
	}

	voiceID, err := req.ResourceID("voiceId")
	if err != nil {
		return nil, err
	}

	model, err := req.String("model", defaultSpeechModel)
	if err != nil {
		return nil, err
	}

	if _, ok := speechModels[model]; !ok {
		return nil, fmt.Errorf("%w: unknown model %q", ErrInvalidParameter, model)
	}

	format, err := req.String("format", defaultAudioFormat)
	if err != nil {
		return nil, err
	}

	if _, ok := audioMimeTypes[format]; !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidParameter, format)
	}

	binaryPropertyName, err := req.String("binaryPropertyName", defaultBinaryPropertyName)
	if err != nil {
		return nil, err
	}

	var opts generateOptions

	err = req.Collection("additionalOptions", &opts)
	if err != nil {
		return nil, err
	}

	err = opts.validate()
	if err != nil {
		return nil, err
	}

	audio, err := d.api.GenerateSpeech(ctx, buildTTSRequest(text, voiceID, format, opts), model)
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", err)
	}

	return []OperationResult{{
		JSON: map[string]any{
			"format":     format,
			"voiceId":    voiceID,
			"textLength": textLength(text),
		},
		Binary: map[string]BinaryData{
			binaryPropertyName: {
				Data:     audio,
				MimeType: audioMimeType(format),
				FileName: "output." + format,
			},
		},
	}}, nil
}

// textLength counts UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts as two.
func textLength(text string) int {
	return len(utf16.Encode([]rune(text)))
}

// transcribeOptions is the "options" collection of speech/transcribe.
type transcribeOptions struct {
	Language          string `param:"language"`
	IncludeTimestamps *bool  `param:"includeTimestamps"`
}

func executeSpeechTranscribe(ctx context.Context, d *Dispatcher, req OperationRequest, item Item) ([]OperationResult, error) {
	binaryPropertyName, err := req.String("binaryPropertyName", defaultBinaryPropertyName)
	if err != nil {
		return nil, err
	}

	audio, err := binaryField(item, binaryPropertyName)
	if err != nil {
		return nil, err
	}

	var opts transcribeOptions

	err = req.Collection("options", &opts)
	if err != nil {
		return nil, err
	}

	includeTimestamps := opts.IncludeTimestamps == nil || *opts.IncludeTimestamps

	transcript, err := d.api.Transcribe(ctx, fishaudio.ASRRequest{
		Audio:            audio,
		Language:         opts.Language,
		IgnoreTimestamps: !includeTimestamps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe audio: %w", err)
	}

	return []OperationResult{{JSON: transcript}}, nil
}

// binaryField returns the named attachment of an item as an upload part.
func binaryField(item Item, name string) (fishaudio.File, error) {
	data, ok := item.Binary[name]
	if !ok {
		return fishaudio.File{}, fmt.Errorf("%w: %q", ErrBinaryFieldMissing, name)
	}

	return fishaudio.File{
		Data:     data.Data,
		MimeType: data.MimeType,
		FileName: data.FileName,
	}, nil
}
