package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/book-expert/fishaudio-service/internal/fishaudio"
)

const (
	voiceSearchPageSize = 50
	voicePageURLPrefix  = "https://fish.audio/m/"
	voiceMetaSeparator  = " · "
)

// VoiceOption is one entry of a voice picker.
type VoiceOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	URL   string `json:"url"`
}

// SearchVoices returns voice models whose title matches filter, formatted
// for a picker. An empty filter lists the first page unfiltered.
func (d *Dispatcher) SearchVoices(ctx context.Context, filter string) ([]VoiceOption, error) {
	page, err := d.api.ListModels(ctx, fishaudio.PageQuery{
		PageSize: voiceSearchPageSize,
		Filters:  fishaudio.ModelFilters{Title: strings.TrimSpace(filter)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search voices: %w", err)
	}

	options := make([]VoiceOption, 0, len(page.Items))

	for _, raw := range page.Items {
		var voice fishaudio.VoiceModel

		err = json.Unmarshal(raw, &voice)
		if err != nil {
			return nil, fmt.Errorf("failed to decode voice model: %w", err)
		}

		options = append(options, VoiceOption{
			Name:  voiceDisplayName(voice),
			Value: voice.ID,
			URL:   voicePageURLPrefix + voice.ID,
		})
	}

	return options, nil
}

// voiceDisplayName renders "title (author · N uses)", dropping the
// parenthetical when neither part is known.
func voiceDisplayName(voice fishaudio.VoiceModel) string {
	var meta []string

	if voice.Author != nil && voice.Author.Nickname != "" {
		meta = append(meta, voice.Author.Nickname)
	}

	if voice.TaskCount > 0 {
		meta = append(meta, groupThousands(voice.TaskCount)+" uses")
	}

	if len(meta) == 0 {
		return voice.Title
	}

	return voice.Title + " (" + strings.Join(meta, voiceMetaSeparator) + ")"
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)

	var builder strings.Builder

	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			builder.WriteByte(',')
		}

		builder.WriteRune(digit)
	}

	return builder.String()
}
