package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/fishaudio-service/internal/node"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const itemsKey = "items"

var (
	errUnknownParamFormat = errors.New("unsupported parameter file extension")
	errBadInputFlag       = errors.New("input must be field=path")
	errBadItemsEntry      = errors.New("items entries must be tables")
)

// loadParamFile reads per-item parameters from a TOML or YAML file. A file
// with a top-level "items" array yields one parameter set per entry;
// otherwise the whole document is a single item's parameters.
func loadParamFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}

	doc := map[string]any{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownParamFormat, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}

	rawItems, ok := doc[itemsKey].([]any)
	if !ok {
		return []map[string]any{doc}, nil
	}

	items := make([]map[string]any, 0, len(rawItems))

	for index, raw := range rawItems {
		params, isMap := raw.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("%w: entry %d", errBadItemsEntry, index)
		}

		items = append(items, params)
	}

	return items, nil
}

// parseInputs reads the files named by field=path flags.
func parseInputs(inputs []string) (map[string]node.BinaryData, error) {
	binary := make(map[string]node.BinaryData, len(inputs))

	for _, input := range inputs {
		field, path, ok := strings.Cut(input, "=")
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("%w: %q", errBadInputFlag, input)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %s: %w", path, err)
		}

		binary[field] = node.BinaryData{
			Data:     data,
			MimeType: mime.TypeByExtension(filepath.Ext(path)),
			FileName: filepath.Base(path),
		}
	}

	return binary, nil
}

// buildItems pairs every parameter set with the same attachments.
func buildItems(paramSets []map[string]any, binary map[string]node.BinaryData) []node.Item {
	if len(paramSets) == 0 {
		paramSets = []map[string]any{{}}
	}

	items := make([]node.Item, 0, len(paramSets))

	for _, params := range paramSets {
		items = append(items, node.Item{Parameters: params, Binary: binary})
	}

	return items
}

// writeOutputs saves output attachments under dir as <index>-<field>-<file name>
// and returns the written paths. Only the last path element of the field and
// file name is used, so every file lands directly in dir.
func writeOutputs(dir string, results []node.OperationResult) ([]string, error) {
	var written []string

	for index, result := range results {
		for field, data := range result.Binary {
			if len(written) == 0 {
				err := os.MkdirAll(dir, 0o750)
				if err != nil {
					return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
				}
			}

			name := fmt.Sprintf("%d-%s-%s", index, filepath.Base(field), filepath.Base(data.FileName))
			path := filepath.Join(dir, name)

			err := os.WriteFile(path, data.Data, 0o600)
			if err != nil {
				return written, fmt.Errorf("failed to write output %s: %w", path, err)
			}

			written = append(written, path)
		}
	}

	return written, nil
}
