package node

import (
	"context"
	"fmt"
)

func executeAccountGetCredits(ctx context.Context, d *Dispatcher, _ OperationRequest, _ Item) ([]OperationResult, error) {
	credits, err := d.api.GetCredits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get API credits: %w", err)
	}

	return []OperationResult{{JSON: credits}}, nil
}
