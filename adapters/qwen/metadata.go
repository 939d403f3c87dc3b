package qwen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/voxkit/qwentts/domain/entities"
)

// ServiceConfig fetches the service's configuration document. It is a
// one-shot call, independent of any synthesis job.
func (c *Client) ServiceConfig(ctx context.Context) (*entities.ServiceMetadata, error) {
	reqCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/config", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service config: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read service config: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	metadata := &entities.ServiceMetadata{}
	if err := json.Unmarshal(body, metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(body, &metadata.Raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	c.logger.Info("Fetched service config",
		zap.Int("components", len(metadata.Components)))

	return metadata, nil
}

// Voices returns the voice options the service advertises.
func (c *Client) Voices(ctx context.Context) ([]string, error) {
	metadata, err := c.ServiceConfig(ctx)
	if err != nil {
		return nil, err
	}
	return metadata.DropdownChoices("voice"), nil
}

// Languages returns the language options the service advertises.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	metadata, err := c.ServiceConfig(ctx)
	if err != nil {
		return nil, err
	}
	return metadata.DropdownChoices("language"), nil
}
