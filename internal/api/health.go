package api

import "context"

// Health calls /api/health and returns its status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	data, err := c.get(ctx, "/api/health", nil)
	if err != nil {
		return "", err
	}

	payload, err := decode[struct {
		Status string `json:"status"`
	}](data)
	if err != nil {
		return "", err
	}
	return payload.Status, nil
}
