package essent

import (
	"context"
	"fmt"
)

type dateTimeResponse struct {
	Timestamp string `xml:"Timestamp"`
}

// GetDateTime returns the server's current time in the API's timestamp
// format, e.g. "2019-06-01T12:00:00+02:00".
func (s *Session) GetDateTime(ctx context.Context) (string, error) {
	req, err := s.newGetRequest(ctx, "generic/getDateTime", nil)
	if err != nil {
		return "", err
	}

	body, err := s.doRequest(req)
	if err != nil {
		return "", fmt.Errorf("getDateTime failed: %w", err)
	}

	var res dateTimeResponse
	if err := decodeXML(body, &res); err != nil {
		return "", fmt.Errorf("getDateTime failed: %w", err)
	}
	if res.Timestamp == "" {
		return "", fmt.Errorf("getDateTime failed: %w", missing("Timestamp"))
	}
	return res.Timestamp, nil
}
