package festival

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxCalendarBody = 4 << 20

// HTTPSource fetches a JSON calendar per year. The URL template carries a
// {year} placeholder, e.g. https://calendar.example.com/festivals/{year}.json.
// The body is an object keyed by month name; a JSON string wrapping that
// object is accepted too.
type HTTPSource struct {
	urlTemplate string
	client      *http.Client
}

func NewHTTPSource(urlTemplate string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSource{urlTemplate: urlTemplate, client: client}
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) URLFor(year int) string {
	return strings.ReplaceAll(h.urlTemplate, "{year}", strconv.Itoa(year))
}

func (h *HTTPSource) FestivalsForYear(ctx context.Context, year int) (YearData, error) {
	body, err := fetchBody(ctx, h.client, h.URLFor(year), "application/json")
	if err != nil {
		return nil, unavailable(h.Name(), year, err)
	}

	data, err := decodeYearData(body)
	if err != nil {
		return nil, unavailable(h.Name(), year, err)
	}
	return data, nil
}

func decodeYearData(body []byte) (YearData, error) {
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte(`"`)) {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("decode wrapped calendar: %w", err)
		}
		trimmed = []byte(inner)
	}

	var data YearData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("calendar body is empty")
	}
	return data, nil
}

func fetchBody(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar returned status: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCalendarBody))
}
