package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/2beens/fitdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// example API call
// https://nominatim.openstreetmap.org/reverse?format=jsonv2&lat=52.52&lon=13.40&accept-language=en

type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatimClient(baseURL, userAgent string, httpClient *http.Client) *NominatimClient {
	return &NominatimClient{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

type nominatimResponse struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Error       string  `json:"error"`
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (_ *Address, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "nominatim.reverse")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
	)

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("accept-language", "en")
	reverseURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, query.Encode())
	log.Tracef("calling nominatim: %s", reverseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reverseURL, nil)
	if err != nil {
		return nil, err
	}
	// nominatim usage policy requires an identifying user agent
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim response status: %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nominatim response bytes: %w", err)
	}

	nr := &nominatimResponse{}
	if err := json.Unmarshal(respBytes, nr); err != nil {
		return nil, fmt.Errorf("unmarshal nominatim response: %w", err)
	}
	if nr.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAddress, nr.Error)
	}

	return &nr.Address, nil
}
