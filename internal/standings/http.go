package standings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

const DefaultTimeout = 10 * time.Second

// HTTPSource fetches a season's final standings and head-to-head results from a JSON feed:
//
//	GET {base}/standings/{season}               -> playoff.Snapshot
//	GET {base}/standings/{season}/head-to-head  -> playoff.HeadToHead (404 means none)
type HTTPSource struct {
	baseURL    string
	season     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewHTTPSource creates a source paced at requestsPerSecond. A non-positive rate disables pacing.
func NewHTTPSource(baseURL, season string, requestsPerSecond float64, logger *logrus.Logger) *HTTPSource {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		season:  season,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (*playoff.Snapshot, error) {
	var snapshot playoff.Snapshot
	if err := s.makeRequest(ctx, fmt.Sprintf("/standings/%s", s.season), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to get standings for season %s: %w", s.season, err)
	}
	if snapshot.Season == "" {
		snapshot.Season = s.season
	}

	if len(snapshot.HeadToHead) == 0 {
		var h2h playoff.HeadToHead
		err := s.makeRequest(ctx, fmt.Sprintf("/standings/%s/head-to-head", s.season), &h2h)
		switch {
		case err == nil:
			snapshot.HeadToHead = h2h
		case isNotFound(err):
			s.logger.WithField("season", s.season).Debug("No head-to-head results published")
		default:
			return nil, fmt.Errorf("failed to get head-to-head for season %s: %w", s.season, err)
		}
	}

	if err := checkSnapshot(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// makeRequest performs a paced GET against the feed and decodes the JSON body into result.
func (s *HTTPSource) makeRequest(ctx context.Context, endpoint string, result interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s%s", s.baseURL, endpoint)
	s.logger.WithField("url", url).Debug("Making standings request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("HTTP request failed")
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read response body")
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Standings request failed")

		return &SourceError{
			Type:       "api_error",
			Message:    fmt.Sprintf("standings request failed with status %d: %s", resp.StatusCode, string(body)),
			StatusCode: resp.StatusCode,
			Season:     s.season,
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		s.logger.WithError(err).WithField("body", string(body)).Error("Failed to unmarshal response")
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
