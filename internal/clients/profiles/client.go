// Package profiles provides a client for the external user-profile service.
// Contributor reputation and expert status live there; vote weights here
// are derived from what this client returns.
package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/credence/internal/clientdata"
	"github.com/aristath/credence/internal/domain"
	"github.com/rs/zerolog"
)

// Client for the user-profile service
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new profile service client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       log.With().Str("client", "profiles").Logger(),
		cacheRepo: cacheRepo,
	}
}

// cachedProfile is the structure stored in the cache
type cachedProfile struct {
	Reputation int  `json:"reputation"`
	Expert     bool `json:"expert"`
}

// profileResponse is the profile service's wire format
type profileResponse struct {
	ContributorID string `json:"contributor_id"`
	Reputation    int    `json:"reputation"`
	Expert        bool   `json:"expert"`
}

// GetProfile fetches a contributor profile with cache.
// If the service fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetProfile(ctx context.Context, contributorID string) (domain.ContributorProfile, error) {
	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("contributor_profiles", contributorID)
		if err == nil && data != nil {
			var cached cachedProfile
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().
					Str("contributor_id", contributorID).
					Int("reputation", cached.Reputation).
					Bool("expert", cached.Expert).
					Msg("Cache hit")
				return domain.ContributorProfile{
					ContributorID: contributorID,
					Reputation:    cached.Reputation,
					Expert:        cached.Expert,
				}, nil
			}
		}
	}

	// Fetch from the profile service
	reqURL := fmt.Sprintf("%s/api/profiles/%s", c.baseURL, url.PathEscape(contributorID))
	c.log.Debug().Str("url", reqURL).Msg("Fetching profile")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.ContributorProfile{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Service failed - try stale cached data as fallback
		if stale, ok := c.getStaleFromCache(contributorID); ok {
			c.log.Warn().
				Err(err).
				Str("contributor_id", contributorID).
				Msg("Profile service failed, using stale cached profile")
			return stale, nil
		}
		return domain.ContributorProfile{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown contributor: treat as a fresh account with no reputation.
		// Cached so repeated votes from new accounts don't hammer the service.
		profile := domain.ContributorProfile{ContributorID: contributorID}
		c.storeInCache(contributorID, profile)
		return profile, nil
	}

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStaleFromCache(contributorID); ok {
			c.log.Warn().
				Int("status", resp.StatusCode).
				Str("contributor_id", contributorID).
				Msg("Profile service returned error, using stale cached profile")
			return stale, nil
		}
		return domain.ContributorProfile{}, fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.ContributorProfile{}, fmt.Errorf("failed to decode profile response: %w", err)
	}

	profile := domain.ContributorProfile{
		ContributorID: contributorID,
		Reputation:    body.Reputation,
		Expert:        body.Expert,
	}

	c.storeInCache(contributorID, profile)

	return profile, nil
}

// getStaleFromCache retrieves a profile from cache regardless of expiration.
func (c *Client) getStaleFromCache(contributorID string) (domain.ContributorProfile, bool) {
	if c.cacheRepo == nil {
		return domain.ContributorProfile{}, false
	}

	data, err := c.cacheRepo.Get("contributor_profiles", contributorID)
	if err != nil || data == nil {
		return domain.ContributorProfile{}, false
	}

	var cached cachedProfile
	if err := json.Unmarshal(data, &cached); err != nil {
		return domain.ContributorProfile{}, false
	}

	return domain.ContributorProfile{
		ContributorID: contributorID,
		Reputation:    cached.Reputation,
		Expert:        cached.Expert,
	}, true
}

// storeInCache persists a profile with the standard TTL. Cache failures
// are logged and ignored - caching is an optimization, not a requirement.
func (c *Client) storeInCache(contributorID string, profile domain.ContributorProfile) {
	if c.cacheRepo == nil {
		return
	}

	cached := cachedProfile{
		Reputation: profile.Reputation,
		Expert:     profile.Expert,
	}

	if err := c.cacheRepo.Store("contributor_profiles", contributorID, cached, clientdata.TTLContributorProfile); err != nil {
		c.log.Warn().Err(err).Str("contributor_id", contributorID).Msg("Failed to cache profile")
	}
}
