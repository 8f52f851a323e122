package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/blang/semver"
)

// CurrentVersion is overridden at build time with -ldflags.
var CurrentVersion = "v1.0.0"

const (
	RepoOwner = "octopanel"
	RepoName  = "octopanel"
	cacheTTL  = time.Hour
)

type Tag struct {
	Name string `json:"name"`
}

type UpdateInfo struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateAvailable bool   `json:"update_available"`
	ReleaseURL      string `json:"release_url,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Checker looks up the newest release tag and caches the answer.
type Checker struct {
	TagsURL string
	Client  *http.Client

	mu        sync.Mutex
	cached    *UpdateInfo
	fetchedAt time.Time
	now       func() time.Time
}

func NewChecker() *Checker {
	return &Checker{
		TagsURL: fmt.Sprintf("https://api.github.com/repos/%s/%s/tags", RepoOwner, RepoName),
		Client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// Check never fails; a lookup error is reported in UpdateInfo.Error and is
// not cached.
func (c *Checker) Check(ctx context.Context) UpdateInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Sub(c.fetchedAt) < cacheTTL {
		return *c.cached
	}

	info, err := c.fetch(ctx)
	if err != nil {
		return UpdateInfo{
			CurrentVersion: CurrentVersion,
			LatestVersion:  "error",
			Error:          err.Error(),
		}
	}
	c.cached = info
	c.fetchedAt = c.now()
	return *info
}

func (c *Checker) fetch(ctx context.Context) (*UpdateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TagsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "octopanel-updater")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch tags: %s", resp.Status)
	}

	var tags []Tag
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, err
	}

	latestTag, latest, ok := newestTag(tags)
	if !ok {
		return &UpdateInfo{
			CurrentVersion: CurrentVersion,
			LatestVersion:  CurrentVersion,
		}, nil
	}

	info := &UpdateInfo{
		CurrentVersion: CurrentVersion,
		LatestVersion:  latestTag,
		ReleaseURL:     fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", RepoOwner, RepoName, latestTag),
	}
	if current, err := semver.ParseTolerant(CurrentVersion); err == nil {
		info.UpdateAvailable = latest.GT(current)
	}
	return info, nil
}

// newestTag returns the highest semver tag, ignoring tags that do not parse.
func newestTag(tags []Tag) (string, semver.Version, bool) {
	var bestName string
	var best semver.Version
	found := false
	for _, t := range tags {
		v, err := semver.ParseTolerant(t.Name)
		if err != nil {
			continue
		}
		if !found || v.GT(best) {
			best, bestName, found = v, t.Name, true
		}
	}
	return bestName, best, found
}
