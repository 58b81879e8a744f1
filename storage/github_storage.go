package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"radio-nowplaying/config"
)

const (
	maxMessageTrack = 50
	maxErrorBody    = 200
	githubAPIURL    = "https://api.github.com"
)

// GitHubStorage stores the state as a JSON file through the GitHub contents API.
// Without a token every Write returns ErrSkipped and no request is made.
type GitHubStorage struct {
	logger  *logrus.Logger
	client  *http.Client
	apiURL  string
	owner   string
	repo    string
	path    string
	branch  string
	enabled bool
}

type contentsResponse struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

type contentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

func NewGitHubStorage(logger *logrus.Logger, cfg config.GitHub, timeout time.Duration) *GitHubStorage {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = githubAPIURL
	}

	var client *http.Client
	if cfg.Token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	} else {
		client = &http.Client{}
	}
	client.Timeout = timeout

	return &GitHubStorage{
		logger:  logger,
		client:  client,
		apiURL:  apiURL,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		path:    cfg.Path,
		branch:  cfg.Branch,
		enabled: cfg.Token != "",
	}
}

func (s *GitHubStorage) Name() string { return "github" }

// Enabled reports whether a token is configured.
func (s *GitHubStorage) Enabled() bool { return s.enabled }

func (s *GitHubStorage) Write(ctx context.Context, state TrackState) error {
	if !s.enabled {
		return ErrSkipped
	}

	content, err := EncodePayload(state)
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}

	current, err := s.get(ctx)
	if err != nil {
		return err
	}

	payload := contentsRequest{
		Message: "Update now playing: " + truncate(state.Track, maxMessageTrack),
		Content: content,
		Branch:  s.branch,
	}
	if current != nil {
		payload.SHA = current.SHA
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}

	req, err := s.newRequest(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return s.statusError(resp)
	}
	io.Copy(io.Discard, resp.Body)

	s.logger.WithFields(logrus.Fields{
		"repo":    s.owner + "/" + s.repo,
		"path":    s.path,
		"created": current == nil,
	}).Debug("Committed now playing")
	return nil
}

func (s *GitHubStorage) Load(ctx context.Context) (*TrackState, error) {
	current, err := s.get(ctx)
	if err != nil || current == nil {
		return nil, err
	}
	state, err := DecodePayload(current.Content)
	if err != nil {
		return nil, &PersistError{Backend: s.Name(), Err: err}
	}
	return &state, nil
}

func (s *GitHubStorage) Close() error { return nil }

// get reads the remote file. A 404 is not an error: it returns nil and the next
// write creates the file.
func (s *GitHubStorage) get(ctx context.Context) (*contentsResponse, error) {
	u := s.contentsURL()
	if s.branch != "" {
		u += "?ref=" + url.QueryEscape(s.branch)
	}
	req, err := s.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &PersistError{Backend: s.Name(), Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &PersistError{Backend: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	default:
		return nil, s.statusError(resp)
	}

	var current contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&current); err != nil {
		return nil, &PersistError{Backend: s.Name(), Err: fmt.Errorf("decoding contents response: %w", err)}
	}
	return &current, nil
}

func (s *GitHubStorage) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "radio-nowplaying")
	return req, nil
}

func (s *GitHubStorage) contentsURL() string {
	parts := strings.Split(strings.Trim(s.path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.apiURL, url.PathEscape(s.owner), url.PathEscape(s.repo), strings.Join(parts, "/"))
}

func (s *GitHubStorage) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &PersistError{
		Backend:    s.Name(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
