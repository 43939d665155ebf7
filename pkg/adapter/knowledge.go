package adapter

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

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// SegmentStore is the contract of the external knowledge store. It offers
// only whole-segment operations: there is no update-in-place, so a record
// replace is always a create followed by a delete.
type SegmentStore interface {
	// Find returns every live segment whose metadata (or, for legacy
	// segments, content payload) matches the user key. An empty result is
	// the new-user case, not an error.
	Find(ctx context.Context, userKey string) ([]*model.Segment, error)

	// Create stores a new segment holding the given content blob, tagged
	// with the user key.
	Create(ctx context.Context, userKey string, content []byte) (*model.Segment, error)

	// Delete removes a segment by id. Deleting an already-gone segment is
	// not an error.
	Delete(ctx context.Context, id model.SegmentID) error
}

const (
	defaultTimeout   = 30 * time.Second
	findPageLimit    = 100
	maxErrorBodySize = 4096
)

// KnowledgeConfig holds the connection settings of the Dify knowledge
// dataset that stores user history segments.
type KnowledgeConfig struct {
	BaseURL    string
	APIKey     string
	DatasetID  string
	DocumentID string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type knowledgeClient struct {
	config KnowledgeConfig
	client *http.Client
}

// NewKnowledge creates a segment store client for a Dify knowledge dataset.
func NewKnowledge(config KnowledgeConfig) (SegmentStore, error) {
	if config.BaseURL == "" {
		return nil, goerr.New("knowledge base URL is required", goerr.T(model.TagConfiguration))
	}
	if config.APIKey == "" {
		return nil, goerr.New("knowledge API key is required", goerr.T(model.TagConfiguration))
	}
	if config.DatasetID == "" {
		return nil, goerr.New("knowledge dataset ID is required", goerr.T(model.TagConfiguration))
	}
	if config.DocumentID == "" {
		return nil, goerr.New("knowledge document ID is required", goerr.T(model.TagConfiguration))
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &knowledgeClient{
		config: config,
		client: client,
	}, nil
}

// Wire types of the Dify segments API.

type difySegment struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt int64             `json:"created_at"`
}

type segmentListResponse struct {
	Data []*difySegment `json:"data"`
}

type createSegmentsRequest struct {
	Segments []newSegment `json:"segments"`
}

type newSegment struct {
	Content  string            `json:"content"`
	Answer   string            `json:"answer"`
	Metadata map[string]string `json:"metadata"`
}

func (x *knowledgeClient) segmentsURL() string {
	return fmt.Sprintf("%s/v1/datasets/%s/documents/%s/segments",
		x.config.BaseURL, x.config.DatasetID, x.config.DocumentID)
}

func (x *knowledgeClient) Find(ctx context.Context, userKey string) ([]*model.Segment, error) {
	endpoint := x.segmentsURL() + "?" + url.Values{
		"limit":  {fmt.Sprintf("%d", findPageLimit)},
		"offset": {"0"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build knowledge lookup request")
	}
	x.setHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "knowledge lookup request failed", goerr.T(model.TagTransient))
	}
	defer resp.Body.Close()

	// A missing document means no history has ever been stored.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp, "knowledge lookup"); err != nil {
		return nil, err
	}

	var listed segmentListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, goerr.Wrap(err, "failed to decode knowledge lookup response")
	}

	var matched []*model.Segment
	for _, seg := range listed.Data {
		if segmentUserKey(seg) != userKey {
			continue
		}
		matched = append(matched, toModelSegment(seg))
	}
	return matched, nil
}

// segmentUserKey resolves the owner of a segment: metadata first, then the
// email claimed by the content payload for segments written before metadata
// tagging.
func segmentUserKey(seg *difySegment) string {
	if key := seg.Metadata[model.MetaUserKey]; key != "" {
		return key
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(seg.Content), &payload); err != nil {
		return ""
	}
	return payload.Email
}

func toModelSegment(seg *difySegment) *model.Segment {
	out := &model.Segment{
		ID:       model.SegmentID(seg.ID),
		Metadata: seg.Metadata,
		Content:  []byte(seg.Content),
	}
	if seg.CreatedAt > 0 {
		out.CreatedAt = time.Unix(seg.CreatedAt, 0).UTC()
	}
	return out
}

func (x *knowledgeClient) Create(ctx context.Context, userKey string, content []byte) (*model.Segment, error) {
	payload, err := json.Marshal(createSegmentsRequest{
		Segments: []newSegment{{
			Content:  string(content),
			Answer:   "",
			Metadata: map[string]string{model.MetaUserKey: userKey},
		}},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal segment create request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.segmentsURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build segment create request")
	}
	x.setHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "segment create request failed", goerr.T(model.TagTransient))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "segment create"); err != nil {
		return nil, err
	}

	var created segmentListResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && len(created.Data) > 0 {
		return toModelSegment(created.Data[0]), nil
	}

	// Some deployments return an empty body on create; the caller only
	// needs confirmation, not the stored copy.
	return &model.Segment{
		Metadata: map[string]string{model.MetaUserKey: userKey},
		Content:  content,
	}, nil
}

func (x *knowledgeClient) Delete(ctx context.Context, id model.SegmentID) error {
	endpoint := x.segmentsURL() + "/" + string(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build segment delete request")
	}
	x.setHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "segment delete request failed", goerr.T(model.TagTransient))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return statusError(resp, "segment delete")
	}
}

func (x *knowledgeClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+x.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// checkStatus maps an error response to a goerr, tagging retryable server
// side failures as transient.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode < 400 {
		return nil
	}
	return statusError(resp, op)
}

func statusError(resp *http.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	options := []goerr.Option{
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(body)),
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		options = append(options, goerr.T(model.TagTransient))
	}
	return goerr.New(op+" failed", options...)
}
