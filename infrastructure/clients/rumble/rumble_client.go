package rumble

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

// videoForm is the form body shared by upload and update calls.
type videoForm struct {
	Title       string   `url:"title"`
	Description string   `url:"description,omitempty"`
	Tags        []string `url:"tags,comma,omitempty"`
	Visibility  string   `url:"visibility"`
}

type videoResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client publishes to Rumble's upload API using the connection's bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	storage    repository.IMediaStorage
}

func NewClient(baseURL string, httpClient *http.Client, storage repository.IMediaStorage) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient, storage: storage}
}

func (c *Client) Platform() model.Platform { return model.PlatformRumble }

func (c *Client) Publish(ctx context.Context, req repository.PublishRequest) (*repository.PublishResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("rumble client: %w: %w", model.ErrPermanent, model.ErrNotConfigured)
	}
	form := videoForm{
		Title:       req.Metadata.Title,
		Description: req.Metadata.Description,
		Tags:        req.Metadata.Tags,
		Visibility:  strings.ToLower(string(req.Metadata.Privacy)),
	}
	values, err := query.Values(form)
	if err != nil {
		return nil, fmt.Errorf("encode rumble form: %w", err)
	}

	var resp *videoResponse
	if req.ExistingPlatformVideoID != "" {
		resp, err = c.update(ctx, req.Connection.AccessToken, req.ExistingPlatformVideoID, values)
	} else {
		resp, err = c.upload(ctx, req.Connection.AccessToken, req.Video, values)
	}
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("rumble response has no video id")
	}
	link := resp.URL
	if link == "" {
		link = "https://rumble.com/" + resp.ID
	}
	return &repository.PublishResult{PlatformVideoID: resp.ID, URL: link}, nil
}

// upload streams the S3 object into a multipart body through a pipe.
func (c *Client) upload(ctx context.Context, token string, video *model.Video, values url.Values) (*videoResponse, error) {
	if c.storage == nil {
		return nil, fmt.Errorf("rumble upload: media storage: %w: %w", model.ErrPermanent, model.ErrNotConfigured)
	}
	body, err := c.storage.Open(ctx, video.S3Bucket, video.S3Key)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", video.ID, err)
	}
	defer body.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeMultipart(mw, values, fileName(video), body))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(httpReq, token, "upload")
}

func writeMultipart(mw *multipart.Writer, values url.Values, name string, file io.Reader) error {
	for key, vals := range values {
		for _, v := range vals {
			if err := mw.WriteField(key, v); err != nil {
				return err
			}
		}
	}
	part, err := mw.CreateFormFile("video", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) update(ctx context.Context, token, videoID string, values url.Values) (*videoResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/videos/"+url.PathEscape(videoID), strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(httpReq, token, "update")
}

func (c *Client) do(req *http.Request, token, op string) (*videoResponse, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rumble %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("op", op).Warn("rumble request failed")
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("rumble %s: %w: status %d: %s", op, model.ErrPermanent, resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return nil, fmt.Errorf("rumble %s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out videoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rumble %s response: %w", op, err)
	}
	return &out, nil
}

func fileName(v *model.Video) string {
	if v.FileName != "" {
		return v.FileName
	}
	return path.Base(v.S3Key)
}

var _ repository.IPlatformPublisher = (*Client)(nil)
