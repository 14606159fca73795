package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const dataURIPrefix = "data:image"

// maxImageBytes caps how much of a fetched image is read into memory
const maxImageBytes = 10 * 1024 * 1024

// ImageResolver turns a row's raw image field into a storable representation.
// Data URIs pass through unchanged, remote URLs are fetched once and
// re-encoded, anything else is treated as an opaque reference.
type ImageResolver struct {
	client *http.Client
	log    *logrus.Logger
}

func NewImageResolver(client *http.Client, log *logrus.Logger) *ImageResolver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ImageResolver{client: client, log: log}
}

// Resolve applies the image decision table. Fetch failures are swallowed:
// the row proceeds with an empty image, never an error.
func (r *ImageResolver) Resolve(ctx context.Context, raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, dataURIPrefix):
		return raw
	case strings.HasPrefix(raw, "http"):
		return r.fetchAsDataURI(ctx, raw)
	default:
		return raw
	}
}

// fetchAsDataURI performs one best-effort fetch and inlines the response
// bytes with the declared content type. Any failure yields "".
func (r *ImageResolver) fetchAsDataURI(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.log.WithError(err).WithField("url", url).Warn("Invalid image URL")
		return ""
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.WithError(err).WithField("url", url).Warn("Failed to fetch image")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.log.WithFields(logrus.Fields{"url": url, "status": resp.StatusCode}).Warn("Image fetch returned non-2xx status")
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		r.log.WithError(err).WithField("url", url).Warn("Failed to read image body")
		return ""
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}
