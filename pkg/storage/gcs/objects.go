package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	storageHost = "https://storage.googleapis.com"
	uploadBase  = storageHost + "/upload/storage/v1/b"
	objectBase  = storageHost + "/storage/v1/b"
)

// ErrObjectNotFound is returned when the referenced object does not exist.
var ErrObjectNotFound = errors.New("gcs object not found")

// Upload writes the object via the JSON API media endpoint and returns its
// public URL.
func (b *Bucket) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if b == nil || b.client == nil {
		return "", errors.New("gcs bucket not initialized")
	}
	if strings.TrimSpace(objectName) == "" {
		return "", errors.New("object name is required")
	}

	token, err := b.client.tokenSource.Token(ctx)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/%s/o?uploadType=media&name=%s",
		uploadBase, url.PathEscape(b.name), url.QueryEscape(objectName))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { closeBody(ctx, nil, resp.Body, "gcs: closing upload response body failed") }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return b.ObjectURL(objectName), nil
}

// Delete removes the object. Missing objects map to ErrObjectNotFound so
// callers can treat them as already gone.
func (b *Bucket) Delete(ctx context.Context, objectName string) error {
	if b == nil || b.client == nil {
		return errors.New("gcs bucket not initialized")
	}
	if strings.TrimSpace(objectName) == "" {
		return errors.New("object name is required")
	}

	token, err := b.client.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/%s/o/%s", objectBase, url.PathEscape(b.name), url.PathEscape(objectName))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { closeBody(ctx, nil, resp.Body, "gcs: closing delete response body failed") }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrObjectNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs delete failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
}

// ObjectURL renders the public download URL for an object in this bucket.
func (b *Bucket) ObjectURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", storageHost, b.name, objectName)
}

// ParseObjectURL splits a public storage URL into bucket and object names.
func ParseObjectURL(rawURL string) (bucket, object string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing object url: %w", err)
	}
	if parsed.Host != "storage.googleapis.com" {
		return "", "", fmt.Errorf("unrecognized storage host %q", parsed.Host)
	}
	parts := strings.SplitN(strings.TrimPrefix(parsed.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("object url %q missing bucket or object", rawURL)
	}
	return parts[0], parts[1], nil
}
