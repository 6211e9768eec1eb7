package lms

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hyperjump/lectern/internal/models"
	"go.uber.org/zap"
)

// ListCourseFiles returns every file in the course's file area.
// Students commonly get 403 here; see ListCourseFilesViaModules.
func (c *Client) ListCourseFiles(ctx context.Context, courseID int64) ([]models.SourceFile, error) {
	return fetchAll[models.SourceFile](ctx, c, fmt.Sprintf("/api/v1/courses/%d/files", courseID), nil)
}

// GetFile returns the metadata of one file.
func (c *Client) GetFile(ctx context.Context, fileID int64) (*models.SourceFile, error) {
	var f models.SourceFile
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v1/files/%d", fileID), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Download reads the file at f.URL fully into memory.
func (c *Client) Download(ctx context.Context, f *models.SourceFile) ([]byte, error) {
	if f.URL == "" {
		return nil, fmt.Errorf("file %d has no download url", f.ID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %d: %w", f.ID, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file %d: %w", f.ID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, body)
	}
	c.logger.Debug("lms file downloaded", zap.Int64("file_id", f.ID), zap.Int("bytes", len(body)))
	return body, nil
}
