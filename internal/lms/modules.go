package lms

import (
	"context"
	"fmt"

	"github.com/hyperjump/lectern/internal/models"
)

type module struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type moduleItem struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	ContentID int64  `json:"content_id"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	HTMLURL   string `json:"html_url"`
	URL       string `json:"url"`
}

// ListCourseFilesViaModules walks the course's modules and their items, returning a
// reference for every item of type "File". Both levels are paginated independently.
func (c *Client) ListCourseFilesViaModules(ctx context.Context, courseID int64) ([]models.ModuleFileRef, error) {
	modules, err := fetchAll[module](ctx, c, fmt.Sprintf("/api/v1/courses/%d/modules", courseID), nil)
	if err != nil {
		return nil, err
	}
	var refs []models.ModuleFileRef
	for _, m := range modules {
		items, err := fetchAll[moduleItem](ctx, c, fmt.Sprintf("/api/v1/courses/%d/modules/%d/items", courseID, m.ID), nil)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.Type != "File" || it.ContentID == 0 {
				continue
			}
			refs = append(refs, models.ModuleFileRef{
				TargetID:   it.ContentID,
				ModuleID:   m.ID,
				ModuleName: m.Name,
				ItemID:     it.ID,
				Title:      it.Title,
				Position:   it.Position,
				HTMLURL:    it.HTMLURL,
				URL:        it.URL,
			})
		}
	}
	return refs, nil
}
