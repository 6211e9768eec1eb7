package lms

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hyperjump/lectern/internal/models"
)

// CourseQuery holds the optional filters forwarded to the course listing.
type CourseQuery struct {
	EnrollmentState string
	Include         []string
	PerPage         int
}

func (q CourseQuery) values() url.Values {
	v := url.Values{}
	if q.EnrollmentState != "" {
		v.Set("enrollment_state", q.EnrollmentState)
	}
	for _, inc := range q.Include {
		v.Add("include[]", inc)
	}
	if q.PerPage > 0 {
		v.Set("per_page", fmt.Sprint(q.PerPage))
	}
	return v
}

// ListCourses returns every course visible to the token's user.
func (c *Client) ListCourses(ctx context.Context, q CourseQuery) ([]models.Course, error) {
	return fetchAll[models.Course](ctx, c, "/api/v1/courses", q.values())
}
