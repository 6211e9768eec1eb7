// Package pointid generates vector point IDs for indexed chunks.
package pointid

import (
	"fmt"

	"github.com/google/uuid"
)

// namespace scopes content-derived IDs so they never collide with other UUIDv5 users.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lectern:course-chunk"))

// Generator assigns an ID to the chunk at chunkIndex of a course file.
type Generator func(courseID, fileID int64, chunkIndex int) string

// Random returns a fresh random UUID, ignoring its inputs. Re-ingesting a
// course with Random adds new points beside the old ones.
func Random(int64, int64, int) string {
	return uuid.NewString()
}

// Content returns a UUIDv5 derived from the chunk's coordinates, so
// re-ingesting the same file overwrites its points instead of duplicating them.
func Content(courseID, fileID int64, chunkIndex int) string {
	name := fmt.Sprintf("%d/%d/%d", courseID, fileID, chunkIndex)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// ForPolicy maps a config policy name to a Generator. Unknown names use Random.
func ForPolicy(policy string) Generator {
	if policy == "content" {
		return Content
	}
	return Random
}
