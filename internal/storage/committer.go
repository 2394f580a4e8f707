// ABOUTME: Adapts a Repository into the session cursor's commit target.
// ABOUTME: Committed times are written through SaveTimeRecord.
package storage

import (
	"context"

	"github.com/harperreed/swim/internal/models"
)

// RepoCommitter persists committed times into a Repository.
type RepoCommitter struct {
	repo Repository
}

// NewCommitter returns a committer that saves into repo.
func NewCommitter(repo Repository) *RepoCommitter {
	return &RepoCommitter{repo: repo}
}

// CommitTime saves rec. The context is checked before writing since the
// storage backends are synchronous.
func (c *RepoCommitter) CommitTime(ctx context.Context, rec *models.TimeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.repo.SaveTimeRecord(rec)
}
