package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/models"
)

const archiveQueueSize = 64

type archiveJob struct {
	entry  models.JournalEntry
	remove bool
}

// ArchiveService copies finalized entries to object storage as markdown and
// removes the copy when an entry is reopened or deleted. Work runs on one
// background goroutine so uploads and deletes of a key stay in request order.
type ArchiveService struct {
	obj     core.ObjectClient
	bucket  string
	log     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan archiveJob
	done   chan struct{}
}

func NewArchiveService(obj core.ObjectClient, bucket string, log *logger.Logger) *ArchiveService {
	a := &ArchiveService{
		obj:     obj,
		bucket:  bucket,
		log:     log.With("service", "ArchiveService"),
		timeout: 30 * time.Second,
		jobs:    make(chan archiveJob, archiveQueueSize),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func ArchiveKey(userID, dateKey string) string {
	return fmt.Sprintf("users/%s/journal/%s.md", userID, dateKey)
}

// Archive queues the upload of a final entry. Drafts and guest entries are
// skipped. Failures are logged and never returned to the caller.
func (a *ArchiveService) Archive(ctx context.Context, e models.JournalEntry) {
	if !e.Submitted || strings.HasPrefix(e.UserID, guestPrefix) {
		return
	}
	a.enqueue(ctx, archiveJob{entry: e})
}

// Remove queues the deletion of the archived copy of a day.
func (a *ArchiveService) Remove(ctx context.Context, userID, dateKey string) {
	if strings.HasPrefix(userID, guestPrefix) {
		return
	}
	a.enqueue(ctx, archiveJob{entry: models.JournalEntry{UserID: userID, DateKey: dateKey}, remove: true})
}

func (a *ArchiveService) enqueue(ctx context.Context, job archiveJob) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.log.Warn("archive closed, job dropped", "user_id", job.entry.UserID, "date_key", job.entry.DateKey)
		return
	}
	select {
	case a.jobs <- job:
	case <-ctx.Done():
		a.log.Warn("archive queue full, job dropped", "user_id", job.entry.UserID, "date_key", job.entry.DateKey, "error", ctx.Err())
	}
}

// Close stops accepting work and waits for queued jobs to finish.
func (a *ArchiveService) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *ArchiveService) run() {
	defer close(a.done)
	for job := range a.jobs {
		a.handle(job)
	}
}

func (a *ArchiveService) handle(job archiveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	e := job.entry
	key := ArchiveKey(e.UserID, e.DateKey)
	if job.remove {
		if err := a.obj.DeleteFile(ctx, a.bucket, key); err != nil {
			a.log.Warn("archive delete failed", "user_id", e.UserID, "date_key", e.DateKey, "error", err)
			return
		}
		a.log.Debug("archived entry removed", "user_id", e.UserID, "date_key", e.DateKey)
		return
	}
	url, err := a.obj.UploadFile(ctx, a.bucket, key, RenderMarkdown(e), "text/markdown; charset=utf-8")
	if err != nil {
		a.log.Warn("archive upload failed", "user_id", e.UserID, "date_key", e.DateKey, "error", err)
		return
	}
	a.log.Debug("entry archived", "user_id", e.UserID, "date_key", e.DateKey, "url", url)
}

// RenderMarkdown formats an entry as a markdown document.
func RenderMarkdown(e models.JournalEntry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.DateKey)
	b.WriteString(strings.TrimSpace(e.Text))
	b.WriteString("\n")
	if reply := strings.TrimSpace(e.AIReply); reply != "" {
		b.WriteString("\n---\n\n")
		b.WriteString(reply)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
