package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/jobs"
	"github.com/JaimeStill/smart-ocr/internal/queue"
	"github.com/JaimeStill/smart-ocr/internal/state"
)

type fakeDurable struct {
	mu        sync.Mutex
	jobs      map[string]*jobs.Job
	docs      map[string]*jobs.Document
	applyErr  error
	rejectOn  state.State
	deleteErr error
	creates   int
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{jobs: map[string]*jobs.Job{}, docs: map[string]*jobs.Document{}}
}

func (f *fakeDurable) Create(ctx context.Context, cmd jobs.CreateCommand) (*jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++

	s := cmd.Snapshot
	if _, ok := f.jobs[s.JobID]; ok {
		return nil, jobs.ErrDuplicate
	}
	id := int64(len(f.docs) + 1)
	job := &jobs.Job{
		JobID: s.JobID, Filename: s.Filename, Mime: cmd.Mime, Status: s.Status,
		Progress: s.Progress, Stage: s.Stage, DocumentID: &id,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
	f.jobs[s.JobID] = job
	f.docs[s.JobID] = &jobs.Document{ID: id, JobID: s.JobID, Filename: s.Filename, Mime: cmd.Mime, Status: s.Status}
	copied := *job
	return &copied, nil
}

func (f *fakeDurable) Apply(ctx context.Context, jobID string, u state.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applyErr != nil {
		return f.applyErr
	}
	if f.rejectOn != "" && u.Status == f.rejectOn {
		return errors.New("write rejected")
	}
	job, ok := f.jobs[jobID]
	if !ok {
		return jobs.ErrNotFound
	}

	snap := u.Apply(job.Snapshot())
	job.Status, job.Progress, job.Stage, job.SourceURI = snap.Status, snap.Progress, snap.Stage, snap.SourceURI
	job.UpdatedAt = time.Now()

	doc := f.docs[jobID]
	doc.Status, doc.SourceURI = job.Status, job.SourceURI
	if u.Status == state.OCRInProgress {
		doc.Text, doc.Entities, doc.Tags = "", nil, nil
	}
	return nil
}

func (f *fakeDurable) Complete(ctx context.Context, jobID string, r jobs.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[jobID]
	if !ok {
		return jobs.ErrNotFound
	}
	done := state.Enter(state.Completed)
	snap := done.Apply(job.Snapshot())
	job.Status, job.Progress, job.Stage = snap.Status, snap.Progress, snap.Stage

	doc := f.docs[jobID]
	doc.Status, doc.Text, doc.Entities, doc.Tags = state.Completed, r.Text, r.Entities, r.Tags
	return nil
}

func (f *fakeDurable) Delete(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.jobs, jobID)
	delete(f.docs, jobID)
	return nil
}

func (f *fakeDurable) Find(ctx context.Context, jobID string) (*jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeDurable) FindDocument(ctx context.Context, jobID string) (*jobs.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[jobID]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

type fakeStatus struct {
	mu        sync.Mutex
	snaps     map[string]state.Snapshot
	createErr error
	getErr    error
}

func newFakeStatus() *fakeStatus {
	return &fakeStatus{snaps: map[string]state.Snapshot{}}
}

func (f *fakeStatus) Create(ctx context.Context, filename string) (state.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return state.Snapshot{}, f.createErr
	}
	now := time.Now().UTC()
	snap := state.Enter(state.Received).Apply(state.Snapshot{
		JobID: uuid.NewString(), Filename: filename, CreatedAt: now, UpdatedAt: now,
	})
	f.snaps[snap.JobID] = snap
	return snap, nil
}

func (f *fakeStatus) Update(ctx context.Context, jobID string, u state.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[jobID]
	if !ok {
		return nil
	}
	f.snaps[jobID] = u.Apply(snap)
	return nil
}

func (f *fakeStatus) Get(ctx context.Context, jobID string) (state.Snapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return state.Snapshot{}, false, f.getErr
	}
	snap, ok := f.snaps[jobID]
	return snap, ok, nil
}

func (f *fakeStatus) Delete(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, jobID)
	return nil
}

type fakeBlobs struct {
	err     error
	puts    map[string][]byte
	deleted []string
}

func (f *fakeBlobs) Put(ctx context.Context, r io.Reader, key, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = data
	return "file://smart-ocr/" + key, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, uri string) error {
	f.deleted = append(f.deleted, uri)
	return nil
}

type fakeQueue struct {
	err   error
	tasks []queue.Task
}

func (f *fakeQueue) Enqueue(ctx context.Context, task queue.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeExtractor struct {
	text      string
	textErr   error
	analysis  extract.Analysis
	analyzeEr error
	block     bool
	textCalls int
	onText    func()
	analyzed  string
}

func (f *fakeExtractor) Text(ctx context.Context, jobID, sourceURI, filename string) (string, error) {
	f.textCalls++
	if f.onText != nil {
		f.onText()
	}
	if f.block {
		<-ctx.Done()
		return "", errors.Join(extract.ErrRecognize, ctx.Err())
	}
	return f.text, f.textErr
}

func (f *fakeExtractor) Analyze(ctx context.Context, text string) (extract.Analysis, error) {
	f.analyzed = text
	return f.analysis, f.analyzeEr
}
