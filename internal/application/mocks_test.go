package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock implementations ---

type mockEntryStore struct {
	mu      sync.Mutex
	entries map[model.Date]model.DiaryEntry
	saveErr error
	loadErr error
	listErr error
	saves   int
	ranges  [][2]model.Date
}

func newMockEntryStore(entries ...model.DiaryEntry) *mockEntryStore {
	m := &mockEntryStore{entries: map[model.Date]model.DiaryEntry{}}
	for _, e := range entries {
		m.entries[e.Date] = e
	}
	return m
}

func (m *mockEntryStore) Save(_ context.Context, e model.DiaryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return &model.StorageError{Op: "save", Err: m.saveErr}
	}
	if prev, ok := m.entries[e.Date]; ok {
		e.CreatedAt = prev.CreatedAt
	}
	m.entries[e.Date] = e
	m.saves++
	return nil
}

func (m *mockEntryStore) Load(_ context.Context, d model.Date) (*model.DiaryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, &model.StorageError{Op: "load", Err: m.loadErr}
	}
	e, ok := m.entries[d]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *mockEntryStore) ListAll(ctx context.Context) ([]model.DiaryEntry, error) {
	return m.ListRange(ctx, model.Date{}, model.NewDate(9999, time.December, 31))
}

func (m *mockEntryStore) ListRange(_ context.Context, from, to model.Date) ([]model.DiaryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, &model.StorageError{Op: "list", Err: m.listErr}
	}
	m.ranges = append(m.ranges, [2]model.Date{from, to})
	out := []model.DiaryEntry{}
	for d, e := range m.entries {
		if !d.Before(from) && !d.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

type mockCredentialStore struct {
	digest  string
	loadErr error
}

func (m *mockCredentialStore) Load(context.Context) (string, error) {
	return m.digest, m.loadErr
}

func (m *mockCredentialStore) Store(_ context.Context, digest string) error {
	m.digest = digest
	return nil
}

type recordingSink struct {
	name  string
	err   error
	dates []model.Date
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Backup(_ context.Context, e model.DiaryEntry) error {
	s.dates = append(s.dates, e.Date)
	return s.err
}

type recordingObserver struct {
	saved []model.DiaryEntry
}

func (o *recordingObserver) EntrySaved(_ context.Context, e model.DiaryEntry) {
	o.saved = append(o.saved, e)
}

// fakeWriter renders documents as "key=value" lines for assertions.
type fakeWriter struct {
	format string
	err    error
	last   model.Document
}

func (w *fakeWriter) Format() string      { return w.format }
func (w *fakeWriter) Extension() string   { return w.format }
func (w *fakeWriter) ContentType() string { return "text/plain" }

func (w *fakeWriter) Write(_ context.Context, doc model.Document, out io.Writer) error {
	w.last = doc
	if w.err != nil {
		return w.err
	}
	_, err := fmt.Fprintf(out, "date=%s\nimage=%s\nbody=%s\n", doc.Date, doc.ImagePath, doc.Body)
	return err
}

// fakeAttachments owns refs starting with "mem://" and resolves them to
// localPath.
type fakeAttachments struct {
	localPath string
	localErr  error
	cleaned   bool
}

func (a *fakeAttachments) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("not supported")
}

func (a *fakeAttachments) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, driven.ErrAttachmentNotFound
}

func (a *fakeAttachments) Local(context.Context, string) (string, func(), error) {
	if a.localErr != nil {
		return "", nil, a.localErr
	}
	return a.localPath, func() { a.cleaned = true }, nil
}

func (a *fakeAttachments) Delete(context.Context, string) error {
	return nil
}

func (a *fakeAttachments) Owns(ref string) bool {
	return strings.HasPrefix(ref, "mem://")
}
