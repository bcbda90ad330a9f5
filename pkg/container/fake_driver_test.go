package container

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

// fakeDriver is an in-memory Driver used across this package's tests,
// avoiding any dependency on a live container daemon.
type fakeDriver struct {
	mu      sync.Mutex
	records map[string]*Record
	running map[string]bool
	env     map[string]map[string]string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{records: map[string]*Record{}, running: map[string]bool{}, env: map[string]map[string]string{}}
}

func (f *fakeDriver) CreateAndStart(_ context.Context, opts CreateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.records[id] = &Record{
		ID:     id,
		Name:   opts.Name,
		Image:  opts.Image,
		State:  StateRunning,
		Labels: opts.Labels,
	}
	f.running[id] = true
	f.env[id] = opts.Env
	return id, nil
}

func (f *fakeDriver) List(_ context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, 0, len(f.records))
	for _, r := range f.records {
		cp := *r
		if f.running[r.ID] {
			cp.State = StateRunning
		} else {
			cp.State = StateExited
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeDriver) Inspect(_ context.Context, id string) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return Record{}, vterrors.Newf(vterrors.ContainerNotFound, "no such container %s", id)
	}
	return *r, nil
}

func (f *fakeDriver) IsRunning(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return false, vterrors.Newf(vterrors.ContainerNotFound, "no such container %s", id)
	}
	return f.running[id], nil
}

func (f *fakeDriver) IP(_ context.Context, _ string) (string, error) { return "127.0.0.1", nil }

func (f *fakeDriver) Stop(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[id] = false
	return nil
}

func (f *fakeDriver) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	delete(f.running, id)
	return nil
}

func (f *fakeDriver) Logs(_ context.Context, _ string) (string, error) { return "", nil }

func (f *fakeDriver) Attach(_ context.Context, _ string) (io.WriteCloser, io.ReadCloser, error) {
	return nil, nil, vterrors.New(vterrors.Transport, "attach not supported by fake driver")
}

func (f *fakeDriver) ImageExists(_ context.Context, _ string) (bool, error) { return true, nil }
func (f *fakeDriver) PullImage(_ context.Context, _ string) error          { return nil }
func (f *fakeDriver) Close() error                                        { return nil }

func (f *fakeDriver) setExited(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[id] = false
}

func (f *fakeDriver) forget(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	delete(f.running, id)
}
