package trainer

import "context"
import "sync"
import "time"

import "github.com/google/uuid"
import "github.com/pkg/errors"
import "golang.org/x/sync/semaphore"

import "github.com/deephdc/demoapp/checkpoint"
import "github.com/deephdc/demoapp/log"
import "github.com/deephdc/demoapp/metrics"
import "github.com/deephdc/demoapp/model"
import "github.com/deephdc/demoapp/schema"
import "github.com/deephdc/demoapp/store"

// ErrTooManyRuns is returned by Start when MaxConcurrent runs are executing.
var ErrTooManyRuns = errors.New("too many trainings running")

// errShutdown is the cause of runs stopped by Shutdown.
var errShutdown = errors.New("interrupted by a shutdown")

// Options tune a Manager.
type Options struct {
	EpochDuration time.Duration
	MaxConcurrent int

	// ModelsDir receives the checkpoints. Empty disables them.
	ModelsDir string
}

type active struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// Manager starts, tracks and cancels training runs.
type Manager struct {
	store   *store.Store
	metrics *metrics.Metrics
	opts    Options
	sem     *semaphore.Weighted

	mu   sync.Mutex
	runs map[string]*active
	wg   sync.WaitGroup
}

// New creates a manager persisting its runs in s.
func New(s *store.Store, m *metrics.Metrics, opts Options) *Manager {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Manager{
		store:   s,
		metrics: m,
		opts:    opts,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		runs:    make(map[string]*active),
	}
}

// Start records a new run for args, as parsed by model.TrainArgs, and
// executes it in the background.
func (m *Manager) Start(ctx context.Context, args schema.Args) (*store.Training, error) {
	epochs, err := args.Int("epoch_num")
	if err != nil {
		return nil, err
	}
	if !m.sem.TryAcquire(1) {
		return nil, ErrTooManyRuns
	}

	t := &store.Training{
		UUID:    uuid.NewString(),
		Status:  store.Running,
		Date:    time.Now().UTC(),
		Args:    map[string]interface{}(args.Clone()),
		History: []float64{},
	}
	if err := m.store.Put(t); err != nil {
		m.sem.Release(1)
		return nil, err
	}
	snapshot := *t

	runCtx, cancel := context.WithCancelCause(log.WithID(context.Background(), t.UUID, "train"))
	a := &active{cancel: cancel, done: make(chan struct{})}
	m.mu.Lock()
	m.runs[t.UUID] = a
	m.mu.Unlock()

	log.Infof(ctx, "Started training %s with %d epochs", t.UUID, epochs)
	m.wg.Add(1)
	go m.execute(runCtx, t, epochs, a)
	return &snapshot, nil
}

func (m *Manager) execute(ctx context.Context, t *store.Training, epochs int, a *active) {
	m.metrics.TrainStarted()
	defer func() {
		m.mu.Lock()
		delete(m.runs, t.UUID)
		m.mu.Unlock()
		m.sem.Release(1)
		a.cancel(nil)
		close(a.done)
		m.wg.Done()
	}()

	result, err := model.Train(ctx, epochs, model.TrainOptions{
		EpochDuration: m.opts.EpochDuration,
		OnEpoch: func(epoch int, loss float64) {
			t.History = append(t.History, loss)
			m.metrics.TrainEpoch(loss)
			if err := m.store.Put(t); err != nil {
				log.Warnf(ctx, "Unable to record epoch %d: %v", epoch, err)
			}
		},
	})
	if err == nil && m.opts.ModelsDir != "" {
		t.Checkpoint, err = checkpoint.Save(m.opts.ModelsDir, t.UUID, t.History)
	}

	finished := time.Now().UTC()
	t.Finished = &finished
	switch {
	case err == nil:
		t.Status = store.Done
		t.Result = result
	case errors.Is(context.Cause(ctx), errShutdown):
		t.Status = store.Failed
		t.Error = errShutdown.Error()
	case errors.Is(err, context.Canceled):
		t.Status = store.Cancelled
	default:
		t.Status = store.Failed
		t.Error = err.Error()
	}
	if err := m.store.Put(t); err != nil {
		log.Errorf(ctx, "Unable to record training result: %v", err)
	}
	m.metrics.TrainFinished(string(t.Status))
	log.Infof(ctx, "Training finished with status %s", t.Status)
}

// Get returns the record of a run.
func (m *Manager) Get(id string) (*store.Training, error) {
	return m.store.Get(id)
}

// List returns every run, oldest first.
func (m *Manager) List() ([]*store.Training, error) {
	return m.store.List()
}

// Cancel stops a running run and returns its final record. Cancelling a
// finished run returns its record unchanged.
func (m *Manager) Cancel(id string) (*store.Training, error) {
	m.mu.Lock()
	a := m.runs[id]
	m.mu.Unlock()
	if a != nil {
		a.cancel(nil)
		<-a.done
	}
	return m.store.Get(id)
}

// Wait blocks until the run is no longer running or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (*store.Training, error) {
	m.mu.Lock()
	a := m.runs[id]
	m.mu.Unlock()
	if a != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.store.Get(id)
}

// Shutdown stops every active run, recording it as failed, and waits for
// them to be recorded.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, a := range m.runs {
		a.cancel(errShutdown)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
