package executor

import "sync"

// Loop is the default, minimal Executor/SerializerFactory: each task
// submitted via Submit runs on its own fresh goroutine, and NewSerializer
// hands out an independent, single-goroutine task queue guaranteeing
// at-most-one-task-running-at-a-time (the "serializer" of spec.md §3).
//
// This is intentionally not a re-implementation of eventloop.Loop's
// reactor (no timer heap, no FD poller, no microtask ring) — those are
// the out-of-scope collaborator this module only consumes through the
// Executor/Serializer/Timer interfaces. Loop exists so the module is
// runnable and testable without an external reactor.
type Loop struct {
	logger        Logger
	queueCapacity int
}

// New constructs the default Executor/SerializerFactory/TimerFactory.
func New(opts ...Option) *Loop {
	cfg := resolveOptions(opts)
	return &Loop{logger: cfg.logger, queueCapacity: cfg.queueCapacity}
}

// Submit runs task on a fresh goroutine. There is no shared ordering
// between calls to Submit; use NewSerializer for ordered execution.
func (l *Loop) Submit(task Task) {
	go task()
}

// NewSerializer returns a fresh, independent serializer, whose task queue is
// sized per WithQueueCapacity (256 by default).
func (l *Loop) NewSerializer() Serializer {
	s := &serializer{
		tasks:  make(chan Task, l.queueCapacity),
		done:   make(chan struct{}),
		logger: l.logger,
	}
	go s.run()
	return s
}

// serializer is a single-consumer-goroutine task queue: it is the
// workhorse "cooperative serializer" every primitive routes its state
// mutations through. Grounded on eventloop/loop.go's ingress-queue +
// single run-loop idiom, trimmed to the minimum spec.md §3 requires.
type serializer struct {
	tasks   chan Task
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
	logger  Logger
}

func (s *serializer) run() {
	for t := range s.tasks {
		s.runTask(t)
	}
	close(s.done)
}

func (s *serializer) runTask(t Task) {
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil && s.logger.IsEnabled() {
				s.logger.Log("serializer", map[string]any{"panic": r}, "recovered panic in serializer task")
			}
		}
	}()
	t()
}

// Submit posts task to run on the serializer's single goroutine, after
// every task already queued. Safe to call from any goroutine, including
// from within a task currently running on this serializer (it will simply
// queue behind the current task, since Submit never blocks waiting for
// task itself to run). Submit does block while the task queue is full (see
// WithQueueCapacity), so a task that submits to its own serializer relies
// on the queue having room.
func (s *serializer) Submit(task Task) {
	s.closeMu.Lock()
	closed := s.closed
	s.closeMu.Unlock()
	if closed {
		return
	}
	s.tasks <- task
}

// Close stops the serializer's goroutine once its current queue drains.
// Tasks submitted after Close is called are dropped.
func (s *serializer) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	s.closeMu.Unlock()
	close(s.tasks)
	<-s.done
}
