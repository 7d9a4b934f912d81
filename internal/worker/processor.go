package worker

import (
	"context"
	"errors"
	"sync"

	"saldo/internal/amqp"
	"saldo/internal/log"
)

// EventSource delivers ledger events until ctx is cancelled. *amqp.Client
// implements it.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// Processor runs an ActivityWorker against an EventSource in the background.
type Processor struct {
	source EventSource
	worker *ActivityWorker
	logger *log.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

func NewProcessor(source EventSource, worker *ActivityWorker, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		source: source,
		worker: worker,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins consuming. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("activity processor is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	p.err = nil

	go p.run(runCtx, p.doneCh)

	p.logger.InfoContext(ctx, "Activity processor started")
	return nil
}

func (p *Processor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	err := p.source.ConsumeLedgerEvents(ctx, p.worker.HandleLedgerEvent)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "Activity processor stopped with error", log.FieldError, err)
	}

	p.mu.Lock()
	p.err = err
	p.running = false
	p.mu.Unlock()
}

// Stop cancels consumption and waits for the in-flight message to finish.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.doneCh
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
		p.logger.InfoContext(ctx, "Activity processor stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Activity processor stop timed out")
		return ctx.Err()
	}
}

// Done is closed when the consume loop exits.
func (p *Processor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

// Err returns the error that ended the last run, if any.
func (p *Processor) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
