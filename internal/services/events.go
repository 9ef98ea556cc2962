package services

import (
	"context"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

const (
	eventBuffer    = 256
	publishTimeout = 15 * time.Second
)

// event is a pending message queued under the state lock. flush hands it to
// the publisher goroutine once the lock is released.
type event struct {
	ctx      context.Context
	changed  *amqp.ExpenseChangedMessage
	archived *amqp.MonthArchivedMessage
}

func (s *FinanceService) emitChangedLocked(action string, e core.Expense) {
	if s.publisher == nil {
		return
	}
	s.outbox = append(s.outbox, event{changed: amqp.NewExpenseChangedMessage(action, e)})
}

func (s *FinanceService) emitStatusLocked(expenseID string, month core.MonthKey, isPaid bool) {
	if s.publisher == nil {
		return
	}
	s.outbox = append(s.outbox, event{changed: amqp.NewStatusChangedMessage(expenseID, month, isPaid)})
}

func (s *FinanceService) emitArchivedLocked(snapshot core.MonthlyData) {
	if s.publisher == nil {
		return
	}
	s.outbox = append(s.outbox, event{archived: amqp.NewMonthArchivedMessage(snapshot)})
}

// startPublisher launches the goroutine that drains the event queue.
func (s *FinanceService) startPublisher() {
	s.events = make(chan event, eventBuffer)
	s.published = make(chan struct{})
	go s.publishLoop()
}

// flush hands queued events to the publisher goroutine. It must be called
// without holding s.mu and never blocks: when the queue is full or the
// service is closed the event is dropped and logged.
func (s *FinanceService) flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)

	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	for _, ev := range pending {
		if s.eventsClosed {
			s.logger.WarnContext(ctx, "Service closed, dropping event")
			continue
		}
		ev.ctx = detached
		select {
		case s.events <- ev:
		default:
			s.logger.WarnContext(ctx, "Event queue full, dropping event", "capacity", eventBuffer)
		}
	}
}

func (s *FinanceService) publishLoop() {
	defer close(s.published)
	for ev := range s.events {
		ctx, cancel := context.WithTimeout(ev.ctx, publishTimeout)
		var err error
		switch {
		case ev.changed != nil:
			err = s.publisher.PublishExpenseChanged(ctx, ev.changed)
		case ev.archived != nil:
			err = s.publisher.PublishMonthArchived(ctx, ev.archived)
		}
		cancel()
		if err != nil {
			s.logger.ErrorContext(ev.ctx, "Failed to publish event", "error", err)
		}
	}
}

// stopPublisher closes the queue and waits until every accepted event has
// been handed to the publisher.
func (s *FinanceService) stopPublisher() {
	if s.events == nil {
		return
	}
	s.eventsMu.Lock()
	if !s.eventsClosed {
		s.eventsClosed = true
		close(s.events)
	}
	s.eventsMu.Unlock()
	<-s.published
}
