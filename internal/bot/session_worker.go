package bot

import (
	"github.com/rs/zerolog/log"
)

// SetHandler must be called before StartWorker.
func (s *UserSession) SetHandler(handler MessageHandler) {
	s.handler = handler
}

// StartWorker runs the session's inbox loop. Messages of one user are
// handled one at a time and in order; users never wait on each other.
func (s *UserSession) StartWorker() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				s.releaseQueued()
				return
			case msg := <-s.inbox:
				s.processMessage(msg)
			}
		}
	}()
}

// releaseQueued unblocks SendSync callers whose messages will never run.
func (s *UserSession) releaseQueued() {
	for {
		select {
		case msg := <-s.inbox:
			msg.done()
		default:
			return
		}
	}
}

func (s *UserSession) processMessage(msg SessionMessage) {
	defer msg.done()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("userId", s.userId).
				Str("type", msg.Type).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
	}()

	if s.handler == nil {
		log.Error().Int64("userId", s.userId).Msg("session handler not set")
		return
	}
	s.handler.HandleSessionMessage(msg.Ctx, s, msg)
}

// Send queues msg without waiting for it. On a stopped session the message
// is dropped.
func (s *UserSession) Send(msg SessionMessage) {
	if s.ctx.Err() != nil {
		msg.done()
		return
	}
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		msg.done()
	}
}

// SendSync queues msg and returns once the worker is done with it.
func (s *UserSession) SendSync(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Send(msg)
	<-msg.Done
}

// Stop cancels the worker and waits for it to exit.
func (s *UserSession) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (m SessionMessage) done() {
	if m.Done != nil {
		close(m.Done)
	}
}
