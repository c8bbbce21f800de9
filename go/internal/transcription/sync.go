// Package transcription keeps the displayed transcription in step with the
// keyboard service's cell buffer.
package transcription

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/models"
)

type Translator interface {
	Translate(ctx context.Context, buffer []models.Cell) (*keyboard_client.TranslateResult, error)
}

type Announcer interface {
	Announce(message, languageTag string)
}

// Sync applies translation replies in issue order. Every request is tagged
// with a sequence number and a reply is dropped once a later-issued one has
// been applied.
type Sync struct {
	translator  Translator
	announcer   Announcer
	languageTag string

	mu         sync.Mutex
	nextSeq    uint64
	appliedSeq uint64
	current    models.Transcription
	// buffer is the cell buffer current was translated from.
	buffer     []models.Cell
	observer   func(models.Transcription)
	wg         sync.WaitGroup
}

func NewSync(translator Translator, announcer Announcer, languageTag string) *Sync {
	return &Sync{
		translator:  translator,
		announcer:   announcer,
		languageTag: languageTag,
	}
}

// SetObserver registers fn to be called after the transcription changes.
func (s *Sync) SetObserver(fn func(models.Transcription)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Request issues a translation of buffer without waiting for the reply.
// cursor is the buffer-state cursor, used when the reply carries none.
func (s *Sync) Request(ctx context.Context, buffer []models.Cell, cursor int) {
	seq := s.Begin()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.translate(ctx, seq, buffer, cursor)
	}()
}

// Begin reserves the next sequence number.
func (s *Sync) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

func (s *Sync) translate(ctx context.Context, seq uint64, buffer []models.Cell, cursor int) {
	res, err := s.translator.Translate(ctx, buffer)
	if err != nil {
		log.Error().Err(err).Uint64("seq", seq).Msg("translation failed")
		return
	}
	tr, ok := res.Transcription(cursor)
	if !ok {
		log.Debug().Uint64("seq", seq).Msg("translation reply carried no text")
		return
	}
	s.apply(seq, tr, buffer)
}

// Resolve returns the transcription of buffer. The applied transcription
// is reused when it was translated from the same buffer; otherwise buffer
// is translated now and the reply applied like any other.
func (s *Sync) Resolve(ctx context.Context, buffer []models.Cell, cursor int) (models.Transcription, error) {
	if tr, ok := s.CurrentFor(buffer); ok {
		return tr, nil
	}
	seq := s.Begin()
	res, err := s.translator.Translate(ctx, buffer)
	if err != nil {
		return models.Transcription{}, fmt.Errorf("failed to resolve transcription: %w", err)
	}
	tr, ok := res.Transcription(cursor)
	if !ok {
		return models.Transcription{}, nil
	}
	s.apply(seq, tr, buffer)
	return tr, nil
}

// Apply installs tr if seq is newer than the last applied reply and
// announces the unit under the caret when the state changed. It reports
// whether the reply was accepted.
func (s *Sync) Apply(seq uint64, tr models.Transcription) bool {
	return s.apply(seq, tr, nil)
}

func (s *Sync) apply(seq uint64, tr models.Transcription, buffer []models.Cell) bool {
	s.mu.Lock()
	if applied := s.appliedSeq; seq <= applied {
		s.mu.Unlock()
		log.Debug().Uint64("seq", seq).Uint64("applied", applied).Msg("dropping stale translation")
		return false
	}
	s.appliedSeq = seq
	changed := !s.current.Equal(tr)
	s.current = tr
	s.buffer = slices.Clone(buffer)
	if changed {
		if unit := tr.CaretUnit(); unit != "" {
			s.announcer.Announce(unit, s.languageTag)
		}
	}
	observer := s.observer
	s.mu.Unlock()

	if changed && observer != nil {
		observer(tr)
	}
	return true
}

// Clear empties the transcription and drops every reply still in flight.
func (s *Sync) Clear() {
	s.mu.Lock()
	s.invalidateLocked()
	changed := !s.current.IsEmpty()
	s.current = models.Transcription{}
	s.buffer = nil
	observer := s.observer
	s.mu.Unlock()

	if changed && observer != nil {
		observer(models.Transcription{})
	}
}

// Invalidate drops every reply still in flight without touching the
// current state.
func (s *Sync) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

func (s *Sync) invalidateLocked() {
	s.nextSeq++
	s.appliedSeq = s.nextSeq
}

// Current returns the applied transcription.
func (s *Sync) Current() models.Transcription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentFor returns the applied transcription if it was translated from
// buffer.
func (s *Sync) CurrentFor(buffer []models.Cell) (models.Transcription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Equal(s.buffer, buffer) {
		return models.Transcription{}, false
	}
	return s.current, true
}

// Wait blocks until every outstanding request has finished.
func (s *Sync) Wait() {
	s.wg.Wait()
}
