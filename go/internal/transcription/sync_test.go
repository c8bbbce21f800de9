package transcription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/models"
)

type fakeAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAnnouncer) Announce(message, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *fakeAnnouncer) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type reply struct {
	res *keyboard_client.TranslateResult
	err error
}

// gatedTranslator hands out replies in the order the test releases them.
type gatedTranslator struct {
	calls chan chan reply
}

func newGatedTranslator() *gatedTranslator {
	return &gatedTranslator{calls: make(chan chan reply, 8)}
}

func (g *gatedTranslator) Translate(ctx context.Context, _ []models.Cell) (*keyboard_client.TranslateResult, error) {
	ch := make(chan reply, 1)
	g.calls <- ch
	r := <-ch
	return r.res, r.err
}

func textReply(text string, cursor int) reply {
	return reply{res: &keyboard_client.TranslateResult{Text: &text, Cursor: &cursor}}
}

func TestApplyRendersCaretSegments(t *testing.T) {
	announcer := &fakeAnnouncer{}
	s := NewSync(nil, announcer, "en-US")

	require.True(t, s.Apply(s.Begin(), models.NewTextTranscription("cat", 3)))

	cur := s.Current()
	assert.Equal(t, "cat", cur.Text())
	assert.Equal(t, models.Segments{Before: "ca", Highlighted: "t"}, cur.Segments())
	assert.Equal(t, []string{"t"}, announcer.Messages())
}

func TestOlderReplyNeverOverwritesNewer(t *testing.T) {
	announcer := &fakeAnnouncer{}
	s := NewSync(nil, announcer, "en-US")

	first := s.Begin()
	second := s.Begin()

	require.True(t, s.Apply(second, models.NewTextTranscription("cat", 1)))
	assert.False(t, s.Apply(first, models.NewTextTranscription("ca", 1)))

	assert.Equal(t, "cat", s.Current().Text())
	assert.Equal(t, []string{"a"}, announcer.Messages())
}

func TestUnchangedReplyIsNotReannounced(t *testing.T) {
	announcer := &fakeAnnouncer{}
	s := NewSync(nil, announcer, "en-US")

	s.Apply(s.Begin(), models.NewTextTranscription("dog", 0))
	s.Apply(s.Begin(), models.NewTextTranscription("dog", 0))
	s.Apply(s.Begin(), models.NewTextTranscription("dog", 1))

	assert.Equal(t, []string{"d", "o"}, announcer.Messages())
}

func TestRequestsResolvedOutOfOrder(t *testing.T) {
	translator := newGatedTranslator()
	announcer := &fakeAnnouncer{}
	s := NewSync(translator, announcer, "en-US")
	ctx := context.Background()

	s.Request(ctx, []models.Cell{1}, 0)
	older := <-translator.calls
	s.Request(ctx, []models.Cell{1, 2}, 0)
	newer := <-translator.calls

	newer <- textReply("ab", 2)
	require.Eventually(t, func() bool { return s.Current().Text() == "ab" }, time.Second, time.Millisecond)
	older <- textReply("a", 1)
	s.Wait()

	assert.Equal(t, "ab", s.Current().Text())
	assert.Equal(t, []string{"b"}, announcer.Messages())
}

func TestClearDropsInFlightReplies(t *testing.T) {
	translator := newGatedTranslator()
	s := NewSync(translator, &fakeAnnouncer{}, "en-US")

	var observed []string
	s.SetObserver(func(tr models.Transcription) { observed = append(observed, tr.Text()) })

	s.Apply(s.Begin(), models.NewTextTranscription("x", 0))
	s.Request(context.Background(), []models.Cell{1}, 0)
	pending := <-translator.calls

	s.Clear()
	pending <- textReply("late", 4)
	s.Wait()

	assert.True(t, s.Current().IsEmpty())
	assert.Equal(t, []string{"x", ""}, observed)
}

func TestTranslationFailureKeepsState(t *testing.T) {
	translator := newGatedTranslator()
	s := NewSync(translator, &fakeAnnouncer{}, "en-US")
	s.Apply(s.Begin(), models.NewTextTranscription("keep", 0))

	s.Request(context.Background(), nil, 0)
	(<-translator.calls) <- reply{err: errors.New("connection refused")}
	s.Request(context.Background(), nil, 0)
	(<-translator.calls) <- reply{res: &keyboard_client.TranslateResult{}}
	s.Wait()

	assert.Equal(t, "keep", s.Current().Text())
}

func TestMissingCursorFallsBackToBufferCursor(t *testing.T) {
	translator := newGatedTranslator()
	s := NewSync(translator, &fakeAnnouncer{}, "ko-KR")

	s.Request(context.Background(), nil, 1)
	(<-translator.calls) <- reply{res: &keyboard_client.TranslateResult{Syllables: []string{"가", " ", "나"}}}
	s.Wait()

	assert.Equal(t, 1, s.Current().Cursor)
	assert.Equal(t, "가 나", s.Current().Text())
}

func TestResolveReusesMatchingTranscription(t *testing.T) {
	translator := newGatedTranslator()
	s := NewSync(translator, &fakeAnnouncer{}, "en-US")
	ctx := context.Background()

	s.Request(ctx, []models.Cell{1, 2}, 2)
	(<-translator.calls) <- textReply("ca", 2)
	s.Wait()

	tr, err := s.Resolve(ctx, []models.Cell{1, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, "ca", tr.Text())
	assert.Empty(t, translator.calls)
}

func TestResolveTranslatesNewerBuffer(t *testing.T) {
	translator := newGatedTranslator()
	s := NewSync(translator, &fakeAnnouncer{}, "en-US")
	ctx := context.Background()

	s.Request(ctx, []models.Cell{1, 2}, 2)
	(<-translator.calls) <- textReply("ca", 2)
	s.Wait()

	// the poll's own translation of the longer buffer is still outstanding
	s.Request(ctx, []models.Cell{1, 2, 3}, 3)
	pending := <-translator.calls

	go func() { (<-translator.calls) <- textReply("cat", 3) }()
	tr, err := s.Resolve(ctx, []models.Cell{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, "cat", tr.Text())
	assert.Equal(t, "cat", s.Current().Text())

	pending <- textReply("cat", 3)
	s.Wait()
	got, ok := s.CurrentFor([]models.Cell{1, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, "cat", got.Text())
}
