package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"booktalk/internal/applog"
	"booktalk/internal/model"
	"booktalk/internal/repository"
	"booktalk/internal/repository/memory"
	repoMocks "booktalk/internal/repository/mocks"
	"booktalk/internal/service"
	serviceMocks "booktalk/internal/service/mocks"
	"booktalk/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type assistantFixture struct {
	sessions     *session.Memory
	transcriber  *serviceMocks.MockTranscriptionService
	answerer     *serviceMocks.MockAnswerService
	speech       *serviceMocks.MockSpeechService
	interactions *memory.InteractionMemory
	svc          service.AssistantService
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	applog.SetOutput(io.Discard)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })

	f := &assistantFixture{
		sessions:     session.NewMemory(),
		transcriber:  new(serviceMocks.MockTranscriptionService),
		answerer:     new(serviceMocks.MockAnswerService),
		speech:       new(serviceMocks.MockSpeechService),
		interactions: memory.NewInteractionMemory(),
	}
	f.svc = service.NewAssistantService(service.AssistantDeps{
		Sessions:     f.sessions,
		Transcriber:  f.transcriber,
		Answerer:     f.answerer,
		Speech:       f.speech,
		Interactions: f.interactions,
		StageTimeout: 5 * time.Second,
	})
	return f
}

func hasDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}

func TestAssistantService_Ask(t *testing.T) {
	ctx := context.Background()
	book := model.Document{Key: "uploads/book.pdf", Handle: model.DocumentHandle{URI: "h1"}}
	audio := &model.AudioRef{Key: "uploads/q.wav", MIMEType: "audio/wav"}

	t.Run("audio question synthesizes exactly the answer", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))

		f.transcriber.On("Transcribe", mock.MatchedBy(hasDeadline), *audio).
			Return("What is chapter 2 about?", nil).Once()
		f.answerer.On("Answer", mock.MatchedBy(hasDeadline), mock.MatchedBy(func(d *model.Document) bool {
			return d.Handle.URI == "h1"
		}), "What is chapter 2 about?").Return("Chapter 2 covers X.", "handle", nil).Once()
		f.speech.On("PersistAndServe", mock.MatchedBy(hasDeadline), "Chapter 2 covers X.").
			Return(&model.Answer{Text: "Chapter 2 covers X.", AudioKey: "tts/a.mp3", TranscriptKey: "tts/a.mp3.txt", MediaType: "audio/mpeg"}, nil).Once()

		ans, err := f.svc.Ask(ctx, "s1", service.AskInput{Audio: audio})

		require.NoError(t, err)
		assert.Equal(t, "Chapter 2 covers X.", ans.Text)
		assert.Equal(t, "What is chapter 2 about?", ans.Question)
		assert.Equal(t, "handle", ans.Grounding)
		f.transcriber.AssertExpectations(t)
		f.answerer.AssertExpectations(t)
		f.speech.AssertExpectations(t)

		hist, err := f.interactions.List(ctx, "s1", repository.PageQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, hist.Items, 1)
		assert.Equal(t, "Chapter 2 covers X.", hist.Items[0].Answer)
		assert.Equal(t, "uploads/book.pdf", hist.Items[0].DocumentKey)
	})

	t.Run("typed question skips transcription", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))
		f.answerer.On("Answer", mock.Anything, mock.Anything, "Who is the hero?").Return("Ada.", "handle", nil).Once()
		f.speech.On("PersistAndServe", mock.Anything, "Ada.").Return(&model.Answer{Text: "Ada."}, nil).Once()

		_, err := f.svc.Ask(ctx, "s1", service.AskInput{Audio: audio, Question: " Who is the hero? "})

		require.NoError(t, err)
		f.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	})

	t.Run("no document in session", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "other", book))

		_, err := f.svc.Ask(ctx, "s1", service.AskInput{Question: "Anything?"})

		assert.ErrorIs(t, err, service.ErrNoDocument)
	})

	t.Run("no question at all", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))

		_, err := f.svc.Ask(ctx, "s1", service.AskInput{})

		assert.ErrorIs(t, err, service.ErrEmptyInput)
	})

	t.Run("transcription failure stops the pipeline", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))
		f.transcriber.On("Transcribe", mock.Anything, *audio).
			Return("", &service.StageError{Stage: service.StageTranscription, Kind: service.ErrTranscription, Err: errors.New("boom")}).Once()

		_, err := f.svc.Ask(ctx, "s1", service.AskInput{Audio: audio})

		assert.ErrorIs(t, err, service.ErrTranscription)
		f.answerer.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything, mock.Anything)
		hist, _ := f.interactions.List(ctx, "s1", repository.PageQuery{Limit: 10})
		assert.Zero(t, hist.Total)
	})

	t.Run("synthesis failure loses the answer", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))
		f.answerer.On("Answer", mock.Anything, mock.Anything, "Q?").Return("A.", "handle", nil).Once()
		f.speech.On("PersistAndServe", mock.Anything, "A.").
			Return(nil, &service.StageError{Stage: service.StageSynthesis, Kind: service.ErrSynthesis}).Once()

		ans, err := f.svc.Ask(ctx, "s1", service.AskInput{Question: "Q?"})

		assert.Nil(t, ans)
		assert.ErrorIs(t, err, service.ErrSynthesis)
	})

	t.Run("ledger failure does not fail the request", func(t *testing.T) {
		repo := new(repoMocks.MockInteractionRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
		f := newAssistantFixture(t)
		f.svc = service.NewAssistantService(service.AssistantDeps{
			Sessions:     f.sessions,
			Transcriber:  f.transcriber,
			Answerer:     f.answerer,
			Speech:       f.speech,
			Interactions: repo,
		})
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))
		f.answerer.On("Answer", mock.Anything, mock.Anything, "Q?").Return("A.", "inline", nil).Once()
		f.speech.On("PersistAndServe", mock.Anything, "A.").Return(&model.Answer{Text: "A."}, nil).Once()

		ans, err := f.svc.Ask(ctx, "s1", service.AskInput{Question: "Q?"})

		require.NoError(t, err)
		assert.Equal(t, "inline", ans.Grounding)
		repo.AssertExpectations(t)
	})

	t.Run("cancelled request context reaches the stage", func(t *testing.T) {
		f := newAssistantFixture(t)
		require.NoError(t, f.sessions.SetDocument(ctx, "s1", book))
		cctx, cancel := context.WithCancel(ctx)
		f.answerer.On("Answer", mock.Anything, mock.Anything, "Q?").
			Run(func(args mock.Arguments) { cancel() }).
			Return("A.", "handle", nil).Once()
		f.speech.On("PersistAndServe", mock.MatchedBy(func(c context.Context) bool {
			return errors.Is(c.Err(), context.Canceled)
		}), "A.").Return(nil, context.Canceled).Once()

		_, err := f.svc.Ask(cctx, "s1", service.AskInput{Question: "Q?"})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAssistantService_Speak(t *testing.T) {
	ctx := context.Background()
	f := newAssistantFixture(t)
	f.speech.On("PersistAndServe", mock.MatchedBy(hasDeadline), "Hello there").
		Return(&model.Answer{Text: "Hello there", AudioKey: "tts/h.mp3"}, nil).Once()

	ans, err := f.svc.Speak(ctx, "Hello there")

	require.NoError(t, err)
	assert.Equal(t, "tts/h.mp3", ans.AudioKey)
	f.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	f.answerer.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssistantService_History(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockInteractionRepository)
	svc := service.NewAssistantService(service.AssistantDeps{Interactions: repo})

	repo.On("List", ctx, "s1", repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Interaction]{Items: []model.Interaction{{ID: "i1"}}, Total: 1}, nil).Once()

	res, err := svc.History(ctx, "s1", 0, -5)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	repo.AssertExpectations(t)
}
