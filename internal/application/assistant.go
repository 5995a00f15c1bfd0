package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"erp-assistant/internal/domain"
)

const helpMessage = "Say create product to add a new product, or show products to hear the catalog."

// Timing holds the fixed delays the conversation loop depends on.
type Timing struct {
	// PostSpeechDelay is waited after speaking a question before the
	// next listening session starts, so the recognizer does not pick
	// up the tail of the synthesized voice.
	PostSpeechDelay time.Duration
	// RefreshDelay is waited after a successful creation before the
	// product list is refreshed.
	RefreshDelay time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		PostSpeechDelay: 800 * time.Millisecond,
		RefreshDelay:    2 * time.Second,
	}
}

// Assistant drives the voice-command loop: capture one utterance,
// route it by the current conversation step, and keep the session
// state consistent. All step and draft mutation happens on the loop
// goroutine; only snapshots cross to the status surface.
type Assistant struct {
	audio    AudioSource
	stt      SpeechToText
	speaker  Speaker
	products ProductService
	notifier Notifier
	timing   Timing
	logger   *slog.Logger

	session *domain.Session

	mu      sync.Mutex
	enabled bool
	resume  chan struct{}
}

func NewAssistant(
	audio AudioSource,
	stt SpeechToText,
	speaker Speaker,
	products ProductService,
	notifier Notifier,
	timing Timing,
	logger *slog.Logger,
) *Assistant {
	if timing.PostSpeechDelay <= 0 {
		timing.PostSpeechDelay = DefaultTiming().PostSpeechDelay
	}
	if timing.RefreshDelay <= 0 {
		timing.RefreshDelay = DefaultTiming().RefreshDelay
	}
	return &Assistant{
		audio:    audio,
		stt:      stt,
		speaker:  speaker,
		products: products,
		notifier: notifier,
		timing:   timing,
		logger:   logger,
		session:  domain.NewSession(),
		enabled:  true,
		resume:   make(chan struct{}),
	}
}

// Snapshot exposes the session state for the status surface.
func (a *Assistant) Snapshot() domain.SessionSnapshot {
	return a.session.Snapshot()
}

// Session exposes the conversation session.
func (a *Assistant) Session() *domain.Session {
	return a.session
}

// StartListening re-enables the capture loop after StopListening.
func (a *Assistant) StartListening() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled {
		a.enabled = true
		close(a.resume)
		a.resume = make(chan struct{})
	}
}

// StopListening pauses the capture loop after the in-flight utterance,
// if any, completes. Conversation state is left untouched.
func (a *Assistant) StopListening() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = false
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		// The recognizer being unavailable must not crash the host:
		// surface it once and keep serving the status endpoints.
		a.logger.Error("audio source unavailable", "error", err)
		a.session.SetStatus(fmt.Sprintf("speech recognition unavailable: %v", err))
		<-ctx.Done()
		return ctx.Err()
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneUtterance(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				a.logger.Error("processing utterance", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (a *Assistant) processOneUtterance(ctx context.Context) error {
	if err := a.waitUntilEnabled(ctx); err != nil {
		return err
	}

	text, err := a.listenOnce(ctx)
	if err != nil {
		// Shutdown is not a recognition failure; leave the last
		// meaningful status in place.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			a.session.SetStatus(fmt.Sprintf("speech recognition error: %v", err))
		}
		return err
	}

	// A listening session that produced nothing is not an answer: the
	// conversation stays in its current step until the user speaks.
	if strings.TrimSpace(text) == "" {
		return nil
	}

	a.session.SetLastTranscript(text)

	if a.session.Step() == domain.StepIdle {
		a.handleIdleCommand(ctx, text)
		return nil
	}
	a.handleAnswer(ctx, text)
	return nil
}

// listenOnce runs exactly one listening session and returns its
// finalized transcript. The listening flag brackets the whole session,
// including transcription.
func (a *Assistant) listenOnce(ctx context.Context) (string, error) {
	a.session.SetListening(true)
	defer a.session.SetListening(false)

	data, err := a.audio.NextCommand(ctx)
	if err != nil {
		return "", fmt.Errorf("getting audio: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	if directText, isText := isTextCommand(data); isText {
		a.logger.Info("received text command directly", "text", directText)
		return directText, nil
	}

	a.logger.Info("received audio", "bytes", len(data))
	text, err := a.stt.Transcribe(ctx, data)
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}
	a.logger.Info("transcribed", "text", text)
	return text, nil
}

func (a *Assistant) handleIdleCommand(ctx context.Context, text string) {
	switch ClassifyCommand(text) {
	case domain.CommandCreateProduct:
		a.session.Begin(uuid.NewString())
		a.session.SetStatus("creating a new product")
		a.logger.Info("create-product conversation started", "session", a.session.ID())
		a.askCurrentQuestion(ctx)

	case domain.CommandListProducts:
		a.announceProducts(ctx)

	default:
		a.logger.Info("unrecognized command", "text", text)
		a.session.SetStatus("command not recognized")
		a.say(ctx, helpMessage)
	}
}

func (a *Assistant) handleAnswer(ctx context.Context, text string) {
	step := a.session.Step()
	draft := a.session.Draft()

	out := ApplyAnswer(step, text, &draft)
	a.session.SetDraft(draft)

	if out.Retry {
		a.logger.Info("answer not usable, re-asking", "step", step, "text", text)
		a.askCurrentQuestion(ctx)
		return
	}

	a.session.SetStep(out.Next)

	if out.Complete {
		a.submit(ctx, draft)
		return
	}
	a.askCurrentQuestion(ctx)
}

// askCurrentQuestion speaks the question for the current step, then
// waits the post-speech delay so the next listening session never
// overlaps the synthesized voice. The next session starts only when
// the caller loops back to listenOnce, which keeps the phases strictly
// sequential.
func (a *Assistant) askCurrentQuestion(ctx context.Context) {
	question := QuestionFor(a.session.Step())
	if question == "" {
		return
	}
	a.say(ctx, question)
	select {
	case <-ctx.Done():
	case <-time.After(a.timing.PostSpeechDelay):
	}
}

// say plays an utterance, masking any speech-output failure: a silent
// platform must never stall the conversation.
func (a *Assistant) say(ctx context.Context, text string) {
	if err := a.speaker.Speak(ctx, text); err != nil {
		a.logger.Warn("speech output failed", "speaker", a.speaker.Name(), "error", err)
	}
}

// submit runs the two-phase creation pipeline: generate a reference
// code, then create the product. Either phase failing ends the
// conversation; creation is never attempted without a code.
func (a *Assistant) submit(ctx context.Context, draft domain.ProductDraft) {
	a.session.SetSubmitting(true)
	defer a.session.SetSubmitting(false)
	defer a.session.Reset()

	code, err := a.products.GenerateReference(ctx, draft.Name)
	if err != nil {
		a.fail(ctx, fmt.Sprintf("generating reference for %q: %v", draft.Name, err))
		return
	}
	if code == "" {
		// No credential available: the call was skipped, not failed.
		a.logger.Warn("no reference generated, skipping creation", "name", draft.Name)
		a.session.SetStatus("product creation skipped: no reference available")
		return
	}

	created, err := a.products.CreateProduct(ctx, domain.NewProduct(draft, code))
	if err != nil {
		// The generated code is discarded; no compensating deletion.
		a.fail(ctx, fmt.Sprintf("creating product %q: %v", draft.Name, err))
		return
	}
	if created == nil {
		a.logger.Warn("product creation skipped", "name", draft.Name)
		a.session.SetStatus("product creation skipped: no credential available")
		return
	}

	a.logger.Info("product created", "name", created.Name, "code", created.Code)
	a.session.SetStatus(fmt.Sprintf("product %s created with reference %s", created.Name, created.Code))
	a.say(ctx, fmt.Sprintf("Product created with reference %s.", created.Code))

	if err := a.notifier.Notify(ctx, fmt.Sprintf("Product '%s' created (%s)", created.Name, created.Code)); err != nil {
		a.logger.Error("notifying result", "error", err)
	}

	a.scheduleRefresh(ctx)
}

// fail announces a terminal submission failure by voice and status
// text. The deferred Reset in submit discards the draft.
func (a *Assistant) fail(ctx context.Context, status string) {
	a.logger.Error("submission failed", "status", status)
	a.session.SetStatus(status)
	a.say(ctx, "Sorry, I could not create the product.")
	if err := a.notifier.Notify(ctx, "Product creation failed: "+status); err != nil {
		a.logger.Error("notifying failure", "error", err)
	}
}

// scheduleRefresh re-reads the product list after a short delay, giving
// the backend time to settle before the count is reported.
func (a *Assistant) scheduleRefresh(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.timing.RefreshDelay):
		}
		products, err := a.products.ListProducts(ctx)
		if err != nil {
			a.logger.Error("refreshing product list", "error", err)
			return
		}
		a.logger.Info("product list refreshed", "count", len(products))
	}()
}

func (a *Assistant) announceProducts(ctx context.Context) {
	products, err := a.products.ListProducts(ctx)
	if err != nil {
		a.logger.Error("listing products", "error", err)
		a.session.SetStatus(fmt.Sprintf("listing products failed: %v", err))
		a.say(ctx, "Sorry, I could not fetch the products.")
		return
	}

	a.session.SetStatus(fmt.Sprintf("%d products", len(products)))
	if len(products) == 0 {
		a.say(ctx, "There are no products yet.")
		return
	}

	names := make([]string, 0, len(products))
	for i, p := range products {
		if i == 5 {
			break
		}
		names = append(names, p.Name)
	}
	a.say(ctx, fmt.Sprintf("There are %d products: %s.", len(products), strings.Join(names, ", ")))
}

func (a *Assistant) waitUntilEnabled(ctx context.Context) error {
	for {
		a.mu.Lock()
		enabled := a.enabled
		resume := a.resume
		a.mu.Unlock()
		if enabled {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resume:
		}
	}
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
