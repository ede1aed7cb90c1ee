package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"warelay/internal/entities"
	"warelay/internal/infrastructure"
	"warelay/internal/interfaces"
	"warelay/internal/repository"
)

// Compiled-in defaults, overridable through bot_config.
const (
	DefaultSystemPrompt = "You are a helpful WhatsApp assistant. You should respond to user messages in a friendly, helpful manner.\n" +
		"Keep your responses concise and relevant to the user's query."
	DefaultApologyText = "I apologize, but I'm having trouble processing your message right now. Please try again later."

	DefaultTemplateName     = "hello_world"
	DefaultTemplateLanguage = "en_US"
)

const dispatchTimeout = 90 * time.Second

// MessageService is the orchestrator: it takes parsed message events, persists
// them, decides per inbound event between the first-contact template and a
// generated follow-up, and dispatches the reply on the channel the event came
// in on. Conversation state is never cached; it is derived from stored history
// on every event.
type MessageService struct {
	store      interfaces.ConversationStore
	ai         interfaces.AIClient
	senders    map[string]interfaces.Messenger
	locks      *infrastructure.ConversationLocks
	configRepo *repository.ConfigRepository
	usageRepo  *repository.UsageRepository
	logger     *slog.Logger

	dispatches sync.WaitGroup
}

func NewMessageService(
	store interfaces.ConversationStore,
	ai interfaces.AIClient,
	senders map[string]interfaces.Messenger,
	configRepo *repository.ConfigRepository,
	usageRepo *repository.UsageRepository,
	logger *slog.Logger,
) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	if senders == nil {
		senders = map[string]interfaces.Messenger{}
	}
	return &MessageService{
		store:      store,
		ai:         ai,
		senders:    senders,
		locks:      infrastructure.NewConversationLocks(),
		configRepo: configRepo,
		usageRepo:  usageRepo,
		logger:     logger.With("component", "relay"),
	}
}

// HandleWebhook processes one raw webhook delivery end to end. It returns
// counts only; replies are dispatched in the background and their outcomes
// never reach the webhook caller.
func (s *MessageService) HandleWebhook(ctx context.Context, payload []byte) entities.WebhookResult {
	return s.HandleEvents(ctx, ParseWebhookPayload(payload))
}

// HandleEvents stores events and triggers replies for the actionable ones.
// Shared by every inbound channel.
func (s *MessageService) HandleEvents(ctx context.Context, events []entities.MessageEvent) entities.WebhookResult {
	result := entities.WebhookResult{Received: len(events)}
	for _, ev := range events {
		result.Stored += s.processOne(ctx, ev)
	}
	return result
}

// processOne runs the per-address critical section: snapshot history, classify
// the event against history *before* it, then append it. The generator and
// the send transport are invoked after the lock is released, on the snapshot
// that was locked in.
func (s *MessageService) processOne(ctx context.Context, ev entities.MessageEvent) int {
	address := ev.ConversationAddress()
	if address == "" {
		s.logger.Warn("event without addresses, skipping", "message_id", ev.ID, "type", ev.Type)
		return 0
	}

	unlock := s.locks.Lock(address)
	var decision *entities.ResponseDecision
	if ev.Actionable() {
		d := s.decide(s.store.Fetch(ctx, ev.From, 0), ev)
		decision = &d
	}
	stored := s.store.Append(ctx, []entities.MessageEvent{ev})
	unlock()

	if stored > 0 && ev.From != "" {
		if err := s.usageRepo.IncrementReceived(); err != nil {
			s.logger.Warn("usage counter failed", "error", err)
		}
	}

	if decision != nil {
		s.dispatches.Add(1)
		go func() {
			defer s.dispatches.Done()
			dispatchCtx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
			defer cancel()
			s.respond(dispatchCtx, ev, *decision)
		}()
	}

	return stored
}

// decide classifies the address as first contact or established conversation.
// The triggering event must not count toward its own classification: history
// is snapshotted before it is appended, and as a replay guard any stored
// event carrying the same platform id is excluded as well.
func (s *MessageService) decide(history []entities.MessageEvent, current entities.MessageEvent) entities.ResponseDecision {
	prior := 0
	for _, ev := range history {
		if !isQualifyingInbound(ev, current.From) {
			continue
		}
		if current.ID != "" && ev.ID == current.ID {
			continue
		}
		prior++
	}

	mode := entities.ReplyGenerated
	if prior == 0 {
		mode = entities.ReplyTemplate
	}
	s.logger.Info("decision", "from", current.From, "prior_inbound", prior, "mode", mode)
	return entities.ResponseDecision{Mode: mode, History: history}
}

// isQualifyingInbound reports whether a stored event counts as prior inbound
// contact from the address: message-like type, non-empty body, sent by them.
func isQualifyingInbound(ev entities.MessageEvent, address string) bool {
	if ev.From == "" || ev.From != address || ev.Body == "" {
		return false
	}
	switch ev.Type {
	case entities.TypeText, entities.TypeButton, entities.TypeInteractive:
		return true
	}
	return false
}

// respond produces and dispatches the reply for one decided event. Every
// failure here is logged and swallowed: the batch, and the conversation,
// continue regardless.
func (s *MessageService) respond(ctx context.Context, ev entities.MessageEvent, decision entities.ResponseDecision) {
	sender, ok := s.senders[ev.Channel]
	if !ok {
		s.logger.Error("no sender for channel", "channel", ev.Channel, "to", ev.From)
		return
	}

	outbound := entities.MessageEvent{
		To:        ev.From,
		Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
		Channel:   ev.Channel,
	}

	switch decision.Mode {
	case entities.ReplyTemplate:
		if err := sender.SendTemplate(ctx, ev.From); err != nil {
			s.logger.Error("template dispatch failed", "error", err, "to", ev.From)
			return
		}
		// Synthesized record of the template send; no platform id, no body.
		outbound.Type = "template"

	case entities.ReplyGenerated:
		text, err := s.ai.GenerateResponse(ctx, s.buildPrompt(decision.History, ev.Body))
		if err != nil {
			s.logger.Error("generation failed, using apology", "error", err, "to", ev.From)
			text = s.configRepo.GetConfigOr(repository.ConfigApologyText, DefaultApologyText)
		}
		if err := sender.SendText(ctx, ev.From, text); err != nil {
			s.logger.Error("text dispatch failed", "error", err, "to", ev.From)
			return
		}
		outbound.Type = entities.TypeText
		outbound.Body = text
	}

	s.recordOutbound(ctx, outbound)
}

// SendDirect sends operator-initiated text over a channel and records it.
func (s *MessageService) SendDirect(ctx context.Context, channel, to, body string) error {
	sender, ok := s.senders[channel]
	if !ok {
		return fmt.Errorf("no sender for channel %q", channel)
	}
	to = entities.NormalizeAddress(to)
	if to == "" {
		return fmt.Errorf("destination address is empty after normalization")
	}
	if err := sender.SendText(ctx, to, body); err != nil {
		return err
	}
	s.recordOutbound(ctx, entities.MessageEvent{
		To:        to,
		Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
		Type:      entities.TypeText,
		Body:      body,
		Channel:   channel,
	})
	return nil
}

func (s *MessageService) recordOutbound(ctx context.Context, outbound entities.MessageEvent) {
	unlock := s.locks.Lock(outbound.To)
	s.store.Append(ctx, []entities.MessageEvent{outbound})
	unlock()
	if err := s.usageRepo.IncrementSent(); err != nil {
		s.logger.Warn("usage counter failed", "error", err)
	}
}

// buildPrompt formats the system prompt, the conversation so far (oldest
// first) and the current message the way the generator expects.
func (s *MessageService) buildPrompt(history []entities.MessageEvent, currentBody string) string {
	var lines []string
	for i := len(history) - 1; i >= 0; i-- {
		ev := history[i]
		if ev.Body == "" {
			continue
		}
		if ev.From != "" {
			lines = append(lines, "User: "+ev.Body)
		} else if ev.To != "" {
			lines = append(lines, "Assistant: "+ev.Body)
		}
	}
	historyText := "No previous conversation history."
	if len(lines) > 0 {
		historyText = strings.Join(lines, "\n")
	}

	systemPrompt := s.configRepo.GetConfigOr(repository.ConfigSystemPrompt, DefaultSystemPrompt)
	return fmt.Sprintf(
		"%s\n\nConversation History:\n%s\n\nCurrent User Message: %s\n\nPlease respond as a helpful WhatsApp assistant:",
		systemPrompt, historyText, currentBody,
	)
}

// Flush waits for in-flight reply dispatches. Used by tests and shutdown.
func (s *MessageService) Flush() {
	s.dispatches.Wait()
}
