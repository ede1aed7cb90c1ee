package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"warelay/internal/entities"
)

// WhatsAppDeviceClient is the optional personal-session channel: a whatsmeow
// client logged in as a device via QR, feeding inbound messages into the same
// pipeline as the Cloud API webhook.
type WhatsAppDeviceClient struct {
	Client *whatsmeow.Client

	// Events is the orchestrator entry point, injected from main.
	Events func(ctx context.Context, events []entities.MessageEvent) entities.WebhookResult
	// Welcome resolves the greeting used in place of a platform template.
	Welcome func() string

	logger *slog.Logger

	qrCode string
	qrLock sync.RWMutex
}

func NewWhatsAppDeviceClient(dbPath string, logger *slog.Logger) (*WhatsAppDeviceClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbLog := waLog.Stdout("Database", "WARN", true)
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	clientLog := waLog.Stdout("Client", "WARN", true)
	w := &WhatsAppDeviceClient{
		Client: whatsmeow.NewClient(deviceStore, clientLog),
		logger: logger.With("component", "whatsmeow"),
	}
	w.Client.AddEventHandler(w.handleEvent)
	return w, nil
}

// Connect logs in, printing a QR flow for fresh sessions. The current QR code
// is also kept for the dashboard endpoint.
func (w *WhatsAppDeviceClient) Connect() error {
	if w.Client.Store.ID == nil {
		qrChan, _ := w.Client.GetQRChannel(context.Background())
		if err := w.Client.Connect(); err != nil {
			return err
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					w.qrLock.Lock()
					w.qrCode = evt.Code
					w.qrLock.Unlock()
					w.logger.Info("qr code issued, scan to log in")
				} else {
					w.logger.Info("login event", "event", evt.Event)
				}
			}
		}()
		return nil
	}

	if err := w.Client.Connect(); err != nil {
		return err
	}
	w.logger.Info("connected with existing session", "number", w.Client.Store.ID.User)
	return nil
}

func (w *WhatsAppDeviceClient) GetQR() string {
	w.qrLock.RLock()
	defer w.qrLock.RUnlock()
	return w.qrCode
}

func (w *WhatsAppDeviceClient) IsLoggedIn() bool {
	return w.Client.Store.ID != nil
}

func (w *WhatsAppDeviceClient) Disconnect() {
	w.Client.Disconnect()
}

func (w *WhatsAppDeviceClient) handleEvent(evt interface{}) {
	msg, ok := evt.(*events.Message)
	if !ok {
		return
	}
	if msg.Info.IsGroup || msg.Info.IsFromMe {
		return
	}

	var body string
	if msg.Message.Conversation != nil {
		body = *msg.Message.Conversation
	} else if msg.Message.ExtendedTextMessage != nil && msg.Message.ExtendedTextMessage.Text != nil {
		body = *msg.Message.ExtendedTextMessage.Text
	}

	var own string
	if w.Client.Store.ID != nil {
		own = w.Client.Store.ID.User
	}

	ev := entities.MessageEvent{
		ID:        string(msg.Info.ID),
		From:      entities.NormalizeAddress(msg.Info.Sender.User),
		To:        entities.NormalizeAddress(own),
		Timestamp: strconv.FormatInt(msg.Info.Timestamp.Unix(), 10),
		Type:      entities.TypeText,
		Body:      body,
		Channel:   entities.ChannelWhatsmeow,
	}

	if w.Events == nil {
		return
	}
	result := w.Events(context.Background(), []entities.MessageEvent{ev})
	w.logger.Debug("message relayed", "from", ev.From, "stored", result.Stored)
}

// SendText delivers a message over the device session.
func (w *WhatsAppDeviceClient) SendText(ctx context.Context, to, body string) error {
	jid, err := types.ParseJID(to + "@s.whatsapp.net")
	if err != nil {
		return fmt.Errorf("invalid number format: %w", err)
	}
	_, err = w.Client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &body,
	})
	return err
}

// SendTemplate sends the configured greeting text; device sessions have no
// pre-approved-template API.
func (w *WhatsAppDeviceClient) SendTemplate(ctx context.Context, to string) error {
	welcome := DefaultWelcome
	if w.Welcome != nil {
		welcome = w.Welcome()
	}
	return w.SendText(ctx, to, welcome)
}
