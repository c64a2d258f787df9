package assemblyai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	DefaultURL         = "wss://streaming.assemblyai.com/v3/ws"
	DefaultSpeechModel = "universal-streaming-multilingual"

	writeWait = 5 * time.Second
)

var (
	// ErrLinkClosed is returned by writes on a link that has been closed.
	ErrLinkClosed = errors.New("link closed")
	// ErrNotReady is returned by Send before the service has sent Begin.
	ErrNotReady = errors.New("link not ready")
)

// Params are the per-session knobs of a streaming connection.
type Params struct {
	SampleRate          int
	EndOfTurnConfidence float64
	MinEndOfTurnSilence int
	MaxTurnSilence      int
	KeytermsPrompt      []string
}

type Client struct {
	URL         string
	APIKey      string
	SpeechModel string
	Dialer      *websocket.Dialer
	logger      *log.Logger
}

func NewClient(apiKey string, logger *log.Logger) *Client {
	return &Client{
		URL:         DefaultURL,
		APIKey:      apiKey,
		SpeechModel: DefaultSpeechModel,
		Dialer:      websocket.DefaultDialer,
		logger:      logger,
	}
}

// Query encodes p as the connection query string. Language detection and
// turn formatting are always on.
func (c *Client) Query(p Params) url.Values {
	q := url.Values{}
	q.Set("sample_rate", strconv.Itoa(p.SampleRate))
	q.Set("speech_model", c.SpeechModel)
	q.Set("language_detection", "true")
	q.Set("format_turns", "true")
	q.Set(
		"end_of_turn_confidence_threshold",
		strconv.FormatFloat(p.EndOfTurnConfidence, 'f', -1, 64),
	)
	q.Set(
		"min_end_of_turn_silence_when_confident",
		strconv.Itoa(p.MinEndOfTurnSilence),
	)
	q.Set("max_turn_silence", strconv.Itoa(p.MaxTurnSilence))
	for _, term := range p.KeytermsPrompt {
		q.Add("keyterms_prompt", term)
	}
	return q
}

// Connect opens a streaming connection. It does not retry.
func (c *Client) Connect(ctx context.Context, p Params) (*Link, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	u.RawQuery = c.Query(p).Encode()

	header := http.Header{}
	header.Set("Authorization", c.APIKey)

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	c.logger.Debug("dial", "url", c.URL, "rate", p.SampleRate)
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connect: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connect: %w", err)
	}

	link := &Link{
		conn:   conn,
		logger: c.logger,
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	go link.read()

	return link, nil
}

// Link is one live connection to the streaming service.
type Link struct {
	conn   *websocket.Conn
	logger *log.Logger
	events chan Event
	done   chan struct{}

	writeMu sync.Mutex

	mu         sync.Mutex
	began      bool
	closed     bool
	terminated bool

	closeOnce sync.Once
	closeErr  error
}

// Events delivers decoded messages in arrival order. It is closed after
// the Closed event, or without it once Close has been called.
func (l *Link) Events() <-chan Event {
	return l.events
}

func (l *Link) status() (began, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.began, l.closed
}

// Send forwards one audio frame unmodified.
func (l *Link) Send(frame []byte) error {
	began, closed := l.status()
	if closed {
		return ErrLinkClosed
	}
	if !began {
		return ErrNotReady
	}
	return l.write(websocket.BinaryMessage, frame)
}

// Terminate asks the service to flush and end the session. Only the first
// call on a link writes anything.
func (l *Link) Terminate() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLinkClosed
	}
	if l.terminated {
		l.mu.Unlock()
		return nil
	}
	l.terminated = true
	l.mu.Unlock()

	return l.writeJSON(terminateDirective{Type: "Terminate"})
}

// ForceEndpoint closes the current turn immediately.
func (l *Link) ForceEndpoint() error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrLinkClosed
	}

	return l.writeJSON(forceEndpointDirective{
		Type:                "ForceEndpoint",
		EndOfTurnConfidence: 1.0,
	})
}

// Close is idempotent.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)

		_ = l.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

func (l *Link) write(messageType int, data []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (l *Link) writeJSON(v any) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write directive: %w", err)
	}
	return nil
}

func (l *Link) emit(ev Event) bool {
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

func (l *Link) read() {
	defer close(l.events)
	defer l.Close()

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			l.readFailed(err)
			return
		}

		ev, err := Decode(data)
		if err != nil {
			var unknown *UnknownMessageError
			if errors.As(err, &unknown) {
				l.logger.Debug("skip", "type", unknown.Type)
			} else {
				l.logger.Error("failed to parse message", "error", err)
			}
			continue
		}

		if b, ok := ev.(Begin); ok {
			l.mu.Lock()
			l.began = true
			l.mu.Unlock()
			l.logger.Info("begin", "id", b.ID)
		}

		if !l.emit(ev) {
			return
		}
	}
}

func (l *Link) readFailed(err error) {
	l.mu.Lock()
	closedLocally := l.closed
	l.mu.Unlock()
	if closedLocally {
		return
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		l.logger.Info("closed", "code", ce.Code, "reason", ce.Text)
		l.emit(Closed{Code: ce.Code, Reason: ce.Text})
		return
	}

	l.logger.Error("read failed", "error", err)
	if l.emit(LinkError{Err: err}) {
		l.emit(Closed{Code: websocket.CloseAbnormalClosure, Reason: err.Error()})
	}
}
