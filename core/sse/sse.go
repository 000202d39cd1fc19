// Package sse streams environment snapshots to dashboard clients over
// server-sent events.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// Manager broadcasts envelopes to every connected client.
type Manager interface {
	Send(message Envelope)
	Handle(ctx *fiber.Ctx, cl *Client)
	Clients() []string
}

// Envelope is anything that can be rendered as an SSE frame.
type Envelope interface {
	String() string
}

type Client struct {
	id string
	ch chan Envelope
}

func NewClient() *Client {
	return &Client{
		id: uuid.New().String(),
		ch: make(chan Envelope, 50),
	}
}

func (c *Client) ID() string { return c.id }

// Message is a single event frame. Data is sent as-is; use NewJSONMessage
// for structured payloads.
type Message struct {
	Event string
	Data  string
}

func NewMessage(data string) *Message {
	return &Message{Data: data}
}

// NewJSONMessage marshals payload into the data field. Marshal failures
// degrade to an error frame rather than dropping the event.
func NewJSONMessage(event string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Message{Event: "error", Data: fmt.Sprintf(`{"error":%q}`, err.Error())}
	}
	return &Message{Event: event, Data: string(data)}
}

func (m *Message) WithEvent(event string) Envelope {
	m.Event = event
	return m
}

func (m *Message) String() string {
	sb := strings.Builder{}
	if m.Event != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", m.Event))
	}
	sb.WriteString(fmt.Sprintf("data: %s\n\n", m.Data))
	return sb.String()
}

type broadcastManager struct {
	clients   sync.Map
	broadcast chan Envelope
}

// NewManager starts workers draining the broadcast channel into every
// connected client. Slow clients drop frames instead of blocking the
// environment.
func NewManager(workers int) Manager {
	m := &broadcastManager{
		broadcast: make(chan Envelope),
	}
	for i := 0; i < workers; i++ {
		go m.fanOut()
	}
	return m
}

func (m *broadcastManager) fanOut() {
	for message := range m.broadcast {
		m.clients.Range(func(_, value any) bool {
			client, ok := value.(*Client)
			if !ok {
				return true
			}
			select {
			case client.ch <- message:
			default:
				// Client buffer full: drop the frame.
			}
			return true
		})
	}
}

func (m *broadcastManager) Send(message Envelope) {
	m.broadcast <- message
}

func (m *broadcastManager) Clients() []string {
	var ids []string
	m.clients.Range(func(key, _ any) bool {
		if id, ok := key.(string); ok {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// Handle registers the client and streams its frames until disconnect.
func (m *broadcastManager) Handle(c *fiber.Ctx, cl *Client) {
	m.clients.Store(cl.id, cl)
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() {
		once.Do(func() {
			m.clients.Delete(cl.id)
			close(done)
		})
	}

	go func() {
		<-ctx.Done()
		closeDone()
	}()

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer closeDone()

		fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case msg := <-cl.ch:
				if _, err := fmt.Fprint(w, msg.String()); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}))
}
