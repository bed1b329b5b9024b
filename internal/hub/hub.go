package hub

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/gridrelay/tictactoe/internal/game"
	"github.com/gridrelay/tictactoe/internal/repository"
	"github.com/gridrelay/tictactoe/internal/room"
)

var (
	tracer = otel.Tracer("hub")
	meter  = otel.Meter("hub")
)

// Conn is the full connection surface the relay needs from a
// participant. Satisfied by *websocket.Conn and by in-memory fakes.
type Conn interface {
	room.Conn
	ReadMessage() (int, []byte, error)
}

// Client is one connection attached to the relay. room and symbol are
// written only from the relay loop after a successful join.
type Client struct {
	ID     string
	conn   Conn
	room   string
	symbol game.Mark
}

type inbound struct {
	client *Client
	data   []byte
}

// Hub is the relay: a single goroutine owning the room registry.
// Every inbound message is handled to completion, mutation plus
// broadcast, before the next one is read, so no two messages ever
// interleave mid-mutation.
type Hub struct {
	registry        *room.Registry
	stats           repository.StatsRepository
	evictEmptyRooms bool

	inbound    chan inbound
	disconnect chan *Client

	roomsCreated metric.Int64Counter
	movesRelayed metric.Int64Counter
}

// Option configures a Hub.
type Option func(*Hub)

// WithStats records match counters to the given repository.
func WithStats(stats repository.StatsRepository) Option {
	return func(h *Hub) { h.stats = stats }
}

// WithEviction drops a room from the registry once its last
// participant disconnects. The default keeps the reference behavior of
// never evicting.
func WithEviction() Option {
	return func(h *Hub) { h.evictEmptyRooms = true }
}

// New creates a hub around an injected registry.
func New(registry *room.Registry, opts ...Option) *Hub {
	roomsCreated, _ := meter.Int64Counter("relay.rooms.created")
	movesRelayed, _ := meter.Int64Counter("relay.moves.relayed")

	h := &Hub{
		registry:     registry,
		inbound:      make(chan inbound, 16),
		disconnect:   make(chan *Client),
		roomsCreated: roomsCreated,
		movesRelayed: movesRelayed,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the relay loop.
func (h *Hub) Run() {
	for {
		select {
		case msg := <-h.inbound:
			h.handleMessage(msg.client, msg.data)
		case c := <-h.disconnect:
			h.handleDisconnect(c)
		}
	}
}

// HandleConnection attaches a connection to the relay and pumps its
// messages until it drops. Blocks for the life of the connection.
func (h *Hub) HandleConnection(id string, conn Conn) {
	c := &Client{ID: id, conn: conn}
	h.readPump(c)
}

// readPump forwards raw frames from the connection into the relay
// loop. It is the only goroutine reading from the connection.
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.disconnect <- c
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			slog.Warn("client connection closed", "client.id", c.ID, "error", err)
			return
		}
		h.inbound <- inbound{client: c, data: data}
	}
}
