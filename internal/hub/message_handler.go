package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridrelay/tictactoe/internal/game"
	"github.com/gridrelay/tictactoe/internal/room"
	"github.com/gridrelay/tictactoe/internal/validator"
	"github.com/gridrelay/tictactoe/pkg/proto"
)

// handleMessage decodes and dispatches one inbound frame. Malformed or
// invalid frames are dropped; protocol violations never produce an
// error reply, the only error the relay sends is "room is full".
func (h *Hub) handleMessage(c *Client, data []byte) {
	ctx, span := tracer.Start(context.Background(), "hub.handleMessage", trace.WithAttributes(
		attribute.String("client.id", c.ID),
	))
	defer span.End()

	var msg proto.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.WarnContext(ctx, "dropping unparseable message", "client.id", c.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable message")
		return
	}

	if err := validator.Struct(msg); err != nil {
		slog.WarnContext(ctx, "dropping invalid message", "client.id", c.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid message")
		return
	}

	span.SetAttributes(
		attribute.String("message.type", msg.Type),
		attribute.String("room.code", room.Normalize(msg.Room)),
	)

	switch msg.Type {
	case proto.TypeJoinRoom:
		h.handleJoin(ctx, c, &msg)
	case proto.TypeMakeMove:
		h.handleMove(ctx, c, &msg)
	case proto.TypeResetGame:
		h.handleReset(ctx, c, &msg)
	}
}

// handleJoin seats the connection in the room, creating the room on
// first join. The joiner alone gets the assignment; once the second
// seat fills, the whole room gets game_ready.
func (h *Hub) handleJoin(ctx context.Context, c *Client, msg *proto.ClientMessage) {
	ctx, span := tracer.Start(ctx, "hub.handleJoin")
	defer span.End()

	rm, created := h.registry.GetOrCreate(msg.Room)
	if created {
		h.roomsCreated.Add(ctx, 1)
		slog.InfoContext(ctx, "room created", "room.code", rm.Code)
	}

	symbol, err := rm.Join(&room.Participant{ID: c.ID, Conn: c.conn})
	if errors.Is(err, room.ErrRoomFull) {
		slog.InfoContext(ctx, "rejecting join to full room", "room.code", rm.Code, "client.id", c.ID)
		span.SetStatus(codes.Error, "room full")
		h.send(ctx, c.conn, &proto.ServerMessage{Type: proto.TypeError, Message: "room is full"})
		return
	}

	c.room = rm.Code
	c.symbol = symbol
	span.SetAttributes(attribute.String("player.symbol", string(symbol)))
	slog.InfoContext(ctx, "player joined", "room.code", rm.Code, "client.id", c.ID, "symbol", symbol)

	h.send(ctx, c.conn, &proto.ServerMessage{Type: proto.TypePlayerAssignment, Symbol: symbol})

	if rm.Ready() {
		h.broadcast(ctx, rm, proto.TypeGameReady)
		h.recordGameStarted(ctx)
	}
}

// handleMove applies a move and fans out the resulting state. The
// symbol in the payload is trusted as long as it matches the turn
// order; it is not bound to the connection's assigned symbol, so a
// client could move as its opponent. Known weakness, kept as is.
func (h *Hub) handleMove(ctx context.Context, c *Client, msg *proto.ClientMessage) {
	ctx, span := tracer.Start(ctx, "hub.handleMove", trace.WithAttributes(
		attribute.Int("move.index", msg.Index),
		attribute.String("move.symbol", msg.Symbol),
	))
	defer span.End()

	rm, ok := h.registry.Get(msg.Room)
	if !ok {
		slog.WarnContext(ctx, "dropping move for unknown room", "room.code", msg.Room, "client.id", c.ID)
		span.SetStatus(codes.Error, "unknown room")
		return
	}

	if err := rm.Move(msg.Index, game.Mark(msg.Symbol)); err != nil {
		// Rejected moves are dropped without a reply; the client's view
		// is stale or buggy, not exceptional.
		slog.WarnContext(ctx, "dropping rejected move", "room.code", rm.Code, "client.id", c.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected move")
		return
	}

	h.movesRelayed.Add(ctx, 1)
	h.broadcast(ctx, rm, proto.TypeMoveMade)

	if result := game.Evaluate(rm.Board); result.Over() {
		h.recordResult(ctx, result)
	}
}

// handleReset reinitializes the room's board. No-op for unknown rooms.
func (h *Hub) handleReset(ctx context.Context, c *Client, msg *proto.ClientMessage) {
	ctx, span := tracer.Start(ctx, "hub.handleReset")
	defer span.End()

	rm, ok := h.registry.Get(msg.Room)
	if !ok {
		slog.WarnContext(ctx, "dropping reset for unknown room", "room.code", msg.Room, "client.id", c.ID)
		span.SetStatus(codes.Error, "unknown room")
		return
	}

	rm.Reset()
	slog.InfoContext(ctx, "room reset", "room.code", rm.Code, "client.id", c.ID)
	h.broadcast(ctx, rm, proto.TypeGameReset)
}

// handleDisconnect tears down the connection. With the default policy
// the seat stays occupied for the life of the process; rooms and
// participants are only purged when eviction is enabled.
func (h *Hub) handleDisconnect(c *Client) {
	ctx, span := tracer.Start(context.Background(), "hub.handleDisconnect", trace.WithAttributes(
		attribute.String("client.id", c.ID),
		attribute.String("room.code", c.room),
	))
	defer span.End()

	_ = c.conn.Close()
	slog.InfoContext(ctx, "client disconnected", "client.id", c.ID, "room.code", c.room)

	if !h.evictEmptyRooms || c.room == "" {
		return
	}

	rm, ok := h.registry.Get(c.room)
	if !ok {
		return
	}
	if rm.Leave(c.ID) {
		h.registry.Remove(c.room)
		slog.InfoContext(ctx, "empty room evicted", "room.code", c.room)
	}
}

func (h *Hub) recordGameStarted(ctx context.Context) {
	if h.stats == nil {
		return
	}
	if err := h.stats.RecordGameStarted(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to record game start", "error", err)
	}
}

func (h *Hub) recordResult(ctx context.Context, result game.Result) {
	if h.stats == nil {
		return
	}
	if err := h.stats.RecordResult(ctx, result); err != nil {
		slog.ErrorContext(ctx, "failed to record result", "error", err)
	}
}
