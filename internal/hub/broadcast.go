package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridrelay/tictactoe/internal/room"
	"github.com/gridrelay/tictactoe/pkg/proto"
)

// broadcast fans out the room's complete board and turn to every
// participant. Full state rather than a delta: all participants
// converge on the same view after every accepted operation.
func (h *Hub) broadcast(ctx context.Context, rm *room.Room, msgType string) {
	ctx, span := tracer.Start(ctx, "hub.broadcast", trace.WithAttributes(
		attribute.String("room.code", rm.Code),
		attribute.String("message.type", msgType),
	))
	defer span.End()

	board := rm.Board
	msg := &proto.ServerMessage{Type: msgType, Board: &board, Turn: rm.Turn}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling broadcast", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "error marshalling broadcast")
		return
	}

	for _, p := range rm.Participants {
		if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.ErrorContext(ctx, "error writing to participant", "participant.id", p.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "error writing to participant")
		}
	}
}

// send writes a unicast message to one connection.
func (h *Hub) send(ctx context.Context, conn room.Conn, msg *proto.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.ErrorContext(ctx, "error writing message", "error", err)
	}
}
