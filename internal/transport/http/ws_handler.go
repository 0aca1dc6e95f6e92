package http

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quizrush/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option *int `json:"option"`
}

type joinedPayload struct {
	SessionID   string             `json:"sessionId"`
	Participant domain.Participant `json:"participant"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServePlay verifies the participant, upgrades to a websocket and streams
// session snapshots while accepting answers.
func (h *Handler) ServePlay(c *gin.Context) {
	ctx := c.Request.Context()
	participant, err := h.quiz.Verify(ctx, c.Query("email"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session, err := h.quiz.Join(ctx, participant)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer h.quiz.Leave(ctx, session.ID())
	snapshots, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go h.writeLoop(conn, send, writerDone)

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{SessionID: session.ID(), Participant: participant}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snapshot, ok := <-snapshots:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: snapshot}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply *outboundMessage[any]
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				msg := errorMessage("invalid answer payload")
				reply = &msg
				break
			}
			if _, err := h.quiz.Answer(ctx, session.ID(), *payload.Option); err != nil {
				msg := errorMessage(err.Error())
				reply = &msg
			}
		default:
			msg := errorMessage("unsupported message type")
			reply = &msg
		}
		if reply != nil {
			send <- *reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	h.log.Debug("play socket closed", "session_id", session.ID())
}

// ServeAdmin streams leaderboard updates and settings changes to the dashboard.
func (h *Handler) ServeAdmin(c *gin.Context) {
	ctx := c.Request.Context()
	events, cancelEvents, err := h.control.Subscribe(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer cancelEvents()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	boards, cancelBoards := h.board.Subscribe()
	defer cancelBoards()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go h.writeLoop(conn, send, writerDone)

	if settings, err := h.rounds.Settings(ctx); err == nil {
		send <- outboundMessage[any]{Type: "settings", Payload: settings}
	}

	go func() {
		defer close(updatesDone)
		for {
			var msg outboundMessage[any]
			select {
			case board, ok := <-boards:
				if !ok {
					return
				}
				msg = outboundMessage[any]{Type: "leaderboard", Payload: board}
			case event, ok := <-events:
				if !ok {
					return
				}
				if event.Kind != domain.EventSettingsChanged || event.Settings == nil {
					continue
				}
				msg = outboundMessage[any]{Type: "settings", Payload: *event.Settings}
			case <-closeSignals:
				return
			}
			select {
			case send <- msg:
			case <-closeSignals:
				return
			}
		}
	}()

	// The dashboard only listens; reads detect the close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// writeLoop is the only goroutine writing to conn.
func (h *Handler) writeLoop(conn *websocket.Conn, send <-chan outboundMessage[any], done chan<- struct{}) {
	defer close(done)
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug("ws write error", "error", err)
			// Keep draining so producers never block on a dead socket.
			for range send {
			}
			return
		}
	}
}
