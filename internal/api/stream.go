package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MJE43/jhandi-burja-go/internal/session"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 4096
)

// streamCommand is what a client may send over the socket.
type streamCommand struct {
	Action string `json:"action"`
}

// streamNotice is written for command failures. Roll frames use session.Frame.
type streamNotice struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleStream upgrades to a WebSocket and relays the session's frames.
// A client may send {"action":"roll"} to start a roll.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetReqID(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Printf("stream_upgrade_failed session=%s request_id=%s error=%q", sess.ID(), requestID, err)
		return
	}
	defer conn.Close()

	frames, cancel := sess.Subscribe()
	defer cancel()

	s.logger.Printf("stream_opened session=%s request_id=%s remote_addr=%s", sess.ID(), requestID, r.RemoteAddr)

	notices := make(chan streamNotice, 8)
	readDone := make(chan struct{})
	go s.readStream(conn, sess, notices, readDone)

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case f, ok := <-frames:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(streamWriteWait))
				s.logger.Printf("stream_closed session=%s request_id=%s reason=session_ended", sess.ID(), requestID)
				return
			}
			if err := writeStreamJSON(conn, f); err != nil {
				s.logger.Printf("stream_closed session=%s request_id=%s reason=write_failed error=%q", sess.ID(), requestID, err)
				return
			}
		case n := <-notices:
			if err := writeStreamJSON(conn, n); err != nil {
				s.logger.Printf("stream_closed session=%s request_id=%s reason=write_failed error=%q", sess.ID(), requestID, err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				s.logger.Printf("stream_closed session=%s request_id=%s reason=ping_failed error=%q", sess.ID(), requestID, err)
				return
			}
			sess.Touch()
		case <-readDone:
			s.logger.Printf("stream_closed session=%s request_id=%s reason=client_closed", sess.ID(), requestID)
			return
		}
	}
}

// readStream owns the read side of conn until it fails or the peer closes.
func (s *Server) readStream(conn *websocket.Conn, sess *session.Session, notices chan<- streamNotice, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("stream_read_failed session=%s error=%q", sess.ID(), err)
			}
			return
		}

		var notice *streamNotice
		switch cmd.Action {
		case "roll":
			if _, err := sess.Roll(context.Background()); err != nil {
				_, errType, msg := classifySessionError(err)
				notice = &streamNotice{Type: "error", Error: errType, Message: msg}
			}
		default:
			notice = &streamNotice{Type: "error", Error: ErrTypeValidation, Message: "unknown action"}
		}

		if notice != nil {
			select {
			case notices <- *notice:
			default:
			}
		}
	}
}

func writeStreamJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(v); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
