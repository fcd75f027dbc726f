// Package ws is the websocket transport. One connection plays one character:
// HELLO claims it, then the server pushes KNOWLEDGE when the character's turn
// comes and the client answers with ACT. The transport owns the socket; the
// runner owns the world.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gridfall.ai/internal/protocol"
	"gridfall.ai/internal/sim/runner"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	readTimeout      = 10 * time.Minute // a client may sit idle while others act
	outQueueSize     = 16
)

type Server struct {
	runner  *runner.Runner
	schemas *protocol.Schemas
	log     *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(r *runner.Runner, logger *log.Logger) (*Server, error) {
	schemas, err := protocol.CompileSchemas()
	if err != nil {
		return nil, err
	}
	return &Server{
		runner:  r,
		schemas: schemas,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		acts := make(chan protocol.ActMsg, 1)
		out := make(chan any, outQueueSize)

		rep := s.handshake(conn, acts, out)
		if rep == nil {
			return
		}
		defer s.runner.Detach(rep.SessionID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine; the runner never touches the socket.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, okc := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if !okc {
						return
					}
					if err := conn.WriteJSON(msg); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			act, ok := s.decodeAct(raw, rep.CharacterID, out)
			if !ok {
				continue
			}
			select {
			case acts <- act:
			default:
				// One action per turn; a second one before the first is
				// consumed replaces nothing and is refused.
				s.sendError(out, act.Turn, rep.CharacterID, protocol.ErrConflict, "an action for this turn is already queued")
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn, acts chan protocol.ActMsg, out chan any) *runner.AttachReply {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	var anyMsg any
	if err := json.Unmarshal(raw, &anyMsg); err != nil {
		s.closePolicy(conn, "malformed JSON")
		return nil
	}
	if err := s.schemas.Hello.Validate(anyMsg); err != nil {
		s.closePolicy(conn, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(raw, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.closePolicy(conn, "bad protocol_version")
		return nil
	}

	replyCh := make(chan runner.AttachReply, 1)
	s.runner.Attach(runner.AttachRequest{
		CharacterName: hello.CharacterName,
		ResumeToken:   hello.ResumeToken,
		Acts:          acts,
		Out:           out,
		Reply:         replyCh,
	})
	rep := <-replyCh
	if rep.Err != nil {
		s.log.Printf("[ws] attach %q refused: %v", hello.CharacterName, rep.Err)
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteJSON(protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			OK:              false,
			Code:            rep.Code,
			Message:         rep.Err.Error(),
		})
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(rep.Welcome); err != nil {
		s.runner.Detach(rep.SessionID)
		return nil
	}
	s.log.Printf("[ws] %q attached as %s", hello.CharacterName, rep.CharacterID)
	return &rep
}

func (s *Server) decodeAct(raw []byte, characterID string, out chan any) (protocol.ActMsg, bool) {
	var anyMsg any
	if err := json.Unmarshal(raw, &anyMsg); err != nil {
		s.sendError(out, 0, characterID, protocol.ErrProtoBadRequest, "malformed JSON")
		return protocol.ActMsg{}, false
	}
	base, err := protocol.DecodeBase(raw)
	if err != nil || base.Type != protocol.TypeAct {
		// Silently drop non-ACT chatter, matching the handshake contract.
		return protocol.ActMsg{}, false
	}
	if err := s.schemas.Act.Validate(anyMsg); err != nil {
		s.sendError(out, 0, characterID, protocol.ErrProtoBadRequest, err.Error())
		return protocol.ActMsg{}, false
	}
	var act protocol.ActMsg
	if err := json.Unmarshal(raw, &act); err != nil {
		s.sendError(out, 0, characterID, protocol.ErrProtoBadRequest, err.Error())
		return protocol.ActMsg{}, false
	}
	if act.ProtocolVersion != protocol.Version {
		s.sendError(out, act.Turn, characterID, protocol.ErrProtoBadRequest, "bad protocol_version")
		return protocol.ActMsg{}, false
	}
	if act.CharacterID != characterID {
		s.sendError(out, act.Turn, characterID, protocol.ErrForbidden, "acting for another character")
		return protocol.ActMsg{}, false
	}
	return act, true
}

func (s *Server) sendError(out chan any, turn int, characterID, code, message string) {
	msg := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Turn:            turn,
		CharacterID:     characterID,
		OK:              false,
		Code:            code,
		Message:         message,
	}
	select {
	case out <- msg:
	default:
	}
}

func (s *Server) closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second),
	)
}
