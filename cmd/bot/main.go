package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"gridfall.ai/internal/protocol"
)

// A trivial client for smoke-testing a server: it claims a character and
// picks a random legal action every turn, preferring moves so it wanders.
func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "character name to claim")
		seed = flag.Int64("seed", 0, "rng seed (0 uses a random one)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(int64(os.Getpid())))
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		CharacterName:   *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	characterID := ""
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			characterID = w.CharacterID
			logger.Printf("WELCOME character=%s world=%dx%d", w.CharacterID, w.WorldParams.Width, w.WorldParams.Height)

		case protocol.TypeKnowledge:
			var k protocol.KnowledgeMsg
			if err := json.Unmarshal(msg, &k); err != nil {
				continue
			}
			act := chooseAction(rng, &k)
			out := protocol.ActMsg{
				Type:            protocol.TypeAct,
				ProtocolVersion: protocol.Version,
				Turn:            k.Turn,
				CharacterID:     characterID,
				Action:          act,
			}
			if err := conn.WriteJSON(out); err != nil {
				logger.Fatalf("send ACT: %v", err)
			}

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			if !res.OK {
				logger.Printf("turn %d: %s %s", res.Turn, res.Code, res.Message)
			}
		}
	}
}

func chooseAction(rng *rand.Rand, k *protocol.KnowledgeMsg) protocol.ActReq {
	var moves, other []protocol.ActReq
	for _, a := range k.PossibleActions {
		switch a.Kind {
		case "move":
			moves = append(moves, a)
		case "wait", "move_toward", "talk", "issue_contract":
			// Skip the open-ended ones; the bot has nothing to say.
		default:
			other = append(other, a)
		}
	}
	// Mostly wander, sometimes poke at the world.
	if len(other) > 0 && rng.Intn(4) == 0 {
		return other[rng.Intn(len(other))]
	}
	if len(moves) > 0 {
		return moves[rng.Intn(len(moves))]
	}
	return protocol.ActReq{Kind: "wait"}
}
