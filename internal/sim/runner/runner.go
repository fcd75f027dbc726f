// Package runner drives the turn loop. It owns the world exclusively: every
// mutation happens on the Run goroutine, and the websocket transport reaches
// the world only through the attach/act channels. Characters act strictly one
// at a time in a fixed order; a character whose client is absent or too slow
// waits.
package runner

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gridfall.ai/internal/persistence/gamelog"
	"gridfall.ai/internal/persistence/indexdb"
	"gridfall.ai/internal/persistence/snapshot"
	"gridfall.ai/internal/protocol"
	"gridfall.ai/internal/sim/tuning"
	"gridfall.ai/internal/sim/world"
)

// AttachRequest is a transport session asking to play a character.
type AttachRequest struct {
	CharacterName string
	ResumeToken   string
	Acts          <-chan protocol.ActMsg
	Out           chan<- any

	// Reply carries the handshake outcome back to the transport.
	Reply chan<- AttachReply
}

type AttachReply struct {
	Err         error
	Code        string
	Welcome     protocol.WelcomeMsg
	SessionID   string
	CharacterID string
}

type session struct {
	id          string
	characterID string
	resumeToken string
	acts        <-chan protocol.ActMsg
	out         chan<- any
}

type Config struct {
	WorldID     string
	DataDir     string // empty disables persistence
	Tuning      *tuning.Tuning
	Logger      *log.Logger
	TurnTimeout time.Duration
}

// WorldConfig maps deployment tuning onto the engine's configuration. The
// server and the replay tool both build worlds through this so a tuned run
// replays under the same knobs.
func WorldConfig(tune tuning.Tuning, seed int64) world.Config {
	return world.Config{
		MaxTalkDistance:      tune.MaxTalkDistance,
		LOSRange:             tune.LOSRange,
		DefaultMaxHP:         tune.DefaultMaxHP,
		DefaultMovementRange: tune.DefaultMovementRange,
		DefaultViewDistance:  tune.DefaultViewDistance,
		ContractMinExpiry:    tune.ContractMinExpiry,
		ContractMaxExpiry:    tune.ContractMaxExpiry,
		Seed:                 seed,
	}
}

type Runner struct {
	w   *world.World
	cfg Config
	log *log.Logger

	attach chan AttachRequest
	detach chan string // session id

	sessions  map[string]*session // by character id
	eventMark map[string]int      // per-character event watermark
	resume    map[string]string   // resume token -> character id

	turnLog *gamelog.Writer
	index   *indexdb.DB
}

func New(w *world.World, cfg Config) (*Runner, error) {
	if cfg.Tuning == nil {
		t := tuning.Defaults()
		cfg.Tuning = &t
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.TurnTimeout == 0 {
		cfg.TurnTimeout = time.Duration(cfg.Tuning.TurnTimeoutMs) * time.Millisecond
	}
	r := &Runner{
		w:         w,
		cfg:       cfg,
		log:       cfg.Logger,
		attach:    make(chan AttachRequest),
		detach:    make(chan string),
		sessions:  map[string]*session{},
		eventMark: map[string]int{},
		resume:    map[string]string{},
	}
	if cfg.DataDir != "" {
		var err error
		r.turnLog, err = gamelog.NewWriter(filepath.Join(cfg.DataDir, "turns.jsonl.zst"))
		if err != nil {
			return nil, err
		}
		r.index, err = indexdb.Open(filepath.Join(cfg.DataDir, "index.db"))
		if err != nil {
			r.turnLog.Close()
			return nil, err
		}
	}
	return r, nil
}

// Attach is called from transport goroutines.
func (r *Runner) Attach(req AttachRequest) { r.attach <- req }

// Detach is called from transport goroutines when a session closes.
func (r *Runner) Detach(sessionID string) { r.detach <- sessionID }

// Run executes turns until the context is cancelled or one character remains
// alive. It must be the only goroutine touching the world.
func (r *Runner) Run(ctx context.Context) error {
	defer r.closePersistence()
	for {
		for _, c := range r.w.TurnOrder() {
			if err := r.runCharacterTurn(ctx, c); err != nil {
				return err
			}
		}
		for _, bc := range ExpireContracts(r.w) {
			r.log.Printf("[runner] contract %s from %s expired unsigned", bc.ID, bc.IssuerName)
		}
		r.w.AdvanceTurn()
		if err := r.recordTurn(); err != nil {
			r.log.Printf("[runner] persistence: %v", err)
		}
		if n := len(r.w.TurnOrder()); n <= 1 {
			r.log.Printf("[runner] %d characters alive after turn %d, stopping", n, r.w.Turn)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (r *Runner) runCharacterTurn(ctx context.Context, c *world.Character) error {
	r.w.BeginCharacterTurn(c)
	if !c.Alive {
		// An effect killed the character at turn start. The failed wait still
		// goes to the log so a replay sees the same turn structure.
		r.execute(c, world.WaitAction{}, nil)
		r.endTurn(c)
		return nil
	}

	s := r.sessions[c.ID]
	if s == nil {
		// Drain control channels so transports never block, then wait.
		s = r.awaitSession(ctx, c)
	}
	if s == nil {
		r.execute(c, world.WaitAction{}, nil)
		r.endTurn(c)
		return ctx.Err()
	}

	know, mark := BuildKnowledge(r.w, c, r.eventMark[c.ID])
	legal := world.GetCharacterKnowledge(r.w, c)
	if !r.send(s, know) {
		// The client never saw these events; keep the watermark so they are
		// redelivered on the next successful KNOWLEDGE.
		r.execute(c, world.WaitAction{}, nil)
		r.endTurn(c)
		return nil
	}
	r.eventMark[c.ID] = mark

	timeout := time.NewTimer(r.cfg.TurnTimeout)
	defer timeout.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-r.attach:
			r.handleAttach(req)
		case id := <-r.detach:
			r.handleDetach(id)
			if r.sessions[c.ID] == nil {
				r.execute(c, world.WaitAction{}, nil)
				r.endTurn(c)
				return nil
			}
		case <-timeout.C:
			r.log.Printf("[runner] turn %d: %s timed out, waiting", r.w.Turn, c.Name)
			res := r.execute(c, world.WaitAction{}, nil)
			r.sendResult(s, c, res)
			r.endTurn(c)
			return nil
		case msg, okc := <-s.acts:
			if !okc {
				r.execute(c, world.WaitAction{}, nil)
				r.endTurn(c)
				return nil
			}
			if msg.Turn != r.w.Turn {
				r.sendResult(s, c, world.ActionResult{
					Code:    protocol.ErrConflict,
					Message: fmt.Sprintf("acting for turn %d, current turn is %d", msg.Turn, r.w.Turn),
				})
				continue
			}
			action, err := DecodeAction(msg.Action)
			if err != nil {
				r.sendResult(s, c, world.ActionResult{Code: protocol.ErrBadRequest, Message: err.Error()})
				continue
			}
			if !legal.ActionLegal(action) {
				r.sendResult(s, c, world.ActionResult{
					Code:    protocol.ErrNotLegal,
					Message: fmt.Sprintf("%s is not among the possible actions this turn", describeAction(action)),
				})
				continue
			}
			res := r.execute(c, action, &msg.Action)
			r.sendResult(s, c, res)
			r.endTurn(c)
			return nil
		}
	}
}

// awaitSession blocks on the control channels until the character gets a
// session, some other character's attach arrives, or the grace period ends.
func (r *Runner) awaitSession(ctx context.Context, c *world.Character) *session {
	grace := time.NewTimer(r.cfg.TurnTimeout)
	defer grace.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-r.attach:
			r.handleAttach(req)
			if s := r.sessions[c.ID]; s != nil {
				return s
			}
		case id := <-r.detach:
			r.handleDetach(id)
		case <-grace.C:
			return nil
		}
	}
}

func (r *Runner) execute(c *world.Character, action world.Action, wire *protocol.ActReq) world.ActionResult {
	res := world.ExecuteAction(r.w, c, action)
	contractID := ""
	if res.OK {
		contractID = ApplyContractOutcome(r.w, c, action, "")
		if _, isIssue := action.(world.IssueContractAction); isIssue && contractID != "" {
			res.Message = fmt.Sprintf("%s (contract %s)", res.Message, contractID)
		}
	}
	if r.turnLog != nil {
		rec := gamelog.TurnRecord{
			Turn:        r.w.Turn,
			CharacterID: c.ID,
			Kind:        string(action.Kind()),
			OK:          res.OK,
			Code:        res.Code,
			Message:     res.Message,
			ContractID:  contractID,
		}
		if wire != nil {
			rec.Action = *wire
		} else {
			rec.Action = EncodeAction(action)
		}
		if err := r.turnLog.Append(rec); err != nil {
			r.log.Printf("[runner] turn log: %v", err)
		}
	}
	return res
}

// ApplyContractOutcome owns the contract ledger side of a successful action.
// The engine validates and acknowledges the three contract actions; creating,
// signing and removing the records happens here so the live server and the
// replay tool share one code path. A non-empty contractID pins the id of a
// new contract (replay); an empty one mints a fresh id. The id of the
// contract touched is returned.
func ApplyContractOutcome(w *world.World, c *world.Character, action world.Action, contractID string) string {
	switch v := action.(type) {
	case world.IssueContractAction:
		target := w.Character(v.TargetID)
		if target == nil {
			return ""
		}
		if contractID == "" {
			contractID = "bc_" + uuid.NewString()
		}
		w.AddContract(&world.BloodContract{
			ID:         contractID,
			IssuerID:   c.ID,
			IssuerName: c.Name,
			TargetID:   target.ID,
			TargetName: target.Name,
			Contents:   v.Contents,
			ExpiryTurn: w.Turn + v.ExpiryTurn,
		})
		return contractID
	case world.SignContractAction:
		if bc := w.Contract(v.ContractID); bc != nil {
			bc.Signed = true
		}
		return v.ContractID
	case world.DeclineContractAction:
		w.RemoveContract(v.ContractID)
		return v.ContractID
	}
	return ""
}

// ExpireContracts drops unsigned offers whose expiry turn has passed. Signed
// contracts stay; judging their fulfilment is the orchestrator's business.
// The removed contracts are returned for logging.
func ExpireContracts(w *world.World) []*world.BloodContract {
	var removed []*world.BloodContract
	for _, bc := range append([]*world.BloodContract(nil), w.ActiveContracts...) {
		if !bc.Signed && w.Turn >= bc.ExpiryTurn {
			w.RemoveContract(bc.ID)
			removed = append(removed, bc)
		}
	}
	return removed
}

func (r *Runner) endTurn(c *world.Character) {
	r.w.EndCharacterTurn(c)
}

func (r *Runner) handleAttach(req AttachRequest) {
	reply := func(rep AttachReply) {
		if req.Reply != nil {
			req.Reply <- rep
		}
	}
	c := r.w.CharacterByName(req.CharacterName)
	if req.ResumeToken != "" {
		if id, okt := r.resume[req.ResumeToken]; okt {
			c = r.w.Character(id)
		}
	}
	if c == nil {
		reply(AttachReply{Code: protocol.ErrCharacterNotFound, Err: fmt.Errorf("no character named %q", req.CharacterName)})
		return
	}
	if cur := r.sessions[c.ID]; cur != nil && cur.resumeToken != req.ResumeToken {
		reply(AttachReply{Code: protocol.ErrCharacterTaken, Err: fmt.Errorf("character %q already attached", c.Name)})
		return
	}
	s := &session{
		id:          "s_" + uuid.NewString(),
		characterID: c.ID,
		resumeToken: req.ResumeToken,
		acts:        req.Acts,
		out:         req.Out,
	}
	if s.resumeToken == "" {
		s.resumeToken = "r_" + uuid.NewString()
	}
	r.sessions[c.ID] = s
	r.resume[s.resumeToken] = c.ID
	r.log.Printf("[runner] %s attached as %s (session %s)", req.CharacterName, c.ID, s.id)
	reply(AttachReply{
		SessionID:   s.id,
		CharacterID: c.ID,
		Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       s.id,
			CharacterID:     c.ID,
			ResumeToken:     s.resumeToken,
			WorldParams: protocol.WorldParams{
				Width:           r.w.Width,
				Height:          r.w.Height,
				MaxTalkDistance: r.w.MaxTalkDistance(),
				TurnTimeoutMs:   int(r.cfg.TurnTimeout / time.Millisecond),
			},
		},
	})
}

func (r *Runner) handleDetach(sessionID string) {
	for cid, s := range r.sessions {
		if s.id == sessionID {
			delete(r.sessions, cid)
			r.log.Printf("[runner] session %s for %s detached", sessionID, cid)
			return
		}
	}
}

func (r *Runner) send(s *session, msg any) bool {
	select {
	case s.out <- msg:
		return true
	default:
		r.log.Printf("[runner] session %s send buffer full, dropping client", s.id)
		delete(r.sessions, s.characterID)
		return false
	}
}

func (r *Runner) sendResult(s *session, c *world.Character, res world.ActionResult) {
	msg := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Turn:            r.w.Turn,
		CharacterID:     c.ID,
		OK:              res.OK,
		Code:            res.Code,
		Message:         res.Message,
		Events:          encodeEvents(res.Events),
	}
	r.send(s, msg)
}

func (r *Runner) recordTurn() error {
	if r.index == nil {
		return nil
	}
	digest := r.w.StateDigest()
	if err := r.index.RecordTurn(r.w.Turn, digest, len(r.w.Events)); err != nil {
		return err
	}
	every := r.cfg.Tuning.SnapshotEveryTurns
	if every > 0 && r.w.Turn%every == 0 {
		snap := r.w.ExportSnapshot(r.cfg.WorldID)
		path := filepath.Join(r.cfg.DataDir, fmt.Sprintf("snapshot-%06d.json.zst", r.w.Turn))
		if err := snapshot.Write(path, snap); err != nil {
			return err
		}
		if err := r.index.RecordSnapshot(r.w.Turn, path, len(r.w.Characters)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) closePersistence() {
	if r.turnLog != nil {
		if err := r.turnLog.Close(); err != nil {
			r.log.Printf("[runner] closing turn log: %v", err)
		}
	}
	if r.index != nil {
		if err := r.index.Close(); err != nil {
			r.log.Printf("[runner] closing index db: %v", err)
		}
	}
}
