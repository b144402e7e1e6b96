package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/dex"
	"github.com/schoemantian/pokemon-agent/internal/logging"
)

// loginURL is the Showdown action endpoint used to obtain a login
// assertion after the server issues a challenge string.
const loginURL = "https://play.pokemonshowdown.com/action.php"

// Config configures a Showdown connection.
type Config struct {
	// ServerURL defaults to the public simulator endpoint.
	ServerURL string
	Username  string
	// Password may be empty for unregistered usernames.
	Password string
	Format   string
	// Opponent, when set, is challenged directly instead of searching
	// the ladder.
	Opponent string
	// Dex is required; snapshots and opponent tracking need its type
	// and move data.
	Dex *dex.Dex
	// OnActivity is invoked on every received message; the execution
	// monitor uses it for stall detection. May be nil.
	OnActivity func()
}

// Showdown is the websocket transport speaking the sim protocol.
type Showdown struct {
	cfg  Config
	conn *websocket.Conn
	tr   *tracker

	writeMu sync.Mutex
	lines   chan string
	readErr chan error

	tag        string
	rqid       int
	pendingRaw []byte
	loggedIn   bool
	searched   bool
}

var _ Transport = (*Showdown)(nil)

// Dial connects to the simulator and starts the read loop. The battle
// itself is initiated lazily: the login handshake and ladder search
// happen as the server's messages arrive through NextTurn.
func Dial(cfg Config) (*Showdown, error) {
	if cfg.Dex == nil {
		return nil, fmt.Errorf("showdown config requires a dex")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = constants.ShowdownServerURL
	}
	if cfg.Format == "" {
		cfg.Format = constants.DefaultBattleFormat
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid showdown server url: %w", err)
	}

	logging.Info("connecting to showdown", logging.Fields{constants.LogFieldAddr: u.String()})
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrDisconnected, err)
	}

	s := &Showdown{
		cfg:     cfg,
		conn:    conn,
		tr:      newTracker(cfg.Dex, cfg.Username),
		lines:   make(chan string, 256),
		readErr: make(chan error, 1),
	}
	go s.readLoop()
	return s, nil
}

func (s *Showdown) readLoop() {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr <- err
			close(s.lines)
			return
		}
		if s.cfg.OnActivity != nil {
			s.cfg.OnActivity()
		}
		room := ""
		for _, line := range strings.Split(string(message), "\n") {
			if strings.HasPrefix(line, ">") {
				room = strings.TrimPrefix(line, ">")
				continue
			}
			if line == "" {
				continue
			}
			s.lines <- room + "\x00" + line
		}
	}
}

// NextTurn consumes protocol lines until the next decision point or
// the end of the battle.
func (s *Showdown) NextTurn(ctx context.Context) (*Turn, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				return nil, fmt.Errorf("%w: read loop closed", ErrDisconnected)
			}
			sep := strings.Index(line, "\x00")
			room, payload := line[:sep], line[sep+1:]
			turn, err := s.handleLine(room, payload)
			if err != nil {
				return nil, err
			}
			if turn != nil {
				return turn, nil
			}
		}
	}
}

func (s *Showdown) handleLine(room, line string) (*Turn, error) {
	parts := strings.SplitN(line, "|", 4)
	if len(parts) < 2 {
		return nil, nil
	}
	cmd := parts[1]

	switch cmd {
	case "challstr":
		if err := s.login(strings.TrimPrefix(line, "|challstr|")); err != nil {
			return nil, err
		}
		return nil, s.startBattle()
	case "updatesearch", "updateuser", "formats", "queryresponse":
		return nil, nil
	case "init":
		if room != "" && strings.HasPrefix(room, "battle-") && s.tag == "" {
			s.tag = room
			logging.Info("battle room joined", logging.Fields{constants.LogFieldBattleTag: s.tag})
		}
		return nil, nil
	case "error":
		logging.Warn("showdown protocol error", logging.Fields{"line": line})
		return nil, nil
	}

	if s.tag == "" || room != s.tag {
		return nil, nil
	}

	if cmd == "request" {
		raw := strings.TrimPrefix(line, "|request|")
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		snap, rqid, err := s.tr.buildSnapshot(s.tag, []byte(raw))
		if err != nil {
			logging.Warn("skipping malformed request", logging.Fields{"reason": err.Error()})
			return nil, nil
		}
		s.rqid = rqid
		if snap == nil {
			return nil, nil
		}
		if snap.ForceSwitch {
			// Mid-turn switch requests are not followed by a turn line.
			return &Turn{Snapshot: snap, Events: s.tr.drainEvents()}, nil
		}
		// Regular requests precede the resolution log and its turn
		// line. Hold the payload and rebuild once the turn arrives so
		// the snapshot reflects the resolved state and turn number.
		s.pendingRaw = []byte(raw)
		return nil, nil
	}

	s.tr.processLine(line)
	if s.tr.finished {
		return &Turn{Finished: true, Won: s.tr.won, Events: s.tr.drainEvents()}, nil
	}
	if cmd == "turn" && s.pendingRaw != nil {
		raw := s.pendingRaw
		s.pendingRaw = nil
		snap, rqid, err := s.tr.buildSnapshot(s.tag, raw)
		if err != nil || snap == nil {
			return nil, nil
		}
		s.rqid = rqid
		return &Turn{Snapshot: snap, Events: s.tr.drainEvents()}, nil
	}
	return nil, nil
}

// login exchanges the server's challenge string for an assertion and
// authenticates the connection.
func (s *Showdown) login(challstr string) error {
	if s.loggedIn {
		return nil
	}
	var assertion string
	if s.cfg.Password != "" {
		resp, err := http.PostForm(loginURL, url.Values{
			"act":      {"login"},
			"name":     {s.cfg.Username},
			"pass":     {s.cfg.Password},
			"challstr": {challstr},
		})
		if err != nil {
			return fmt.Errorf("%w: login: %v", ErrDisconnected, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var out struct {
			Assertion string `json:"assertion"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(string(body), "]")), &out); err != nil {
			return fmt.Errorf("%w: login response: %v", ErrDisconnected, err)
		}
		assertion = out.Assertion
	} else {
		resp, err := http.Get(loginURL + "?act=getassertion&userid=" +
			url.QueryEscape(battle.Normalize(s.cfg.Username)) + "&challstr=" + url.QueryEscape(challstr))
		if err != nil {
			return fmt.Errorf("%w: getassertion: %v", ErrDisconnected, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assertion = string(body)
	}
	if assertion == "" || strings.HasPrefix(assertion, ";") {
		return fmt.Errorf("%w: login rejected", ErrDisconnected)
	}
	s.loggedIn = true
	return s.send(fmt.Sprintf("|/trn %s,0,%s", s.cfg.Username, assertion))
}

func (s *Showdown) startBattle() error {
	if s.searched {
		return nil
	}
	s.searched = true
	if s.cfg.Opponent != "" {
		return s.send(fmt.Sprintf("|/challenge %s, %s", s.cfg.Opponent, s.cfg.Format))
	}
	return s.send("|/search " + s.cfg.Format)
}

// Send submits the chosen action as the sim's choose command.
func (s *Showdown) Send(action battle.CandidateAction) error {
	if s.tag == "" {
		return fmt.Errorf("%w: no battle room", ErrDisconnected)
	}
	var cmd string
	switch action.Kind {
	case battle.ActionAttack:
		cmd = fmt.Sprintf("%s|/choose move %s|%d", s.tag, action.Move.ID, s.rqid)
	case battle.ActionSwitch:
		cmd = fmt.Sprintf("%s|/choose switch %s|%d", s.tag, action.Switch.Key(), s.rqid)
	default:
		return fmt.Errorf("unsupported action kind %q", action.Kind)
	}
	return s.send(cmd)
}

// SendDefault asks the simulator for its default order.
func (s *Showdown) SendDefault() error {
	if s.tag == "" {
		return fmt.Errorf("%w: no battle room", ErrDisconnected)
	}
	return s.send(fmt.Sprintf("%s|/choose default|%d", s.tag, s.rqid))
}

// Forfeit concedes the battle.
func (s *Showdown) Forfeit() error {
	if s.tag == "" {
		return nil
	}
	return s.send(s.tag + "|/forfeit")
}

func (s *Showdown) send(message string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	logging.Debug("sending", logging.Fields{"message": message})
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return fmt.Errorf("%w: write: %v", ErrDisconnected, err)
	}
	return nil
}

// Close tears down the websocket.
func (s *Showdown) Close() error {
	return s.conn.Close()
}
