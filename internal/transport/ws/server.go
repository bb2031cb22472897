package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pocketpet.app/internal/protocol"
	"pocketpet.app/internal/sim/companion"
)

// PrefStore persists the UI preference documents (enabled flag, widget
// position). The simulation never reads them; the widget does.
type PrefStore interface {
	LoadDoc(key string) ([]byte, bool, error)
	SaveDoc(key string, raw []byte) error
}

// Preference document keys.
const (
	keyWidgetEnabled = "widget_enabled"
	keyWidgetPos     = "widget_pos"
)

// Server exposes the engine command surface to the widget UI over a
// localhost websocket.
type Server struct {
	engine *companion.Engine
	prefs  PrefStore
	log    *log.Logger

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan []byte
}

func NewServer(e *companion.Engine, prefs PrefStore, logger *log.Logger) *Server {
	return &Server{
		engine: e,
		prefs:  prefs,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local widget
		},
		conns: map[*websocket.Conn]chan []byte{},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		out := make(chan []byte, 16)
		s.mu.Lock()
		s.conns[conn] = out
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()

		done := make(chan struct{})
		defer close(done)

		// Writer goroutine: pushed events plus command results.
		go func() {
			for {
				select {
				case <-done:
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.Cmd
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			sendLatest(out, s.dispatch(cmd))
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return false
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return false
	}

	welcome := protocol.Welcome{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Catalogs:        s.engine.CatalogInfo(),
		Pets:            s.engine.Pets(),
		State:           s.engine.StateJSON(),
		Prefs:           s.loadPrefs(),
	}
	return writeJSON(conn, welcome) == nil
}

// loadPrefs rebuilds the stored widget preferences for the WELCOME
// message. Missing or unreadable documents just mean no prefs yet.
func (s *Server) loadPrefs() *protocol.Prefs {
	raw, found, err := s.prefs.LoadDoc(keyWidgetEnabled)
	if err != nil || !found {
		return nil
	}
	p := &protocol.Prefs{}
	if err := json.Unmarshal(raw, &p.Enabled); err != nil {
		return nil
	}
	if raw, found, err = s.prefs.LoadDoc(keyWidgetPos); err == nil && found {
		var pos map[string]string
		if json.Unmarshal(raw, &pos) == nil {
			p.Top = pos["top"]
			p.Left = pos["left"]
		}
	}
	return p
}

// dispatch routes one command to the engine and encodes the result.
func (s *Server) dispatch(cmd protocol.Cmd) []byte {
	var res companion.Result
	switch cmd.Cmd {
	case protocol.CmdSelectPet:
		res = s.engine.SelectPet(cmd.Arg)
	case protocol.CmdNextPose:
		res = s.engine.NextPose()
	case protocol.CmdFeed:
		res = s.engine.Feed()
	case protocol.CmdClean:
		res = s.engine.Clean()
	case protocol.CmdHeal:
		res = s.engine.Heal()
	case protocol.CmdPlay:
		res = s.engine.Play()
	case protocol.CmdStartWork:
		res = s.engine.StartWork(cmd.Arg)
	case protocol.CmdCancel:
		res = s.engine.Cancel()
	case protocol.CmdToggleHosting:
		res = s.engine.ToggleHosting()
	case protocol.CmdBuy:
		res = s.engine.Buy(cmd.Arg)
	case protocol.CmdUseItem:
		res = s.engine.UseItem(cmd.Arg)
	case protocol.CmdGetState:
		// State rides along below.
	case protocol.CmdSetPrefs:
		res = s.setPrefs(cmd.Prefs)
	default:
		res = companion.Result{Code: protocol.ErrProtoBadRequest, Message: "unknown command " + cmd.Cmd}
	}

	out := protocol.Result{
		Type:    protocol.TypeResult,
		ID:      cmd.ID,
		Code:    res.Code,
		Message: res.Message,
		State:   s.engine.StateJSON(),
	}
	b, _ := json.Marshal(out)
	return b
}

func (s *Server) setPrefs(p *protocol.Prefs) companion.Result {
	if p == nil {
		return companion.Result{Code: protocol.ErrProtoBadRequest, Message: "missing prefs"}
	}
	enabled, _ := json.Marshal(p.Enabled)
	if err := s.prefs.SaveDoc(keyWidgetEnabled, enabled); err != nil {
		s.log.Printf("save prefs: %v", err)
		return companion.Result{Code: protocol.ErrInternal, Message: "could not save prefs"}
	}
	pos, _ := json.Marshal(map[string]string{"top": p.Top, "left": p.Left})
	if err := s.prefs.SaveDoc(keyWidgetPos, pos); err != nil {
		s.log.Printf("save prefs: %v", err)
		return companion.Result{Code: protocol.ErrInternal, Message: "could not save prefs"}
	}
	return companion.Result{Message: "prefs saved"}
}

// Broadcast pushes tick events (and the fresh state) to every client.
func (s *Server) Broadcast(evs []companion.TickEvent) {
	if len(evs) == 0 {
		return
	}
	state := s.engine.StateJSON()
	for _, ev := range evs {
		b, err := json.Marshal(protocol.Event{
			Type:    protocol.TypeEvent,
			Kind:    ev.Kind,
			Message: ev.Message,
			State:   state,
		})
		if err != nil {
			continue
		}
		s.mu.Lock()
		for _, out := range s.conns {
			sendLatest(out, b)
		}
		s.mu.Unlock()
	}
}

// sendLatest drops the oldest queued message rather than blocking the
// engine behind a slow client.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
