package network

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/amalg/gridarena/internal/battlemap"
	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/session"
)

// Server accepts player connections and feeds their commands into the
// registry. Every subscriber of a channel gets the new state after each
// accepted command.
type Server struct {
	name     string
	registry *session.Registry
	maps     *battlemap.Renderer
	admins   map[string]bool
	addr     string
	listener net.Listener
	clients  map[*clientConn]struct{}
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// clientConn represents a connected player.
type clientConn struct {
	conn   net.Conn
	player game.Player
	key    session.Key
	mu     sync.Mutex
}

// NewServer creates a server for the registry. Player IDs in admins may end
// matches.
func NewServer(name, addr string, reg *session.Registry, maps *battlemap.Renderer, admins []string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		name:     name,
		registry: reg,
		maps:     maps,
		admins:   make(map[string]bool, len(admins)),
		addr:     addr,
		clients:  make(map[*clientConn]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, id := range admins {
		if id = strings.TrimSpace(id); id != "" {
			s.admins[id] = true
		}
	}

	reg.OnChange(func(key session.Key, snap game.Snapshot) {
		s.broadcastState(key, snap)
	})

	return s
}

// Start begins accepting connections.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("[SERVER] Listening on %s", s.listener.Addr())
	printLocalIPs(s.listener.Addr().String())

	go s.acceptLoop()
	return nil
}

// Addr returns the bound listen address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts down the server and drops every connection.
func (s *Server) Stop() {
	close(s.done)
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.RLock()
	for cc := range s.clients {
		cc.conn.Close()
	}
	s.mu.RUnlock()
}

// ClientCount returns the number of connected players.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("[SERVER] Accept error: %v", err)
				continue
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()

	env, err := Decode(conn)
	if err != nil {
		log.Printf("[SERVER] Failed to read hello: %v", err)
		return
	}
	if env.Type != MsgHello {
		log.Printf("[SERVER] Expected hello, got %s", env.Type)
		Encode(conn, MsgError, ErrorMsg{Code: game.CodeUnknownCommand, Metadata: map[string]string{"expected": string(MsgHello)}})
		return
	}

	var hello HelloMsg
	if err := DecodePayload(env, &hello); err != nil {
		log.Printf("[SERVER] Failed to decode hello: %v", err)
		return
	}
	if strings.TrimSpace(hello.Player.ID) == "" {
		Encode(conn, MsgError, ErrorMsg{Code: game.CodeMissingArgument, Metadata: map[string]string{"field": "player.id"}})
		return
	}
	hello.Player.Admin = s.admins[hello.Player.ID]
	if hello.Player.Mention == "" {
		hello.Player.Mention = "<@" + hello.Player.ID + ">"
	}

	cc := &clientConn{conn: conn, player: hello.Player, key: hello.Key}
	s.mu.Lock()
	s.clients[cc] = struct{}{}
	s.mu.Unlock()
	defer s.removeClient(cc)

	log.Printf("[SERVER] Player connected: %s (%s) watching %s", hello.Player.Name, hello.Player.ID, hello.Key)

	welcome := WelcomeMsg{
		Server: s.name,
		Player: hello.Player,
		Key:    hello.Key,
		Config: s.registry.Config(),
	}
	if err := cc.send(MsgWelcome, welcome); err != nil {
		log.Printf("[SERVER] Failed to send welcome: %v", err)
		return
	}
	s.sendCurrentState(cc)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		env, err := Decode(conn)
		if err != nil {
			log.Printf("[SERVER] Player %s disconnected: %v", cc.player.ID, err)
			return
		}

		switch env.Type {
		case MsgCommand:
			var msg CommandMsg
			if err := DecodePayload(env, &msg); err != nil {
				log.Printf("[SERVER] Invalid command from %s: %v", cc.player.ID, err)
				continue
			}
			s.handleCommand(cc, msg)
		case MsgSubscribe:
			var msg SubscribeMsg
			if err := DecodePayload(env, &msg); err != nil {
				log.Printf("[SERVER] Invalid subscribe from %s: %v", cc.player.ID, err)
				continue
			}
			cc.mu.Lock()
			cc.key = msg.Key
			cc.mu.Unlock()
			s.sendCurrentState(cc)
		default:
			log.Printf("[SERVER] Unknown message type from %s: %s", cc.player.ID, env.Type)
		}
	}
}

func (s *Server) handleCommand(cc *clientConn, msg CommandMsg) {
	cmd := session.Command{
		Name:   msg.Name,
		Key:    cc.channel(),
		Player: cc.player,
		Args:   msg.Args,
	}
	reply, err := s.registry.Dispatch(s.ctx, cmd)
	if err != nil {
		if game.GetCode(err) == game.CodeUnknown {
			log.Printf("[SERVER] %s from %s failed: %v", msg.Name, cc.player.ID, err)
		}
		if err := cc.send(MsgError, NewErrorMsg(msg.Name, err)); err != nil {
			log.Printf("[SERVER] Failed to send error to %s: %v", cc.player.ID, err)
		}
		return
	}
	if err := cc.send(MsgResult, ResultMsg{Reply: reply}); err != nil {
		log.Printf("[SERVER] Failed to send result to %s: %v", cc.player.ID, err)
	}
}

func (s *Server) removeClient(cc *clientConn) {
	s.mu.Lock()
	delete(s.clients, cc)
	s.mu.Unlock()
	log.Printf("[SERVER] Player removed: %s", cc.player.ID)
}

func (s *Server) sendCurrentState(cc *clientConn) {
	key := cc.channel()
	snap, err := s.registry.Snapshot(key)
	if err != nil {
		return
	}
	if err := cc.send(MsgState, s.stateMsg(key, snap)); err != nil {
		log.Printf("[SERVER] Failed to send state to %s: %v", cc.player.ID, err)
	}
}

func (s *Server) broadcastState(key session.Key, snap game.Snapshot) {
	msg := s.stateMsg(key, snap)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for cc := range s.clients {
		if cc.channel() != key {
			continue
		}
		if err := cc.send(MsgState, msg); err != nil {
			log.Printf("[SERVER] Failed to send state to %s: %v", cc.player.ID, err)
		}
	}
}

func (s *Server) stateMsg(key session.Key, snap game.Snapshot) StateMsg {
	msg := StateMsg{Key: key, Snapshot: snap}
	if s.maps != nil {
		msg.MapURL = s.maps.URL(snap)
	}
	return msg
}

func (cc *clientConn) channel() session.Key {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.key
}

func (cc *clientConn) send(t MsgType, payload interface{}) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return Encode(cc.conn, t, payload)
}

// printLocalIPs prints all local network interfaces for players to connect to.
func printLocalIPs(addr string) {
	_, port, _ := net.SplitHostPort(addr)

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}

	log.Println("[SERVER] Players can connect using:")
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				log.Printf("[SERVER]   %s:%s", ipnet.IP.String(), port)
			}
		}
	}
}
