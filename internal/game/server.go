package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/config"
	"github.com/dmitrymodder/classicserver/internal/heartbeat"
	"github.com/dmitrymodder/classicserver/internal/namelist"
	"github.com/dmitrymodder/classicserver/internal/rng"
	"github.com/dmitrymodder/classicserver/internal/voxel"
)

// TickInterval is the server's fixed tick rate, matching §4.5.
const TickInterval = 50 * time.Millisecond

// Server owns the listener, the roster of connected clients, the world and
// the name-lists, and drives the single per-tick loop everything else hangs
// off of. Per the cyclic-ownership note in spec.md §9, Server never stores
// method values or closures bound back into a Client; it always passes
// itself into Client methods instead.
type Server struct {
	cfg *config.Config
	log *logrus.Logger

	registry *blockreg.Registry
	world    *voxel.Map
	rng      *rng.RNG

	ops       *namelist.List
	bans      *namelist.List
	bannedIPs *namelist.List
	whitelist *namelist.List

	salt string

	listener net.Listener
	accepted chan net.Conn

	mu      sync.Mutex
	clients []*Client

	tick      uint64
	publicURL string

	onEmptyRoster func()
}

// NewServer builds a Server around an already-loaded world and registry. The
// listener is not opened until Run is called.
func NewServer(cfg *config.Config, log *logrus.Logger, registry *blockreg.Registry, world *voxel.Map, ops, bans, bannedIPs, whitelist *namelist.List) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		registry:  registry,
		world:     world,
		rng:       rng.New(cfg.Seed),
		ops:       ops,
		bans:      bans,
		bannedIPs: bannedIPs,
		whitelist: whitelist,
		salt:      cfg.DebugSalt,
		accepted:  make(chan net.Conn, 64),
	}
	if s.salt == "" {
		s.salt = randomSalt()
	}
	world.SetOnChange(s.broadcastBlockChange)
	return s
}

// SetOnEmptyRoster wires in a callback invoked from sweep() whenever the
// roster drains to zero clients, matching spec.md §3/§4.5's "persists the
// map ... whenever the last client disconnects". cmd/classicserver wires
// this to worldstore.Save.
func (s *Server) SetOnEmptyRoster(f func()) { s.onEmptyRoster = f }

func randomSalt() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing means the platform's entropy source is
		// broken; a fixed fallback still lets the server run, just
		// without a unique per-process salt.
		return "classicserver-fallback-salt"
	}
	return hex.EncodeToString(buf[:])
}

// Run opens the listener, starts the accept-feed goroutine and then runs the
// main tick loop. It returns only if the listener cannot be opened; closing
// the listener stops accepting but does not end the tick loop.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.ListenPort))
	if err != nil {
		return fmt.Errorf("game: listen on port %d: %w", s.cfg.ListenPort, err)
	}
	s.listener = ln
	s.log.WithField("port", s.cfg.ListenPort).Info("listening")

	go s.acceptLoop()

	if !s.cfg.HeartbeatDisabled {
		go s.heartbeatLoop()
	}

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.runTick()
	}
	return nil
}

// Close stops accepting new connections. Clients already seated stay
// connected, and the tick loop keeps running.
func (s *Server) Close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// acceptLoop runs Accept in a blocking loop on its own goroutine, handing
// each new connection to the main tick loop over a channel - the idiomatic
// Go substitute for the reference's non-blocking accept() call inside its
// own single-threaded select loop.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.accepted <- conn
	}
}

// runTick performs one full server tick: drain newly accepted connections,
// run the world's scheduled/random ticks, tick every client, sweep the dead
// ones, then advance the tick counter. Matches §4.5 step by step.
func (s *Server) runTick() {
	s.drainAccepted()
	s.world.RunTick()

	for _, c := range s.clientsSnapshot() {
		c.Tick(s)
	}

	s.sweep()
	s.tick++
}

func (s *Server) drainAccepted() {
	for {
		select {
		case conn := <-s.accepted:
			s.seat(conn)
		default:
			return
		}
	}
}

func (s *Server) seat(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) >= s.cfg.MaxPlayers {
		encodeAndClose(conn, "Server full")
		return
	}

	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	if s.bannedIPs.Contains(host) {
		encodeAndClose(conn, "Banned")
		return
	}

	idx := -1
	for i, c := range s.clients {
		if c == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(s.clients)
		s.clients = append(s.clients, nil)
	}

	spawnMaxX, spawnMaxZ := s.world.SizeX, s.world.SizeZ
	if spawnMaxX > 1024 {
		spawnMaxX = 1024
	}
	if spawnMaxZ > 1024 {
		spawnMaxZ = 1024
	}
	sx, sz := s.rng.Intn(spawnMaxX), s.rng.Intn(spawnMaxZ)
	// Top is one above the highest non-air block, so +1 spawns two above it.
	spawnX, spawnY, spawnZ := float64(sx), float64(s.world.Top(sx, sz)+1), float64(sz)
	log := s.log.WithField("addr", conn.RemoteAddr().String())
	c := newClient(conn, idx, log, spawnX, spawnY, spawnZ)
	s.clients[idx] = c
}

// encodeAndClose writes a bare Disconnect packet before a connection is
// ever wrapped in a Client, used for admission checks that fire before a
// client has a tick slot to flush through.
func encodeAndClose(conn net.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	conn.Write(encodeDisconnect(reason))
	conn.Close()
}

// checkAdmission validates a connecting client's name and key against the
// server's online-mode policy and name-lists, matching client_login's
// sequence of checks.
func (s *Server) checkAdmission(c *Client, name, key string) (reason string, ok bool) {
	if name == "" {
		return "Invalid name", false
	}
	if s.bans.Contains(name) {
		return "Banned", false
	}
	if s.cfg.WhitelistEnabled && !s.whitelist.Contains(name) {
		return "Not whitelisted", false
	}
	if s.cfg.OnlineMode {
		want := authKey(s.salt, name)
		if !strings.EqualFold(key, want) {
			return "Bad login key", false
		}
	}
	for _, other := range s.clientsSnapshot() {
		if other != c && strings.EqualFold(other.name, name) {
			return "Name already taken", false
		}
	}
	return "", true
}

// clientsSnapshot returns a stable copy of the live roster slots, safe to
// range over without holding mu for the duration (the main tick goroutine
// is the only writer, so this is mostly documentation of intent, not a
// concurrency necessity).
func (s *Server) clientsSnapshot() []*Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// sweep removes dead clients from the roster, closes their sockets, tells
// everyone else they left, and - if that emptied the roster - persists the
// map, matching spec.md §3/§4.5.
func (s *Server) sweep() {
	s.mu.Lock()
	dead := make([]*Client, 0)
	empty := true
	for i, c := range s.clients {
		if c == nil {
			continue
		}
		if c.Connected() {
			empty = false
			continue
		}
		dead = append(dead, c)
		s.clients[i] = nil
	}
	s.mu.Unlock()

	for _, c := range dead {
		c.cleanup()
		if c.spawned {
			s.Broadcast(encodeDespawn(int8(c.index)))
			if c.name != "" {
				s.Broadcast(encodeMessage(0, fmt.Sprintf("&e%s left the game", c.name)))
			}
		}
	}

	if empty && len(dead) > 0 && s.onEmptyRoster != nil {
		s.onEmptyRoster()
	}
}

// Broadcast queues payload for every connected client.
func (s *Server) Broadcast(payload []byte) {
	for _, c := range s.clientsSnapshot() {
		c.Send(payload)
	}
}

// BroadcastExcept queues payload for every connected client other than
// exclude.
func (s *Server) BroadcastExcept(exclude *Client, payload []byte) {
	for _, c := range s.clientsSnapshot() {
		if c != exclude {
			c.Send(payload)
		}
	}
}

// broadcastBlockChange is voxel.Map's BlockChangeFunc hook: it re-encodes
// the SetBlockServer packet per client, remapping to each client's CPE
// fallback id when it hasn't negotiated CustomBlocks, matching the
// reference's per-peer block id translation on broadcast.
func (s *Server) broadcastBlockChange(x, y, z int, block blockreg.Block) {
	for _, c := range s.clientsSnapshot() {
		if !c.spawned {
			continue
		}
		sendBlock := block
		if !c.supportsCustomBlocks() {
			sendBlock = s.registry.FallbackFor(block)
		}
		c.Send(encodeSetBlockServer(uint16(x), uint16(y), uint16(z), uint8(sendBlock)))
	}
}

// heartbeatLoop periodically announces this server to the configured
// heartbeat URL, matching §6. It never blocks the tick loop: each send runs
// on its own goroutine via heartbeat.SendAsync.
func (s *Server) heartbeatLoop() {
	s.sendHeartbeat()
	ticker := time.NewTicker(heartbeat.Interval)
	defer ticker.Stop()
	for range ticker.C {
		s.sendHeartbeat()
	}
}

func (s *Server) sendHeartbeat() {
	req := heartbeat.Request{
		URL:      s.cfg.HeartbeatURL,
		Port:     s.cfg.ListenPort,
		MaxUsers: s.cfg.MaxPlayers,
		Users:    len(s.clientsSnapshot()),
		Public:   s.cfg.Public,
		Salt:     s.salt,
		Software: "classicserver",
		Name:     s.cfg.ServerName,
		Version:  7,
	}
	heartbeat.SendAsync(req, s.log, func(publicURL string) {
		s.mu.Lock()
		s.publicURL = publicURL
		s.mu.Unlock()
		s.log.WithField("url", publicURL).Info("heartbeat announced")
	})
}

// PublicURL returns the last URL the heartbeat service reported for this
// server, or "" if none has succeeded yet.
func (s *Server) PublicURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicURL
}
