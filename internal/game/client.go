package game

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/httpheader"
	"github.com/dmitrymodder/classicserver/internal/protocol"
	"github.com/dmitrymodder/classicserver/internal/transfer"
	"github.com/dmitrymodder/classicserver/internal/wsframe"
)

// clientState is the client's implicit state machine, matching
// §4.4's Accepted -> Identifying -> [CPE-Negotiating] -> MapSending ->
// Spawned progression. Accepted/Identifying are collapsed into one state:
// the client starts in stateIdentifying as soon as it's seated.
type clientState int

const (
	stateIdentifying clientState = iota
	stateCPENegotiating
	stateLogin
	stateMapSending
	stateSpawned
)

// mapTransferState mirrors §3's enumerated mapsend_state_t.
type mapTransferState int32

const (
	mtsNone mapTransferState = iota
	mtsRunning
	mtsSuccess
	mtsSent
	mtsFailure
)

// Client is one connection's state, owned exclusively by the Server that
// accepted it. Per the cyclic-ownership note in spec.md §9, Client never
// holds a back-pointer to Server: every method that needs the roster or the
// map takes *Server as a parameter instead.
type Client struct {
	conn  net.Conn
	index int
	log   *logrus.Entry

	name  string
	isOp  bool
	addr  string

	connectedFlag int32 // atomic 1/0, set by the reader goroutine or requestDisconnect

	inMu  sync.Mutex
	rawIn []byte

	outMu        sync.Mutex
	outBuf       []byte
	pendingClose []byte

	parseBuf []byte

	isWS        bool
	wsCanSwitch bool
	wsPending   []byte
	wsDecoder   *wsframe.Decoder

	state clientState

	cpeClient          bool
	extensions         map[string]int32
	cpeRemainingEntries int

	customBlockLevel       uint8
	customBlockLevelKnown  bool
	awaitingCustomBlockLvl bool

	lastPing   time.Time
	pingKey    uint16
	pingSentAt time.Time
	rtt        time.Duration

	x, y, z          float64
	yaw, pitch       float64
	spawned          bool

	mapState      int32 // atomic mapTransferState
	mapBlob       []byte
	chunkReader   *transfer.ChunkReader
	usingFastMap  bool
	fastChunks    <-chan transfer.FastMapChunk
	fastErr       <-chan error
}

// newClient wraps a freshly accepted socket, matching client_create's
// non-blocking/TCP_NODELAY setup and random spawn position.
func newClient(conn net.Conn, index int, log *logrus.Entry, spawnX, spawnY, spawnZ float64) *Client {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	c := &Client{
		conn:          conn,
		index:         index,
		log:           log,
		addr:          conn.RemoteAddr().String(),
		connectedFlag: 1,
		wsCanSwitch:   true,
		state:         stateIdentifying,
		extensions:    make(map[string]int32),
		x:             spawnX,
		y:             spawnY,
		z:             spawnZ,
	}
	go c.readLoop()
	return c
}

// Connected reports whether the client is still considered live. Once
// false, the server's sweep step will tear it down after this tick.
func (c *Client) Connected() bool { return atomic.LoadInt32(&c.connectedFlag) == 1 }

func (c *Client) markDead() { atomic.StoreInt32(&c.connectedFlag, 0) }

// Index returns the client's roster slot / remote avatar id.
func (c *Client) Index() int { return c.index }

// Name returns the client's chosen name, empty until Ident is accepted.
func (c *Client) Name() string { return c.name }

// Spawned reports whether the client has completed map transfer.
func (c *Client) Spawned() bool { return c.spawned }

// IP returns the client's remote address without its port, used for
// ban-list and self-exclusion checks.
func (c *Client) IP() string {
	host, _, err := net.SplitHostPort(c.addr)
	if err != nil {
		return c.addr
	}
	return host
}

func (c *Client) hasExtension(name string) bool {
	_, ok := c.extensions[name]
	return ok
}

func (c *Client) supportsCustomBlocks() bool {
	return c.hasExtension("CustomBlocks") && c.customBlockLevel >= protocol.CustomBlocksLevel
}

// Send appends payload to the client's outbound buffer. Safe to call from
// any goroutine: both packet handlers on the main tick goroutine and the
// map-transfer worker goroutines use it, guarded by outMu exactly as
// §5 Shared-resource policy requires.
func (c *Client) Send(payload []byte) {
	c.outMu.Lock()
	c.outBuf = append(c.outBuf, payload...)
	c.outMu.Unlock()
}

// readLoop is the one goroutine per connection doing blocking socket reads;
// Go's blocking I/O plus a dedicated goroutine is the idiomatic equivalent
// of the reference's non-blocking recv-on-the-main-thread loop (see
// DESIGN.md). Appended bytes wait in rawIn for the main tick goroutine to
// drain and decode - "read ready sockets into per-client inbound buffers"
// happens here, just off a different thread than C's select() loop.
func (c *Client) readLoop() {
	buf := make([]byte, 8192)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.inMu.Lock()
			c.rawIn = append(c.rawIn, buf[:n]...)
			c.inMu.Unlock()
		}
		if err != nil {
			c.markDead()
			return
		}
	}
}

func (c *Client) drainInbound() []byte {
	c.inMu.Lock()
	raw := c.rawIn
	c.rawIn = nil
	c.inMu.Unlock()
	return raw
}

// Tick runs one server tick's worth of work for this client: decode
// whatever arrived since the last tick, dispatch complete packets, run
// per-state periodic behavior (ping, map-transfer progress), then flush
// whatever handlers queued for send. Matches §4.5 step 3.
func (c *Client) Tick(srv *Server) {
	if c.Connected() {
		if raw := c.drainInbound(); len(raw) > 0 {
			if err := c.ingest(raw); err != nil {
				c.requestDisconnect(err.Error())
			}
		}
	}
	if c.Connected() {
		c.processPackets(srv)
	}
	if c.Connected() {
		c.tickState(srv)
	}
	c.flush()
}

func (c *Client) ingest(raw []byte) error {
	if c.isWS {
		msgs, err := c.wsDecoder.Feed(raw)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			c.parseBuf = append(c.parseBuf, m...)
		}
		if c.wsDecoder.CloseCode != 0 {
			if c.wsDecoder.CloseCode == wsframe.CloseNormal {
				c.requestDisconnect("")
				return nil
			}
			return fmt.Errorf("websocket protocol error (close %d)", c.wsDecoder.CloseCode)
		}
		return nil
	}

	if !c.wsCanSwitch {
		c.parseBuf = append(c.parseBuf, raw...)
		return nil
	}

	c.wsPending = append(c.wsPending, raw...)
	const getPrefix = "GET "
	checkLen := len(c.wsPending)
	if checkLen > len(getPrefix) {
		checkLen = len(getPrefix)
	}
	if !bytes.Equal(c.wsPending[:checkLen], []byte(getPrefix)[:checkLen]) {
		// Not an HTTP upgrade attempt; this is ordinary classic framing.
		// The gate only fires once per connection, so fold the buffered
		// bytes back into normal parsing and stop looking for an upgrade.
		c.parseBuf = append(c.parseBuf, c.wsPending...)
		c.wsPending = nil
		c.wsCanSwitch = false
		return nil
	}
	if checkLen < len(getPrefix) {
		return nil // wait for more bytes before deciding
	}

	return c.tryWebSocketUpgrade()
}

const maxUpgradeHeaderBytes = 8192

func (c *Client) tryWebSocketUpgrade() error {
	idx := bytes.Index(c.wsPending, []byte("\r\n\r\n"))
	if idx < 0 {
		if len(c.wsPending) > maxUpgradeHeaderBytes {
			return fmt.Errorf("websocket upgrade request too large")
		}
		return nil // wait for the rest of the header
	}

	headers := httpheader.Parse(string(c.wsPending[:idx+4]))
	if !wsframe.ValidateUpgrade(headers) {
		return fmt.Errorf("invalid websocket upgrade request")
	}

	key := headers.Get("Sec-WebSocket-Key")
	c.Send([]byte(wsframe.UpgradeResponse(key, "classicserver")))

	leftover := c.wsPending[idx+4:]
	c.wsPending = nil
	c.wsCanSwitch = false
	c.isWS = true
	c.wsDecoder = &wsframe.Decoder{}

	if len(leftover) > 0 {
		msgs, err := c.wsDecoder.Feed(leftover)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			c.parseBuf = append(c.parseBuf, m...)
		}
	}
	return nil
}

func (c *Client) processPackets(srv *Server) {
	for len(c.parseBuf) > 0 && c.Connected() {
		id := c.parseBuf[0]
		need, err := NextPacketSize(id)
		if err != nil {
			c.requestDisconnect("unknown packet")
			return
		}
		if len(c.parseBuf) < 1+need {
			return // wait for the rest of the payload next tick
		}
		payload := c.parseBuf[1 : 1+need]
		c.parseBuf = c.parseBuf[1+need:]
		c.dispatch(srv, id, payload)
	}
}

func (c *Client) dispatch(srv *Server, id byte, payload []byte) {
	switch id {
	case protocol.Identification:
		c.handleIdent(srv, payload)
	case protocol.SetBlockClient:
		if c.state == stateSpawned {
			c.handleSetBlock(srv, payload)
		}
	case protocol.PlayerPosAngle:
		if c.state == stateSpawned {
			c.handlePosAngle(srv, payload)
		}
	case protocol.Message:
		if c.state == stateSpawned {
			c.handleMessage(srv, payload)
		}
	case protocol.TwoWayPing:
		c.handleTwoWayPing(payload)
	case protocol.ExtInfo:
		if c.state == stateCPENegotiating {
			c.handleExtInfo(srv, payload)
		}
	case protocol.ExtEntry:
		if c.state == stateCPENegotiating {
			c.handleExtEntry(srv, payload)
		}
	case protocol.CustomBlockLevel:
		c.handleCustomBlockLevel(srv, payload)
	default:
		c.requestDisconnect("unexpected packet")
	}
}

func (c *Client) handleIdent(srv *Server, payload []byte) {
	p, ok := decodeIdent(payload)
	if !ok {
		c.requestDisconnect("bad ident packet")
		return
	}
	c.wsCanSwitch = false
	if c.state != stateIdentifying {
		c.requestDisconnect("unexpected ident")
		return
	}

	if reason, ok := srv.checkAdmission(c, p.name, p.key); !ok {
		c.requestDisconnect(reason)
		return
	}

	c.name = p.name
	c.isOp = srv.ops.Contains(p.name)

	if p.userType == 0x42 {
		c.cpeClient = true
		c.state = stateCPENegotiating
		c.Send(encodeExtInfo(srv.cfg.ServerName, uint16(len(protocol.SupportedExtensions))))
		for _, ext := range protocol.SupportedExtensions {
			c.Send(encodeExtEntry(ext.Name, ext.Version))
		}
		return
	}

	c.state = stateLogin
	c.beginLogin(srv)
}

func (c *Client) handleExtInfo(srv *Server, payload []byte) {
	p, ok := decodeExtInfo(payload)
	if !ok {
		c.requestDisconnect("bad extinfo packet")
		return
	}
	c.cpeRemainingEntries = int(p.count)
	if c.cpeRemainingEntries == 0 {
		c.state = stateLogin
		c.beginLogin(srv)
	}
}

func (c *Client) handleExtEntry(srv *Server, payload []byte) {
	p, ok := decodeExtEntry(payload)
	if !ok {
		c.requestDisconnect("bad extentry packet")
		return
	}
	if c.cpeRemainingEntries <= 0 {
		c.requestDisconnect("extension count overrun")
		return
	}
	for _, ext := range protocol.SupportedExtensions {
		if ext.Name == p.name {
			c.extensions[p.name] = p.version
			break
		}
	}
	c.cpeRemainingEntries--
	if c.cpeRemainingEntries == 0 {
		c.state = stateLogin
		c.beginLogin(srv)
	}
}

func (c *Client) beginLogin(srv *Server) {
	if c.hasExtension("CustomBlocks") && !c.customBlockLevelKnown {
		c.awaitingCustomBlockLvl = true
		c.Send(encodeCustomBlockLevel(protocol.CustomBlocksLevel))
		return
	}
	c.finishLogin(srv)
}

func (c *Client) handleCustomBlockLevel(srv *Server, payload []byte) {
	level, ok := decodeCustomBlockLevel(payload)
	if !ok {
		c.requestDisconnect("bad custom block level packet")
		return
	}
	c.customBlockLevel = level
	c.customBlockLevelKnown = true
	if c.awaitingCustomBlockLvl {
		c.awaitingCustomBlockLvl = false
		c.finishLogin(srv)
	}
}

func asciiFilter(s string, filter bool) string {
	if !filter {
		return s
	}
	b := []byte(s)
	for i, ch := range b {
		if ch&0x80 != 0 {
			b[i] = '?'
		}
	}
	return string(b)
}

func (c *Client) finishLogin(srv *Server) {
	filter := !c.hasExtension("FullCP437")
	userType := uint8(0x00)
	if c.isOp {
		userType = 0x64
	}
	c.Send(encodeIdent(protocol.ProtocolVersion, asciiFilter(srv.cfg.ServerName, filter), asciiFilter(srv.cfg.Motd, filter), userType))

	if c.hasExtension("TextColors") {
		for _, cc := range srv.cfg.CustomColours {
			c.Send(encodeSetTextColour(cc.R, cc.G, cc.B, cc.A, cc.Code))
		}
	}

	c.state = stateMapSending
	c.beginMapTransfer(srv)
}

func (c *Client) beginMapTransfer(srv *Server) {
	atomic.StoreInt32(&c.mapState, int32(mtsRunning))

	blocks := srv.world.Blocks()
	raw := make([]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = byte(b)
	}

	if c.hasExtension("FastMap") && c.supportsCustomBlocks() {
		c.usingFastMap = true
		c.Send(encodeLevelInitFast(uint32(len(raw))))
		chunks, errc := transfer.StreamFastMap(raw)
		c.fastChunks, c.fastErr = chunks, errc
		go c.runFastMapForwarder()
		return
	}

	c.Send(encodeLevelInit())
	go func() {
		blob, err := transfer.CompressWhole(raw)
		if err != nil {
			atomic.StoreInt32(&c.mapState, int32(mtsFailure))
			return
		}
		c.mapBlob = blob
		atomic.StoreInt32(&c.mapState, int32(mtsSuccess))
	}()
}

// runFastMapForwarder consumes the streamed compressor's channel and pushes
// each chunk straight into the client's outbound buffer as it arrives,
// matching mapsend_fast_thread_start writing directly into the client's
// packet buffer from its own thread.
func (c *Client) runFastMapForwarder() {
	for chunk := range c.fastChunks {
		c.Send(encodeLevelChunk(chunk.Payload, chunk.Length, 0))
	}
	if err := <-c.fastErr; err != nil {
		atomic.StoreInt32(&c.mapState, int32(mtsFailure))
		return
	}
	atomic.StoreInt32(&c.mapState, int32(mtsSent))
}

// advanceMapTransfer polls the worker-set state and, for the whole-gzip
// path, pulls up to four chunks per tick - matching client_tick's
// mapsend_success branch.
func (c *Client) advanceMapTransfer(srv *Server) {
	switch mapTransferState(atomic.LoadInt32(&c.mapState)) {
	case mtsFailure:
		c.requestDisconnect("Failed to send map data")
	case mtsSent:
		c.finishMapTransfer(srv)
	case mtsSuccess:
		if c.chunkReader == nil {
			c.chunkReader = transfer.NewChunkReader(c.mapBlob)
		}
		for i := 0; i < 4; i++ {
			chunk, n, done := c.chunkReader.Next()
			if done {
				c.finishMapTransfer(srv)
				return
			}
			c.Send(encodeLevelChunk(chunk, uint16(n), 0))
		}
	}
}

func (c *Client) finishMapTransfer(srv *Server) {
	c.Send(encodeLevelFinish(uint16(srv.world.SizeX), uint16(srv.world.SizeY), uint16(srv.world.SizeZ)))
	c.Send(encodePosAngle(-1,
		protocol.Float2Fixed(c.x), protocol.Float2Fixed(c.y), protocol.Float2Fixed(c.z),
		protocol.Degrees2Fixed(c.yaw), protocol.Degrees2Fixed(c.pitch)))

	for _, other := range srv.clientsSnapshot() {
		if other == c || !other.spawned {
			continue
		}
		c.Send(encodeSpawn(int8(other.index), other.name,
			protocol.Float2Fixed(other.x), protocol.Float2Fixed(other.y), protocol.Float2Fixed(other.z),
			protocol.Degrees2Fixed(other.yaw), protocol.Degrees2Fixed(other.pitch)))
		other.Send(encodeSpawn(int8(c.index), c.name,
			protocol.Float2Fixed(c.x), protocol.Float2Fixed(c.y), protocol.Float2Fixed(c.z),
			protocol.Degrees2Fixed(c.yaw), protocol.Degrees2Fixed(c.pitch)))
	}

	srv.Broadcast(encodeMessage(0, fmt.Sprintf("&e%s joined the game", c.name)))

	c.spawned = true
	c.state = stateSpawned
	c.lastPing = time.Now()
}

func (c *Client) handleSetBlock(srv *Server, payload []byte) {
	p, ok := decodeSetBlockClient(payload)
	if !ok {
		c.requestDisconnect("bad set block packet")
		return
	}

	block := blockreg.Block(p.block)
	x, y, z := int(p.x), int(p.y), int(p.z)

	if p.mode == 0 {
		old := srv.world.Get(x, y, z)
		if entry := srv.registry.Get(old); entry.OpOnlyBreak && !c.isOp {
			return
		}
		srv.world.Set(x, y, z, blockreg.Air)
		return
	}

	if entry := srv.registry.Get(block); entry.OpOnlyPlace && !c.isOp {
		return
	}
	srv.world.Set(x, y, z, block)
}

func (c *Client) handlePosAngle(srv *Server, payload []byte) {
	p, ok := decodePosAngle(payload)
	if !ok {
		c.requestDisconnect("bad position packet")
		return
	}
	c.x = protocol.Fixed2Float(p.x)
	c.y = protocol.Fixed2Float(p.y)
	c.z = protocol.Fixed2Float(p.z)
	c.yaw = protocol.Fixed2Degrees(p.yaw)
	c.pitch = protocol.Fixed2Degrees(p.pitch)

	srv.BroadcastExcept(c, encodePosAngle(int8(c.index), p.x, p.y, p.z, p.yaw, p.pitch))
}

func (c *Client) handleMessage(srv *Server, payload []byte) {
	p, ok := decodeMessage(payload)
	if !ok {
		c.requestDisconnect("bad message packet")
		return
	}
	text := strings.ReplaceAll(p.text, "%", "&")
	srv.Broadcast(encodeMessage(0, fmt.Sprintf("&e%s: &f%s", c.name, text)))
}

func (c *Client) handleTwoWayPing(payload []byte) {
	p, ok := decodeTwoWayPing(payload)
	if !ok {
		c.requestDisconnect("bad two-way ping packet")
		return
	}
	if p.direction == 0 {
		c.Send(encodeTwoWayPing(1, p.key))
		return
	}
	if p.key == c.pingKey {
		c.rtt = time.Since(c.pingSentAt)
	}
}

func (c *Client) tickState(srv *Server) {
	switch c.state {
	case stateMapSending:
		c.advanceMapTransfer(srv)
	case stateSpawned:
		c.maybePing(srv)
	}
}

func (c *Client) maybePing(srv *Server) {
	if time.Since(c.lastPing) < time.Second {
		return
	}
	c.lastPing = time.Now()

	if c.hasExtension("TwoWayPing") {
		c.pingKey = uint16(srv.rng.Intn(1 << 16))
		c.pingSentAt = time.Now()
		c.Send(encodeTwoWayPing(0, c.pingKey))
		return
	}
	c.Send(encodePing())
}

// requestDisconnect queues a final Disconnect packet (and, for WebSocket
// clients, a close frame) and marks the client dead; the socket itself and
// any leave/despawn broadcast are handled by the server's sweep once it
// observes Connected() == false, matching §3's Client lifecycle note.
func (c *Client) requestDisconnect(reason string) {
	if !c.Connected() {
		return
	}
	if reason != "" {
		c.Send(encodeDisconnect(reason))
	}
	if c.isWS {
		c.outMu.Lock()
		c.pendingClose = append(c.pendingClose, wsframe.CloseFrame(wsframe.CloseNormal)...)
		c.outMu.Unlock()
	}
	c.markDead()
}

// flush writes whatever has queued in the outbound buffer, wrapping it in
// a single WebSocket binary frame first if this connection uses that
// transport, matching §4.5's "flush each client's outbound buffer" step.
func (c *Client) flush() {
	c.outMu.Lock()
	data := c.outBuf
	c.outBuf = nil
	closeFrame := c.pendingClose
	c.pendingClose = nil
	c.outMu.Unlock()

	if len(data) > 0 {
		out := data
		if c.isWS {
			out = wsframe.WrapBinary(data)
		}
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err := c.conn.Write(out); err != nil {
			c.markDead()
		}
	}
	if len(closeFrame) > 0 {
		c.conn.Write(closeFrame)
	}
}

// cleanup releases the client's buffers and closes its socket. Called only
// by the server's sweep, once, after Connected() has gone false.
func (c *Client) cleanup() {
	c.conn.Close()
	c.outBuf = nil
	c.rawIn = nil
	c.parseBuf = nil
	c.extensions = nil
}

// authKey renders md5(salt || name) as lowercase hex, the expected value a
// client's Ident key must match case-insensitively in online mode.
func authKey(salt, name string) string {
	sum := md5.Sum([]byte(salt + name))
	return hex.EncodeToString(sum[:])
}
