package game

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/config"
	"github.com/dmitrymodder/classicserver/internal/namelist"
	"github.com/dmitrymodder/classicserver/internal/voxel"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func emptyList(t *testing.T) *namelist.List {
	t.Helper()
	l, err := namelist.Load("")
	require.NoError(t, err)
	return l
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := blockreg.NewRegistry()
	world := voxel.New("test", 8, 8, 8, registry, 1)
	cfg := config.Default()
	cfg.MaxPlayers = 4
	cfg.HeartbeatDisabled = true
	empty := emptyList(t)
	return NewServer(cfg, testLogger(), registry, world, empty, empty, empty, empty)
}

// newHarnessClient builds a Client wired to one end of a net.Pipe without
// going through newClient's accept-time handshake, so tests can observe
// exactly what bytes a given server action writes.
func newHarnessClient(t *testing.T, srv *Server, name string, index int) (*Client, net.Conn) {
	t.Helper()
	serverSide, testSide := net.Pipe()
	c := &Client{
		conn:          serverSide,
		index:         index,
		log:           logrus.NewEntry(testLogger()),
		connectedFlag: 1,
		state:         stateSpawned,
		extensions:    make(map[string]int32),
		name:          name,
		spawned:       true,
	}
	srv.mu.Lock()
	for len(srv.clients) <= index {
		srv.clients = append(srv.clients, nil)
	}
	srv.clients[index] = c
	srv.mu.Unlock()
	return c, testSide
}

func readWithTimeout(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)
	return buf
}

func TestCheckAdmissionRejectsBannedName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.txt")
	require.NoError(t, os.WriteFile(path, []byte("bob\n"), 0o644))
	bans, err := namelist.Load(path)
	require.NoError(t, err)

	registry := blockreg.NewRegistry()
	world := voxel.New("test", 8, 8, 8, registry, 1)
	cfg := config.Default()
	cfg.HeartbeatDisabled = true
	empty := emptyList(t)
	srv := NewServer(cfg, testLogger(), registry, world, empty, bans, empty, empty)

	reason, ok := srv.checkAdmission(nil, "bob", "")
	assert.False(t, ok)
	assert.Equal(t, "Banned", reason)
}

func TestCheckAdmissionRequiresWhitelist(t *testing.T) {
	registry := blockreg.NewRegistry()
	world := voxel.New("test", 8, 8, 8, registry, 1)
	cfg := config.Default()
	cfg.HeartbeatDisabled = true
	cfg.WhitelistEnabled = true
	empty := emptyList(t)
	srv := NewServer(cfg, testLogger(), registry, world, empty, empty, empty, empty)

	reason, ok := srv.checkAdmission(nil, "alice", "")
	assert.False(t, ok)
	assert.Equal(t, "Not whitelisted", reason)
}

func TestCheckAdmissionRejectsBadKeyInOnlineMode(t *testing.T) {
	registry := blockreg.NewRegistry()
	world := voxel.New("test", 8, 8, 8, registry, 1)
	cfg := config.Default()
	cfg.HeartbeatDisabled = true
	cfg.OnlineMode = true
	cfg.DebugSalt = "fixed-salt"
	empty := emptyList(t)
	srv := NewServer(cfg, testLogger(), registry, world, empty, empty, empty, empty)

	_, ok := srv.checkAdmission(nil, "alice", "wrong-key")
	assert.False(t, ok)

	good := authKey("fixed-salt", "alice")
	_, ok = srv.checkAdmission(nil, "alice", good)
	assert.True(t, ok)
}

func TestBroadcastBlockChangeUsesFallbackForNonCPEClients(t *testing.T) {
	srv := newTestServer(t)
	legacy, legacyConn := newHarnessClient(t, srv, "legacy", 0)
	defer legacy.conn.Close()

	done := make(chan []byte, 1)
	go func() {
		done <- readWithTimeout(t, legacyConn, 1+6+1)
	}()

	srv.broadcastBlockChange(1, 2, 3, blockreg.Snow)
	legacy.flush()

	got := <-done
	// Snow (id 53) has no vanilla meaning; a client without CustomBlocks
	// should see its fallback (air) instead of the raw id.
	assert.Equal(t, byte(blockreg.Air), got[len(got)-1])
}

func TestBroadcastBlockChangeSendsRawIdToCPEClient(t *testing.T) {
	srv := newTestServer(t)
	modern, modernConn := newHarnessClient(t, srv, "modern", 0)
	modern.extensions["CustomBlocks"] = 1
	modern.customBlockLevel = 1
	modern.customBlockLevelKnown = true
	defer modern.conn.Close()

	done := make(chan []byte, 1)
	go func() {
		done <- readWithTimeout(t, modernConn, 1+6+1)
	}()

	srv.broadcastBlockChange(1, 2, 3, blockreg.Snow)
	modern.flush()

	got := <-done
	assert.Equal(t, byte(blockreg.Snow), got[len(got)-1])
}

func TestBroadcastSendsToEveryConnectedClient(t *testing.T) {
	srv := newTestServer(t)
	a, aConn := newHarnessClient(t, srv, "a", 0)
	b, bConn := newHarnessClient(t, srv, "b", 1)
	defer a.conn.Close()
	defer b.conn.Close()

	doneA := make(chan []byte, 1)
	doneB := make(chan []byte, 1)
	go func() { doneA <- readWithTimeout(t, aConn, 1+64) }()
	go func() { doneB <- readWithTimeout(t, bConn, 1+64) }()

	srv.Broadcast(encodeMessage(0, "hello"))
	a.flush()
	b.flush()

	<-doneA
	<-doneB
}

func TestSweepSavesWorldWhenLastClientLeaves(t *testing.T) {
	srv := newTestServer(t)
	a, aConn := newHarnessClient(t, srv, "a", 0)
	defer aConn.Close()

	saved := false
	srv.SetOnEmptyRoster(func() { saved = true })

	a.markDead()
	srv.sweep()

	assert.True(t, saved)
}

func TestSweepDoesNotSaveWhileClientsRemain(t *testing.T) {
	srv := newTestServer(t)
	a, aConn := newHarnessClient(t, srv, "a", 0)
	defer aConn.Close()
	_, bConn := newHarnessClient(t, srv, "b", 1)
	defer bConn.Close()

	saved := false
	srv.SetOnEmptyRoster(func() { saved = true })

	a.markDead()
	srv.sweep()

	assert.False(t, saved)
}

func TestSweepDoesNotResaveOnceRosterStaysEmpty(t *testing.T) {
	srv := newTestServer(t)
	a, aConn := newHarnessClient(t, srv, "a", 0)
	defer aConn.Close()

	calls := 0
	srv.SetOnEmptyRoster(func() { calls++ })

	a.markDead()
	srv.sweep()
	srv.sweep()

	assert.Equal(t, 1, calls)
}
