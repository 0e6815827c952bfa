package session

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	mu       sync.Mutex
	written  [][]byte
	pings    int
	closed   bool
	writeErr error
}

func (m *MockConnection) WriteMessage(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, data)
	return nil
}

func (m *MockConnection) ReadMessage() ([]byte, error) { return nil, errors.New("not implemented") }
func (m *MockConnection) SetHeartbeat(interval time.Duration) {}
func (m *MockConnection) RemoteAddr() net.Addr                { return &net.TCPAddr{} }

func (m *MockConnection) Ping() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pings++
	return nil
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockConnection) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.written...)
}

func (m *MockConnection) Pings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pings
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	require.NotNil(t, manager)
	require.NotNil(t, manager.sessions)
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{}, 4)

	manager.Add(sess)
	assert.Equal(t, 1, manager.Count())

	retrieved, exists := manager.Get(sessionID)
	require.True(t, exists)
	assert.Same(t, sess, retrieved)

	manager.Remove(sessionID)
	assert.Equal(t, 0, manager.Count())

	_, exists = manager.Get(sessionID)
	assert.False(t, exists)
}

func TestManager_OpenSkipsClosedSessions(t *testing.T) {
	manager := NewManager()
	open := NewSession("open", &MockConnection{}, 4)
	closed := NewSession("closed", &MockConnection{}, 4)
	manager.Add(open)
	manager.Add(closed)

	require.NoError(t, closed.Close())

	sessions := manager.Open()
	require.Len(t, sessions, 1)
	assert.Equal(t, "open", sessions[0].ID)
}

func TestSession_SendIsDeliveredInOrder(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s", conn, 8)
	sess.Start(0)
	defer sess.Close()

	require.NoError(t, sess.Send([]byte("one")))
	require.NoError(t, sess.Send([]byte("two")))

	require.Eventually(t, func() bool { return len(conn.Written()) == 2 }, time.Second, 5*time.Millisecond)
	written := conn.Written()
	assert.Equal(t, "one", string(written[0]))
	assert.Equal(t, "two", string(written[1]))
}

func TestSession_SendAfterClose(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s", conn, 1)

	require.NoError(t, sess.Close())
	assert.False(t, sess.IsOpen())
	assert.ErrorIs(t, sess.Send([]byte("late")), ErrSessionClosed)
	assert.True(t, conn.closed)

	// closing twice is harmless
	assert.NoError(t, sess.Close())
}

func TestSession_SendBufferFull(t *testing.T) {
	// not started, so nothing drains the buffer
	sess := NewSession("s", &MockConnection{}, 1)

	require.NoError(t, sess.Send([]byte("first")))
	assert.ErrorIs(t, sess.Send([]byte("second")), ErrSendBufferFull)
}

func TestSession_WriteFailureClosesSession(t *testing.T) {
	conn := &MockConnection{writeErr: errors.New("broken pipe")}
	sess := NewSession("s", conn, 2)
	sess.Start(0)

	require.NoError(t, sess.Send([]byte("x")))
	require.Eventually(t, func() bool { return !sess.IsOpen() }, time.Second, 5*time.Millisecond)
}

func TestSession_HeartbeatPings(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s", conn, 2)
	sess.Start(10 * time.Millisecond)
	defer sess.Close()

	require.Eventually(t, func() bool { return conn.Pings() >= 2 }, time.Second, 5*time.Millisecond)
}
