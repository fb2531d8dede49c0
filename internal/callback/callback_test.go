package callback

import (
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, pool *session.Pool, id ffi.SessionID) {
	t.Helper()
	ch := pool.Create(id, nil)
	_ = ch
}

// S6. Callback routes to correct session.
func TestRouteTaskChainRoutesToCorrectSession(t *testing.T) {
	pool := session.NewPool()
	var a, b ffi.SessionID
	a[0] = 0xAA
	b[0] = 0xBB
	newTestSession(t, pool, a)
	newTestSession(t, pool, b)

	subA, ok := pool.TakeSubscriber(a)
	require.True(t, ok)
	subB, ok := pool.TakeSubscriber(b)
	require.True(t, ok)

	router := NewRouter(pool, zap.NewNop())

	var taskIDA int32 = 5
	var taskIDB int32 = 7

	router.route(a, MsgTaskChainCompleted, `{"taskchain":"Fight","taskid":`+itoa(taskIDA)+`}`)
	router.route(b, MsgTaskChainCompleted, `{"taskchain":"Fight","taskid":`+itoa(taskIDB)+`}`)

	entryA, ok := subA.Recv()
	require.True(t, ok)
	require.Contains(t, entryA.Message, itoa(taskIDA))

	entryB, ok := subB.Recv()
	require.True(t, ok)
	require.Contains(t, entryB.Message, itoa(taskIDB))

	// Exactly one entry per callback: a second, distinct message must be
	// the very next thing each subscriber receives, with no leftover
	// duplicate of the first queued ahead of it.
	router.route(a, MsgTaskChainStopped, `{"taskchain":"Fight","taskid":`+itoa(taskIDA)+`}`)
	router.route(b, MsgTaskChainStopped, `{"taskchain":"Fight","taskid":`+itoa(taskIDB)+`}`)

	entryA2, ok := subA.Recv()
	require.True(t, ok)
	require.Equal(t, int32(MsgTaskChainStopped), entryA2.Code)

	entryB2, ok := subB.Recv()
	require.True(t, ok)
	require.Equal(t, int32(MsgTaskChainStopped), entryB2.Code)
}

func TestRouteConnectionInfoReportsHandshake(t *testing.T) {
	pool := session.NewPool()
	var id ffi.SessionID
	ch := pool.Create(id, nil)
	router := NewRouter(pool, zap.NewNop())

	router.route(id, MsgConnectionInfo, `{"what":"UuidGot","details":{"uuid":"abc"}}`)

	res := <-ch
	require.NoError(t, res.Err)
}

func TestRouteConnectionInfoReportsFailure(t *testing.T) {
	pool := session.NewPool()
	var id ffi.SessionID
	ch := pool.Create(id, nil)
	router := NewRouter(pool, zap.NewNop())

	router.route(id, MsgConnectionInfo, `{"what":"ConnectFailed","why":"adb timeout","details":{}}`)

	res := <-ch
	require.Error(t, res.Err)
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
