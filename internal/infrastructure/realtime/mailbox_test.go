package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestMailbox_PublishFansOutToEveryConnection(t *testing.T) {
	req := require.New(t)

	mb := NewMailbox()
	defer mb.Close()

	phone := &fakeSocket{}
	laptop := &fakeSocket{}
	other := &fakeSocket{}
	mb.Join(NewConnection(2, phone, 8))
	mb.Join(NewConnection(2, laptop, 8))
	mb.Join(NewConnection(3, other, 8))

	delivered := mb.Publish(2, []byte(`{"type":"chat_message"}`))
	req.Equal(2, delivered)

	req.Eventually(func() bool {
		return phone.frameCount() == 1 && laptop.frameCount() == 1
	}, time.Second, 5*time.Millisecond)
	req.Zero(other.frameCount())
}

func TestMailbox_PublishWithoutSubscribers(t *testing.T) {
	req := require.New(t)

	mb := NewMailbox()
	defer mb.Close()

	req.Zero(mb.Publish(42, []byte("nobody home")))
}

func TestMailbox_LateJoinerMissesEarlierPublish(t *testing.T) {
	req := require.New(t)

	mb := NewMailbox()
	defer mb.Close()

	req.Zero(mb.Publish(2, []byte("before join")))

	sock := &fakeSocket{}
	mb.Join(NewConnection(2, sock, 8))

	req.Equal(1, mb.Publish(2, []byte("after join")))
	req.Eventually(func() bool { return sock.frameCount() == 1 }, time.Second, 5*time.Millisecond)
	req.Equal("after join", string(sock.lastFrame()))
}

func TestMailbox_EvictsDeadConnections(t *testing.T) {
	req := require.New(t)

	mb := NewMailbox()
	defer mb.Close()

	sock := &fakeSocket{}
	conn := NewConnection(2, sock, 8)
	mb.Join(conn)
	req.Equal(1, mb.Connections(2))

	conn.Close(websocket.CloseGoingAway, "client went away")

	// A closed connection never counts as delivered, even with buffer space
	// free; the first publish after close must evict it.
	req.Zero(mb.Publish(2, []byte("into the void")))
	req.Zero(mb.Connections(2))
}

func TestMailbox_LeaveRemovesOnlyThatConnection(t *testing.T) {
	req := require.New(t)

	mb := NewMailbox()
	defer mb.Close()

	first := NewConnection(2, &fakeSocket{}, 8)
	second := NewConnection(2, &fakeSocket{}, 8)
	mb.Join(first)
	mb.Join(second)

	mb.Leave(first)
	req.Equal(1, mb.Connections(2))

	mb.Leave(first) // repeat leave is a no-op
	req.Equal(1, mb.Connections(2))

	mb.Leave(second)
	req.Zero(mb.Connections(2))
}

func TestMailbox_ConcurrentJoinPublishLeave(t *testing.T) {
	req := require.New(t)

	mb := NewMailbox()
	defer mb.Close()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			conn := NewConnection(2, &fakeSocket{}, 32)
			mb.Join(conn)
			mb.Publish(2, []byte(fmt.Sprintf("msg-%d", i)))
			mb.Leave(conn)
			conn.Close(websocket.CloseNormalClosure, "")
		}(i)
	}
	wg.Wait()

	req.Zero(mb.Connections(2))
}
