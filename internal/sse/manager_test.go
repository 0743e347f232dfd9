package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
		cancel()
	})
	return m
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e, true
	case <-time.After(200 * time.Millisecond):
		return Event{}, false
	}
}

func TestManager_ConnectDisconnect(t *testing.T) {
	m := NewManager(nil)

	c := m.Connect("ann@example.com", false)
	assert.Equal(t, 1, m.ClientCount())
	assert.Contains(t, c.ID, "sse-")

	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	// Unknown and repeated disconnects are no-ops.
	m.Disconnect(c.ID)
	m.Disconnect("missing")

	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_BroadcastFilters(t *testing.T) {
	m := startManager(t)

	anon := m.Connect("", false)
	ann := m.Connect("ann@example.com", false)
	admin := m.Connect("root@example.com", true)

	public := &domain.Lesson{ID: "lsn-1", AuthorEmail: "bob@example.com", Privacy: domain.PrivacyPublic}
	m.Emit(NewLessonCreatedEvent(public))
	for _, c := range []*Client{anon, ann, admin} {
		e, ok := receive(t, c)
		require.True(t, ok, "client %s missed public event", c.ID)
		assert.Equal(t, EventLessonCreated, e.Type)
	}

	private := &domain.Lesson{ID: "lsn-2", AuthorEmail: "ann@example.com", Privacy: domain.PrivacyPrivate}
	m.Emit(NewLessonUpdatedEvent(private))
	_, ok := receive(t, ann)
	assert.True(t, ok, "author should see private lesson events")
	_, ok = receive(t, admin)
	assert.True(t, ok, "admins see everything")
	_, ok = receive(t, anon)
	assert.False(t, ok, "anonymous client must not see private lesson events")

	m.Emit(NewReportCreatedEvent(&domain.Report{LessonID: "lsn-1", Reason: "Spam"}))
	_, ok = receive(t, admin)
	assert.True(t, ok)
	_, ok = receive(t, ann)
	assert.False(t, ok, "reports are admin only")
}

func TestManager_EmitIgnoresForeignTypes(t *testing.T) {
	m := startManager(t)
	c := m.Connect("", false)

	m.Emit("not an event")
	_, ok := receive(t, c)
	assert.False(t, ok)
}

func TestManager_ShutdownClosesClientsAndDropsLateEvents(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	c := m.Connect("ann@example.com", false)
	require.NoError(t, m.Shutdown(context.Background()))

	_, open := <-c.Done
	assert.False(t, open)
	assert.Equal(t, 0, m.ClientCount())

	// Must not panic on a closed queue.
	m.Emit(NewHeartbeatEvent())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestShouldDeliver(t *testing.T) {
	premium := NewPremiumActivatedEvent("ann@example.com")

	assert.True(t, shouldDeliver(premium, &Client{Email: "ann@example.com"}))
	assert.False(t, shouldDeliver(premium, &Client{Email: "bob@example.com"}))
	assert.True(t, shouldDeliver(premium, &Client{Email: "root@example.com", IsAdmin: true}))
	assert.True(t, shouldDeliver(NewHeartbeatEvent(), &Client{}))
	assert.False(t, shouldDeliver(NewReportResolvedEvent("lsn-1", domain.ReportIgnored, 2), &Client{}))
}
