package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func events(t *testing.T, evs ...obj) []gjson.Result {
	t.Helper()
	return gjson.ParseBytes(mustJSON(t, evs)).Array()
}

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		accountType string
		association string
		want        Role
	}{
		{"Bot", "MEMBER", RoleBot},
		{"Bot", "", RoleBot},
		{"User", "CONTRIBUTOR", RoleContributor},
		{"User", "Contributor", RoleUser},
		{"User", "MEMBER", RoleMember},
		{"User", "Member", RoleMember},
		{"User", "member", RoleMember},
		{"User", "OWNER", RoleUser},
		{"User", "NONE", RoleUser},
		{"User", "", RoleUser},
		{"", "", RoleUser},
		{"bot", "", RoleUser},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRole(tt.accountType, tt.association), "%q/%q", tt.accountType, tt.association)
	}
}

func TestReduceTimeline_Counts(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	evs := events(t,
		obj{"event": "labeled", "actor": actor(1, "User"), "created_at": "2024-01-01T00:05:00Z"},
		obj{"event": "committed", "created_at": "2024-01-01T00:06:00Z"},
		obj{"event": "committed", "actor": actor(2, "User")},
		obj{"event": "commented", "user": actor(3, "User"), "created_at": "2024-01-01T01:00:00Z"},
		obj{"event": "commented", "user": actor(3, "User"), "created_at": "2024-01-01T02:00:00Z"},
		obj{"event": "merged", "actor": actor(4, "Bot"), "created_at": "2024-01-01T03:00:00Z"},
	)

	st, err := ReduceTimeline(created, 99, RoleMember, evs, "")
	require.NoError(t, err)

	assert.Equal(t, int64(300), st.FirstEventSec)
	assert.Equal(t, int64(3600), st.FirstCommentSec)
	assert.Equal(t, uint64(2), st.CommitCount)
	assert.Equal(t, Green, st.Outcome)
	assert.True(t, st.HasCloser)
	assert.Equal(t, uint64(4), st.CloserID)
	assert.Equal(t, ParticipantCounts{Total: 5, Bot: 1, Member: 1, User: 3}, st.Participants.Counts())
}

func TestReduceTimeline_ActorlessEventsIgnored(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	evs := events(t,
		obj{"event": "commented", "created_at": "2024-01-01T00:01:00Z"},
		obj{"event": "merged", "created_at": "2024-01-01T00:02:00Z"},
		obj{"event": "closed", "actor": nil, "created_at": "2024-01-01T00:03:00Z"},
	)

	st, err := ReduceTimeline(created, 1, RoleUser, evs, "")
	require.NoError(t, err)

	assert.Equal(t, int64(60), st.FirstEventSec)
	assert.Equal(t, int64(-1), st.FirstCommentSec)
	assert.Equal(t, Red, st.Outcome)
	assert.False(t, st.HasCloser)
	assert.Len(t, st.Participants, 1)
}

func TestReduceTimeline_FirstEventWithoutTimestamp(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	evs := events(t,
		obj{"event": "committed"},
		obj{"event": "closed", "actor": actor(1, "User"), "created_at": "2024-01-01T00:10:00Z"},
	)

	st, err := ReduceTimeline(created, 1, RoleUser, evs, "")
	require.NoError(t, err)
	assert.Equal(t, int64(600), st.FirstEventSec)
}

func TestReduceTimeline_FirstTimesOneSecondEarly(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	evs := events(t,
		obj{"event": "commented", "actor": actor(5, "User"), "created_at": "2023-12-31T23:59:59Z"},
		obj{"event": "commented", "actor": actor(6, "User"), "created_at": "2024-01-01T01:00:00Z"},
		obj{"event": "closed", "actor": actor(5, "User"), "created_at": "2024-01-01T02:00:00Z"},
	)

	st, err := ReduceTimeline(created, 1, RoleUser, evs, "")
	require.NoError(t, err)
	assert.True(t, st.HasFirstEvent)
	assert.Equal(t, int64(-1), st.FirstEventSec)
	assert.True(t, st.HasFirstComment)
	assert.Equal(t, int64(-1), st.FirstCommentSec)
}

func TestReduceTimeline_EmptyHasNoFirstTimes(t *testing.T) {
	st, err := ReduceTimeline(mustTime(t, "2024-01-01T00:00:00Z"), 1, RoleUser, nil, "")
	require.NoError(t, err)
	assert.False(t, st.HasFirstEvent)
	assert.False(t, st.HasFirstComment)
	assert.Equal(t, int64(-1), st.FirstEventSec)
	assert.Equal(t, int64(-1), st.FirstCommentSec)
}

func TestReduceTimeline_ActorPreferredOverUser(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	evs := events(t,
		obj{"event": "closed", "actor": actor(5, "User"), "user": actor(6, "User"), "created_at": "2024-01-01T00:10:00Z"},
	)

	st, err := ReduceTimeline(created, 1, RoleUser, evs, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), st.CloserID)
	assert.NotContains(t, st.Participants, uint64(6))
}

func TestReduceTimeline_CommentWithoutTimestamp(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	evs := events(t,
		obj{"event": "labeled", "actor": actor(5, "User"), "created_at": "2024-01-01T00:10:00Z"},
		obj{"event": "commented", "actor": actor(5, "User")},
	)

	_, err := ReduceTimeline(created, 1, RoleUser, evs, "")
	assert.Equal(t, InvalidEventTime, KindOf(err))
}

func TestReduceTimeline_StateReasonOnlyWhenRed(t *testing.T) {
	created := mustTime(t, "2024-01-01T00:00:00Z")
	closed := events(t, obj{"event": "closed", "actor": actor(5, "User"), "created_at": "2024-01-01T00:10:00Z"})

	st, err := ReduceTimeline(created, 1, RoleUser, closed, "completed")
	require.NoError(t, err)
	assert.Equal(t, Green, st.Outcome)

	st, err = ReduceTimeline(created, 1, RoleUser, closed, "reopened")
	require.NoError(t, err)
	assert.Equal(t, Red, st.Outcome)
}

func TestParticipants_AddKeepsFirstRole(t *testing.T) {
	p := Participants{}
	p.Add(1, RoleMember)
	p.Add(1, RoleBot)
	p.Add(2, RoleContributor)

	assert.Equal(t, RoleMember, p[1])
	c := p.Counts()
	assert.Equal(t, c.Total, c.Bot+c.Member+c.Contributor+c.User)
	assert.Equal(t, ParticipantCounts{Total: 2, Member: 1, Contributor: 1}, c)
}
