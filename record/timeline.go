package record

import (
	"errors"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// Timeline event kinds that affect a record. Everything else is ignored.
const (
	EventCommitted          = "committed"
	EventMerged             = "merged"
	EventClosed             = "closed"
	EventCommented          = "commented"
	EventHeadRefForcePushed = "head_ref_force_pushed"
)

// Outcome is how an item ended.
type Outcome int

const (
	// Red is closed without completion, or never reached a terminal event.
	Red Outcome = iota
	// Green is merged, or closed as completed.
	Green
)

func (o Outcome) String() string {
	if o == Green {
		return "Green"
	}
	return "Red"
}

const stateReasonCompleted = "completed"

// Participants maps every distinct actor id seen in an item to its role.
type Participants map[uint64]Role

// Add records id with role unless id was already seen. The first sighting
// of an actor decides its role for the whole item.
func (p Participants) Add(id uint64, role Role) {
	if _, ok := p[id]; !ok {
		p[id] = role
	}
}

// ParticipantCounts is the per-role breakdown of a Participants set.
type ParticipantCounts struct {
	Total       int
	Bot         int
	Member      int
	Contributor int
	User        int
}

func (p Participants) Counts() ParticipantCounts {
	c := ParticipantCounts{Total: len(p)}
	for _, role := range p {
		switch role {
		case RoleBot:
			c.Bot++
		case RoleMember:
			c.Member++
		case RoleContributor:
			c.Contributor++
		default:
			c.User++
		}
	}
	return c
}

// TimelineStats is everything ReduceTimeline extracts from a timeline.
// FirstEventSec and FirstCommentSec are -1 when there was no such event;
// -1 is also a valid elapsed time, so HasFirstEvent and HasFirstComment say
// which one it is.
type TimelineStats struct {
	Participants    Participants
	FirstEventSec   int64
	HasFirstEvent   bool
	FirstCommentSec int64
	HasFirstComment bool
	CommitCount     uint64
	CloserID        uint64
	HasCloser       bool
	Outcome         Outcome
}

// ReduceTimeline walks the events once, in order. The author is seeded into
// the participant set before any event is looked at.
//
// Closer resolution is last-write-wins over merged, closed and
// head_ref_force_pushed, since an item may be closed, reopened and closed
// again by someone else.
func ReduceTimeline(created time.Time, authorID uint64, authorRole Role, events []gjson.Result, stateReason string) (TimelineStats, error) {
	st := TimelineStats{
		Participants:    Participants{authorID: authorRole},
		FirstEventSec:   -1,
		FirstCommentSec: -1,
		Outcome:         Red,
	}

	for i, ev := range events {
		field := "time_line." + strconv.Itoa(i)

		if !st.HasFirstEvent {
			at, ok, err := eventTime(ev)
			if err != nil {
				return TimelineStats{}, fail(InvalidEventTime, field+".created_at", err)
			}
			if ok {
				st.FirstEventSec, st.HasFirstEvent = ElapsedSeconds(created, at), true
			}
		}

		kind := ev.Get("event").String()

		actor, hasActor := eventActor(ev)
		if !hasActor {
			if kind == EventCommitted {
				st.CommitCount++
			}
			continue
		}

		id, err := actorID(actor)
		if err != nil {
			return TimelineStats{}, fail(MissingActorID, field, err)
		}
		// The association is read from the event itself, not from the item.
		// Most events carry none, so most timeline actors end up as User.
		st.Participants.Add(id, ClassifyRole(actor.Get("type").String(), ev.Get("author_association").String()))

		switch kind {
		case EventCommitted:
			st.CommitCount++
		case EventMerged:
			st.Outcome = Green
			st.CloserID, st.HasCloser = id, true
		case EventClosed, EventHeadRefForcePushed:
			st.CloserID, st.HasCloser = id, true
		case EventCommented:
			if !st.HasFirstComment {
				at, ok, err := eventTime(ev)
				if err != nil {
					return TimelineStats{}, fail(InvalidEventTime, field+".created_at", err)
				}
				if !ok {
					return TimelineStats{}, fail(InvalidEventTime, field+".created_at", errMissing)
				}
				st.FirstCommentSec, st.HasFirstComment = ElapsedSeconds(created, at), true
			}
		}
	}

	if st.Outcome == Red && stateReason == stateReasonCompleted {
		st.Outcome = Green
	}
	return st, nil
}

var (
	errMissing   = errors.New("field is missing")
	errNotString = errors.New("field is not a string")
	errNotID     = errors.New("id is not a non-negative integer")
)

// eventActor prefers "actor" over "user". A null value counts as absent.
func eventActor(ev gjson.Result) (gjson.Result, bool) {
	for _, key := range [...]string{"actor", "user"} {
		if v := ev.Get(key); v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// eventTime reports ok=false when the event has no created_at at all.
func eventTime(ev gjson.Result) (time.Time, bool, error) {
	v := ev.Get("created_at")
	if !v.Exists() || v.Type == gjson.Null {
		return time.Time{}, false, nil
	}
	if v.Type != gjson.String {
		return time.Time{}, false, errNotString
	}
	t, err := ParseTimestamp(v.Str)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// actorID reads obj.id as an unsigned integer. Floats, negatives, strings
// and missing ids are all rejected.
func actorID(obj gjson.Result) (uint64, error) {
	v := obj.Get("id")
	if !v.Exists() {
		return 0, errMissing
	}
	if v.Type != gjson.Number {
		return 0, errNotID
	}
	id, err := strconv.ParseUint(v.Raw, 10, 64)
	if err != nil {
		return 0, errNotID
	}
	return id, nil
}
