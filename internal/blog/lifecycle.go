package blog

import (
	"time"

	"inkwell/internal/models"
)

// Event is a lifecycle transition requested on a post.
type Event string

const (
	EventPublish   Event = "publish"
	EventArchive   Event = "archive"
	EventUnarchive Event = "unarchive"
	EventEdit      Event = "edit"
)

// State is the expected prior state of a post for a transition. A nil field
// matches any value.
type State struct {
	Status   *models.PostStatus
	Archived *bool
}

// Matches reports whether p is in state s.
func (s State) Matches(p *models.Post) bool {
	if s.Status != nil && p.Status != *s.Status {
		return false
	}
	if s.Archived != nil && p.Archived != *s.Archived {
		return false
	}
	return true
}

func statusPtr(s models.PostStatus) *models.PostStatus { return &s }
func boolPtr(b bool) *bool                           { return &b }

// Guard returns the state a post must be in for ev to apply.
func Guard(ev Event) State {
	switch ev {
	case EventPublish:
		return State{Status: statusPtr(models.PostStatusDraft)}
	case EventArchive:
		return State{Status: statusPtr(models.PostStatusPublished), Archived: boolPtr(false)}
	case EventUnarchive:
		return State{Status: statusPtr(models.PostStatusPublished), Archived: boolPtr(true)}
	default:
		return State{}
	}
}

// Changes returns the column updates ev makes at time now.
func Changes(ev Event, now time.Time) map[string]interface{} {
	switch ev {
	case EventPublish:
		return map[string]interface{}{
			"status":       models.PostStatusPublished,
			"archived":     false,
			"published_at": now,
		}
	case EventArchive:
		return map[string]interface{}{"archived": true}
	case EventUnarchive:
		return map[string]interface{}{"archived": false}
	default:
		return map[string]interface{}{"updated_at": now}
	}
}

// Apply performs ev on p in memory. It returns an InvalidState error and
// leaves p untouched when the guard does not hold.
func Apply(p *models.Post, ev Event, now time.Time) error {
	if !Guard(ev).Matches(p) {
		return InvalidTransition(ev)
	}
	switch ev {
	case EventPublish:
		p.Status = models.PostStatusPublished
		p.Archived = false
		if p.PublishedAt == nil {
			t := now
			p.PublishedAt = &t
		}
	case EventArchive:
		p.Archived = true
	case EventUnarchive:
		p.Archived = false
	default:
		p.UpdatedAt = now
	}
	return nil
}

// InvalidTransition is the error reported when ev does not fit the post's
// current state.
func InvalidTransition(ev Event) *models.AppError {
	switch ev {
	case EventPublish:
		return models.NewInvalidStateError("Post is not a draft")
	case EventArchive:
		return models.NewInvalidStateError("Only published posts that are not archived can be archived")
	case EventUnarchive:
		return models.NewInvalidStateError("Post is not archived")
	default:
		return models.NewInvalidStateError("Invalid post state")
	}
}

// Scope names a listing surface.
type Scope int

const (
	ScopePublic Scope = iota
	ScopeArchived
	ScopeOwnerAll
	ScopeOwnerDrafts
	ScopeDetail
	ScopeOwnerPreview
)

// Filter is the storage predicate for a scope.
type Filter struct {
	State
	OwnerID *uint
}

// FilterFor returns the predicate for scope as seen by viewerID. Owner
// scopes always constrain by viewerID.
func FilterFor(scope Scope, viewerID uint) Filter {
	published := statusPtr(models.PostStatusPublished)
	switch scope {
	case ScopePublic:
		return Filter{State: State{Status: published, Archived: boolPtr(false)}}
	case ScopeArchived:
		return Filter{State: State{Status: published, Archived: boolPtr(true)}}
	case ScopeOwnerAll, ScopeOwnerPreview:
		return Filter{OwnerID: &viewerID}
	case ScopeOwnerDrafts:
		return Filter{State: State{Status: statusPtr(models.PostStatusDraft)}, OwnerID: &viewerID}
	default:
		return Filter{State: State{Status: published}}
	}
}

// Visible reports whether p belongs to the given filter.
func (f Filter) Visible(p *models.Post) bool {
	if f.OwnerID != nil && !OwnedBy(p.UserID, *f.OwnerID) {
		return false
	}
	return f.State.Matches(p)
}

// OwnedBy is the ownership predicate shared by every mutating operation.
func OwnedBy(ownerID, callerID uint) bool {
	return callerID != 0 && ownerID == callerID
}

// RequireOwner returns a not-found error when the caller does not own the
// resource, so callers cannot tell a missing row from someone else's.
func RequireOwner(resource string, id, ownerID, callerID uint) error {
	if !OwnedBy(ownerID, callerID) {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}
