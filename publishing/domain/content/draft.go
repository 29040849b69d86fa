package content

import "time"

// Channel is a publishing destination. The set is closed: dispatch happens
// through one Publisher implementation per value, selected at orchestration
// time, never by branching on free-form strings.
type Channel string

const (
	ChannelWebsite   Channel = "website"
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
)

// SupportedChannels lists every channel the engine can publish to.
var SupportedChannels = []Channel{ChannelWebsite, ChannelFacebook, ChannelInstagram}

// IsSupportedChannel reports whether v names a known channel.
func IsSupportedChannel(v Channel) bool {
	for _, c := range SupportedChannels {
		if c == v {
			return true
		}
	}
	return false
}

// SupportedLanguages is the static language list exposed to callers.
// Generation requests for anything else are rejected at the boundary.
var SupportedLanguages = []string{"en", "hi", "mr", "gu", "ta", "te", "bn", "kn"}

// IsSupportedLanguage reports whether code is in SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// DraftStatus is the editorial lifecycle state of a draft.
type DraftStatus string

const (
	DraftStatusDraft      DraftStatus = "draft"      // placeholder, pre-generation
	DraftStatusGenerated  DraftStatus = "generated"  // AI output present, unedited
	DraftStatusEdited     DraftStatus = "edited"     // human modified title/body/hashtags
	DraftStatusReady      DraftStatus = "ready"      // explicitly marked publishable
	DraftStatusPublishing DraftStatus = "publishing" // a publish attempt is in flight
	DraftStatusPublished  DraftStatus = "published"  // terminal success
	DraftStatusFailed     DraftStatus = "failed"     // terminal failure, retriable
)

// transitions is the closed transition table. Anything not listed here is a
// state conflict, rejected rather than coerced.
var transitions = map[DraftStatus][]DraftStatus{
	DraftStatusDraft:      {DraftStatusGenerated},
	DraftStatusGenerated:  {DraftStatusEdited, DraftStatusReady},
	DraftStatusEdited:     {DraftStatusEdited, DraftStatusReady},
	DraftStatusReady:      {DraftStatusPublishing},
	DraftStatusPublishing: {DraftStatusPublished, DraftStatusFailed},
	DraftStatusFailed:     {DraftStatusEdited, DraftStatusReady}, // edit-and-resubmit or retry delivery
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to DraftStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Regenerable reports whether a draft in the given state may be replaced by
// a fresh generation. Published drafts are immutable.
func Regenerable(s DraftStatus) bool {
	return s == DraftStatusDraft || s == DraftStatusGenerated || s == DraftStatusEdited || s == DraftStatusFailed
}

// Draft is one language/channel-specific content unit derived from a
// property. (PropertyID, Language, Channel) is the natural key; at most one
// non-archived draft exists per key, regeneration replaces it in place.
type Draft struct {
	ID              string      `json:"id"`
	PropertyID      string      `json:"property_id"`
	Language        string      `json:"language"`
	Channel         Channel     `json:"channel"`
	Title           string      `json:"title"`
	Body            string      `json:"body"`
	Hashtags        []string    `json:"hashtags"`
	MediaIDs        []string    `json:"media_ids,omitempty"`
	ContactIncluded bool        `json:"contact_included"`
	Status          DraftStatus `json:"status"`
	EditedBy        string      `json:"edited_by,omitempty"` // last human editor
	LastError       string      `json:"last_error,omitempty"`
	Archived        bool        `json:"archived"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Key returns the natural key string, used for logging and shard routing.
func (d Draft) Key() string {
	return d.PropertyID + "|" + d.Language + "|" + string(d.Channel)
}
