package pydata

// LocalizedString is how the CfP API renders translatable labels,
// e.g. {"en": "Talk"}.
type LocalizedString struct {
	En string `json:"en"`
}

// RawSpeaker is a speaker sub-record as returned by the CfP API.
// Biography is a pointer because the API returns null for speakers
// without one.
type RawSpeaker struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Biography *string `json:"biography"`
}

// RawSlot is the scheduling slot attached to a confirmed submission:
// the room and the ISO-8601 start/end timestamps.
type RawSlot struct {
	Room  LocalizedString `json:"room"`
	Start string          `json:"start"`
	End   string          `json:"end"`
}

// RawSubmission mirrors one submission object from the CfP API.
type RawSubmission struct {
	Code           string          `json:"code"`
	Title          string          `json:"title"`
	SubmissionType LocalizedString `json:"submission_type"`
	Abstract       string          `json:"abstract"`
	State          string          `json:"state"`
	Description    string          `json:"description"`
	Duration       int             `json:"duration"`
	Speakers       []RawSpeaker    `json:"speakers"`
	Slot           *RawSlot        `json:"slot"`
}

// SubmissionsPage is the envelope around a submissions listing.
type SubmissionsPage struct {
	Count   int             `json:"count"`
	Results []RawSubmission `json:"results"`
}
