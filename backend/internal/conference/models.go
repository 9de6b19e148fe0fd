package conference

// StateConfirmed is the only submission state this pipeline ingests.
// Anything else never made it onto the schedule and has no slot.
const StateConfirmed = "confirmed"

// BiographyNotAvailable is the sentinel stored for speakers without a biography.
const BiographyNotAvailable = "Not available"

// Submission types as the API labels them in English.
const (
	TypeTalk     = "Talk"
	TypeTutorial = "Tutorial"
)

// Speaker is a normalized conference speaker. The ID is generated fresh
// at normalization time and is only stable within a single ingestion run.
type Speaker struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Biography string `json:"biography"`
}

// Submission is one normalized (submission x speaker) pair. A raw
// submission with N speakers fans out into N Submission values with
// distinct IDs, identical descriptive fields and one Speaker each.
type Submission struct {
	ID             string  `json:"id"`
	Speaker        Speaker `json:"speaker"`
	Title          string  `json:"title"`
	SubmissionType string  `json:"submission_type"`
	Abstract       string  `json:"abstract"`
	State          string  `json:"state"`
	Description    string  `json:"description"`
	Duration       int     `json:"duration"`
	Location       string  `json:"location"`
	Date           string  `json:"date"`       // 2006-01-02
	StartTime      string  `json:"start_time"` // 15:04:05
	EndTime        string  `json:"end_time"`
}
