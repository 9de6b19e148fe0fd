package conference

import (
	"time"

	"github.com/google/uuid"

	"pydata-graph/backend/internal/pydata"
	"pydata-graph/backend/pkg/errors"
)

// timestamp layouts accepted for slot start/end. The CfP API emits local
// timestamps without an offset; offsets are tolerated anyway.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
}

// Normalize fans a raw submission listing out into one Submission per
// (raw submission x speaker) pair. Descriptive fields are duplicated
// verbatim across the pairs of one raw submission; the Submission and
// Speaker IDs are freshly generated per pair.
//
// Any missing or malformed required field fails the whole normalization
// with an error naming the offending record; no partial result is returned.
func Normalize(raws []pydata.RawSubmission) ([]Submission, error) {
	result := make([]Submission, 0, len(raws))

	for i, raw := range raws {
		if err := validate(i, raw); err != nil {
			return nil, err
		}

		date, startTime, err := SplitTimestamp(raw.Slot.Start)
		if err != nil {
			return nil, errors.NewMalformedRecord(i, "slot.start", "is not a valid ISO-8601 timestamp")
		}
		_, endTime, err := SplitTimestamp(raw.Slot.End)
		if err != nil {
			return nil, errors.NewMalformedRecord(i, "slot.end", "is not a valid ISO-8601 timestamp")
		}

		for _, rawSpeaker := range raw.Speakers {
			biography := BiographyNotAvailable
			if rawSpeaker.Biography != nil && *rawSpeaker.Biography != "" {
				biography = *rawSpeaker.Biography
			}

			result = append(result, Submission{
				ID: uuid.NewString(),
				Speaker: Speaker{
					ID:        uuid.NewString(),
					Name:      rawSpeaker.Name,
					Biography: biography,
				},
				Title:          raw.Title,
				SubmissionType: raw.SubmissionType.En,
				Abstract:       raw.Abstract,
				State:          raw.State,
				Description:    raw.Description,
				Duration:       raw.Duration,
				Location:       raw.Slot.Room.En,
				Date:           date,
				StartTime:      startTime,
				EndTime:        endTime,
			})
		}
	}

	return result, nil
}

// SplitTimestamp decomposes an ISO-8601 timestamp into its calendar date
// and time-of-day parts, e.g. "2024-06-12T09:30:00" -> ("2024-06-12", "09:30:00").
func SplitTimestamp(ts string) (date string, timeOfDay string, err error) {
	var parsed time.Time
	for _, layout := range timestampLayouts {
		parsed, err = time.Parse(layout, ts)
		if err == nil {
			return parsed.Format("2006-01-02"), parsed.Format("15:04:05"), nil
		}
	}
	return "", "", err
}

func validate(index int, raw pydata.RawSubmission) error {
	if raw.Title == "" {
		return errors.NewMalformedRecord(index, "title", "is required")
	}
	if raw.SubmissionType.En == "" {
		return errors.NewMalformedRecord(index, "submission_type", "is required")
	}
	if raw.SubmissionType.En != TypeTalk && raw.SubmissionType.En != TypeTutorial {
		return errors.NewMalformedRecord(index, "submission_type", "must be \"Talk\" or \"Tutorial\"")
	}
	if raw.Abstract == "" {
		return errors.NewMalformedRecord(index, "abstract", "is required")
	}
	if raw.State != StateConfirmed {
		return errors.NewMalformedRecord(index, "state", "must be \"confirmed\"")
	}
	if raw.Description == "" {
		return errors.NewMalformedRecord(index, "description", "is required")
	}
	if raw.Duration <= 0 {
		return errors.NewMalformedRecord(index, "duration", "must be positive")
	}
	if raw.Slot == nil {
		return errors.NewMalformedRecord(index, "slot", "is required")
	}
	if raw.Slot.Room.En == "" {
		return errors.NewMalformedRecord(index, "slot.room", "is required")
	}
	if raw.Slot.Start == "" {
		return errors.NewMalformedRecord(index, "slot.start", "is required")
	}
	if raw.Slot.End == "" {
		return errors.NewMalformedRecord(index, "slot.end", "is required")
	}
	if len(raw.Speakers) == 0 {
		return errors.NewMalformedRecord(index, "speakers", "must not be empty")
	}
	for _, speaker := range raw.Speakers {
		if speaker.Name == "" {
			return errors.NewMalformedRecord(index, "speakers.name", "is required")
		}
	}
	return nil
}
