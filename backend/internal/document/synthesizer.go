package document

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"pydata-graph/backend/internal/conference"
)

// Document is a content-addressed text block describing one submission.
// The ID is the hex md5 digest of the exact rendered text, so identical
// renderings always merge into the same graph node.
type Document struct {
	ID        string
	Text      string
	Embedding []float32 // optional enrichment, empty unless an embedder ran
}

// docTemplate is rendered byte-for-byte, whitespace included. The content
// hash is computed over the exact output, so ANY change here invalidates
// every previously stored document id.
const docTemplate = `
                    This is a submission for a 2024 PyData Conference
                    The title for this submission is: %s and the abstract is: 
                    %s. And the description is: %s. The location for the 
                    %s is at %s on %s from 
                    %s to %s.
                    The speaker for the %s is %s and here is their 
                    biography %s
                `

// Synthesize renders the description text for one submission and derives
// its content address.
func Synthesize(sub conference.Submission) Document {
	text := fmt.Sprintf(docTemplate,
		sub.Title,
		sub.Abstract,
		sub.Description,
		sub.SubmissionType,
		sub.Location,
		sub.Date,
		sub.StartTime,
		sub.EndTime,
		sub.SubmissionType,
		sub.Speaker.Name,
		sub.Speaker.Biography,
	)

	return Document{
		ID:   Hash(text),
		Text: text,
	}
}

// Hash returns the hex md5 digest of the UTF-8 encoding of text.
func Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
