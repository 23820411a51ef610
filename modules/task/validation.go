package task

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/pkg/apperror"
)

// Input carries the client-supplied task fields. A nil field was not sent.
// DueDate keeps its raw JSON so an explicit null can clear the date.
type Input struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *string         `json:"status,omitempty"`
	Priority    *string         `json:"priority,omitempty"`
	Type        *string         `json:"type,omitempty"`
	DueDate     json.RawMessage `json:"dueDate,omitempty"`
}

// changes is a validated Input.
type changes struct {
	title       *string
	description *string
	status      *domain.Status
	priority    *domain.Priority
	typ         *domain.Type
	dueDateSet  bool
	dueDate     *time.Time
}

// columns returns the store columns to write and the JSON names of the
// fields that changed.
func (c changes) columns() (map[string]any, []string) {
	cols := make(map[string]any)
	var fields []string
	if c.title != nil {
		cols["title"] = *c.title
		fields = append(fields, "title")
	}
	if c.description != nil {
		cols["description"] = *c.description
		fields = append(fields, "description")
	}
	if c.status != nil {
		cols["status"] = *c.status
		fields = append(fields, "status")
	}
	if c.priority != nil {
		cols["priority"] = *c.priority
		fields = append(fields, "priority")
	}
	if c.typ != nil {
		cols["type"] = *c.typ
		fields = append(fields, "type")
	}
	if c.dueDateSet {
		cols["due_date"] = c.dueDate
		fields = append(fields, "dueDate")
	}
	return cols, fields
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// validate checks every rule and reports all violations at once. On
// create a title is mandatory; on update every field is optional.
func validate(in Input, creating bool) (changes, error) {
	var out changes
	var verr apperror.ValidationError

	switch {
	case in.Title == nil && creating:
		verr.Add("title", "Task title is required")
	case in.Title != nil:
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "" && creating:
			verr.Add("title", "Task title is required")
		case title == "":
			verr.Add("title", "Task title cannot be empty")
		case utf8.RuneCountInString(title) > domain.MaxTitleLength:
			verr.Add("title", "Title cannot be more than 100 characters")
		default:
			out.title = &title
		}
	}

	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(desc) > domain.MaxDescriptionLength {
			verr.Add("description", "Description cannot be more than 500 characters")
		} else {
			out.description = &desc
		}
	}

	if in.Status != nil {
		if s := domain.Status(*in.Status); s.Valid() {
			out.status = &s
		} else {
			verr.Add("status", "Invalid status")
		}
	}

	if in.Priority != nil {
		if p := domain.Priority(*in.Priority); p.Valid() {
			out.priority = &p
		} else {
			verr.Add("priority", "Invalid priority")
		}
	}

	if in.Type != nil {
		if t := domain.Type(*in.Type); t.Valid() {
			out.typ = &t
		} else {
			verr.Add("type", "Invalid type")
		}
	}

	if len(in.DueDate) > 0 {
		due, err := parseDueDate(in.DueDate)
		if err != nil {
			verr.Add("dueDate", "Invalid due date format")
		} else {
			out.dueDateSet = true
			out.dueDate = due
		}
	}

	return out, verr.Err()
}

type errBadDate struct{}

func (errBadDate) Error() string { return "invalid due date" }

// parseDueDate accepts null, an empty string, a calendar date or an
// RFC 3339 timestamp. null and "" clear the date.
func parseDueDate(raw json.RawMessage) (*time.Time, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errBadDate{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errBadDate{}
}
