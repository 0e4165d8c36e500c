package board

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/kanbn/pkg/document"
)

// Task metadata keys.
const (
	MetaCreated   = "created"
	MetaUpdated   = "updated"
	MetaProgress  = "progress"
	MetaTags      = "tags"
	MetaAssigned  = "assigned"
	MetaDue       = "due"
	MetaStarted   = "started"
	MetaCompleted = "completed"
)

// Task file section names.
const (
	SectionSubTasks  = "Sub-tasks"
	SectionRelations = "Relations"
	SectionComments  = "Comments"
)

// TaskSections is the section vocabulary of task files.
var TaskSections = []string{SectionSubTasks, SectionRelations, SectionComments}

var subTaskPattern = regexp.MustCompile(`^- \[([xX ])\]\s*`)

// SubTask is a checklist item.
type SubTask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ParseSubTask reads "[x] text", "- [ ] text" or plain text.
func ParseSubTask(s string) SubTask {
	line := strings.TrimSpace(s)
	if !strings.HasPrefix(line, "- ") {
		line = "- " + line
	}
	if m := subTaskPattern.FindStringSubmatch(line); m != nil {
		return SubTask{Text: strings.TrimSpace(line[len(m[0]):]), Completed: m[1] != " "}
	}
	return SubTask{Text: strings.TrimSpace(s)}
}

// Entry is a relation or comment kept as its raw lines.
type Entry struct {
	Lines []string
}

// Text returns the raw entry.
func (e Entry) Text() string {
	return strings.Join(e.Lines, "\n")
}

// Author returns the quoted author of a comment entry.
func (e Entry) Author() string {
	if len(e.Lines) == 0 {
		return ""
	}
	first := strings.TrimSpace(e.Lines[0])
	if !strings.HasPrefix(first, "- author:") {
		return ""
	}
	author := strings.TrimSpace(strings.TrimPrefix(first, "- author:"))
	if unquoted, err := strconv.Unquote(author); err == nil {
		return unquoted
	}
	return strings.Trim(author, `"'`)
}

// Date returns the date line of a comment entry.
func (e Entry) Date() string {
	for _, line := range e.Lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "date:") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "date:"))
		}
	}
	return ""
}

// Body returns the free text of a comment entry.
func (e Entry) Body() string {
	var text []string
	for i, line := range e.Lines {
		trimmed := strings.TrimSpace(line)
		if i == 0 && strings.HasPrefix(trimmed, "- author:") {
			continue
		}
		if strings.HasPrefix(trimmed, "date:") {
			continue
		}
		text = append(text, trimmed)
	}
	return strings.TrimSpace(strings.Join(text, "\n"))
}

// MarshalJSON renders the entry as its raw text.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Text())
}

// Task is one task file.
type Task struct {
	ID          string
	Name        string
	Description string
	Metadata    *document.Header
	SubTasks    []SubTask
	Relations   []Entry
	Comments    []Entry
}

// TaskDraft holds the fields supplied when creating a task.
type TaskDraft struct {
	Name        string
	Description string
	Tags        []string
	Assigned    string
	Due         string
	Started     string
	Completed   string
	SubTasks    []string
}

// NewTask builds a task stamped at now. Tags are validated against vocab and
// the dropped tags are returned.
func NewTask(id string, d TaskDraft, vocab TagVocabulary, now time.Time) (*Task, []string) {
	t := &Task{
		ID:          id,
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Metadata:    document.NewHeader(),
	}
	t.Metadata.SetTime(MetaCreated, now)
	t.Metadata.SetTime(MetaUpdated, now)
	t.Metadata.SetFloat(MetaProgress, 0)

	tags, dropped := NormalizeTags(d.Tags, vocab)
	t.Metadata.SetStrings(MetaTags, tags)

	if d.Assigned != "" {
		t.Metadata.SetString(MetaAssigned, d.Assigned)
	}
	if d.Due != "" {
		t.Metadata.SetDate(MetaDue, d.Due)
	}
	if d.Started != "" {
		t.Metadata.SetDate(MetaStarted, d.Started)
	}
	if d.Completed != "" {
		t.Metadata.SetDate(MetaCompleted, d.Completed)
		t.Metadata.SetFloat(MetaProgress, 1)
	}
	for _, text := range d.SubTasks {
		if text = strings.TrimSpace(text); text != "" {
			t.SubTasks = append(t.SubTasks, SubTask{Text: text})
		}
	}
	return t, dropped
}

// TaskFromDocument reads a task from its decoded file.
func TaskFromDocument(id string, doc *document.Document) *Task {
	t := &Task{
		ID:          id,
		Name:        doc.Title,
		Description: doc.BodyText(),
		Metadata:    doc.Header,
	}
	if t.Metadata == nil {
		t.Metadata = document.NewHeader()
	}
	for _, s := range doc.Sections {
		switch {
		case strings.EqualFold(s.Name, SectionSubTasks):
			for _, line := range s.Lines {
				trimmed := strings.TrimSpace(line)
				m := subTaskPattern.FindStringSubmatch(trimmed)
				if m == nil {
					continue
				}
				t.SubTasks = append(t.SubTasks, SubTask{
					Text:      strings.TrimSpace(trimmed[len(m[0]):]),
					Completed: m[1] != " ",
				})
			}
		case strings.EqualFold(s.Name, SectionRelations):
			t.Relations = append(t.Relations, splitEntries(s.Lines, "- ")...)
		case strings.EqualFold(s.Name, SectionComments):
			t.Comments = append(t.Comments, splitEntries(s.Lines, "- author:")...)
		}
	}
	return t
}

func splitEntries(lines []string, marker string) []Entry {
	var entries []Entry
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), marker) || len(entries) == 0 {
			entries = append(entries, Entry{})
		}
		last := &entries[len(entries)-1]
		last.Lines = append(last.Lines, line)
	}
	for i := range entries {
		entries[i].Lines = trimTrailingBlank(entries[i].Lines)
	}
	return entries
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ToDocument renders the task into its file shape. Empty sections are omitted.
func (t *Task) ToDocument() *document.Document {
	doc := &document.Document{
		Header: t.Metadata,
		Title:  t.Name,
		Body:   document.SplitLines(t.Description),
	}
	if doc.Header == nil {
		doc.Header = document.NewHeader()
	}
	if len(t.SubTasks) > 0 {
		s := document.Section{Name: SectionSubTasks}
		for _, st := range t.SubTasks {
			mark := " "
			if st.Completed {
				mark = "x"
			}
			s.Lines = append(s.Lines, "- ["+mark+"] "+st.Text)
		}
		doc.Sections = append(doc.Sections, s)
	}
	if len(t.Relations) > 0 {
		doc.Sections = append(doc.Sections, document.Section{Name: SectionRelations, Lines: joinEntries(t.Relations)})
	}
	if len(t.Comments) > 0 {
		doc.Sections = append(doc.Sections, document.Section{Name: SectionComments, Lines: joinEntries(t.Comments)})
	}
	return doc
}

func joinEntries(entries []Entry) []string {
	var lines []string
	for _, e := range entries {
		lines = append(lines, e.Lines...)
	}
	return lines
}

// Progress returns the task progress, 0 when unset or unreadable.
func (t *Task) Progress() float64 {
	p, _ := t.Metadata.Float(MetaProgress)
	return p
}

// SetProgress stores p clamped into [0, 1].
func (t *Task) SetProgress(p float64) {
	t.Metadata.SetFloat(MetaProgress, clampProgress(p))
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Tags returns the task tags.
func (t *Task) Tags() []string {
	return t.Metadata.Strings(MetaTags)
}

// Field returns the raw text of a metadata key.
func (t *Task) Field(key string) (string, bool) {
	return t.Metadata.String(key)
}

// Touch stamps the update time.
func (t *Task) Touch(now time.Time) {
	t.Metadata.SetTime(MetaUpdated, now)
}

// MarkStarted stamps the start time unless one is already set. It reports
// whether it stamped.
func (t *Task) MarkStarted(now time.Time) bool {
	if v, ok := t.Metadata.String(MetaStarted); ok && v != "" {
		return false
	}
	t.Metadata.SetTime(MetaStarted, now)
	return true
}

// MarkCompleted stamps the completion time and sets progress to 1.
func (t *Task) MarkCompleted(now time.Time) {
	t.Metadata.SetTime(MetaCompleted, now)
	t.Metadata.SetFloat(MetaProgress, 1)
}

// AddComment appends a comment entry.
func (t *Task) AddComment(author, text string, now time.Time) Entry {
	e := Entry{Lines: []string{
		"- author: " + strconv.Quote(author),
		"  date: " + now.UTC().Format(document.TimestampLayout),
	}}
	for _, line := range document.SplitLines(text) {
		e.Lines = append(e.Lines, "  "+line)
	}
	t.Comments = append(t.Comments, e)
	return e
}

// TaskUpdate holds the fields of a partial update. Unset fields are left
// alone; setting assigned, due, started or completed to "" clears them.
type TaskUpdate struct {
	Name        Optional[string]
	Description Optional[string]
	Tags        Optional[[]string]
	Assigned    Optional[string]
	Due         Optional[string]
	Started     Optional[string]
	Completed   Optional[string]
	Progress    Optional[float64]
	SubTasks    Optional[[]SubTask]
}

// Apply applies u and stamps the update time. It returns the dropped tags.
func (t *Task) Apply(u TaskUpdate, vocab TagVocabulary, now time.Time) []string {
	var dropped []string
	if v, ok := u.Name.Get(); ok {
		t.Name = strings.TrimSpace(v)
	}
	if v, ok := u.Description.Get(); ok {
		t.Description = strings.TrimSpace(v)
	}
	if v, ok := u.Tags.Get(); ok {
		var tags []string
		tags, dropped = NormalizeTags(v, vocab)
		t.Metadata.SetStrings(MetaTags, tags)
	}
	if v, ok := u.Assigned.Get(); ok {
		t.setOrClear(MetaAssigned, v, t.Metadata.SetString)
	}
	if v, ok := u.Due.Get(); ok {
		t.setOrClear(MetaDue, v, t.Metadata.SetDate)
	}
	if v, ok := u.Progress.Get(); ok {
		t.SetProgress(v)
	}
	if v, ok := u.Started.Get(); ok {
		t.setOrClear(MetaStarted, v, t.Metadata.SetDate)
	}
	if v, ok := u.Completed.Get(); ok {
		t.setOrClear(MetaCompleted, v, t.Metadata.SetDate)
		if strings.TrimSpace(v) != "" {
			t.Metadata.SetFloat(MetaProgress, 1)
		}
	}
	if v, ok := u.SubTasks.Get(); ok {
		t.SubTasks = nil
		for _, st := range v {
			if st.Text = strings.TrimSpace(st.Text); st.Text != "" {
				t.SubTasks = append(t.SubTasks, st)
			}
		}
	}
	t.Touch(now)
	return dropped
}

func (t *Task) setOrClear(key, value string, set func(string, string)) {
	if strings.TrimSpace(value) == "" {
		t.Metadata.Delete(key)
		return
	}
	set(key, value)
}

type commentView struct {
	Author string `json:"author"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

type taskView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Metadata    *document.Header `json:"metadata"`
	SubTasks    []SubTask        `json:"subtasks"`
	Relations   []Entry          `json:"relations"`
	Comments    []commentView    `json:"comments"`
}

// MarshalJSON renders the task for tool and CLI output.
func (t *Task) MarshalJSON() ([]byte, error) {
	v := taskView{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Metadata:    t.Metadata,
		SubTasks:    t.SubTasks,
		Relations:   t.Relations,
		Comments:    []commentView{},
	}
	if v.SubTasks == nil {
		v.SubTasks = []SubTask{}
	}
	if v.Relations == nil {
		v.Relations = []Entry{}
	}
	for _, c := range t.Comments {
		v.Comments = append(v.Comments, commentView{Author: c.Author(), Date: c.Date(), Text: c.Body()})
	}
	return json.Marshal(v)
}
