package univer

import "time"

// Credential identifies one student against one portal.
type Credential struct {
	Username string
	Password string
}

// Token is the authenticated session: the cookie set the portal issued
// at login plus the time it was issued. Tokens are immutable; a relogin
// produces a new one rather than mutating the old.
type Token struct {
	Cookies  map[string]string
	IssuedAt time.Time
}

func (t Token) Valid() bool {
	return len(t.Cookies) > 0
}

// Mark is one grading component of a subject ("АБ1", "Экзамен", ...).
// Active marks the first not-yet-graded component in sequence; it is
// computed during reconciliation, never scraped.
type Mark struct {
	Title  string `json:"title"`
	Value  int    `json:"value"`
	Text   string `json:"text,omitempty"`
	Active bool   `json:"active,omitempty"`
}

// AttendancePart is the per-teaching-period breakdown shown under a
// subject on the attendance page.
type AttendancePart struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	Marks []Mark `json:"marks"`
}

// Attestation is one subject's grading record. Subject is the natural
// key; the reconciler assumes at most one record per subject.
type Attestation struct {
	Subject    string           `json:"subject"`
	Marks      []Mark           `json:"marks"`
	Attendance []AttendancePart `json:"attendance"`
	Sum        Mark             `json:"sum"`
}

// Attendance is one subject's view from the attendance page: the
// summary scores plus the detailed per-period parts.
type Attendance struct {
	Subject string           `json:"subject"`
	Summary []Mark           `json:"summary"`
	Parts   []AttendancePart `json:"parts"`
}

type Lesson struct {
	Subject     string `json:"subject"`
	Teacher     string `json:"teacher"`
	TeacherLink string `json:"teacher_link,omitempty"`
	Audience    string `json:"audience"`
	Period      string `json:"period"`
	Day         int    `json:"day"`
	Time        string `json:"time"`
	Factor      *bool  `json:"factor,omitempty"`
}

type Schedule struct {
	Lessons []Lesson `json:"lessons"`
	Week    int      `json:"week"`
	Factor  bool     `json:"factor"`
}

type Exam struct {
	Subject  string    `json:"subject"`
	Teacher  string    `json:"teacher"`
	Audience string    `json:"audience"`
	Date     time.Time `json:"date"`
}

type TranscriptRow struct {
	Subject string `json:"subject"`
	Credits int    `json:"credits"`
	Grade   string `json:"grade"`
	Score   int    `json:"score"`
}

type Transcript struct {
	Rows []TranscriptRow `json:"rows"`
	GPA  string          `json:"gpa"`
}

// CourseMaterial is one downloadable item from the course materials
// (UMKD) page.
type CourseMaterial struct {
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Title   string `json:"title"`
	Href    string `json:"href"`
}

// Teacher is the result of resolving a scraped short name against the
// university's staff directory. ProfileUrl is empty when resolution
// failed or found nothing.
type Teacher struct {
	DisplayName string `json:"display_name"`
	ProfileUrl  string `json:"profile_url,omitempty"`
}

// Translation is one subject's name in the three portal languages.
type Translation struct {
	Ru string `json:"ru"`
	En string `json:"en"`
	Kk string `json:"kk"`
}

func (t Translation) In(lang string) string {
	switch lang {
	case "en":
		return t.En
	case "kk", "kz":
		return t.Kk
	default:
		return t.Ru
	}
}
