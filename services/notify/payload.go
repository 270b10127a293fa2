package notify

import (
	"fmt"
	"univer-backend/services/notify/push"
	"univer-backend/services/univer"
)

// Notification texts per interface language. The portal serves three
// languages and subscribers pick one at subscription time.
type phrases struct {
	gradeTitle   string
	gradeBody    string // subject, component, value
	lessonTitle  string
	lessonBody   string // subject, audience
	digestTitle  string
	digestNone   string
	digestLesson string // time, subject, audience
	examTitle    string
	examBody     string // subject, audience
}

var phrasesByLang = map[string]phrases{
	"ru": {
		gradeTitle:   "Новая оценка",
		gradeBody:    "%s — %s: %d",
		lessonTitle:  "Скоро пара",
		lessonBody:   "%s через 10 минут, ауд. %s",
		digestTitle:  "Расписание на завтра",
		digestNone:   "Завтра пар нет",
		digestLesson: "%s %s (ауд. %s)",
		examTitle:    "Скоро экзамен",
		examBody:     "%s завтра, ауд. %s",
	},
	"kk": {
		gradeTitle:   "Жаңа баға",
		gradeBody:    "%s — %s: %d",
		lessonTitle:  "Жақында сабақ",
		lessonBody:   "%s 10 минуттан кейін, %s ауд.",
		digestTitle:  "Ертеңгі сабақ кестесі",
		digestNone:   "Ертең сабақ жоқ",
		digestLesson: "%s %s (%s ауд.)",
		examTitle:    "Жақында емтихан",
		examBody:     "%s ертең, %s ауд.",
	},
	"en": {
		gradeTitle:   "New grade",
		gradeBody:    "%s — %s: %d",
		lessonTitle:  "Lesson soon",
		lessonBody:   "%s in 10 minutes, room %s",
		digestTitle:  "Tomorrow's schedule",
		digestNone:   "No lessons tomorrow",
		digestLesson: "%s %s (room %s)",
		examTitle:    "Exam soon",
		examBody:     "%s tomorrow, room %s",
	},
}

func langPhrases(lang string) phrases {
	if p, ok := phrasesByLang[lang]; ok {
		return p
	}
	return phrasesByLang["ru"]
}

// GradeNotification announces one changed component of one subject.
func GradeNotification(lang, subject string, mark univer.Mark) push.Notification {
	p := langPhrases(lang)
	return push.Notification{
		Title: p.gradeTitle,
		Body:  fmt.Sprintf(p.gradeBody, subject, mark.Title, mark.Value),
		Tag:   "grade:" + subject,
	}
}

// LessonNotification reminds about a lesson starting shortly.
func LessonNotification(lang string, lesson univer.Lesson) push.Notification {
	p := langPhrases(lang)
	return push.Notification{
		Title: p.lessonTitle,
		Body:  fmt.Sprintf(p.lessonBody, lesson.Subject, lesson.Audience),
		Tag:   "lesson:" + lesson.Subject + ":" + lesson.Time,
	}
}

// DigestNotification lists tomorrow's lessons, one per line.
func DigestNotification(lang string, lessons []univer.Lesson) push.Notification {
	p := langPhrases(lang)
	if len(lessons) == 0 {
		return push.Notification{Title: p.digestTitle, Body: p.digestNone, Tag: "digest"}
	}

	body := ""
	for i, lesson := range lessons {
		if i > 0 {
			body += "\n"
		}
		body += fmt.Sprintf(p.digestLesson, lesson.Time, lesson.Subject, lesson.Audience)
	}
	return push.Notification{Title: p.digestTitle, Body: body, Tag: "digest"}
}

// ExamNotification reminds about an exam happening tomorrow.
func ExamNotification(lang string, exam univer.Exam) push.Notification {
	p := langPhrases(lang)
	return push.Notification{
		Title: p.examTitle,
		Body:  fmt.Sprintf(p.examBody, exam.Subject, exam.Audience),
		Tag:   "exam:" + exam.Subject,
	}
}
