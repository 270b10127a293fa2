package univer

import "fmt"

// Urls is the full set of portal endpoints for one institution. The
// Univer SIS is deployed per university under different hosts but with
// identical page structure, so everything beyond this table is shared.
type Urls struct {
	Login         string
	LangRu        string
	LangKk        string
	LangEn        string
	Attendance    string
	Attestation   string
	Schedule      string
	Exams         string
	Transcript    string
	Materials     string
	EducationPlan string

	// StaffSearch is the staff directory search endpoint with a %s
	// placeholder for the query. Empty when the institution has no
	// public directory.
	StaffSearch string
}

func (u Urls) Lang(lang string) string {
	switch lang {
	case "en":
		return u.LangEn
	case "kk", "kz":
		return u.LangKk
	default:
		return u.LangRu
	}
}

var kstuUrls = Urls{
	Login:         "https://univerapi.kstu.kz/",
	LangRu:        "https://univer.kstu.kz/lang/change/ru/",
	LangKk:        "https://univer.kstu.kz/lang/change/kz/",
	LangEn:        "https://univer.kstu.kz/lang/change/en/",
	Attendance:    "https://univer.kstu.kz/student/attendance/full/",
	Attestation:   "https://univer.kstu.kz/student/attestation/",
	Schedule:      "https://univer.kstu.kz/student/myschedule/2024/1/30.09.2024/06.10.2024/",
	Exams:         "https://univer.kstu.kz/student/myexam/schedule/",
	Transcript:    "https://univer.kstu.kz/student/transcript/2",
	Materials:     "https://univer.kstu.kz/student/umkd/",
	EducationPlan: "https://univer.kstu.kz/student/educplan/",
	StaffSearch:   "https://person.kstu.kz/?s=%s",
}

var kaznuUrls = Urls{
	Login:       "http://univer.kaznu.kz/user/login",
	LangRu:      "http://univer.kaznu.kz/lang/change/ru/",
	LangKk:      "http://univer.kaznu.kz/lang/change/kz/",
	LangEn:      "http://univer.kaznu.kz/lang/change/en/",
	Attendance:  "http://univer.kaznu.kz/student/attendance/full/",
	Attestation: "http://univer.kaznu.kz/student/attestation/",
	Schedule:    "https://univer.kaznu.kz/student/myschedule/2023/1/04.12.2023/10.12.2023/",
	Exams:       "http://univer.kaznu.kz/student/myexam/schedule/",
}

var institutions = map[string]Urls{
	"kstu":  kstuUrls,
	"kaznu": kaznuUrls,
}

// InstitutionUrls returns the endpoint set for a known institution
// code.
func InstitutionUrls(code string) (Urls, error) {
	urls, ok := institutions[code]
	if !ok {
		return Urls{}, fmt.Errorf("unknown institution %q", code)
	}
	return urls, nil
}

func Institutions() []string {
	out := make([]string, 0, len(institutions))
	for code := range institutions {
		out = append(out, code)
	}
	return out
}
