package univer

import "sort"

// MergeAttestationAttendance reconciles the two independently scraped
// views of a student's grades into one subject-indexed record set,
// sorted by subject.
//
// The attestation page is authoritative for which subjects exist; the
// attendance page carries fresher scores plus the per-period
// breakdown. Some institutions render no attestation table at all, in
// which case records are synthesized from the attendance summaries.
func MergeAttestationAttendance(attestations []Attestation, attendances []Attendance) []Attestation {
	noAttestation := len(attestations) == 0

	for _, attendance := range attendances {
		idx := findAttestation(attestations, attendance.Subject)

		if noAttestation {
			// degraded source: build the attestation skeleton from the
			// attendance summary, scores zeroed, plus one trailing
			// placeholder component
			marks := make([]Mark, 0, len(attendance.Summary)+1)
			for _, m := range attendance.Summary {
				marks = append(marks, Mark{Title: m.Title})
			}
			marks = append(marks, Mark{})
			attestations = append(attestations, Attestation{
				Subject: attendance.Subject,
				Marks:   marks,
			})
			idx = len(attestations) - 1
		}
		if idx < 0 {
			// attestations exist but this subject is not among them;
			// fabricating a record here would claim data the portal
			// never showed
			continue
		}

		attestations[idx].Marks = joinMarks(attestations[idx].Marks, attendance.Summary)
		attestations[idx].Attendance = attendance.Parts
	}

	sort.Slice(attestations, func(i, j int) bool {
		return attestations[i].Subject < attestations[j].Subject
	})
	return attestations
}

func findAttestation(attestations []Attestation, subject string) int {
	for i, a := range attestations {
		if a.Subject == subject {
			return i
		}
	}
	return -1
}

// joinMarks merges mark sequences positionally: the attendance mark
// wins where present, the attestation mark stays where not. The first
// position whose *original attestation* value is zero is flagged
// active — that is the component currently being worked on — even when
// the attendance side already carries a score for it. (The other
// reading, flagging the first zero of the merged result, has existed
// historically; the attestation-side reading is the one kept.)
func joinMarks(attestation, attendance []Mark) []Mark {
	result := make([]Mark, 0, len(attestation))
	activeSet := false

	for i, am := range attestation {
		merged := am
		if i < len(attendance) {
			merged = attendance[i]
		}
		if !activeSet && am.Value == 0 {
			merged.Active = true
			activeSet = true
		} else {
			merged.Active = false
		}
		result = append(result, merged)
	}

	// an attendance tail longer than the attestation is kept as-is
	for _, m := range attendance[min(len(attestation), len(attendance)):] {
		m.Active = false
		result = append(result, m)
	}
	return result
}
