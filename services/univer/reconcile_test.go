package univer

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMergeSortsBySubject(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Физика", Marks: []Mark{{Title: "АБ1", Value: 70}}},
		{Subject: "Алгебра", Marks: []Mark{{Title: "АБ1", Value: 80}}},
	}
	merged := MergeAttestationAttendance(attestations, nil)

	require.True(t, sort.SliceIsSorted(merged, func(i, j int) bool {
		return merged[i].Subject < merged[j].Subject
	}))
	require.Len(t, merged, 2)
}

func TestMergeEmptyAttendanceKeepsAttestations(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Математика", Marks: []Mark{{Title: "АБ1", Value: 85}, {Title: "АБ2"}}},
	}
	merged := MergeAttestationAttendance(attestations, []Attendance{})

	require.Len(t, merged, 1)
	require.Equal(t, "Математика", merged[0].Subject)
	require.Equal(t, 85, merged[0].Marks[0].Value)
}

// The active flag follows the first zero of the original attestation
// sequence, even when the attendance side already filled that position
// with a score.
func TestMergeActiveFollowsOriginalZero(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Math", Marks: []Mark{{Title: "AB1", Value: 0}}},
	}
	attendances := []Attendance{
		{Subject: "Math", Summary: []Mark{{Title: "AB1", Value: 85}}},
	}

	merged := MergeAttestationAttendance(attestations, attendances)
	require.Len(t, merged, 1)
	require.Equal(t, 85, merged[0].Marks[0].Value)
	require.True(t, merged[0].Marks[0].Active)
}

func TestMergeAtMostOneActiveMark(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Философия", Marks: []Mark{
			{Title: "АБ1", Value: 90},
			{Title: "АБ2", Value: 0},
			{Title: "Экзамен", Value: 0},
		}},
	}
	attendances := []Attendance{
		{Subject: "Философия", Summary: []Mark{
			{Title: "АБ1", Value: 90},
			{Title: "АБ2", Value: 0},
			{Title: "Экзамен", Value: 0},
		}},
	}

	merged := MergeAttestationAttendance(attestations, attendances)
	var active int
	for _, m := range merged[0].Marks {
		if m.Active {
			active++
		}
	}
	require.Equal(t, 1, active)
	require.True(t, merged[0].Marks[1].Active)
}

func TestMergeSynthesizesFromAttendanceOnly(t *testing.T) {
	attendances := []Attendance{
		{
			Subject: "История",
			Summary: []Mark{{Title: "АБ1", Value: 77}},
			Parts: []AttendancePart{
				{Label: "1 период", Type: "Лекция", Marks: []Mark{{Title: "05.09", Value: 90}}},
			},
		},
	}

	merged := MergeAttestationAttendance(nil, attendances)
	require.Len(t, merged, 1)

	record := merged[0]
	require.Equal(t, "История", record.Subject)
	// summary score carried over, plus the trailing placeholder
	require.Len(t, record.Marks, 2)
	require.Equal(t, 77, record.Marks[0].Value)
	require.True(t, record.Marks[0].Active)
	require.Equal(t, Mark{}, record.Marks[1])
	require.Len(t, record.Attendance, 1)
}

func TestMergeDoesNotFabricateSubjects(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Химия", Marks: []Mark{{Title: "АБ1", Value: 60}}},
	}
	attendances := []Attendance{
		{Subject: "Биология", Summary: []Mark{{Title: "АБ1", Value: 99}}},
	}

	merged := MergeAttestationAttendance(attestations, attendances)
	require.Len(t, merged, 1)
	require.Equal(t, "Химия", merged[0].Subject)
}

func TestMergeKeepsLongerTail(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Физика", Marks: []Mark{
			{Title: "АБ1", Value: 70},
			{Title: "АБ2", Value: 65},
			{Title: "Экзамен", Value: 0},
		}},
	}
	attendances := []Attendance{
		{Subject: "Физика", Summary: []Mark{{Title: "АБ1", Value: 75}}},
	}

	merged := MergeAttestationAttendance(attestations, attendances)
	marks := merged[0].Marks
	require.Len(t, marks, 3)
	require.Equal(t, 75, marks[0].Value)
	require.Equal(t, 65, marks[1].Value)
	require.True(t, marks[2].Active)
}

func TestMergeKeepsLongerAttendanceTail(t *testing.T) {
	attestations := []Attestation{
		{Subject: "Химия", Marks: []Mark{{Title: "АБ1", Value: 0}}},
	}
	attendances := []Attendance{
		{Subject: "Химия", Summary: []Mark{
			{Title: "АБ1", Value: 60},
			{Title: "АБ2", Value: 55},
		}},
	}

	merged := MergeAttestationAttendance(attestations, attendances)
	marks := merged[0].Marks
	require.Len(t, marks, 2)
	require.True(t, marks[0].Active)
	require.Equal(t, Mark{Title: "АБ2", Value: 55}, marks[1])
}

func TestMergeIdempotentOnReconciledInput(t *testing.T) {
	reconciled := MergeAttestationAttendance(
		[]Attestation{
			{Subject: "Алгебра", Marks: []Mark{{Title: "АБ1", Value: 80}, {Title: "АБ2"}}},
			{Subject: "Физика", Marks: []Mark{{Title: "АБ1", Value: 70}}},
		},
		[]Attendance{
			{Subject: "Алгебра", Summary: []Mark{{Title: "АБ1", Value: 82}}},
		},
	)

	again := MergeAttestationAttendance(append([]Attestation{}, reconciled...), nil)
	if diff := cmp.Diff(reconciled, again); diff != "" {
		t.Fatalf("second merge changed the records (-first +second):\n%s", diff)
	}
}
