package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToInitials(t *testing.T) {
	require.Equal(t, "Иванов И.П.", ToInitials("Иванов Иван Петрович"))
	require.Equal(t, "Smith J.", ToInitials("Smith John"))
	require.Equal(t, "Smith", ToInitials("Smith"))
}

func TestEqualIgnoringSpaces(t *testing.T) {
	require.True(t, EqualIgnoringSpaces("Иванов  И.П. ", "иванов и.п."))
	require.False(t, EqualIgnoringSpaces("Иванов И.П.", "Петров И.П."))
}

func TestCollapseSpaces(t *testing.T) {
	require.Equal(t, "Theory of Algorithms (lec)", CollapseSpaces("  Theory of\n Algorithms   (lec) "))
}
