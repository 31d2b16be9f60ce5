package textshape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShape_ASCIIIsIdentity(t *testing.T) {
	for _, s := range []string{
		"",
		"Payroll Report",
		"Generated on: 2024-03-01 10:30:15",
		"E1 | 17489.90 | (tier A)",
	} {
		assert.Equal(t, s, Shape(s))
	}
}

func TestShape_JoinsAndReverses(t *testing.T) {
	// beh beh: initial + final in logical order, reversed for display.
	got := []rune(Shape("بب"))
	assert.Equal(t, []rune{0xFE90, 0xFE91}, got)
}

func TestShape_RightJoiningLettersStayIsolatedAfter(t *testing.T) {
	// alef does not join forward, so beh after it is isolated.
	got := []rune(Shape("اب"))
	assert.Equal(t, []rune{0xFE8F, 0xFE8D}, got)
}

func TestShape_LamAlefLigature(t *testing.T) {
	got := []rune(Shape("لا"))
	assert.Equal(t, []rune{0xFEFB}, got)

	// after a joining letter the ligature takes its final form
	got = []rune(Shape("بلا"))
	assert.Equal(t, []rune{0xFEFC, 0xFE91}, got)
}

func TestShape_NumbersKeepLogicalOrder(t *testing.T) {
	got := Shape("رقم 123")
	assert.True(t, strings.HasPrefix(got, "123 "), "got %q", got)
	assert.Equal(t, []rune{0xFEE2, 0xFED7, 0xFEAD}, []rune(got)[4:])
}

func TestShape_EmbeddedLatinStaysReadable(t *testing.T) {
	got := Shape("الاسم: Ahmed")
	assert.Contains(t, got, "Ahmed")
	assert.True(t, strings.HasPrefix(got, "Ahmed"), "got %q", got)
}

func TestShape_LatinParagraphWithArabicWord(t *testing.T) {
	got := Shape("Dept: بب")
	assert.Equal(t, "Dept: "+string([]rune{0xFE90, 0xFE91}), got)
}

func TestShape_MirrorsBracketsInRTLRuns(t *testing.T) {
	got := []rune(Shape("(ب)"))
	assert.Equal(t, []rune{'(', 0xFE8F, ')'}, got)
}

func TestShape_LinesAreIndependent(t *testing.T) {
	got := Shape("Total\nبب")
	parts := strings.Split(got, "\n")
	assert.Equal(t, "Total", parts[0])
	assert.Equal(t, []rune{0xFE90, 0xFE91}, []rune(parts[1]))
}

func TestContainsRTL(t *testing.T) {
	assert.True(t, ContainsRTL("جرافيك"))
	assert.True(t, ContainsRTL("tier أ.د"))
	assert.False(t, ContainsRTL("café"))
	assert.False(t, ContainsRTL("Graphics"))
}

func TestNeedsShaping(t *testing.T) {
	assert.False(t, NeedsShaping("plain ascii 123"))
	assert.True(t, NeedsShaping("café"))
	assert.True(t, NeedsShaping("line\nbreak"))
}
