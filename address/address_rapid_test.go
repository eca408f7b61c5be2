package address

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestRoundTripProperty checks, for values drawn at random from each
// form's full domain, that encode(parse(s)) reproduces s bit-exact, for
// all three address notations.
func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		area := rapid.IntRange(0, maxArea).Draw(t, "area")
		line := rapid.IntRange(0, maxLine).Draw(t, "line")
		device := rapid.IntRange(0, maxDevice).Draw(t, "device")
		s := fmt.Sprintf("%d.%d.%d", area, line, device)

		v, err := Pack(s, Individual)
		require.NoError(t, err)
		got, err := Unpack(v, Individual)
		require.NoError(t, err)
		require.Equal(t, s, got)
	})

	rapid.Check(t, func(t *rapid.T) {
		main := rapid.IntRange(0, maxMain3).Draw(t, "main")
		middle := rapid.IntRange(0, maxMiddle3).Draw(t, "middle")
		sub := rapid.IntRange(0, maxSub3).Draw(t, "sub")
		s := fmt.Sprintf("%d/%d/%d", main, middle, sub)

		v, err := Pack(s, Group3Level)
		require.NoError(t, err)
		got, err := Unpack(v, Group3Level)
		require.NoError(t, err)
		require.Equal(t, s, got)
	})

	rapid.Check(t, func(t *rapid.T) {
		main := rapid.IntRange(0, maxMain2).Draw(t, "main")
		sub := rapid.IntRange(0, maxSub2).Draw(t, "sub")
		s := fmt.Sprintf("%d/%d", main, sub)

		v, err := Pack(s, Group2Level)
		require.NoError(t, err)
		got, err := Unpack(v, Group2Level)
		require.NoError(t, err)
		require.Equal(t, s, got)
	})
}
