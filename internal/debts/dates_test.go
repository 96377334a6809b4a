package debts

import (
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFakeToday(t *testing.T, today time.Time) {
	t.Helper()
	fake := clock.NewFake()
	fake.Set(today)
	orig := clk
	clk = fake
	t.Cleanup(func() { clk = orig })
}

func TestParseDeadlineKeywords(t *testing.T) {
	today := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	withFakeToday(t, today)

	cases := []struct {
		input string
		days  int
	}{
		{"Heute", 0},
		{"Morgen", 1},
		{"Eine Woche", 7},
		{"Zwei Wochen", 14},
		{"Ein Monat", 30},
		{"3 Monate", 90},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			deadline, err := ParseDeadline(tc.input)
			require.NoError(t, err)

			want := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, tc.days)
			assert.Equal(t, want.Format("2006:01:02"), deadline.Canonical)
			assert.Equal(t, want.Format("02.01.2006"), deadline.Display)
		})
	}
}

func TestParseDeadlineExplicitDates(t *testing.T) {
	withFakeToday(t, time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC))

	t.Run("today is accepted", func(t *testing.T) {
		deadline, err := ParseDeadline("10.05.2024")
		require.NoError(t, err)
		assert.Equal(t, "2024:05:10", deadline.Canonical)
		assert.Equal(t, "10.05.2024", deadline.Display)
	})

	t.Run("single digit day and month are accepted", func(t *testing.T) {
		deadline, err := ParseDeadline("7.6.2024")
		require.NoError(t, err)
		assert.Equal(t, "2024:06:07", deadline.Canonical)
	})

	t.Run("today plus 365 days is accepted", func(t *testing.T) {
		deadline, err := ParseDeadline("10.05.2025")
		require.NoError(t, err)
		assert.Equal(t, "2025:05:10", deadline.Canonical)
	})

	t.Run("today plus 366 days is out of range", func(t *testing.T) {
		_, err := ParseDeadline("11.05.2025")
		assert.True(t, errors.Is(err, ErrDateOutOfRange), "got %v", err)
	})

	t.Run("far future is out of range", func(t *testing.T) {
		_, err := ParseDeadline("31.12.2099")
		assert.True(t, errors.Is(err, ErrDateOutOfRange), "got %v", err)
	})

	t.Run("past date is out of range", func(t *testing.T) {
		_, err := ParseDeadline("09.05.2024")
		assert.True(t, errors.Is(err, ErrDateOutOfRange), "got %v", err)
	})

	t.Run("thirteenth month is unparseable", func(t *testing.T) {
		_, err := ParseDeadline("15.13.2024")
		assert.True(t, errors.Is(err, ErrUnparseableDate), "got %v", err)
	})

	t.Run("free text is unparseable", func(t *testing.T) {
		for _, input := range []string{"irgendwann", "10.05.24", "2024.05.10", ""} {
			_, err := ParseDeadline(input)
			assert.True(t, errors.Is(err, ErrUnparseableDate), "input %q: got %v", input, err)
		}
	})
}
