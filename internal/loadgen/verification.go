package loadgen

import (
	"fmt"
	"sort"

	"github.com/okian/highscore/internal/domain/model"
)

// verify checks that entries is exactly the best len(entries) submissions
// in descending order. With size > 0 the length must be min(size, len(subs)).
// Scores are distinct, so there is only one correct answer.
func verify(entries []model.Entry, subs []model.Submission, size int) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: table is empty", ErrVerification)
	}
	if len(entries) > len(subs) {
		return fmt.Errorf("%w: %d entries for %d submissions; was the table fresh?", ErrVerification, len(entries), len(subs))
	}
	if size > 0 && len(entries) != min(size, len(subs)) {
		return fmt.Errorf("%w: %d entries, want %d", ErrVerification, len(entries), min(size, len(subs)))
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			return fmt.Errorf("%w: entry %d (%d) outranks entry %d (%d)",
				ErrVerification, i, entries[i].Score, i-1, entries[i-1].Score)
		}
	}

	want := make([]model.Entry, len(subs))
	for i, s := range subs {
		want[i] = s.Entry()
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Score > want[j].Score })

	for i, e := range entries {
		if e != want[i] {
			return fmt.Errorf("%w: position %d is %s=%d, want %s=%d",
				ErrVerification, i+1, e.Name, e.Score, want[i].Name, want[i].Score)
		}
	}
	return nil
}
