package loadgen

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/internal/domain/secret"
)

// scoreSpread keeps generated scores well apart from each other.
const scoreSpread = 7

// generate builds count submissions with distinct scores in random order.
// Distinct scores make the expected final ranking unambiguous.
func generate(table string, count int, salt string) []model.Submission {
	base := rand.Int64N(1_000_000)
	subs := make([]model.Submission, count)
	for i, p := range rand.Perm(count) {
		name := "player-" + uuid.NewString()[:8]
		score := base + int64(p)*scoreSpread
		subs[i] = model.Submission{Name: name, Score: score}
		if salt != "" {
			subs[i].Token = secret.ComputeToken(table, name, score, salt)
		}
	}
	return subs
}

// freshTableName returns a table name unlikely to exist already.
func freshTableName() string {
	return "load-" + uuid.NewString()[:8]
}
