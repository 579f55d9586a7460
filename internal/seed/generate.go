package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/scoring"
)

// EmbeddingDims is the width of generated embedding vectors.
const EmbeddingDims = 8

var (
	skillPool = []string{
		"Go", "Rust", "Python", "TypeScript", "SQL", "Kubernetes", "Machine Learning",
		"Product Design", "Public Speaking", "Piano", "Guitar", "Spanish", "French",
		"Japanese", "Photography", "Chess", "Cooking", "Writing", "Statistics", "Marketing",
	}
	firstNames = []string{"Ada", "Alan", "Grace", "Linus", "Margaret", "Ken", "Barbara", "Dennis", "Frances", "Edsger"}
	lastNames  = []string{"Lovelace", "Turing", "Hopper", "Torvalds", "Hamilton", "Thompson", "Liskov", "Ritchie", "Allen", "Dijkstra"}
	genders    = []model.Gender{model.GenderMale, model.GenderFemale, model.GenderOther}
	statuses   = []model.SwipeStatus{model.SwipeDeclined, model.SwipeOffered, model.SwipeAccepted}
)

// Generate builds a synthetic population of n users. The same seed and now
// always produce the same fixture.
func Generate(n int, seed uint64, now time.Time) *Fixture {
	var key [32]byte
	for i := range 8 {
		key[i] = byte(seed >> (8 * i))
	}
	src := rand.NewChaCha8(key)
	rng := rand.New(src)
	tzs := scoring.Timezones()

	f := &Fixture{Users: make([]UserFixture, 0, n)}
	for i := range n {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			// ChaCha8 reads never fail
			panic(fmt.Sprintf("seed: uuid: %v", err))
		}
		age := 18 + rng.IntN(45)
		bd := now.AddDate(-age, -rng.IntN(12), -rng.IntN(28))

		teach := pick(rng, skillPool, 1+rng.IntN(4))
		learn := pick(rng, without(skillPool, teach), 1+rng.IntN(4))

		vec := make([]float32, EmbeddingDims)
		for d := range vec {
			vec[d] = float32(rng.NormFloat64())
		}

		f.Users = append(f.Users, UserFixture{
			ID:        id.String(),
			FirstName: firstNames[rng.IntN(len(firstNames))],
			LastName:  fmt.Sprintf("%s-%d", lastNames[rng.IntN(len(lastNames))], i),
			Birthdate: bd.Format(model.DateLayout),
			Gender:    string(genders[rng.IntN(len(genders))]),
			TZName:    tzs[rng.IntN(len(tzs))],
			Teaches:   teach,
			Learns:    learn,
			Embedding: vec,
		})
	}

	if n < 2 {
		return f
	}
	for _, u := range f.Users {
		for range rng.IntN(6) {
			c := f.Users[rng.IntN(n)]
			if c.ID == u.ID {
				continue
			}
			f.Swipes = append(f.Swipes, SwipeFixture{
				Viewer:    u.ID,
				Candidate: c.ID,
				Status:    string(statuses[rng.IntN(len(statuses))]),
				DaysAgo:   rng.IntN(60),
			})
		}
	}
	return f
}

// pick returns k distinct entries of pool in random order.
func pick(rng *rand.Rand, pool []string, k int) []string {
	k = min(k, len(pool))
	out := make([]string, 0, k)
	for _, i := range rng.Perm(len(pool))[:k] {
		out = append(out, pool[i])
	}
	return out
}

func without(pool, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		skip[d] = struct{}{}
	}
	out := make([]string, 0, len(pool))
	for _, p := range pool {
		if _, ok := skip[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
