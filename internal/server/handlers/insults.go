// internal/server/handlers/insults.go
package handlers

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// InsultGenerator supplies the text of an insult. Implementations must
// never return an empty string.
type InsultGenerator interface {
	Generate() string
}

var DefaultInsults = []string{
	"You look like a botched code merge.",
	"Your logic is as flawed as an infinite loop.",
	"You must have been compiled with errors.",
	"You couldn’t debug your way out of a print statement.",
	"You’re like a deprecated API: outdated and unnecessary.",
	"May a festering platoon of nasty monkeys manicly smite you nine-hundred, ninty-nine times in the sewer you call home .",
	"With the rage of Alah's fist , may a curdled and malignant group of hirsute monkeys and a defective platoon of rabid maggots seek a battleground in your entrails .",
	"You are so asinine that even a neanderthal would not want to hug you .",
	"You nasty , stupid , mung for brains .",
}

type RandomInsults struct {
	mu      sync.Mutex
	rng     *rand.Rand
	phrases []string
}

// NewRandomInsults picks uniformly from phrases. Blank phrases are dropped and
// an empty table falls back to DefaultInsults. A zero seed uses the clock.
func NewRandomInsults(seed int64, phrases []string) *RandomInsults {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultInsults...)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomInsults{
		rng:     rand.New(rand.NewSource(seed)),
		phrases: cleaned,
	}
}

func (g *RandomInsults) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phrases[g.rng.Intn(len(g.phrases))]
}

// Phrases returns a copy of the table in use.
func (g *RandomInsults) Phrases() []string {
	out := make([]string, len(g.phrases))
	copy(out, g.phrases)
	return out
}
