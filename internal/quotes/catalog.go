// Package quotes holds the static motivational quote catalog shown at phase
// transitions.
package quotes

import (
	"math/rand/v2"

	"github.com/founderport/angel/internal/domain"
)

// Catalog is an immutable set of quotes with avoid-last selection.
type Catalog struct {
	entries []domain.Quote
}

// New builds a catalog over the given entries. An empty slice falls back to
// the built-in corpus.
func New(entries []domain.Quote) *Catalog {
	if len(entries) == 0 {
		entries = corpus
	}
	return &Catalog{entries: entries}
}

// Default returns a catalog over the built-in corpus.
func Default() *Catalog {
	return New(nil)
}

// Len returns the catalog size.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Pick selects a quote uniformly at random, excluding the entry with the
// given id. If exclusion would empty the pool (catalog of one), the full
// catalog is used instead. Callers store the returned id as the session's
// last quote id so the next pick avoids immediate repetition.
func (c *Catalog) Pick(excludeID string) domain.Quote {
	pool := c.entries
	if excludeID != "" && len(c.entries) > 1 {
		filtered := make([]domain.Quote, 0, len(c.entries))
		for _, q := range c.entries {
			if q.ID != excludeID {
				filtered = append(filtered, q)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	return pool[rand.IntN(len(pool))]
}

// ByID returns the quote with the given id, if present.
func (c *Catalog) ByID(id string) (domain.Quote, bool) {
	for _, q := range c.entries {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Quote{}, false
}

// corpus is the built-in quote collection from famous entrepreneurs and
// leaders.
var corpus = []domain.Quote{
	{ID: "churchill-courage", Text: "Success is not final; failure is not fatal: it is the courage to continue that counts.", Author: "Winston Churchill", Category: "Persistence"},
	{ID: "disney-doing", Text: "The way to get started is to quit talking and begin doing.", Author: "Walt Disney", Category: "Action"},
	{ID: "jobs-innovation", Text: "Innovation distinguishes between a leader and a follower.", Author: "Steve Jobs", Category: "Innovation"},
	{ID: "roosevelt-dreams", Text: "The future belongs to those who believe in the beauty of their dreams.", Author: "Eleanor Roosevelt", Category: "Vision"},
	{ID: "rockefeller-great", Text: "Don't be afraid to give up the good to go for the great.", Author: "John D. Rockefeller", Category: "Ambition"},
	{ID: "jobs-love", Text: "The only way to do great work is to love what you do.", Author: "Steve Jobs", Category: "Passion"},
	{ID: "thoreau-busy", Text: "Success usually comes to those who are too busy to be looking for it.", Author: "Henry David Thoreau", Category: "Focus"},
	{ID: "jobs-time", Text: "Your time is limited, don't waste it living someone else's life.", Author: "Steve Jobs", Category: "Authenticity"},
	{ID: "edison-ways", Text: "I have not failed. I've just found 10,000 ways that won't work.", Author: "Thomas Edison", Category: "Persistence"},
	{ID: "hoffman-embarrassed", Text: "If you are not embarrassed by the first version of your product, you've launched too late.", Author: "Reid Hoffman", Category: "Action"},
	{ID: "zuckerberg-risk", Text: "The biggest risk is not taking any risk. In a world that's changing quickly, the only strategy that is guaranteed to fail is not taking risks.", Author: "Mark Zuckerberg", Category: "Risk"},
	{ID: "kawasaki-implementation", Text: "Ideas are easy. Implementation is hard.", Author: "Guy Kawasaki", Category: "Execution"},
	{ID: "chesky-love", Text: "Build something 100 people love, not something 1 million people kind of like.", Author: "Brian Chesky", Category: "Focus"},
	{ID: "houston-once", Text: "Don't worry about failure; you only have to be right once.", Author: "Drew Houston", Category: "Persistence"},
	{ID: "socrates-change", Text: "The secret of change is to focus all of your energy not on fighting the old, but on building the new.", Author: "Socrates", Category: "Innovation"},
	{ID: "ford-mindset", Text: "Whether you think you can or you think you can't, you're right.", Author: "Henry Ford", Category: "Mindset"},
	{ID: "proverb-tree", Text: "The best time to plant a tree was 20 years ago. The second best time is now.", Author: "Chinese Proverb", Category: "Action"},
	{ID: "belsky-happen", Text: "It's not about ideas. It's about making ideas happen.", Author: "Scott Belsky", Category: "Execution"},
	{ID: "branson-failures", Text: "Do not be embarrassed by your failures, learn from them and start again.", Author: "Richard Branson", Category: "Learning"},
	{ID: "kroc-risk", Text: "If you're not a risk taker, you should get the hell out of business.", Author: "Ray Kroc", Category: "Risk"},
	{ID: "robbins-journey", Text: "The only impossible journey is the one you never begin.", Author: "Tony Robbins", Category: "Action"},
	{ID: "churchill-enthusiasm", Text: "Success is walking from failure to failure with no loss of enthusiasm.", Author: "Winston Churchill", Category: "Resilience"},
	{ID: "hoffman-cliff", Text: "An entrepreneur is someone who jumps off a cliff and builds a plane on the way down.", Author: "Reid Hoffman", Category: "Entrepreneurship"},
}
