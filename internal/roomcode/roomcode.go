// Package roomcode generates memorable room identifiers. Rooms are created
// lazily by the server on first join, so the caller picks the code.
package roomcode

import (
	"crypto/rand"
	"log"
	"math/big"
	"regexp"
	"strings"
)

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"penguin", "flamingo", "pelican", "swallow", "sparrow", "robin", "toucan", "parrot", "canary", "dolphin",
}

var words = []string{
	"sunbeam", "stardust", "pepper", "muffin", "bubble", "sprout", "glimmer", "whisker", "echo", "jelly",
	"marble", "maple", "cocoa", "hazel", "breeze", "meadow", "willow", "ember", "comet", "orbit",
}

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "brave", "calm", "swift", "silent", "bouncy", "merry",
}

var codePattern = regexp.MustCompile(`^[a-z]+(-[a-z]+){2}$`)

// Generate returns a three-word room code such as "cozy-otter-ember".
func Generate() string {
	parts := []string{
		adjectives[randomIndex(len(adjectives))],
		animals[randomIndex(len(animals))],
		words[randomIndex(len(words))],
	}
	return strings.Join(parts, "-")
}

// Valid reports whether s looks like a generated room code.
func Valid(s string) bool {
	return codePattern.MatchString(s)
}

// randomIndex returns a cryptographically secure random index for a slice
// of the given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("failed to generate random index:", err)
	}
	return int(n.Int64())
}
