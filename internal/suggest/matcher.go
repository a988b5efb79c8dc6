package suggest

import (
	"strings"
	"unicode"

	"github.com/comandas-pos/pos/internal/customer"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchStatus represents the status of a match operation
type MatchStatus int

const (
	Matched MatchStatus = iota
	Ambiguous
	Unmatched
)

func (s MatchStatus) String() string {
	switch s {
	case Matched:
		return "Matched"
	case Ambiguous:
		return "Ambiguous"
	case Unmatched:
		return "Unmatched"
	default:
		return "Unknown"
	}
}

// MatchResult contains the result of a matching operation
type MatchResult struct {
	Status     MatchStatus
	Client     *customer.Client  // when Matched
	Candidates []customer.Client // when Ambiguous
}

// Matcher scores typed customer names against known clients.
type Matcher struct {
	clients    []customer.Client
	clientKeys []string   // normalized full name per client
	clientToks [][]string // name tokens per client
}

const (
	exactWeight   = 100
	prefixWeight  = 2
	regularWeight = 1
)

// NewMatcher pre-tokenizes client names.
func NewMatcher(clients []customer.Client) *Matcher {
	m := &Matcher{
		clients:    clients,
		clientKeys: make([]string, len(clients)),
		clientToks: make([][]string, len(clients)),
	}
	for i, c := range clients {
		key := normalize(c.Name)
		m.clientKeys[i] = key
		m.clientToks[i] = strings.Fields(key)
	}
	return m
}

// Match returns the best scoring client for text. Every input token must
// appear in a candidate, either whole or as a prefix of a name token.
func (m *Matcher) Match(text string) MatchResult {
	key := normalize(text)
	input := strings.Fields(key)
	if len(input) == 0 {
		return MatchResult{Status: Unmatched}
	}

	type scoredClient struct {
		client customer.Client
		score  int
	}
	var scored []scoredClient

	for i, c := range m.clients {
		if m.clientKeys[i] == key {
			scored = append(scored, scoredClient{client: c, score: exactWeight})
			continue
		}
		score := 0
		for _, tok := range input {
			best := 0
			for _, name := range m.clientToks[i] {
				switch {
				case name == tok:
					best = prefixWeight
				case best == 0 && strings.HasPrefix(name, tok):
					best = regularWeight
				}
			}
			if best == 0 {
				score = 0
				break
			}
			score += best
		}
		if score > 0 {
			scored = append(scored, scoredClient{client: c, score: score})
		}
	}

	if len(scored) == 0 {
		return MatchResult{Status: Unmatched}
	}

	maxScore := 0
	for _, s := range scored {
		if s.score > maxScore {
			maxScore = s.score
		}
	}

	var top []customer.Client
	for _, s := range scored {
		if s.score == maxScore {
			top = append(top, s.client)
		}
	}

	if len(top) == 1 {
		return MatchResult{Status: Matched, Client: &top[0]}
	}
	return MatchResult{Status: Ambiguous, Candidates: top}
}

// normalize lowercases, strips accents and replaces non-alphanumeric chars
// with single spaces.
func normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
