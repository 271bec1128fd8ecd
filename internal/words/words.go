// Package words provides the target-word and guess-validation dictionary
// for Word Arena matches: word lists partitioned by length, with optional
// override from an on-disk directory.
package words

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

//go:embed words_5.txt words_6.txt words_7.txt
var embeddedLists embed.FS

// Provider answers target-word selection and guess validation for a
// configured set of word lengths.
type Provider interface {
	// PickWord returns a random upper-case word of the given length.
	// ok is false if no word of that length is known.
	PickWord(length int) (word string, ok bool)
	// IsValid reports whether word is a recognized word of its own length.
	IsValid(word string) bool
	// Lengths returns the word lengths this provider can serve.
	Lengths() []int
}

type provider struct {
	mu      sync.RWMutex
	byLen   map[int][]string
	valid   map[string]bool
	rand    *rand.Rand
	lengths []int
}

// New loads all embedded default word lists (5, 6 and 7 letters); lengths
// is only what Lengths() reports and does not filter the loaded words. A
// length with no embedded words is simply empty in byLen; PickWord reports
// !ok for it.
func New(lengths []int) (Provider, error) {
	p := &provider{
		byLen: make(map[int][]string),
		valid: make(map[string]bool),
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, name := range []string{"words_5.txt", "words_6.txt", "words_7.txt"} {
		data, err := embeddedLists.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("words: reading embedded %s: %w", name, err)
		}
		p.ingest(strings.NewReader(string(data)))
	}
	p.lengths = append([]int(nil), lengths...)
	return p, nil
}

// NewFromDir loads word lists from text files in dir (one word per line,
// only files ending in .txt, any length, case-insensitive), falling back to nothing —
// callers typically layer this behind New()'s embedded defaults by calling
// NewFromDir first and New as a fallback if it errors.
func NewFromDir(dir string, lengths []int) (Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("words: reading dir %s: %w", dir, err)
	}
	p := &provider{
		byLen: make(map[int][]string),
		valid: make(map[string]bool),
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("words: opening %s: %w", e.Name(), err)
		}
		p.ingest(f)
		f.Close()
	}
	p.lengths = append([]int(nil), lengths...)
	return p, nil
}

func (p *provider) ingest(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		n := len(word)
		p.byLen[n] = append(p.byLen[n], word)
		p.valid[word] = true
	}
}

func (p *provider) PickWord(length int) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	words := p.byLen[length]
	if len(words) == 0 {
		return "", false
	}
	return words[p.rand.Intn(len(words))], true
}

func (p *provider) IsValid(word string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.valid[strings.ToUpper(strings.TrimSpace(word))]
}

func (p *provider) Lengths() []int {
	return append([]int(nil), p.lengths...)
}
