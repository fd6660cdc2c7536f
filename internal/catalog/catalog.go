// Package catalog holds the static track catalog loaded once at process
// start and injected into the matchmaking engine as a read-only dependency.
package catalog

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// Song mirrors one entry of the songs data file. The hub only reads SongID;
// the rest rides along for operators inspecting the file.
type Song struct {
	SongID      string `json:"songId"`
	Title       string `json:"title"`
	BPM         string `json:"bpm"`
	Genre       string `json:"genre"`
	Composer    string `json:"composer"`
	Illustrator string `json:"illustrator"`
	Version     struct {
		X int `json:"x"`
		Y int `json:"y"`
		Z int `json:"z"`
	} `json:"version"`
	Charts struct {
		Detected *int `json:"detected,omitempty"`
		Invaded  *int `json:"invaded,omitempty"`
		Massive  *int `json:"massive,omitempty"`
	} `json:"charts"`
}

// Catalog is an immutable set of track identifiers.
type Catalog struct {
	songs []Song
	ids   []string
}

// Load reads the songs file from disk. Called once in main.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var songs []Song
	if err := json.Unmarshal(raw, &songs); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(songs) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}
	return New(songs), nil
}

// New builds a catalog from an in-memory song list. Tests use this to
// substitute a fixed catalog.
func New(songs []Song) *Catalog {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.SongID
	}
	return &Catalog{songs: songs, ids: ids}
}

func (c *Catalog) Len() int { return len(c.ids) }

// Sample draws n distinct track ids uniformly without replacement. When the
// catalog holds fewer than n tracks it returns all of them, shuffled.
func (c *Catalog) Sample(rng *rand.Rand, n int) []string {
	if n > len(c.ids) {
		n = len(c.ids)
	}
	perm := rng.Perm(len(c.ids))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = c.ids[perm[i]]
	}
	return out
}
