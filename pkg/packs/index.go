// Package packs indexes local knowledge packs and serves excerpt lookups for
// claim verification. A pack is a directory of source documents with an
// optional YAML manifest; the index is a persisted term-frequency store.
package packs

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Manifest describes a pack. Lives at <pack>/pack.yaml; all fields optional.
type Manifest struct {
	Name           string   `yaml:"name"`
	Title          string   `yaml:"title"`
	SnapshotDate   string   `yaml:"snapshot_date"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

// Match is one scored excerpt returned from a search
type Match struct {
	Title        string  `json:"title"`
	Source       string  `json:"source"`
	SnapshotDate string  `json:"snapshot_date,omitempty"`
	Excerpt      string  `json:"excerpt"`
	Score        float64 `json:"score"`
}

type chunkMeta struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Excerpt string `json:"excerpt"`
}

// Index is the searchable form of one pack
type Index struct {
	Pack     string
	manifest Manifest
	vectors  map[string]map[string]int
	metadata map[string]chunkMeta
}

// Library locates packs on disk and persists their indexes
type Library struct {
	PacksDir string
	DataDir  string
}

// NewLibrary creates a pack library rooted at packsDir, persisting indexes
// under dataDir
func NewLibrary(packsDir, dataDir string) *Library {
	return &Library{PacksDir: packsDir, DataDir: dataDir}
}

// List returns the pack directories available for indexing
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.PacksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (l *Library) vectorsPath(pack string) string {
	return filepath.Join(l.DataDir, "db", pack+"_vectors.json")
}

func (l *Library) metadataPath(pack string) string {
	return filepath.Join(l.DataDir, "db", pack+".json")
}

// Build ingests a pack directory, chunks every document, and persists the
// index. Rebuilding replaces the previous index.
func (l *Library) Build(pack string) (*Index, error) {
	packDir := filepath.Join(l.PacksDir, pack)
	if _, err := os.Stat(packDir); err != nil {
		return nil, fmt.Errorf("pack %q not found under %s", pack, l.PacksDir)
	}

	index := &Index{
		Pack:     pack,
		manifest: loadManifest(packDir),
		vectors:  make(map[string]map[string]int),
		metadata: make(map[string]chunkMeta),
	}

	chunkID := 0
	err := filepath.Walk(packDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".html":
		default:
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, chunk := range chunkText(string(content), 500, 50) {
			chunkID++
			key := fmt.Sprintf("%s-%d", pack, chunkID)
			excerpt := chunk
			if runes := []rune(excerpt); len(runes) > 300 {
				excerpt = string(runes[:300])
			}
			index.metadata[key] = chunkMeta{
				Title:   filepath.Base(path),
				Source:  path,
				Excerpt: excerpt,
			}
			index.vectors[key] = embedText(chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := l.save(index); err != nil {
		return nil, err
	}
	return index, nil
}

// Open loads a previously built index
func (l *Library) Open(pack string) (*Index, error) {
	index := &Index{
		Pack:     pack,
		manifest: loadManifest(filepath.Join(l.PacksDir, pack)),
		vectors:  make(map[string]map[string]int),
		metadata: make(map[string]chunkMeta),
	}
	if err := readJSON(l.vectorsPath(pack), &index.vectors); err != nil {
		return nil, fmt.Errorf("pack %q is not indexed: %w", pack, err)
	}
	if err := readJSON(l.metadataPath(pack), &index.metadata); err != nil {
		return nil, fmt.Errorf("pack %q metadata missing: %w", pack, err)
	}
	return index, nil
}

func (l *Library) save(index *Index) error {
	if err := os.MkdirAll(filepath.Join(l.DataDir, "db"), 0755); err != nil {
		return err
	}
	if err := writeJSON(l.vectorsPath(index.Pack), index.vectors); err != nil {
		return err
	}
	return writeJSON(l.metadataPath(index.Pack), index.metadata)
}

// Size returns the number of indexed chunks
func (i *Index) Size() int {
	return len(i.vectors)
}

// Search returns the k best-scoring excerpts for a query, best first.
// Zero-score chunks are dropped.
func (i *Index) Search(query string, k int) []Match {
	if len(i.vectors) == 0 {
		return nil
	}
	queryVector := embedText(query)

	type scored struct {
		key   string
		score float64
	}
	results := make([]scored, 0, len(i.vectors))
	for key, vector := range i.vectors {
		results = append(results, scored{key, cosineSimilarity(queryVector, vector)})
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].score != results[b].score {
			return results[a].score > results[b].score
		}
		return results[a].key < results[b].key // stable order for equal scores
	})

	matches := make([]Match, 0, k)
	for _, r := range results {
		if len(matches) >= k || r.score <= 0 {
			break
		}
		meta := i.metadata[r.key]
		matches = append(matches, Match{
			Title:        meta.Title,
			Source:       meta.Source,
			SnapshotDate: i.manifest.SnapshotDate,
			Excerpt:      meta.Excerpt,
			Score:        r.score,
		})
	}
	return matches
}

func loadManifest(packDir string) Manifest {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(packDir, "pack.yaml"))
	if err != nil {
		return m
	}
	_ = yaml.Unmarshal(data, &m)
	return m
}

// chunkText slices text into overlapping windows
func chunkText(text string, chunkSize, overlap int) []string {
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// embedText builds a bag-of-words vector over alphabetic tokens
func embedText(text string) map[string]int {
	vector := make(map[string]int)
	for _, token := range strings.Fields(text) {
		if !isAlpha(token) {
			continue
		}
		vector[strings.ToLower(token)]++
	}
	return vector
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	dot := 0.0
	for token, av := range a {
		if bv, ok := b[token]; ok {
			dot += float64(av * bv)
		}
	}
	normA := 0.0
	for _, v := range a {
		normA += float64(v * v)
	}
	normB := 0.0
	for _, v := range b {
		normB += float64(v * v)
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
