package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tmakino/ledgerlens/internal/models"
)

// Index stores (vector, passage) pairs sharing one embedding dimensionality
// and serves brute-force inner-product search. Dimensionality is fixed at
// construction; the index grows by appending and is rebuilt wholesale when
// the source document changes, never patched incrementally.
type Index struct {
	dimensions int
	vectors    [][]float32
	passages   []models.Passage
	mu         sync.RWMutex
}

// New creates an index for vectors of the given dimensionality.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &Index{dimensions: dimensions}, nil
}

// Add appends vectors with their passages. A count mismatch between vectors
// and passages is a usage fault and fails loudly, as does a vector of the
// wrong dimensionality.
func (ix *Index) Add(ctx context.Context, vectors [][]float32, passages []models.Passage) error {
	if len(vectors) != len(passages) {
		return fmt.Errorf("vectors and passages length mismatch: %d vs %d", len(vectors), len(passages))
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, v := range vectors {
		if len(v) != ix.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), ix.dimensions)
		}
		vec := make([]float32, ix.dimensions)
		copy(vec, v)
		ix.vectors = append(ix.vectors, vec)
		ix.passages = append(ix.passages, passages[i])
	}
	return nil
}

// Search returns the topK passages ranked by inner product with the query,
// descending. Vectors are expected pre-normalized by the embedder, making the
// score cosine similarity. Ties keep underlying index order.
func (ix *Index) Search(ctx context.Context, query []float32, topK int) ([]models.RetrievedPassage, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), ix.dimensions)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if topK <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}

	scores := make([]models.RetrievedPassage, len(ix.vectors))
	for i, vec := range ix.vectors {
		scores[i] = models.RetrievedPassage{
			Passage: ix.passages[i],
			Score:   InnerProduct(query, vec),
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if topK > len(scores) {
		topK = len(scores)
	}
	return scores[:topK], nil
}

// Size returns the number of indexed passages.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.passages)
}

// Dimensions returns the fixed embedding dimensionality.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Save persists the index to path, creating parent directories as needed.
// Format: dimensions (4), count (4), then per entry: page (4), id, text, and
// the raw vector. Strings are length-prefixed.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(ix.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(ix.passages))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, p := range ix.passages {
		if err := binary.Write(f, binary.LittleEndian, uint32(p.Page)); err != nil {
			return fmt.Errorf("write page: %w", err)
		}
		if err := writeString(f, p.ID); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := writeString(f, p.Text); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(ix.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads a snapshot from path and replaces the index contents.
// Dimensions must match. A missing file is not an error; the index is left
// unchanged.
func (ix *Index) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var dims, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dims); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dims) != ix.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dims, ix.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	vectors := make([][]float32, 0, n)
	passages := make([]models.Passage, 0, n)
	buf := make([]byte, ix.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var page uint32
		if err := binary.Read(f, binary.LittleEndian, &page); err != nil {
			return fmt.Errorf("read page: %w", err)
		}
		id, err := readString(f)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		text, err := readString(f)
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
		passages = append(passages, models.Passage{ID: id, Page: int(page), Text: text})
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = vectors
	ix.passages = passages
	return nil
}

func writeString(f *os.File, s string) error {
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := f.WriteString(s)
	return err
}

func readString(f *os.File) (string, error) {
	var n uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(f, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
