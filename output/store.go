package output

import (
	"encoding/json"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"

	"github.com/mikimaus78/mlr"
)

// ResultStore archives resample results on disk, keyed by run id, with an LRU
// cache in front of the disk for results that are read back repeatedly, for
// example by benchmark comparisons. Models and extracts are not persisted;
// only the serialisable parts of a result survive a round trip.
type ResultStore struct {
	d     *diskv.Diskv
	cache *lru.Cache
}

// blockTransform determines how diskv should partition folders.
func blockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// NewResultStore creates a store rooted at path holding up to cacheSize
// results in memory.
func NewResultStore(path string, cacheSize int) (*ResultStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating result cache")
	}
	return &ResultStore{
		d: diskv.New(diskv.Options{
			BasePath:     path,
			Transform:    blockTransform(8),
			CacheSizeMax: 4096 * 1024,
			Compression:  diskv.NewGzipCompression(),
		}),
		cache: cache,
	}, nil
}

// Save writes a result to the store under its run id.
func (s *ResultStore) Save(r *mlr.Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "encoding result %s", r.ID)
	}
	if err := s.d.Write(r.ID, b); err != nil {
		return errors.Wrapf(err, "writing result %s", r.ID)
	}
	s.cache.Add(r.ID, r)
	return nil
}

// Load reads a result back by run id.
func (s *ResultStore) Load(id string) (*mlr.Result, error) {
	if v, ok := s.cache.Get(id); ok {
		return v.(*mlr.Result), nil
	}
	b, err := s.d.Read(id)
	if err != nil {
		return nil, errors.Wrapf(err, "reading result %s", id)
	}
	var r mlr.Result
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrapf(err, "decoding result %s", id)
	}
	s.cache.Add(id, &r)
	return &r, nil
}

// IDs lists the run ids of every stored result.
func (s *ResultStore) IDs() []string {
	var ids []string
	for id := range s.d.Keys(nil) {
		ids = append(ids, id)
	}
	return ids
}
