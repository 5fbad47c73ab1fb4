package catalog

import "sync/atomic"

// Store hands out the current catalog. Sessions read it once per round, so a
// swap only affects rounds started afterwards.
type Store struct {
	current atomic.Pointer[Catalog]
}

func NewStore(c *Catalog) *Store {
	if c == nil {
		c = Default()
	}
	s := &Store{}
	s.current.Store(c)
	return s
}

func (s *Store) Current() *Catalog {
	return s.current.Load()
}

func (s *Store) Swap(c *Catalog) {
	if c == nil {
		return
	}
	s.current.Store(c)
}

// Reload parses path and swaps it in. The previous catalog stays active when
// the file is unreadable or invalid.
func (s *Store) Reload(path string) error {
	c, err := LoadFile(path)
	if err != nil {
		return err
	}
	s.Swap(c)
	return nil
}
