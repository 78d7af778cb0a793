package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
)

func TestMemoryStoreLatest(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Latest()
	assert.ErrorIs(t, err, ErrNotFound)

	first := analysis.Snapshot{GeneratedAt: time.Unix(1, 0).UTC(), Records: 10}
	second := analysis.Snapshot{GeneratedAt: time.Unix(2, 0).UTC(), Records: 20}
	s.Save(first)
	s.Save(second)

	got, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Save(analysis.Snapshot{Records: i})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Latest()
		}()
	}
	wg.Wait()

	_, err := s.Latest()
	assert.NoError(t, err)
}
