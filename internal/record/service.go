// Package record implements the record lifecycle: timestamp-derived ids,
// save/list/read/delete, pagination and date grouping, and the retention
// sweep that bounds storage growth.
package record

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chaiyot-k/textpaste/internal/apperr"
	"github.com/chaiyot-k/textpaste/internal/cache"
	"github.com/chaiyot-k/textpaste/internal/metrics"
	"github.com/chaiyot-k/textpaste/internal/store"
)

const (
	// idTimeLayout renders the creation instant with colons replaced by
	// hyphens so ids stay filesystem- and URL-safe.
	idTimeLayout = "2006-01-02T15-04-05"
	idSuffix     = "-record.txt"
	dateLayout   = "2006-01-02"
)

// Entry is one record on a listing page.
type Entry struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Pagination describes the listing window.
type Pagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
	PageSize   int `json:"pageSize"`
}

// Listing is one page of records grouped by date, newest first.
type Listing struct {
	Grouped    map[string][]Entry `json:"grouped"`
	Pagination Pagination         `json:"pagination"`
}

// MarshalJSON writes the date groups newest first. Clients render the
// groups in the order they appear on the wire, and marshaling the map
// directly would sort keys ascending.
func (l Listing) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(l.Grouped))
	for k := range l.Grouped {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var buf bytes.Buffer
	buf.WriteString(`{"grouped":{`)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		eb, err := json.Marshal(l.Grouped[k])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString(`},"pagination":`)
	pb, err := json.Marshal(l.Pagination)
	if err != nil {
		return nil, err
	}
	buf.Write(pb)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Config holds the record service tuning knobs.
type Config struct {
	PageSize       int           // default 10
	RetentionDays  int           // default 2
	StorageTimeout time.Duration // per storage call, default 10s
	CacheSize      int           // content cache capacity, 0 disables
}

// Service maps save/list/read/delete intents onto the store.
type Service struct {
	store    store.Store
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	cfg      Config
	contents *cache.LRU[string, string]

	sweeps sync.WaitGroup
}

// NewService creates the record service. metrics may be nil.
func NewService(st store.Store, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 2
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 10 * time.Second
	}
	s := &Service{
		store:   st,
		logger:  logger.With().Str("component", "record").Logger(),
		metrics: m,
		cfg:     cfg,
	}
	if cfg.CacheSize > 0 {
		s.contents = cache.New[string, string](cfg.CacheSize)
	}
	return s
}

// FormatID derives the record id for a creation instant. Two saves
// within the same wall-clock second produce the same id; the later one
// overwrites the earlier. This is documented behavior, not a bug.
func FormatID(now time.Time) string {
	return now.UTC().Format(idTimeLayout) + idSuffix
}

// ValidateID rejects ids that could escape the storage namespace.
func ValidateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return apperr.ErrInvalidInput
	}
	return nil
}

// Save stores text under a fresh timestamp-derived id and kicks off the
// retention sweep. Sweep failures never reach the caller.
func (s *Service) Save(ctx context.Context, text string, now time.Time) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.ErrInvalidInput
	}

	id := FormatID(now)
	putCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	if err := s.store.Put(putCtx, id, text); err != nil {
		s.countError("put")
		return "", err
	}
	if s.contents != nil {
		s.contents.Put(id, text)
	}
	if s.metrics != nil {
		s.metrics.RecordSave()
	}
	s.logger.Info().Str("id", id).Int("bytes", len(text)).Msg("record saved")

	// Best-effort sweep, detached from the request.
	s.sweeps.Add(1)
	go func() {
		defer s.sweeps.Done()
		s.Sweep(context.Background(), now)
	}()

	return id, nil
}

// List returns the requested page of records grouped by date. The page
// number is clamped into [1, totalPages]. A failed content fetch yields
// an empty-content entry rather than failing the page.
func (s *Service) List(ctx context.Context, page int) (Listing, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	ids, err := s.store.List(listCtx)
	if err != nil {
		s.countError("list")
		return Listing{}, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	total := len(ids)
	totalPages := int(math.Max(1, math.Ceil(float64(total)/float64(s.cfg.PageSize))))
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * s.cfg.PageSize
	end := start + s.cfg.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	window := ids[start:end]

	// Fetches are independent and read-only, so fan out.
	entries := make([]Entry, len(window))
	var wg sync.WaitGroup
	for i, id := range window {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			content, err := s.fetchContent(ctx, id)
			if err != nil {
				s.logger.Warn().Err(err).Str("id", id).Msg("content fetch failed, returning empty entry")
				content = ""
			}
			entries[i] = Entry{Filename: id, Content: content}
		}(i, id)
	}
	wg.Wait()

	grouped := make(map[string][]Entry)
	for _, e := range entries {
		key := dateKey(e.Filename)
		grouped[key] = append(grouped[key], e)
	}

	return Listing{
		Grouped: grouped,
		Pagination: Pagination{
			Page:       page,
			TotalPages: totalPages,
			Total:      total,
			PageSize:   s.cfg.PageSize,
		},
	}, nil
}

// Read returns the stored content for id.
func (s *Service) Read(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	content, err := s.fetchContent(ctx, id)
	if err != nil {
		// A missing record is an ordinary 404, not a backend failure.
		if !errors.Is(err, apperr.ErrNotFound) {
			s.countError("get")
		}
		return "", err
	}
	return content, nil
}

// Delete removes the record with id. Deleting an absent id reports
// apperr.ErrNotFound, including a second delete of the same id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	delCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	if err := s.store.Delete(delCtx, id); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.countError("delete")
		}
		return err
	}
	if s.contents != nil {
		s.contents.Delete(id)
	}
	s.logger.Info().Str("id", id).Msg("record deleted")
	return nil
}

// Sweep deletes every record whose date prefix is strictly older than
// the retention cutoff. Deletions are attempted independently; failures
// are logged and counted, never propagated.
func (s *Service) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.UTC().AddDate(0, 0, -s.cfg.RetentionDays).Format(dateLayout)

	listCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	ids, err := s.store.List(listCtx)
	cancel()
	if err != nil {
		s.logger.Error().Err(err).Msg("retention sweep could not list records")
		s.countError("sweep")
		return 0
	}

	removed := 0
	for _, id := range ids {
		if dateKey(id) >= cutoff {
			continue
		}
		delCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
		err := s.store.Delete(delCtx, id)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("id", id).Msg("retention sweep delete failed")
			s.countError("sweep")
			continue
		}
		if s.contents != nil {
			s.contents.Delete(id)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Str("cutoff", cutoff).Msg("retention sweep complete")
	}
	if s.metrics != nil && removed > 0 {
		s.metrics.RecordSwept(removed)
	}
	return removed
}

// WaitSweeps blocks until in-flight sweeps finish. Used during shutdown.
func (s *Service) WaitSweeps() {
	s.sweeps.Wait()
}

func (s *Service) fetchContent(ctx context.Context, id string) (string, error) {
	if s.contents != nil {
		if content, ok := s.contents.Get(id); ok {
			return content, nil
		}
	}
	getCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	content, err := s.store.Get(getCtx, id)
	if err != nil {
		return "", err
	}
	if s.contents != nil {
		s.contents.Put(id, content)
	}
	return content, nil
}

func (s *Service) countError(op string) {
	if s.metrics != nil {
		s.metrics.RecordStorageError(op)
	}
}

// dateKey returns the YYYY-MM-DD prefix of a record id. Lexicographic
// order on these keys matches date order for the zero-padded layout.
func dateKey(id string) string {
	if len(id) < len(dateLayout) {
		return id
	}
	return id[:len(dateLayout)]
}
