package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/model"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testRequest() model.Request {
	return model.Request{
		Metric:   model.MetricCPU,
		TimeUnit: model.UnitMinutes,
		Start:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCache_SaveGetRoundTrip(t *testing.T) {
	c := testCache(t)

	saved := []model.UsageRecord{
		{Login: "zoe", Account: "research", Used: 120},
		{Login: "amir", Account: "research", Used: 30.5},
		{Login: "zoe", Account: "courses", Used: 7},
	}
	if err := c.SaveReport("k1", saved); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, ok, err := c.GetReport("k1")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if !ok {
		t.Fatal("GetReport() ok = false, want true")
	}
	if len(got) != len(saved) {
		t.Fatalf("GetReport() returned %d records, want %d", len(got), len(saved))
	}
	for i := range saved {
		if got[i] != saved[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], saved[i])
		}
	}
}

func TestCache_GetMissingKey(t *testing.T) {
	c := testCache(t)

	records, ok, err := c.GetReport("never-saved")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if ok {
		t.Error("GetReport() ok = true, want false")
	}
	if records != nil {
		t.Errorf("GetReport() = %v, want nil", records)
	}
}

func TestCache_SaveReplacesPreviousRows(t *testing.T) {
	c := testCache(t)

	first := []model.UsageRecord{
		{Login: "a", Account: "x", Used: 1},
		{Login: "b", Account: "x", Used: 2},
		{Login: "c", Account: "x", Used: 3},
	}
	if err := c.SaveReport("k1", first); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	second := []model.UsageRecord{{Login: "d", Account: "y", Used: 4}}
	if err := c.SaveReport("k1", second); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, ok, err := c.GetReport("k1")
	if err != nil || !ok {
		t.Fatalf("GetReport() = %v, %v, %v", got, ok, err)
	}
	if len(got) != 1 || got[0] != second[0] {
		t.Errorf("GetReport() = %+v, want %+v", got, second)
	}
}

type fakeFetcher struct {
	records []model.UsageRecord
	err     error
	calls   int
}

func (f *fakeFetcher) Usage(_ context.Context, _ model.Request) ([]model.UsageRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func cachingSource(fetcher *fakeFetcher, c *Cache, now time.Time) *CachingSource {
	return &CachingSource{
		next:  fetcher,
		cache: c,
		now:   func() time.Time { return now },
		log:   zerolog.Nop(),
	}
}

func TestCachingSource_SecondCallServedFromCache(t *testing.T) {
	c := testCache(t)
	fetcher := &fakeFetcher{records: []model.UsageRecord{{Login: "zoe", Account: "research", Used: 42}}}
	src := cachingSource(fetcher, c, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	req := testRequest()

	for i := 0; i < 2; i++ {
		got, err := src.Usage(context.Background(), req)
		if err != nil {
			t.Fatalf("Usage() call %d error = %v", i+1, err)
		}
		if len(got) != 1 || got[0] != fetcher.records[0] {
			t.Fatalf("Usage() call %d = %+v, want %+v", i+1, got, fetcher.records)
		}
	}

	if fetcher.calls != 1 {
		t.Errorf("source fetched %d times, want 1", fetcher.calls)
	}
}

func TestCachingSource_OpenPeriodBypassesCache(t *testing.T) {
	c := testCache(t)
	fetcher := &fakeFetcher{records: []model.UsageRecord{{Login: "zoe", Account: "research", Used: 42}}}
	src := cachingSource(fetcher, c, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))
	req := testRequest() // ends 2023-02-01, after the fixed clock

	for i := 0; i < 2; i++ {
		if _, err := src.Usage(context.Background(), req); err != nil {
			t.Fatalf("Usage() call %d error = %v", i+1, err)
		}
	}

	if fetcher.calls != 2 {
		t.Errorf("source fetched %d times, want 2", fetcher.calls)
	}
	n, err := c.ReportCount()
	if err != nil {
		t.Fatalf("ReportCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("ReportCount() = %d, want 0", n)
	}
}

func TestCachingSource_FetchErrorPropagates(t *testing.T) {
	c := testCache(t)
	fetchErr := errors.New("sreport unavailable")
	fetcher := &fakeFetcher{err: fetchErr}
	src := cachingSource(fetcher, c, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	_, err := src.Usage(context.Background(), testRequest())
	if !errors.Is(err, fetchErr) {
		t.Errorf("Usage() error = %v, want %v", err, fetchErr)
	}
	n, _ := c.ReportCount()
	if n != 0 {
		t.Errorf("ReportCount() = %d, want 0", n)
	}
}
