package services

import (
	"testing"
	"time"
)

func day(d int, hour int) time.Time {
	return time.Date(2025, 3, d, hour, 30, 0, 0, time.UTC)
}

func TestBucketByDayZeroFillsEmptyDays(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	series := BucketByDay(nil, start, 7)

	if len(series) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(series))
	}
	for i, b := range series {
		if b.Count != 0 {
			t.Errorf("bucket %d: expected zero count, got %d", i, b.Count)
		}
	}
	if series[0].Date != "2025-03-01" {
		t.Errorf("first bucket date = %q", series[0].Date)
	}
	if series[6].Date != "2025-03-07" {
		t.Errorf("last bucket date = %q", series[6].Date)
	}
}

func TestBucketByDayCountsPerDay(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		day(1, 0), day(1, 23),
		day(3, 12),
		day(7, 9), day(7, 10), day(7, 11),
	}

	series := BucketByDay(times, start, 7)

	want := []int64{2, 0, 1, 0, 0, 0, 3}
	for i, n := range want {
		if series[i].Count != n {
			t.Errorf("bucket %d (%s): got %d, want %d", i, series[i].Date, series[i].Count, n)
		}
	}
}

func TestBucketByDayIgnoresOutOfRange(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC), // before the window
		time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),   // after the window
		day(4, 8),
	}

	series := BucketByDay(times, start, 7)

	var total int64
	for _, b := range series {
		total += b.Count
	}
	if total != 1 {
		t.Errorf("expected exactly 1 counted timestamp, got %d", total)
	}
	if series[3].Count != 1 {
		t.Errorf("expected the in-range timestamp in bucket 3, got %d", series[3].Count)
	}
}

func TestBucketByDayNormalizesStartToMidnight(t *testing.T) {
	start := time.Date(2025, 3, 1, 15, 45, 0, 0, time.UTC)

	series := BucketByDay([]time.Time{day(1, 10)}, start, 2)

	if series[0].Date != "2025-03-01" {
		t.Errorf("start was not truncated to midnight: %q", series[0].Date)
	}
	if series[0].Count != 1 {
		t.Errorf("expected morning timestamp in first bucket, got %d", series[0].Count)
	}
}
