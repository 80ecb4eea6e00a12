package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

const (
	header   = "batch,start,end,records,pass,message\n"
	batchA   = "ABCDEFGHIJKLMNOPQRST"
	batchB   = "UVWXYZABCDEFGHIJKLMN"
	goodTail = ",2020-01-04T13:04:05,2020-01-04T14:04:05,120,true,ok\n"
)

// fakeSource serves a fixed payload with a fixed content type.
type fakeSource struct {
	contentType string
	data        string
	opens       int
}

func (s *fakeSource) ContentType() string { return s.contentType }

func (s *fakeSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opens++
	return io.NopCloser(strings.NewReader(s.data)), nil
}

// spySink records every InsertMany call and can fail on demand.
type spySink struct {
	chunks  [][][]any
	columns []string
	failOn  int // 1-based call number to fail on, 0 means never
	calls   int
}

func (s *spySink) InsertMany(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	s.calls++
	if s.failOn != 0 && s.calls == s.failOn {
		return 0, errors.New("sink unavailable")
	}
	s.columns = columns
	chunk := make([][]any, len(rows))
	copy(chunk, rows)
	s.chunks = append(s.chunks, chunk)
	return int64(len(rows)), nil
}

func validRow(batch string) string { return batch + goodTail }

func TestProcessRecordsDropsInvalidRows(t *testing.T) {
	src := &fakeSource{
		contentType: "text/csv",
		data: header +
			validRow(batchA) +
			"short,2020-01-04T13:04:05,2020-01-04T14:04:05,120,true,ok\n" + // batch too short
			validRow(batchB),
	}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}
	want := []string{"batch", "start", "end", "records", "pass", "message"}
	if fmt.Sprint(sink.columns) != fmt.Sprint(want) {
		t.Errorf("columns = %v, want %v", sink.columns, want)
	}
	if len(sink.chunks) != 1 || len(sink.chunks[0]) != 2 {
		t.Fatalf("chunks = %v", sink.chunks)
	}
	if sink.chunks[0][0][0] != batchA || sink.chunks[0][1][0] != batchB {
		t.Errorf("row order not preserved: %v", sink.chunks[0])
	}
}

func TestProcessRecordsAllInvalid(t *testing.T) {
	src := &fakeSource{
		contentType: "text/csv",
		data: header +
			"x,y,z,nan,maybe,\n" +
			",,,,,\n",
	}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0", n)
	}
	if sink.calls != 0 {
		t.Errorf("sink called %d times for all-invalid input", sink.calls)
	}
}

func TestProcessRecordsMissingColumn(t *testing.T) {
	// The header lacks the message column, so every row is missing a value.
	src := &fakeSource{
		contentType: "text/csv",
		data: "batch,start,end,records,pass\n" +
			batchA + ",2020-01-04T13:04:05,2020-01-04T14:04:05,120,true\n" +
			batchB + ",2020-02-04T13:04:05,2020-02-04T14:04:05,7,false\n",
	}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 0 || sink.calls != 0 {
		t.Errorf("missing-column file: n=%d calls=%d, want zero inserts", n, sink.calls)
	}
}

func TestProcessRecordsSkipsNonCSV(t *testing.T) {
	src := &fakeSource{contentType: "image/png", data: "not a csv"}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 0 || sink.calls != 0 || src.opens != 0 {
		t.Errorf("non-csv source touched: n=%d calls=%d opens=%d", n, sink.calls, src.opens)
	}
}

func TestProcessRecordsContentTypeParameters(t *testing.T) {
	src := &fakeSource{
		contentType: "Text/CSV; charset=utf-8",
		data:        header + validRow(batchA),
	}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1; parameters and case must not defeat the gate", n)
	}
}

func TestProcessRecordsChunking(t *testing.T) {
	batches := []string{
		"AAAAAAAAAAAAAAAAAAAA",
		"BBBBBBBBBBBBBBBBBBBB",
		"CCCCCCCCCCCCCCCCCCCC",
		"DDDDDDDDDDDDDDDDDDDD",
		"EEEEEEEEEEEEEEEEEEEE",
	}
	var b strings.Builder
	b.WriteString(header)
	for _, batch := range batches {
		b.WriteString(validRow(batch))
	}
	src := &fakeSource{contentType: "text/csv", data: b.String()}
	sink := &spySink{}

	n, err := New(Config{BatchSize: 2}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 5 {
		t.Fatalf("inserted = %d, want 5", n)
	}
	sizes := make([]int, len(sink.chunks))
	var got []string
	for i, c := range sink.chunks {
		sizes[i] = len(c)
		for _, row := range c {
			got = append(got, row[0].(string))
		}
	}
	if fmt.Sprint(sizes) != "[2 2 1]" {
		t.Errorf("chunk sizes = %v, want [2 2 1]", sizes)
	}
	if fmt.Sprint(got) != fmt.Sprint(batches) {
		t.Errorf("row order across chunks = %v", got)
	}
}

func TestProcessRecordsDropsMalformedRow(t *testing.T) {
	src := &fakeSource{
		contentType: "text/csv",
		data: header +
			validRow(batchA) +
			"bad\"quote,2020-01-04T13:04:05,2020-01-04T14:04:05,1,true,ok\n" +
			validRow(batchB),
	}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("malformed row must not fail the run: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
}

func TestProcessRecordsSinkError(t *testing.T) {
	src := &fakeSource{
		contentType: "text/csv",
		data:        header + validRow(batchA) + validRow(batchB),
	}
	sink := &spySink{failOn: 1}

	n, err := New(Config{BatchSize: 1}).ProcessRecords(context.Background(), src, sink)
	if err == nil {
		t.Fatal("expected sink error to propagate")
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0", n)
	}
}

func TestProcessRecordsEmptyFile(t *testing.T) {
	src := &fakeSource{contentType: "text/csv", data: ""}
	sink := &spySink{}

	n, err := New(Config{}).ProcessRecords(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if n != 0 || sink.calls != 0 {
		t.Errorf("empty file: n=%d calls=%d", n, sink.calls)
	}
}
