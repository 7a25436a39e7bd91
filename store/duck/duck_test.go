package duck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"

	nt "chanfilter/entity"
)

type nopLog struct{}

func (nopLog) Info(ctx context.Context, msg string, kv ...any)              {}
func (nopLog) Error(ctx context.Context, msg string, err error, kv ...any) {}

var records = []string{
	`{"id":"r1","metadata":{"timestamp":"2022-01-01T00:00:00","shotnum":1,"activeArea":"1","activeExperiment":"90097341"},"channels":{"CHANNEL_A":{"metadata":{"channel_dtype":"scalar"},"data":1.5},"NOTES":{"metadata":{"channel_dtype":"text"},"data":"beam a.b ok"}}}`,
	`{"id":"r2","metadata":{"timestamp":"2022-01-02T00:00:00","shotnum":2,"activeArea":"2"},"channels":{"CHANNEL_A":{"metadata":{"channel_dtype":"scalar"},"data":3},"CAMERA":{"metadata":{"channel_dtype":"image"},"thumbnail":"abc"}}}`,
	`{"id":"r3","metadata":{"timestamp":"2022-01-03T00:00:00","shotnum":3},"channels":{"NOTES":{"metadata":{"channel_dtype":"text"},"data":"axb"}}}`,
}

func load(t *testing.T) *Duck {
	t.Helper()

	path := filepath.Join(t.TempDir(), "records.ndjson")
	err := os.WriteFile(path, []byte(strings.Join(records, "\n")+"\n"), 0644)
	if err != nil {
		t.Fatalf("failed to write records: %v", err)
	}

	dk, err := New(nopLog{})
	if err != nil {
		t.Fatalf("failed to open duck: %v", err)
	}
	t.Cleanup(dk.Close)

	err = dk.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	return dk
}

func TestCount(t *testing.T) {

	dk := load(t)

	tests := []struct {
		name string
		cond nt.Condition
		want int
	}{
		{
			name: "no condition",
			cond: nil,
			want: 3,
		},
		{
			name: "metadata null",
			cond: nt.NullCheck{Field: "metadata.activeArea", IsNull: true},
			want: 1,
		},
		{
			name: "channel not null",
			cond: nt.NullCheck{Field: "channels.CHANNEL_A.data", IsNull: false},
			want: 2,
		},
		{
			name: "numeric channel",
			cond: nt.ComparisonNode{Field: "channels.CHANNEL_A.data", Op: nt.Gt, Value: 2.0},
			want: 1,
		},
		{
			name: "shot number",
			cond: nt.ComparisonNode{Field: "metadata.shotnum", Op: nt.Lte, Value: 2.0},
			want: 2,
		},
		{
			name: "text equality",
			cond: nt.ComparisonNode{Field: "metadata.activeArea", Op: nt.Eq, Value: "2"},
			want: 1,
		},
		{
			name: "not equal keeps nulls",
			cond: nt.ComparisonNode{Field: "metadata.activeArea", Op: nt.Ne, Value: "2"},
			want: 2,
		},
		{
			name: "escaped regex",
			cond: nt.ComparisonNode{Field: "channels.NOTES.data", Op: nt.Regex, Value: `a\.b`},
			want: 1,
		},
		{
			name: "timestamp range",
			cond: nt.And{Children: []nt.Condition{
				nt.ComparisonNode{Field: "metadata.timestamp", Op: nt.Gt, Value: "2022-01-01 12:00:00"},
				nt.ComparisonNode{Field: "metadata.timestamp", Op: nt.Lt, Value: "2022-01-04 00:00:00"},
			}},
			want: 2,
		},
		{
			name: "or",
			cond: nt.Or{Children: []nt.Condition{
				nt.NullCheck{Field: "metadata.activeArea", IsNull: true},
				nt.ComparisonNode{Field: "channels.CHANNEL_A.data", Op: nt.Eq, Value: 1.5},
			}},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dk.Count(context.Background(), tt.cond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCountUnsupported(t *testing.T) {

	dk := load(t)

	conds := []nt.Condition{
		nt.NullCheck{Field: "metadata.other", IsNull: true},
		nt.And{},
		nt.ComparisonNode{Field: "metadata.shotnum", Op: "$near", Value: 1.0},
		nt.ComparisonNode{Field: "metadata.shotnum", Op: nt.Eq, Value: []int{1}},
	}

	for _, cond := range conds {
		_, err := dk.Count(context.Background(), cond)
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("%#v: expected unsupported, got %v", cond, err)
		}
	}
}

func TestPage(t *testing.T) {

	dk := load(t)
	ctx := context.Background()

	recs, err := dk.Page(ctx, nil, []nt.Sort{{Field: "shotnum", Desc: true}}, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0].Id != "r3" || recs[1].Id != "r2" {
		t.Fatalf("unexpected page %+v", recs)
	}
	if got := recs[1].Get("activeArea").String(); got != "2" {
		t.Errorf("expected active area 2, got %q", got)
	}
	if got, _ := recs[1].Get("CHANNEL_A").Float(); got != 3 {
		t.Errorf("expected channel value 3, got %v", got)
	}

	cond := nt.NullCheck{Field: "channels.CHANNEL_A.data", IsNull: false}
	recs, err = dk.Page(ctx, cond, []nt.Sort{{Field: "CHANNEL_A"}}, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Id != "r2" {
		t.Errorf("unexpected page %+v", recs)
	}
}

func TestChannels(t *testing.T) {

	dk := load(t)

	got, err := dk.Channels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []nt.ChannelInfo{
		{SystemName: "CHANNEL_A", DataType: nt.Scalar},
		{SystemName: "NOTES", DataType: nt.Text},
		{SystemName: "CAMERA", DataType: nt.Image},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("channel %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestOrderBy(t *testing.T) {

	got := orderBy([]nt.Sort{{Field: "timestamp", Desc: true}})
	if got != `"timestamp" DESC, id ASC` {
		t.Errorf("unexpected order %q", got)
	}
	if got := orderBy(nil); got != "id ASC" {
		t.Errorf("unexpected order %q", got)
	}
}
