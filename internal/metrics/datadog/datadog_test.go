package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
)

type sent struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	sent    []sent
	flushed bool
	closed  bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Distribution(name string, value float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"distribution", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error {
	f.flushed = true
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackendRequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend without Addr should fail")
	}
}

/*
TestStageEventsBecomeTaggedStatsd routes stage and run events through the
metrics package and checks counters become counts, durations become
distributions and labels become sorted tags.
*/
func TestStageEventsBecomeTaggedStatsd(t *testing.T) {
	f := &fakeClient{}
	prev := metrics.SetSink(&Backend{c: f})
	defer metrics.SetSink(prev)

	metrics.Stage("nightly", "status", "percentages", metrics.OutcomeOK, 250*time.Millisecond)
	metrics.Rows("nightly", "status_clean", 12)

	if len(f.sent) != 3 {
		t.Fatalf("sent = %+v", f.sent)
	}
	c := f.sent[0]
	wantTags := []string{"component:status", "job:nightly", "outcome:ok", "stage:percentages"}
	if c.kind != "count" || c.name != metrics.StageRuns || c.value != 1 || strings.Join(c.tags, ",") != strings.Join(wantTags, ",") {
		t.Fatalf("stage count = %+v", c)
	}
	if d := f.sent[1]; d.kind != "distribution" || d.name != metrics.StageSeconds || d.value != 0.25 {
		t.Fatalf("stage duration = %+v", d)
	}
	if r := f.sent[2]; r.value != 12 || strings.Join(r.tags, ",") != "job:nightly,table:status_clean" {
		t.Fatalf("rows = %+v", r)
	}

	if err := metrics.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !f.flushed || !f.closed {
		t.Fatalf("Flush should flush then close the client")
	}
}

func TestTagsDropEmptyValues(t *testing.T) {
	if got := tags(nil); got != nil {
		t.Fatalf("tags(nil) = %v; want nil", got)
	}
	got := tags(metrics.Labels{"table": "fact_parts", "format": ""})
	if len(got) != 1 || got[0] != "table:fact_parts" {
		t.Fatalf("tags = %v", got)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	b := &Backend{}
	b.Add(metrics.Runs, 1, metrics.Labels{"success": "true"})
	b.Observe(metrics.RunSeconds, 0.1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush on nil client = %v", err)
	}
}

/*
TestNewBackendNamespaceAndTags sends one count to a local UDP listener and
checks the datagram carries the namespace and the global tags.
*/
func TestNewBackendNamespaceAndTags(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listener unavailable: %v", err)
	}
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "etl.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.Add(metrics.Artifacts, 1, metrics.Labels{"format": "Parquet"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	buf := make([]byte, 4096)
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("no datagram received: %v", err)
	}
	msg := string(buf[:n])
	if !strings.Contains(msg, "etl."+metrics.Artifacts+":1|c") {
		t.Fatalf("datagram = %q", msg)
	}
	if !strings.Contains(msg, "env:test") || !strings.Contains(msg, "format:Parquet") {
		t.Fatalf("datagram tags = %q", msg)
	}
}
