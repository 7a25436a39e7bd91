package detail

import (
	"strings"
	"testing"

	nt "chanfilter/entity"
)

func TestRender(t *testing.T) {

	channels := []nt.ChannelInfo{
		{SystemName: nt.ShotnumField, Label: "Shot Number", DataType: nt.Scalar},
		{SystemName: "NOTES", DataType: nt.Text},
		{SystemName: "CAMERA", DataType: nt.Image},
		{SystemName: "CHANNEL_B", DataType: nt.Scalar},
	}

	rec := nt.Record{
		Id:       "r1",
		Metadata: map[string]nt.Value{nt.ShotnumField: {Raw: float64(42)}},
		Channels: map[string]nt.Value{
			"NOTES":  {Raw: "all good"},
			"CAMERA": {Raw: map[string]any{"thumbnail": "abc"}},
		},
	}

	pnl := NewDetailPanel(channels)
	if !strings.Contains(pnl.Render(), "no record selected") {
		t.Fatalf("expected placeholder, got %q", pnl.Render())
	}

	mdl, _ := pnl.Update(RecordMsg{Record: rec})
	out := mdl.(DetailPanel).Render()

	for _, want := range []string{"record r1", "Shot Number", "42", "NOTES", "all good", `"thumbnail": "abc"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CHANNEL_B") {
		t.Errorf("expected channel without data to be skipped:\n%s", out)
	}
}

func TestScroll(t *testing.T) {

	channels := []nt.ChannelInfo{
		{SystemName: "CAMERA", DataType: nt.Image},
	}
	rec := nt.Record{
		Id: "r1",
		Channels: map[string]nt.Value{
			"CAMERA": {Raw: map[string]any{"a": 1.0, "b": 2.0, "c": 3.0}},
		},
	}

	pnl := NewDetailPanel(channels)
	mdl, _ := pnl.Update(SizeMsg{Width: 40, Height: 2})
	mdl, _ = mdl.(DetailPanel).Update(RecordMsg{Record: rec})
	pnl = mdl.(DetailPanel)

	first := pnl.Render()
	if strings.Count(first, "\n") != 1 {
		t.Fatalf("expected two visible lines, got %q", first)
	}

	mdl, _ = pnl.HandleKey("down")
	pnl = mdl.(DetailPanel)
	if pnl.Render() == first {
		t.Error("expected scrolling down to move content")
	}

	mdl, _ = pnl.HandleKey("up")
	if mdl.(DetailPanel).Render() != first {
		t.Error("expected scrolling up to restore content")
	}
}
