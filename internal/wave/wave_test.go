package wave

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sampleBundle = `{
	"robotAddress": "forceautomaton@appspot.com",
	"wavelet": {"waveId": "example.com!w+abc", "waveletId": "example.com!conv+root", "rootBlipId": "b+1", "title": "Pipeline"},
	"blips": {
		"b+1": {"blipId": "b+1", "content": "Account Acme Corp", "creator": "avery@example.com"}
	},
	"events": [
		{"type": "WAVELET_SELF_ADDED", "modifiedBy": "avery@example.com", "timestamp": 1700000000000},
		{"type": "BLIP_SUBMITTED", "modifiedBy": "avery@example.com", "timestamp": 1700000000001, "properties": {"blipId": "b+1"}}
	]
}`

func TestDecodeBundle(t *testing.T) {
	bundle, err := Decode(strings.NewReader(sampleBundle))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if bundle.Wavelet.WaveletID != "example.com!conv+root" {
		t.Fatalf("unexpected wavelet: %+v", bundle.Wavelet)
	}
	if len(bundle.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(bundle.Events))
	}
	if bundle.Events[1].Type != EventBlipSubmitted || bundle.Events[1].Properties.BlipID != "b+1" {
		t.Fatalf("unexpected event: %+v", bundle.Events[1])
	}
	if !bundle.WasSelfAdded() {
		t.Fatal("expected WasSelfAdded")
	}
	blip, ok := bundle.Blip("b+1")
	if !ok || blip.Content != "Account Acme Corp" {
		t.Fatalf("unexpected blip: %+v ok=%v", blip, ok)
	}
	if _, ok := bundle.Blip("b+2"); ok {
		t.Fatal("expected missing blip")
	}
}

func TestDecodeRejectsInvalidBundles(t *testing.T) {
	for _, body := range []string{`{"wavelet":`, `{"events":[]}`, `[]`} {
		_, err := Decode(strings.NewReader(body))
		if !errors.Is(err, ErrInvalidBundle) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidBundle", body, err)
		}
	}
}

func TestWasSelfAddedFalse(t *testing.T) {
	bundle := Bundle{Events: []Event{{Type: EventBlipSubmitted}}}
	if bundle.WasSelfAdded() {
		t.Fatal("expected WasSelfAdded to be false")
	}
}

func TestOperationsRecordsInOrder(t *testing.T) {
	ops := NewOperations(Wavelet{WaveID: "w+1", WaveletID: "conv+root"})

	greeting := ops.AppendBlip()
	greeting.Append("hello")
	reply := ops.CreateChild("b+1")
	reply.Append("line 1\n")
	reply.Append("line 2\n")

	if greeting.blipID != "TBD_conv+root_1" || reply.blipID != "TBD_conv+root_2" {
		t.Fatalf("unexpected blip ids %q %q", greeting.blipID, reply.blipID)
	}
	if reply.Text() != "line 1\nline 2\n" {
		t.Fatalf("unexpected reply text %q", reply.Text())
	}

	list := ops.List()
	wantMethods := []string{MethodAppendBlip, MethodDocumentAppend, MethodCreateChild, MethodDocumentAppend, MethodDocumentAppend}
	if len(list) != len(wantMethods) {
		t.Fatalf("expected %d operations, got %d", len(wantMethods), len(list))
	}
	for i, op := range list {
		if op.Method != wantMethods[i] {
			t.Errorf("op %d: expected %s, got %s", i, wantMethods[i], op.Method)
		}
		if op.Params.WaveID != "w+1" || op.Params.WaveletID != "conv+root" {
			t.Errorf("op %d: missing wavelet params: %+v", i, op.Params)
		}
	}
	if list[0].ID != "op1" || list[4].ID != "op5" {
		t.Errorf("unexpected operation ids %q %q", list[0].ID, list[4].ID)
	}
	if list[2].Params.BlipID != "b+1" || list[2].Params.BlipData.BlipID != reply.blipID {
		t.Errorf("unexpected createChild params: %+v", list[2].Params)
	}

	doc, ok := ops.Document(reply.blipID)
	if !ok || doc != reply {
		t.Fatal("expected Document to return the reply document")
	}
}

func TestOperationsJSON(t *testing.T) {
	ops := NewOperations(Wavelet{WaveID: "w+1", WaveletID: "conv+root"})
	ops.AppendBlip().Append("ForceAutomaton online!")

	raw, err := json.Marshal(ops.List())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	params := decoded[1]["params"].(map[string]any)
	if decoded[1]["method"] != "document.append" || params["content"] != "ForceAutomaton online!" {
		t.Fatalf("unexpected payload: %s", raw)
	}
}
