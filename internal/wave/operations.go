package wave

import (
	"fmt"
	"strings"
)

const (
	MethodAppendBlip     = "wavelet.appendBlip"
	MethodCreateChild    = "blip.createChild"
	MethodDocumentAppend = "document.append"
)

type BlipData struct {
	BlipID  string `json:"blipId"`
	Content string `json:"content"`
}

type OperationParams struct {
	WaveID    string    `json:"waveId"`
	WaveletID string    `json:"waveletId"`
	BlipID    string    `json:"blipId,omitempty"`
	BlipData  *BlipData `json:"blipData,omitempty"`
	Content   string    `json:"content,omitempty"`
}

// Operation is one document mutation returned to the host.
type Operation struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params OperationParams `json:"params"`
}

// Operations records the mutations the robot makes to one wavelet. It is not
// safe for concurrent use.
type Operations struct {
	wavelet Wavelet
	ops     []Operation
	blips   int
	docs    map[string]*Document
}

func NewOperations(wavelet Wavelet) *Operations {
	return &Operations{wavelet: wavelet, docs: make(map[string]*Document)}
}

// AppendBlip adds a new blip at the end of the wavelet.
func (o *Operations) AppendBlip() *Document {
	doc := o.newDocument()
	o.add(MethodAppendBlip, OperationParams{BlipData: &BlipData{BlipID: doc.blipID}})
	return doc
}

// CreateChild adds a new blip replying to parentID.
func (o *Operations) CreateChild(parentID string) *Document {
	doc := o.newDocument()
	o.add(MethodCreateChild, OperationParams{BlipID: parentID, BlipData: &BlipData{BlipID: doc.blipID}})
	return doc
}

// List returns the recorded operations in order.
func (o *Operations) List() []Operation {
	out := make([]Operation, len(o.ops))
	copy(out, o.ops)
	return out
}

// Document returns the document of a blip created through o.
func (o *Operations) Document(blipID string) (*Document, bool) {
	doc, ok := o.docs[blipID]
	return doc, ok
}

func (o *Operations) newDocument() *Document {
	o.blips++
	doc := &Document{ops: o, blipID: fmt.Sprintf("TBD_%s_%d", o.wavelet.WaveletID, o.blips)}
	o.docs[doc.blipID] = doc
	return doc
}

func (o *Operations) add(method string, params OperationParams) {
	params.WaveID = o.wavelet.WaveID
	params.WaveletID = o.wavelet.WaveletID
	o.ops = append(o.ops, Operation{
		ID:     fmt.Sprintf("op%d", len(o.ops)+1),
		Method: method,
		Params: params,
	})
}

// Document is the text of a blip the robot is writing to.
type Document struct {
	ops    *Operations
	blipID string
	text   strings.Builder
}

// Append adds text at the end of the document.
func (d *Document) Append(text string) {
	d.text.WriteString(text)
	d.ops.add(MethodDocumentAppend, OperationParams{BlipID: d.blipID, Content: text})
}

// Text returns everything appended so far.
func (d *Document) Text() string {
	return d.text.String()
}
