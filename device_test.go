package error2d

import (
	"errors"
	"slices"
)

// recordingDevice is a Device that keeps buffer contents in memory and
// records every call.
type recordingDevice struct {
	width, height int
	ratio         float64

	nextID   uint64
	buffers  map[BufferID][]byte
	labels   map[BufferID]string
	programs map[ProgramID]*ProgramDesc

	creates  []string
	writes   []string
	destroys []BufferID
	draws    []DrawCommand

	failDraw  error
	failWrite error
}

func newRecordingDevice(width, height int) *recordingDevice {
	return &recordingDevice{
		width:    width,
		height:   height,
		ratio:    1,
		buffers:  make(map[BufferID][]byte),
		labels:   make(map[BufferID]string),
		programs: make(map[ProgramID]*ProgramDesc),
	}
}

func (d *recordingDevice) CreateBuffer(label string, size int) (BufferID, error) {
	d.nextID++
	id := BufferID(d.nextID)
	d.buffers[id] = make([]byte, size)
	d.labels[id] = label
	d.creates = append(d.creates, label)
	return id, nil
}

func (d *recordingDevice) WriteBuffer(id BufferID, data []byte) error {
	if d.failWrite != nil {
		return d.failWrite
	}
	buf, ok := d.buffers[id]
	if !ok {
		return errors.New("unknown buffer")
	}
	if len(data) > len(buf) {
		return errors.New("write exceeds buffer size")
	}
	copy(buf, data)
	d.writes = append(d.writes, d.labels[id])
	return nil
}

func (d *recordingDevice) DestroyBuffer(id BufferID) {
	delete(d.buffers, id)
	d.destroys = append(d.destroys, id)
}

func (d *recordingDevice) CreateProgram(desc *ProgramDesc) (ProgramID, error) {
	d.nextID++
	id := ProgramID(d.nextID)
	d.programs[id] = desc
	return id, nil
}

func (d *recordingDevice) DestroyProgram(id ProgramID) {
	delete(d.programs, id)
}

func (d *recordingDevice) Draw(cmd *DrawCommand) error {
	if d.failDraw != nil {
		return d.failDraw
	}
	c := *cmd
	d.draws = append(d.draws, c)
	return nil
}

func (d *recordingDevice) TargetSize() (int, int) { return d.width, d.height }

func (d *recordingDevice) PixelRatio() float64 { return d.ratio }

// writeCount returns how many writes went to buffers with the label.
func (d *recordingDevice) writeCount(label string) int {
	n := 0
	for _, l := range d.writes {
		if l == label {
			n++
		}
	}
	return n
}

// floats decodes the current contents of a buffer.
func (d *recordingDevice) floats(id BufferID) []float32 {
	return Float32s(d.buffers[id])
}

func (d *recordingDevice) lastDraw() DrawCommand {
	return d.draws[len(d.draws)-1]
}

func (d *recordingDevice) liveBuffers() []string {
	var out []string
	for id := range d.buffers {
		out = append(out, d.labels[id])
	}
	slices.Sort(out)
	return out
}
