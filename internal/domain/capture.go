package domain

type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
)

// Capture is one finished recording from the widget. It is read-only once
// built and is consumed by a single pipeline run.
type Capture struct {
	Data   []byte
	Format AudioFormat
}

func NewCapture(data []byte) *Capture {
	return &Capture{Data: data, Format: FormatWAV}
}

func (c *Capture) Empty() bool {
	return c == nil || len(c.Data) == 0
}
