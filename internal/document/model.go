package document

// Sketch is the wire form of a sketch. Points are keyed by id and referenced
// from segments; the order of Segments is the order the solver sees.
type Sketch struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Version   int              `json:"version"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
	Points    map[string]Point `json:"points"`
	Segments  []Segment        `json:"segments"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SegmentType string

const (
	SegmentTypeLine SegmentType = "line"
	SegmentTypeArc  SegmentType = "arc"
)

type Segment struct {
	ID    string      `json:"id"`
	Type  SegmentType `json:"type"`
	Start string      `json:"start"`
	End   string      `json:"end"`
	// Transit is the point an arc passes through. Empty for lines.
	Transit string `json:"transit,omitempty"`
}

// Face is the wire form of a solved face.
type Face struct {
	Outer Ring    `json:"outer"`
	Holes []Ring  `json:"holes"`
	Area  float64 `json:"area"`
}

type Ring struct {
	Steps    []Step   `json:"steps"`
	Vertices []string `json:"vertices"`
	Area     float64  `json:"area"`
}

// Step is one segment of a ring in the direction it is walked.
type Step struct {
	Segment   int    `json:"segment"`
	SegmentID string `json:"segmentId,omitempty"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Forward   bool   `json:"forward"`
}

// NewEmptySketch creates an empty sketch for a new library entry
func NewEmptySketch(id, name string) *Sketch {
	return &Sketch{
		ID:        id,
		Name:      name,
		Version:   1,
		CreatedAt: "", // Will be set by caller
		UpdatedAt: "",
		Points:    map[string]Point{},
		Segments:  []Segment{},
	}
}

// Clone returns a deep copy of s.
func (s *Sketch) Clone() *Sketch {
	c := *s
	c.Points = make(map[string]Point, len(s.Points))
	for id, p := range s.Points {
		c.Points[id] = p
	}
	c.Segments = append([]Segment(nil), s.Segments...)
	return &c
}

// SegmentIndex returns the position of the segment with the given id, or -1.
func (s *Sketch) SegmentIndex(id string) int {
	for i, seg := range s.Segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}
