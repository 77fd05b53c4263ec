package models

// Annotation is the per-vehicle overlay state for one frame.
type Annotation struct {
	TrackID   int     `json:"track_id"`
	BBox      BBox    `json:"bbox"`
	Label     string  `json:"label"`
	Speed     float64 `json:"speed"`
	Status    string  `json:"status"`
	Violating bool    `json:"violating"`
	Head      *BBox   `json:"head,omitempty"`
	Helmet    string  `json:"helmet,omitempty"`
}

// Scene is everything drawn on a live frame.
type Scene struct {
	CameraID    string       `json:"camera_id"`
	DividerX    int          `json:"divider_x"`
	Lane1Limit  float64      `json:"lane1_limit"`
	Lane2Limit  float64      `json:"lane2_limit"`
	StopLineY   int          `json:"stop_line_y"`
	Phase       string       `json:"phase"`
	Fresh       bool         `json:"fresh"`
	Annotations []Annotation `json:"annotations"`
	AvgSpeed    float64      `json:"avg_speed"`
}
