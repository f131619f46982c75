package model

// PaperExport is the top-level structure for the structured-blob export of a
// generated paper. Re-reading the blob must reproduce the question list.
type PaperExport struct {
	ExamTitle   string          `json:"exam_title"`
	Subject     string          `json:"subject"`
	TotalMarks  int             `json:"total_marks"`
	Duration    int             `json:"duration"`
	GeneratedAt string          `json:"generated_at"`
	Questions   []Question      `json:"questions"`
	Analytics   *PaperAnalytics `json:"analytics,omitempty"`
}

// PaperMeta is the header information shared by all export formats.
type PaperMeta struct {
	ExamTitle   string `json:"exam_title"`
	Subject     string `json:"subject"`
	TotalMarks  int    `json:"total_marks"`
	Duration    int    `json:"duration"`
	GeneratedAt string `json:"generated_at"`
}
