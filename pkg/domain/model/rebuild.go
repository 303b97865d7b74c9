package model

// PackageExtension is the only accepted package file suffix
const PackageExtension = ".pptx"

// RebuildInput is one reconstruction request
type RebuildInput struct {
	Name       string // File name as supplied by the user
	Data       []byte `masq:"secret"`
	SlideIndex int    // 0 selects the first slide in lexical order
}

// RebuildResult is the outcome of a reconstruction request. A rejected
// request never touched the package contents.
type RebuildResult struct {
	Rejected    bool               `json:"rejected"`
	Reason      string             `json:"reason,omitempty"`
	SlideName   string             `json:"slide,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Descriptors int                `json:"descriptors"`
	Reconstruct *ReconstructResult `json:"reconstruct,omitempty"`
}
