package model

import "fmt"

// ImageFailurePolicy decides what an image insertion failure does to a batch
type ImageFailurePolicy string

const (
	// ImageFailureSkip records the failure and continues with the batch
	ImageFailureSkip ImageFailurePolicy = "skip"
	// ImageFailureAbort fails the whole batch
	ImageFailureAbort ImageFailurePolicy = "abort"
)

// ParseImageFailurePolicy converts a flag value into a policy
func ParseImageFailurePolicy(s string) (ImageFailurePolicy, error) {
	switch p := ImageFailurePolicy(s); p {
	case ImageFailureSkip, ImageFailureAbort:
		return p, nil
	default:
		return "", fmt.Errorf("unknown image failure policy %q (want skip or abort)", s)
	}
}

// ImageFailure is an image that could not be inserted
type ImageFailure struct {
	Index int    `json:"index"` // Position of the descriptor in the batch
	Error string `json:"error"`
}

// ReconstructResult summarizes one reconstruction batch
type ReconstructResult struct {
	BatchID       string         `json:"batch_id"`
	Created       []string       `json:"created"` // Display names in creation order, images as "image"
	ImageFailures []ImageFailure `json:"image_failures,omitempty"`
}

// DisplayName returns the element name a descriptor is given on the canvas.
// Images are unnamed and return "".
func DisplayName(d ShapeDescriptor) string {
	switch v := d.(type) {
	case *TextDescriptor:
		return fmt.Sprintf("TextBox_%d", v.ID)
	case *GeometricDescriptor:
		return fmt.Sprintf("Shape_%d", v.ID)
	case *LineDescriptor:
		return fmt.Sprintf("Line_%d", v.ID)
	default:
		return ""
	}
}
