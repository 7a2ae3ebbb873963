package provider

import (
	"context"
	"encoding/base64"
	"net/http"
)

// Kind is one of the supported generation operations.
type Kind string

const (
	KindTextToImage  Kind = "text-to-image"
	KindImageToImage Kind = "image-to-image"
	KindFaceCloning  Kind = "face-cloning"
	KindEditFace     Kind = "edit-face"
	KindEditObjects  Kind = "edit-objects"
)

// Kinds lists every supported operation kind.
var Kinds = []Kind{KindTextToImage, KindImageToImage, KindFaceCloning, KindEditFace, KindEditObjects}

// Valid reports whether k is a supported operation kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Image is an already decoded source image.
type Image struct {
	Data     []byte
	MimeType string
}

// Empty reports whether the image carries no bytes.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// ContentType returns the declared MIME type or sniffs one from the bytes.
func (i Image) ContentType() string {
	if i.MimeType != "" {
		return i.MimeType
	}
	return http.DetectContentType(i.Data)
}

// DataURI encodes the image as a data: URI.
func (i Image) DataURI() string {
	return "data:" + i.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Operation is the normalized request handed to an Adapter.
// Prompt is the text actually submitted, after enhancement or clause building.
type Operation struct {
	Kind     Kind
	Model    string
	Prompt   string
	Size     string
	Width    int
	Height   int
	Image    *Image
	Strength float64
}

// Adapter submits one operation to a concrete provider and returns the artifact URL.
type Adapter interface {
	Name() string
	Submit(ctx context.Context, op Operation) (string, error)
}
