package models

// Photo is a stored gallery image
type Photo struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// UploadFile is one member of an upload batch, held in memory for the
// duration of a request
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// GalleryEvent is pushed to websocket clients when the gallery changes
type GalleryEvent struct {
	Event   string `json:"event"`
	Count   int    `json:"count"`
	PhotoID int64  `json:"photo_id,omitempty"`
}
