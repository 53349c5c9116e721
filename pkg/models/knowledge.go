package models

// KnowledgeBaseEntry is a chunk of reference text available to AI nodes via
// the kb placeholder namespace.
type KnowledgeBaseEntry struct {
	ID      string   `json:"id"`
	Title   string   `json:"title" validate:"required,min=1"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// MediaAsset is a binary asset referenced from templates via [[MEDIA:id]]
// and grouped into folders referenced via [[FOLDER:name]].
type MediaAsset struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,min=1"`
	Folder   string `json:"folder,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	URL      string `json:"url" validate:"required,url"`
}
