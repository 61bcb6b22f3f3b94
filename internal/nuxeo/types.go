package nuxeo

// Document represents a Nuxeo document with its property map.
type Document struct {
	EntityType string         `json:"entity-type"`
	UID        string         `json:"uid"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Facets     []string       `json:"facets"`
	Properties map[string]any `json:"properties"`
}

// documentList is the response shape of Repository.Query and search endpoints.
type documentList struct {
	EntityType string     `json:"entity-type"`
	Entries    []Document `json:"entries"`
}

// Blob describes a binary attached to a document (file:content or a
// picture:views rendition).
type Blob struct {
	MimeType string
	Digest   string
	Name     string
}

// HasFacet reports whether the document carries the given facet.
func (d *Document) HasFacet(facet string) bool {
	for _, f := range d.Facets {
		if f == facet {
			return true
		}
	}
	return false
}

// blobFromMap extracts a Blob from a raw property map. Every field is
// optional; a blob without a digest is useless and treated as absent.
func blobFromMap(m map[string]any) *Blob {
	if m == nil {
		return nil
	}
	blob := &Blob{}
	if v, ok := m["mime-type"].(string); ok {
		blob.MimeType = v
	}
	if v, ok := m["digest"].(string); ok {
		blob.Digest = v
	}
	if v, ok := m["name"].(string); ok {
		blob.Name = v
	}
	if blob.Digest == "" {
		return nil
	}
	return blob
}

// Content returns the primary file:content blob, or nil when the document
// has no attached binary.
func (d *Document) Content() *Blob {
	m, ok := d.Properties["file:content"].(map[string]any)
	if !ok {
		return nil
	}
	return blobFromMap(m)
}

// View returns the picture:views rendition with the given title, or nil.
func (d *Document) View(title string) *Blob {
	views, ok := d.Properties["picture:views"].([]any)
	if !ok {
		return nil
	}
	for _, viewAny := range views {
		view, ok := viewAny.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := view["title"].(string); !ok || t != title {
			continue
		}
		if content, ok := view["content"].(map[string]any); ok {
			return blobFromMap(content)
		}
	}
	return nil
}
