package content

// Heading is a heading element with its level (1-6).
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link is an anchor element's visible text and destination.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image captures an image's alt text and source attribute.
type Image struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}

// Extraction is the structural content pulled from a single page.
type Extraction struct {
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	MetaDescription  string    `json:"meta_description,omitempty"`
	MetaKeywords     string    `json:"meta_keywords,omitempty"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	Headings         []Heading `json:"headings,omitempty"`
	Paragraphs       []string  `json:"paragraphs,omitempty"`
	Links            []Link    `json:"links,omitempty"`
	Buttons          []string  `json:"buttons,omitempty"`
	Images           []Image   `json:"images,omitempty"`
	RawText          string    `json:"raw_text,omitempty"`
}

// Empty reports whether the extraction yielded no usable content.
func (e *Extraction) Empty() bool {
	if e == nil {
		return true
	}
	return e.Title == "" &&
		len(e.Headings) == 0 &&
		len(e.Paragraphs) == 0 &&
		len(e.Buttons) == 0 &&
		len(e.Links) == 0
}

// Pair holds one aligned slot. A nil side means extraction produced nothing
// for that slot; an empty string is never synthesized.
type Pair struct {
	Source *string `json:"source,omitempty"`
	Target *string `json:"target,omitempty"`
}

// HeadingPair is a positional heading pairing tagged with its heading level.
type HeadingPair struct {
	Pair
	Level int `json:"level"`
	Index int `json:"index"`
}

// IndexedPair is a positional pairing within an ordered content class.
type IndexedPair struct {
	Pair
	Index int `json:"index"`
}

// ImagePair aligns image alt text, keeping the first known src for reference.
type ImagePair struct {
	SourceAlt *string `json:"source_alt,omitempty"`
	TargetAlt *string `json:"target_alt,omitempty"`
	Src       string  `json:"src,omitempty"`
	Index     int     `json:"index"`
}

// Pairs is the aligned structural comparison between two pages. For
// standalone audits only the target sides are populated.
type Pairs struct {
	Title           Pair          `json:"title"`
	MetaDescription Pair          `json:"meta_description"`
	MetaKeywords    Pair          `json:"meta_keywords"`
	Headings        []HeadingPair `json:"headings,omitempty"`
	Paragraphs      []IndexedPair `json:"paragraphs,omitempty"`
	Buttons         []IndexedPair `json:"buttons,omitempty"`
	Links           []IndexedPair `json:"links,omitempty"`
	Images          []ImagePair   `json:"images,omitempty"`
}
