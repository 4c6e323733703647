package content

// Alignment caps mirror the prompt-size limits used when the pairs are fed to
// the judgment model; excess elements beyond the cap are dropped on both
// sides rather than mis-paired.
const (
	maxHeadings   = 50
	maxParagraphs = 30
	maxButtons    = 30
	maxLinks      = 50
	maxImages     = 30
)

// Align builds the positional pairing between a source and target extraction.
// Either extraction may be nil, in which case only the other side is
// populated.
func Align(source, target *Extraction) Pairs {
	pairs := Pairs{
		Title:           alignSingle(source, target, func(e *Extraction) string { return e.Title }),
		MetaDescription: alignSingle(source, target, func(e *Extraction) string { return e.MetaDescription }),
		MetaKeywords:    alignSingle(source, target, func(e *Extraction) string { return e.MetaKeywords }),
	}

	srcHeadings := headingsOf(source)
	tgtHeadings := headingsOf(target)
	for i := 0; i < capLen(len(srcHeadings), len(tgtHeadings), maxHeadings); i++ {
		hp := HeadingPair{Index: i}
		if i < len(srcHeadings) {
			hp.Source = nonEmpty(srcHeadings[i].Text)
			hp.Level = srcHeadings[i].Level
		}
		if i < len(tgtHeadings) {
			hp.Target = nonEmpty(tgtHeadings[i].Text)
			if hp.Level == 0 {
				hp.Level = tgtHeadings[i].Level
			}
		}
		pairs.Headings = append(pairs.Headings, hp)
	}

	pairs.Paragraphs = alignStrings(paragraphsOf(source), paragraphsOf(target), maxParagraphs)
	pairs.Buttons = alignStrings(buttonsOf(source), buttonsOf(target), maxButtons)
	pairs.Links = alignStrings(linkTexts(source), linkTexts(target), maxLinks)

	srcImages := imagesOf(source)
	tgtImages := imagesOf(target)
	for i := 0; i < capLen(len(srcImages), len(tgtImages), maxImages); i++ {
		ip := ImagePair{Index: i}
		if i < len(srcImages) {
			ip.SourceAlt = nonEmpty(srcImages[i].Alt)
			ip.Src = srcImages[i].Src
		}
		if i < len(tgtImages) {
			ip.TargetAlt = nonEmpty(tgtImages[i].Alt)
			if ip.Src == "" {
				ip.Src = tgtImages[i].Src
			}
		}
		pairs.Images = append(pairs.Images, ip)
	}

	return pairs
}

// TargetOnly reinterprets a single extraction as target-side pairs for
// standalone assessment; no source values are synthesized.
func TargetOnly(target *Extraction) Pairs {
	return Align(nil, target)
}

func alignSingle(source, target *Extraction, get func(*Extraction) string) Pair {
	var pair Pair
	if source != nil {
		pair.Source = nonEmpty(get(source))
	}
	if target != nil {
		pair.Target = nonEmpty(get(target))
	}
	return pair
}

func alignStrings(source, target []string, max int) []IndexedPair {
	n := capLen(len(source), len(target), max)
	if n == 0 {
		return nil
	}
	out := make([]IndexedPair, 0, n)
	for i := 0; i < n; i++ {
		ip := IndexedPair{Index: i}
		if i < len(source) {
			ip.Source = nonEmpty(source[i])
		}
		if i < len(target) {
			ip.Target = nonEmpty(target[i])
		}
		out = append(out, ip)
	}
	return out
}

func capLen(a, b, max int) int {
	n := a
	if b > n {
		n = b
	}
	if n > max {
		n = max
	}
	return n
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func headingsOf(e *Extraction) []Heading {
	if e == nil {
		return nil
	}
	return e.Headings
}

func paragraphsOf(e *Extraction) []string {
	if e == nil {
		return nil
	}
	return e.Paragraphs
}

func buttonsOf(e *Extraction) []string {
	if e == nil {
		return nil
	}
	return e.Buttons
}

func linkTexts(e *Extraction) []string {
	if e == nil {
		return nil
	}
	texts := make([]string, 0, len(e.Links))
	for _, link := range e.Links {
		texts = append(texts, link.Text)
	}
	return texts
}

func imagesOf(e *Extraction) []Image {
	if e == nil {
		return nil
	}
	return e.Images
}
