package classifier

import "strings"

type Classifier interface {
	IsImageRequest(prompt string) bool
}

// KeywordClassifier reports an image request when the prompt contains any of
// its trigger phrases, ignoring case. Broad phrases such as "design" match
// unrelated sentences too.
type KeywordClassifier struct {
	keywords []string
}

var _ Classifier = (*KeywordClassifier)(nil)

func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		normalized = append(normalized, keyword)
	}

	return &KeywordClassifier{
		keywords: normalized,
	}
}

func NewDefaultClassifier() *KeywordClassifier {
	return NewKeywordClassifier(ImageGenerationKeywords)
}

func (c *KeywordClassifier) IsImageRequest(prompt string) bool {
	prompt = strings.ToLower(prompt)
	for _, keyword := range c.keywords {
		if strings.Contains(prompt, keyword) {
			return true
		}
	}

	return false
}

func (c *KeywordClassifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}
