package synthesis

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// LinguaDetector identifies narrative language with the lingua detector.
// Construction of the underlying models is deferred until first use.
type LinguaDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLinguaDetector returns a lazy language detector over all supported languages.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{}
}

// DetectLanguage reports the ISO 639-1 code of the detected language.
func (d *LinguaDetector) DetectLanguage(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build()
	})
	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(detected.IsoCode639_1().String()), true
}
