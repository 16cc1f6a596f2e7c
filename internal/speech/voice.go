package speech

import (
	"strings"
)

// Voice is one entry of the engine's voice list
type Voice struct {
	Language string
	Gender   string
	Name     string
	File     string
}

var maleHints = []string{"male", "man", "dmitri", "pavel", "yuri", "maxim", "m1", "m2", "m3"}

// ParseVoices reads the table printed by espeak-ng --voices
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  ru              --/M      Russian            zle/ru
func ParseVoices(output string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		gender := fields[2]
		if i := strings.LastIndexByte(gender, '/'); i >= 0 {
			gender = gender[i+1:]
		}
		voices = append(voices, Voice{
			Language: fields[1],
			Gender:   strings.ToUpper(gender),
			Name:     fields[3],
			File:     fields[4],
		})
	}
	return voices
}

// SelectVoice picks a voice for lang: a male voice when one can be told
// apart by gender or name, otherwise any voice of the language.
func SelectVoice(voices []Voice, lang string) (Voice, bool) {
	want := primaryLang(lang)

	var matching []Voice
	for _, v := range voices {
		if primaryLang(v.Language) == want {
			matching = append(matching, v)
		}
	}
	if len(matching) == 0 {
		return Voice{}, false
	}

	for _, v := range matching {
		if v.Gender == "M" || hasMaleHint(v.Name) {
			return v, true
		}
	}
	return matching[0], true
}

func hasMaleHint(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range maleHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// primaryLang returns the language subtag, e.g. "ru" for "ru-RU"
func primaryLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}
