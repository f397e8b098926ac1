package extraction

import "strings"

// Sections holds resume text bucketed by heading. Keys match the JSON
// the section-rewrite prompt expects back from the model.
type Sections struct {
	Summary        string `json:"summary"`
	Education      string `json:"education"`
	WorkExperience string `json:"work_experience"`
	Projects       string `json:"projects"`
	Skills         string `json:"skills"`
	Additional     string `json:"additional"`
	Activities     string `json:"activities"`
}

// sectionKeywords maps a heading keyword to the bucket it opens.
// Order matters: "work experience" must win over a bare "experience"
// style match, and the first keyword found on a line decides.
var sectionKeywords = []struct {
	keyword string
	assign  func(*Sections, string)
}{
	{"summary", func(s *Sections, line string) { s.Summary += line }},
	{"education", func(s *Sections, line string) { s.Education += line }},
	{"work experience", func(s *Sections, line string) { s.WorkExperience += line }},
	{"project", func(s *Sections, line string) { s.Projects += line }},
	{"skill", func(s *Sections, line string) { s.Skills += line }},
	{"additional", func(s *Sections, line string) { s.Additional += line }},
	{"activit", func(s *Sections, line string) { s.Activities += line }},
}

// ParseSections splits resume text into named buckets by scanning for
// heading keywords. A line containing a keyword opens that bucket and
// is itself consumed; subsequent lines accumulate under the most recent
// heading. Lines before any recognized heading are dropped.
func ParseSections(text string) Sections {
	var sections Sections
	var current func(*Sections, string)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		matched := false
		for _, sk := range sectionKeywords {
			if strings.Contains(lower, sk.keyword) {
				current = sk.assign
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if current != nil {
			current(&sections, line+"\n")
		}
	}

	return sections
}

// IsEmpty reports whether no section received any content.
func (s Sections) IsEmpty() bool {
	return s == Sections{}
}
