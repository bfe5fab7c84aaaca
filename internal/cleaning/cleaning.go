// Package cleaning maps raw collector tables onto the full canonical schema.
// ToSchema is idempotent: running it on already-conformant input returns the
// same output. It never drops rows, only normalizes and enriches columns.
package cleaning

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ToSchema maps a raw collector table onto the canonical schema. The raw
// table must carry every base column; a missing one is a schema violation,
// treated as an implementation error for that collector rather than
// silently patched. Derived columns are filled with defaults or inferred
// best-effort from the raw fields.
func ToSchema(raw *schema.Table, source, scrapedAt string) (*schema.Table, error) {
	for _, col := range schema.BaseColumnNames() {
		if !raw.HasColumn(col) {
			return nil, collector.NewError(
				collector.ErrCodeSchemaViolation, source,
				"raw table is missing base column "+col, nil,
			)
		}
	}

	out := schema.NewTable(schema.ColumnNames())
	for _, r := range raw.Records() {
		rec := r.Clone()

		for _, col := range []string{
			"source", "url", "job_id", "search_term", "title", "company",
			"location_raw", "employment_type", "workload_raw", "salary_raw",
		} {
			rec[col] = CleanText(rec[col])
		}
		rec["posted_date"] = normalizeDate(rec["posted_date"])
		rec["employment_type"] = coerceEmploymentType(rec["employment_type"])

		if rec["scraped_at"] == "" {
			rec["scraped_at"] = scrapedAt
		}

		rec["description_clean"] = CleanText(rec["description_raw"])
		if rec["canton"] == "" {
			rec["canton"] = inferCanton(rec["location_raw"])
		}
		if rec["seniority"] == "" {
			rec["seniority"] = inferSeniority(rec["title"])
		}

		skills := extractSkills(rec["title"] + " " + rec["description_clean"])
		rec["skills"] = strings.Join(skills, ";")
		rec["skill_count"] = strconv.Itoa(len(skills))

		if rec["salary_raw"] != "" {
			rec["salary_available"] = "1"
		} else {
			rec["salary_available"] = "0"
		}

		out.Append(rec)
	}

	return out, nil
}

// dateLayouts are the absolute formats seen across the supported boards.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2 January 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// normalizeDate coerces absolute dates to ISO form. Relative phrasings
// ("Published today") are kept as cleaned free text.
func normalizeDate(s string) string {
	s = CleanText(s)
	trimmed := strings.TrimSpace(strings.TrimPrefix(s, "Published:"))
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "Published"))
	if trimmed == "" {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// coerceEmploymentType maps free-text contract descriptions toward a
// controlled set. Unrecognized values pass through unchanged; this is
// best-effort, not a hard guarantee. Canonical values map to themselves,
// which keeps the coercion idempotent.
func coerceEmploymentType(s string) string {
	l := strings.ToLower(s)
	switch {
	case l == "":
		return ""
	case strings.Contains(l, "intern") || strings.Contains(l, "trainee") || strings.Contains(l, "praktikum"):
		return "Internship"
	case strings.Contains(l, "freelance"):
		return "Freelance"
	case strings.Contains(l, "unlimited") || strings.Contains(l, "permanent") || strings.Contains(l, "full"):
		return "Full-time"
	case strings.Contains(l, "part"):
		return "Part-time"
	case strings.Contains(l, "limited") || strings.Contains(l, "temp") || strings.Contains(l, "fixed"):
		return "Temporary"
	default:
		return s
	}
}

// cantonCodes are the two-letter abbreviations of the Swiss cantons.
var cantonCodes = map[string]bool{
	"AG": true, "AI": true, "AR": true, "BE": true, "BL": true, "BS": true,
	"FR": true, "GE": true, "GL": true, "GR": true, "JU": true, "LU": true,
	"NE": true, "NW": true, "OW": true, "SG": true, "SH": true, "SO": true,
	"SZ": true, "TG": true, "TI": true, "UR": true, "VD": true, "VS": true,
	"ZG": true, "ZH": true,
}

// cityCantons maps major cities to their canton for listings that only name
// the city.
var cityCantons = map[string]string{
	"zurich":       "ZH",
	"zürich":       "ZH",
	"winterthur":   "ZH",
	"geneva":       "GE",
	"genève":       "GE",
	"basel":        "BS",
	"bern":         "BE",
	"biel":         "BE",
	"thun":         "BE",
	"lausanne":     "VD",
	"lucerne":      "LU",
	"luzern":       "LU",
	"st. gallen":   "SG",
	"st.gallen":    "SG",
	"lugano":       "TI",
	"zug":          "ZG",
	"fribourg":     "FR",
	"neuchâtel":    "NE",
	"sion":         "VS",
	"chur":         "GR",
	"schaffhausen": "SH",
	"aarau":        "AG",
	"baden":        "AG",
	"olten":        "SO",
	"solothurn":    "SO",
}

// inferCanton extracts a canton from a raw location string, either from an
// explicit two-letter code token or from a known city name.
func inferCanton(location string) string {
	if location == "" {
		return ""
	}

	for _, tok := range strings.FieldsFunc(location, func(r rune) bool {
		return r == ' ' || r == ',' || r == '(' || r == ')' || r == '/'
	}) {
		if cantonCodes[tok] {
			return tok
		}
	}

	l := strings.ToLower(location)
	for city, canton := range cityCantons {
		if strings.Contains(l, city) {
			return canton
		}
	}
	return ""
}

// inferSeniority classifies the role level from the job title, best-effort.
func inferSeniority(title string) string {
	l := strings.ToLower(title)
	switch {
	case l == "":
		return ""
	case strings.Contains(l, "intern") || strings.Contains(l, "praktik") || strings.Contains(l, "working student"):
		return "intern"
	case strings.Contains(l, "head") || strings.Contains(l, "lead") || strings.Contains(l, "principal") || strings.Contains(l, "director"):
		return "lead"
	case strings.Contains(l, "senior") || strings.Contains(l, "sr."):
		return "senior"
	case strings.Contains(l, "junior") || strings.Contains(l, "jr.") || strings.Contains(l, "graduate"):
		return "junior"
	default:
		return ""
	}
}

// skillKeywords is the vocabulary matched against title and description.
// Multi-word entries are matched as substrings, single words on boundaries.
var skillKeywords = []string{
	"python", "sql", "golang", "java", "scala", "spark", "hadoop",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform",
	"tensorflow", "pytorch", "scikit-learn", "tableau", "power bi",
	"airflow", "kafka", "dbt", "snowflake", "databricks", "git",
	"machine learning", "deep learning", "nlp", "computer vision",
	"statistics", "etl", "linux",
}

var wordBoundaryCache = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(skillKeywords))
	for _, kw := range skillKeywords {
		if !strings.ContainsAny(kw, " -") {
			m[kw] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
	return m
}()

// extractSkills returns the sorted set of known skills mentioned in text.
func extractSkills(text string) []string {
	l := strings.ToLower(text)
	var found []string
	for _, kw := range skillKeywords {
		if re, ok := wordBoundaryCache[kw]; ok {
			if re.MatchString(l) {
				found = append(found, kw)
			}
		} else if strings.Contains(l, kw) {
			found = append(found, kw)
		}
	}
	sort.Strings(found)
	return found
}
