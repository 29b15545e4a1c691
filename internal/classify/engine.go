// Package classify holds the local classification fallback used when the
// backend cannot classify a completed questionnaire.
package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"risk-assessment-service/internal/domain"
)

// Defaults applied before any answer is considered.
const (
	DefaultAgeGroup = "60-69"
)

var (
	ageKeywords      = []string{"yaş"}
	memoryKeywords   = []string{"unutkanlık", "zorlan"}
	dementiaKeywords = []string{"demans", "alzheimer"}
)

// Classify maps a completed answer set to a Classification. It makes one pass
// over questions in the given order; later matches of the same category
// overwrite earlier ones.
func Classify(questions []domain.Question, answers domain.AnswerSet) domain.Classification {
	result := domain.Classification{
		AgeGroup:        DefaultAgeGroup,
		CognitiveStatus: domain.CognitiveNormal,
		EducationLevel:  domain.EducationHighSchool,
		RiskLevel:       domain.RiskMedium,
	}

	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok || answer == "" {
			continue
		}
		text := lowerTurkish(q.Text)

		switch q.Category {
		case domain.CategoryDemographic:
			if containsAny(text, ageKeywords) {
				result.AgeGroup = answer
			}
		case domain.CategoryEducation:
			if level, ok := educationLevel(answer); ok {
				result.EducationLevel = level
			}
		case domain.CategoryCognitiveStatus:
			if containsAny(text, memoryKeywords) && (answer == "Evet" || answer == "Bazen") {
				result.CognitiveStatus = domain.CognitiveMCI
			}
		case domain.CategoryMedical:
			if containsAny(text, dementiaKeywords) && answer == "Evet" {
				result.RiskLevel = domain.RiskHigh
			}
		}
	}

	// The age/cognitive pass may override a medical-history Yüksek. Kept for
	// compatibility with the backend classifier; see DESIGN.md.
	age, ageOK := AgeLowerBound(result.AgeGroup)
	switch {
	case result.CognitiveStatus == domain.CognitiveMCI:
		if ageOK && age >= 70 {
			result.RiskLevel = domain.RiskHigh
		} else {
			result.RiskLevel = domain.RiskMedium
		}
	case ageOK && age < 60:
		result.RiskLevel = domain.RiskLow
	}

	return result
}

// AgeLowerBound parses the lower bound of an age bucket label: "70-79" is 70
// and the open bucket "80+" is 80.
func AgeLowerBound(label string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(label), "-")
	n, digits := 0, 0
	for _, r := range head {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	return n, digits > 0
}

func educationLevel(answer string) (string, bool) {
	switch {
	case strings.Contains(answer, "İlkokul"):
		return domain.EducationPrimary, true
	case strings.Contains(answer, "Lise"):
		return domain.EducationHighSchool, true
	case strings.Contains(answer, "Üniversite"):
		return domain.EducationUniversity, true
	}
	return "", false
}

// lowerTurkish folds case with Turkish rules (İ→i, I→ı). A Caser is stateful,
// so each call gets its own.
func lowerTurkish(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
