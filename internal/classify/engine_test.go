package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"risk-assessment-service/internal/domain"
)

var questions = []domain.Question{
	{ID: "age_q", Text: "Kaç yaşındasınız?", Category: domain.CategoryDemographic, QuestionNumber: "1"},
	{ID: "gender_q", Text: "Cinsiyetinizi belirtiniz.", Category: domain.CategoryDemographic, QuestionNumber: "2"},
	{ID: "education_q", Text: "Eğitim seviyeniz nedir?", Category: domain.CategoryEducation, QuestionNumber: "3"},
	{ID: "memory_q", Text: "Son 6 ay içinde unutkanlık yaşadınız mı?", Category: domain.CategoryCognitiveStatus, QuestionNumber: "4"},
	{ID: "daily_q", Text: "Son 6 ayda günlük işlerinizi yapmakta zorlanıyor musunuz?", Category: domain.CategoryCognitiveStatus, QuestionNumber: "5"},
	{ID: "dementia_q", Text: "Ailenizde demans/Alzheimer hastalığı öyküsü var mı?", Category: domain.CategoryMedical, QuestionNumber: "6"},
	{ID: "social_q", Text: "Günlük yaşamınızda ne sıklıkla sosyal aktiviteler yaparsınız?", Category: domain.CategorySocialActivity, QuestionNumber: "7"},
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		answers domain.AnswerSet
		want    domain.Classification
	}{
		{
			name:    "defaults without answers",
			answers: domain.AnswerSet{},
			want:    domain.Classification{AgeGroup: "60-69", CognitiveStatus: "Normal", EducationLevel: "Lise", RiskLevel: "Orta"},
		},
		{
			name: "older patient with memory complaints and family history",
			answers: domain.AnswerSet{
				"age_q":       "70-79",
				"education_q": "Üniversite",
				"memory_q":    "Evet",
				"dementia_q":  "Evet",
			},
			want: domain.Classification{AgeGroup: "70-79", CognitiveStatus: "Hafif Bilişsel Bozulma", EducationLevel: "Üniversite", RiskLevel: "Yüksek"},
		},
		{
			name:    "younger patient without complaints",
			answers: domain.AnswerSet{"age_q": "50-59", "memory_q": "Hayır"},
			want:    domain.Classification{AgeGroup: "50-59", CognitiveStatus: "Normal", EducationLevel: "Lise", RiskLevel: "Düşük"},
		},
		{
			name:    "family history overridden by mild impairment under seventy",
			answers: domain.AnswerSet{"age_q": "60-69", "daily_q": "Bazen", "dementia_q": "Evet"},
			want:    domain.Classification{AgeGroup: "60-69", CognitiveStatus: "Hafif Bilişsel Bozulma", EducationLevel: "Lise", RiskLevel: "Orta"},
		},
		{
			name:    "family history kept without impairment",
			answers: domain.AnswerSet{"age_q": "70-79", "dementia_q": "Evet"},
			want:    domain.Classification{AgeGroup: "70-79", CognitiveStatus: "Normal", EducationLevel: "Lise", RiskLevel: "Yüksek"},
		},
		{
			name:    "family history under sixty is downgraded",
			answers: domain.AnswerSet{"age_q": "50-59", "dementia_q": "Evet"},
			want:    domain.Classification{AgeGroup: "50-59", CognitiveStatus: "Normal", EducationLevel: "Lise", RiskLevel: "Düşük"},
		},
		{
			name:    "open ended top bucket",
			answers: domain.AnswerSet{"age_q": "80+", "memory_q": "Evet"},
			want:    domain.Classification{AgeGroup: "80+", CognitiveStatus: "Hafif Bilişsel Bozulma", EducationLevel: "Lise", RiskLevel: "Yüksek"},
		},
		{
			name:    "primary education",
			answers: domain.AnswerSet{"education_q": "İlkokul veya daha az"},
			want:    domain.Classification{AgeGroup: "60-69", CognitiveStatus: "Normal", EducationLevel: "İlkokul ve altı", RiskLevel: "Orta"},
		},
		{
			name:    "unknown education leaves default",
			answers: domain.AnswerSet{"education_q": "Yüksek lisans"},
			want:    domain.Classification{AgeGroup: "60-69", CognitiveStatus: "Normal", EducationLevel: "Lise", RiskLevel: "Orta"},
		},
		{
			name:    "impairment is never downgraded within a pass",
			answers: domain.AnswerSet{"age_q": "70-79", "memory_q": "Evet", "daily_q": "Hayır"},
			want:    domain.Classification{AgeGroup: "70-79", CognitiveStatus: "Hafif Bilişsel Bozulma", EducationLevel: "Lise", RiskLevel: "Yüksek"},
		},
		{
			name:    "gender answer does not touch age group",
			answers: domain.AnswerSet{"gender_q": "Kadın", "social_q": "Hiç"},
			want:    domain.Classification{AgeGroup: "60-69", CognitiveStatus: "Normal", EducationLevel: "Lise", RiskLevel: "Orta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(questions, tt.answers))
		})
	}
}

func TestClassifyLastDemographicWins(t *testing.T) {
	qs := []domain.Question{
		{ID: "a", Text: "Yaşınız?", Category: domain.CategoryDemographic},
		{ID: "b", Text: "Eşinizin yaşı?", Category: domain.CategoryDemographic},
	}
	got := Classify(qs, domain.AnswerSet{"a": "50-59", "b": "70-79"})
	assert.Equal(t, "70-79", got.AgeGroup)
	assert.Equal(t, domain.RiskMedium, got.RiskLevel)
}

func TestClassifyUnparseableAgeGroup(t *testing.T) {
	got := Classify(questions, domain.AnswerSet{"age_q": "Bilmiyorum", "memory_q": "Evet"})
	assert.Equal(t, "Bilmiyorum", got.AgeGroup)
	assert.Equal(t, domain.RiskMedium, got.RiskLevel)

	got = Classify(questions, domain.AnswerSet{"age_q": "Bilmiyorum"})
	assert.Equal(t, domain.RiskMedium, got.RiskLevel)
}

func TestAgeLowerBound(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"70-79", 70, true},
		{"80+", 80, true},
		{" 50-59", 50, true},
		{"60", 60, true},
		{"", 0, false},
		{"-", 0, false},
		{"yaşlı", 0, false},
	}
	for _, tt := range tests {
		got, ok := AgeLowerBound(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}
