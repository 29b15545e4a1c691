package app

import "risk-assessment-service/internal/domain"

// BuiltinQuestions returns the offline classification questionnaire. It spans
// every category and is numbered 1..7.
func BuiltinQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:             "class_q1",
			Text:           "Kaç yaşındasınız?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"50-59", "60-69", "70-79", "80+"},
			QuestionNumber: "1",
			Category:       domain.CategoryDemographic,
			Tag:            domain.ClassificationTag,
		},
		{
			ID:             "class_q2",
			Text:           "Cinsiyetinizi belirtiniz.",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"Kadın", "Erkek"},
			QuestionNumber: "2",
			Category:       domain.CategoryDemographic,
			Tag:            domain.ClassificationTag,
		},
		{
			ID:             "class_q3",
			Text:           "Eğitim seviyeniz nedir?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"İlkokul veya daha az", "Lise", "Üniversite ve üstü"},
			QuestionNumber: "3",
			Category:       domain.CategoryEducation,
			Tag:            domain.ClassificationTag,
		},
		{
			ID:             "class_q4",
			Text:           "Son 6 ay içinde unutkanlık yaşadınız mı?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"Evet", "Hayır"},
			QuestionNumber: "4",
			Category:       domain.CategoryCognitiveStatus,
			Tag:            domain.ClassificationTag,
		},
		{
			ID:             "class_q5",
			Text:           "Son 6 ayda günlük işlerinizi yapmakta zorlanıyor musunuz?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"Evet", "Bazen", "Hayır"},
			QuestionNumber: "5",
			Category:       domain.CategoryCognitiveStatus,
			Tag:            domain.ClassificationTag,
		},
		{
			ID:             "class_q6",
			Text:           "Ailenizde demans/Alzheimer hastalığı öyküsü var mı?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"Evet", "Hayır", "Bilmiyorum"},
			QuestionNumber: "6",
			Category:       domain.CategoryMedical,
			Tag:            domain.ClassificationTag,
		},
		{
			ID:             "class_q7",
			Text:           "Günlük yaşamınızda ne sıklıkla sosyal aktiviteler yaparsınız?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"Hiç", "Nadiren", "Bazen", "Sıklıkla"},
			QuestionNumber: "7",
			Category:       domain.CategorySocialActivity,
			Tag:            domain.ClassificationTag,
		},
	}
}
