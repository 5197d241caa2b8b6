package prompts

import "fmt"

// GenerateResumeAnalysisPrompt - промпт для извлечения данных из резюме
func GenerateResumeAnalysisPrompt(position, resumeText string) string {
	return fmt.Sprintf(`
Проанализируйте резюме кандидата на позицию %s и извлеките следующую информацию.

Резюме:
%s

Ответь строго в формате JSON:
{
  "experience_years": "количество лет опыта",
  "key_skills": ["список ключевых навыков"],
  "experience_level": "junior/middle/senior",
  "relevant_experience": "релевантный опыт",
  "education": "образование",
  "summary": "краткое резюме профиля",
  "recommendations": ["на что обратить внимание на собеседовании"]
}
`, position, resumeText)
}
