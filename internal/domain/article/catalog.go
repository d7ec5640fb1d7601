package article

// Article is a short health read shared by email.
type Article struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

var catalog = []Article{
	{
		ID:       "1",
		Title:    "The Importance of Regular Exercise",
		Content:  "Regular exercise is crucial for maintaining good health. It helps improve cardiovascular health, strengthens muscles, and boosts mental well-being. Aim for at least 150 minutes of moderate-intensity exercise per week.",
		Category: "Fitness",
	},
	{
		ID:       "2",
		Title:    "Nutrition Tips for Men's Health",
		Content:  "A balanced diet rich in fruits, vegetables, lean proteins, and whole grains is essential for men's health. Stay hydrated, limit processed foods, and consider supplements if needed.",
		Category: "Nutrition",
	},
	{
		ID:       "3",
		Title:    "Mental Health and Stress Management",
		Content:  "Mental health is just as important as physical health. Practice stress management techniques like meditation, deep breathing, and regular sleep patterns.",
		Category: "Mental Health",
	},
	{
		ID:       "4",
		Title:    "Preventive Health Screenings",
		Content:  "Regular health screenings can help detect potential health issues early. Schedule annual check-ups, blood pressure monitoring, and age-appropriate screenings.",
		Category: "Prevention",
	},
	{
		ID:       "5",
		Title:    "Sleep and Recovery",
		Content:  "Quality sleep is essential for recovery and overall health. Aim for 7-9 hours of sleep per night and maintain a consistent sleep schedule.",
		Category: "Recovery",
	},
}

// Catalog returns a copy of the built-in articles.
func Catalog() []Article {
	return append([]Article(nil), catalog...)
}
