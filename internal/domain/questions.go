package domain

import "fmt"

// Question is a fixed multiple-choice question with exactly four options.
type Question struct {
	ID           int       `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      [4]string `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
}

// View strips the correct answer so the question can be sent to participants.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Prompt: q.Prompt, Options: q.Options}
}

// IsCorrect reports whether option is the right answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectIndex
}

// QuestionBank is the ordered, read-only sequence of questions every session plays.
type QuestionBank struct {
	questions []Question
}

// NewQuestionBank validates and freezes a question sequence. It panics on malformed
// input because banks are built from compiled-in data.
func NewQuestionBank(questions []Question) QuestionBank {
	for i, q := range questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			panic(fmt.Sprintf("domain: question %d has correct index %d", i, q.CorrectIndex))
		}
	}
	frozen := make([]Question, len(questions))
	copy(frozen, questions)
	return QuestionBank{questions: frozen}
}

// Len returns the number of questions in the bank.
func (b QuestionBank) Len() int { return len(b.questions) }

// QuestionAt returns the question at index. Out-of-range access is a programming
// error and panics.
func (b QuestionBank) QuestionAt(index int) Question {
	if index < 0 || index >= len(b.questions) {
		panic(fmt.Sprintf("domain: question index %d out of range [0,%d)", index, len(b.questions)))
	}
	return b.questions[index]
}

// DefaultBank is the general-knowledge bank used for every round.
var DefaultBank = NewQuestionBank([]Question{
	{ID: 1, Prompt: "Which is the largest planet in our solar system?", Options: [4]string{"Mars", "Jupiter", "Saturn", "Neptune"}, CorrectIndex: 1},
	{ID: 2, Prompt: "Who is known as the 'Iron Man of India'?", Options: [4]string{"Sardar Vallabhbhai Patel", "Mahatma Gandhi", "Jawaharlal Nehru", "Subhas Chandra Bose"}, CorrectIndex: 0},
	{ID: 3, Prompt: "Which river is known as the 'Ganges of the South'?", Options: [4]string{"Krishna", "Godavari", "Cauvery", "Narmada"}, CorrectIndex: 1},
	{ID: 4, Prompt: "What is the capital of France?", Options: [4]string{"London", "Berlin", "Paris", "Rome"}, CorrectIndex: 2},
	{ID: 5, Prompt: "Which element has the chemical symbol 'O'?", Options: [4]string{"Gold", "Oxygen", "Osmium", "Silver"}, CorrectIndex: 1},
	{ID: 6, Prompt: "Who wrote 'Romeo and Juliet'?", Options: [4]string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, CorrectIndex: 1},
	{ID: 7, Prompt: "Which is the smallest continent by land area?", Options: [4]string{"Europe", "Australia", "Antarctica", "South America"}, CorrectIndex: 1},
	{ID: 8, Prompt: "What is the power house of the cell?", Options: [4]string{"Nucleus", "Ribosome", "Mitochondria", "Golgi Body"}, CorrectIndex: 2},
	{ID: 9, Prompt: "Which country is known as the 'Land of the Rising Sun'?", Options: [4]string{"China", "Japan", "South Korea", "Thailand"}, CorrectIndex: 1},
	{ID: 10, Prompt: "What is the national animal of India?", Options: [4]string{"Lion", "Elephant", "Tiger", "Leopard"}, CorrectIndex: 2},
	{ID: 11, Prompt: "Which is the longest river in the world?", Options: [4]string{"Amazon", "Nile", "Yangtze", "Mississippi"}, CorrectIndex: 1},
	{ID: 12, Prompt: "Who discovered Penicillin?", Options: [4]string{"Marie Curie", "Albert Einstein", "Alexander Fleming", "Isaac Newton"}, CorrectIndex: 2},
	{ID: 13, Prompt: "Which planet is known as the 'Red Planet'?", Options: [4]string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectIndex: 1},
	{ID: 14, Prompt: "What is the hardest natural substance on Earth?", Options: [4]string{"Gold", "Iron", "Diamond", "Platinum"}, CorrectIndex: 2},
	{ID: 15, Prompt: "Which gas is most abundant in the Earth's atmosphere?", Options: [4]string{"Oxygen", "Carbon Dioxide", "Nitrogen", "Hydrogen"}, CorrectIndex: 2},
	{ID: 16, Prompt: "Who painted the 'Mona Lisa'?", Options: [4]string{"Pablo Picasso", "Vincent van Gogh", "Leonardo da Vinci", "Claude Monet"}, CorrectIndex: 2},
	{ID: 17, Prompt: "Which is the largest ocean on Earth?", Options: [4]string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectIndex: 3},
	{ID: 18, Prompt: "What is the boiling point of water at sea level?", Options: [4]string{"90°C", "100°C", "110°C", "120°C"}, CorrectIndex: 1},
	{ID: 19, Prompt: "Which instrument is used to measure atmospheric pressure?", Options: [4]string{"Thermometer", "Barometer", "Hydrometer", "Anemometer"}, CorrectIndex: 1},
	{ID: 20, Prompt: "Who was the first woman Prime Minister of India?", Options: [4]string{"Pratibha Patil", "Sarojini Naidu", "Indira Gandhi", "Sonia Gandhi"}, CorrectIndex: 2},
})
