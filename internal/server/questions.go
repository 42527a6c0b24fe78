package server

import "math/rand"

// Question is one trivia prompt with its expected answer.
type Question struct {
	Text   string `json:"question"`
	Answer string `json:"answer"`
}

// QuestionSource supplies trivia content. Consumers tolerate absence and
// fall back to the previously selected question.
type QuestionSource interface {
	Categories() []string
	GetQuestion(category string) (Question, bool)
}

type staticQuestionBank struct {
	questions map[string][]Question
}

// NewStaticQuestionBank returns the built-in question source.
func NewStaticQuestionBank() QuestionSource {
	return &staticQuestionBank{questions: triviaQuestions}
}

func (b *staticQuestionBank) Categories() []string {
	categories := make([]string, 0, len(triviaCategories))
	categories = append(categories, triviaCategories...)
	return categories
}

func (b *staticQuestionBank) GetQuestion(category string) (Question, bool) {
	pool := b.questions[category]
	if len(pool) == 0 {
		return Question{}, false
	}
	return pool[rand.Intn(len(pool))], true
}

var triviaCategories = []string{
	"Music & Pop Culture",
	"Movies & TV",
	"Sports",
	"General Knowledge",
	"Science & Medical",
	"Animals",
	"Geography",
}

var triviaQuestions = map[string][]Question{
	"Music & Pop Culture": {
		{Text: "Who sang 'Margaritaville' in 1977?", Answer: "Jimmy Buffett"},
		{Text: "In what year did MTV first go on the air?", Answer: "1981"},
		{Text: "Who was the lead singer of The Doors?", Answer: "Jim Morrison"},
		{Text: "What year did the Woodstock music festival take place?", Answer: "1969"},
		{Text: "Who was known as the 'Man in Black'?", Answer: "Johnny Cash"},
		{Text: "Which guitarist was nicknamed 'Slowhand'?", Answer: "Eric Clapton"},
	},
	"Movies & TV": {
		{Text: "Who played Dirty Harry in the 1971 film?", Answer: "Clint Eastwood"},
		{Text: "What movie won the first-ever Academy Award for Best Picture?", Answer: "Wings"},
		{Text: "Who shot J.R. in Dallas?", Answer: "Kristin Shepard"},
		{Text: "Which actor voiced Darth Vader in the original Star Wars trilogy?", Answer: "James Earl Jones"},
		{Text: "What was the name of Quint's boat in Jaws?", Answer: "The Orca"},
		{Text: "In The Godfather, who wakes up with a horse's head in his bed?", Answer: "Jack Woltz"},
	},
	"Sports": {
		{Text: "What NFL team won the first Super Bowl in 1967?", Answer: "Green Bay Packers"},
		{Text: "Who was known as 'The Greatest' in boxing?", Answer: "Muhammad Ali"},
		{Text: "Who was the first NBA player to score 100 points in a single game?", Answer: "Wilt Chamberlain"},
		{Text: "What horse won the Triple Crown in 1973?", Answer: "Secretariat"},
		{Text: "Who was the first baseball player to have his number retired?", Answer: "Lou Gehrig"},
		{Text: "Which country won the first-ever FIFA Women's World Cup in 1991?", Answer: "United States"},
	},
	"General Knowledge": {
		{Text: "What's the capital of Canada?", Answer: "Ottawa"},
		{Text: "How many sides does a stop sign have?", Answer: "Eight"},
		{Text: "Which U.S. president appears on the $2 bill?", Answer: "Thomas Jefferson"},
		{Text: "Who painted the ceiling of the Sistine Chapel?", Answer: "Michelangelo"},
		{Text: "What's the chemical symbol for gold?", Answer: "Au"},
		{Text: "What year did the Berlin Wall fall?", Answer: "1989"},
	},
	"Science & Medical": {
		{Text: "What is the largest internal organ in the human body?", Answer: "Liver"},
		{Text: "How many chambers are in the human heart?", Answer: "Four"},
		{Text: "What is the longest bone in the human body?", Answer: "Femur"},
		{Text: "Which viral disease has been completely eradicated worldwide?", Answer: "Smallpox"},
		{Text: "Who is known as the 'Father of Medicine'?", Answer: "Hippocrates"},
		{Text: "In what year was penicillin discovered?", Answer: "1928"},
	},
	"Animals": {
		{Text: "What is the largest mammal in the world?", Answer: "Blue Whale"},
		{Text: "How many hearts does an octopus have?", Answer: "3"},
		{Text: "What is a group of lions called?", Answer: "Pride"},
		{Text: "What is the fastest land animal?", Answer: "Cheetah"},
		{Text: "What do you call a baby kangaroo?", Answer: "Joey"},
		{Text: "Which animal has the longest migration route?", Answer: "Arctic tern"},
	},
	"Geography": {
		{Text: "What is the capital of Australia?", Answer: "Canberra"},
		{Text: "Which river is the longest in the world?", Answer: "Nile"},
		{Text: "Which is the smallest country in the world?", Answer: "Vatican City"},
		{Text: "What is the deepest ocean trench?", Answer: "Mariana Trench"},
		{Text: "Which African country is completely surrounded by South Africa?", Answer: "Lesotho"},
		{Text: "Which European capital city is built on 14 islands?", Answer: "Stockholm"},
	},
}
