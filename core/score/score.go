package score

// Question identifies one questionnaire entry. The wire values keep the
// original Q* keys used by the client form.
type Question string

const (
	LikesDolls    Question = "Q2"
	FearsSpiders  Question = "Q3"
	LikesRacing   Question = "Q4"
	LikesWater    Question = "Q5"
	LikesMagic    Question = "Q6"
	LikesTinyToys Question = "Q7"
	HasChimney    Question = "Q10"
)

// Yes is the only answer value that triggers a rule. Anything else, including
// an absent question, leaves the affected scores untouched.
const Yes = "yes"

// AnswerSet maps questionnaire entries to "yes"/"no" answers.
type AnswerSet map[Question]string

// ExpensiveGiftThreshold is the price above which the bonus rule fires.
const ExpensiveGiftThreshold = 10000

type rule struct {
	question Question
	hero     string
	weight   float64
}

// Each rule adds its weight to an independent accumulator, so the order of
// application never matters.
var rules = []rule{
	{LikesDolls, "Wonder Woman", 40},
	{FearsSpiders, "Spider-Man", -100},
	{LikesRacing, "Flash", 50},
	{LikesWater, "Aquaman", 40},
	{LikesMagic, "Doctor Strange", 50},
	{LikesTinyToys, "Ant-Man", 40},
	{HasChimney, "Spider-Man", 40},
}

// Heroes returns the hero names known to the scorer in roster order.
func Heroes() []string {
	return []string{
		"Flash",
		"Spider-Man",
		"Batman",
		"Aquaman",
		"Ant-Man",
		"Doctor Strange",
		"Wonder Woman",
	}
}

// Calculate maps the child's answers and the gift price to a per-hero affinity
// score. Every roster hero gets an entry, defaulting to 0. Scores are only
// comparable within a single request.
func Calculate(answers AnswerSet, giftPrice float64) map[string]float64 {
	scores := make(map[string]float64, len(Heroes()))
	for _, name := range Heroes() {
		scores[name] = 0
	}
	for _, r := range rules {
		if answers[r.question] == Yes {
			scores[r.hero] += r.weight
		}
	}
	if giftPrice > ExpensiveGiftThreshold {
		scores["Batman"] += 60
	}
	return scores
}
