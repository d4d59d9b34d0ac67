package oracle

// Prompt wording is a tunable parameter, not a structural contract. The parse
// contracts in oracle.go are what must stay stable.

// SimpleCategory is the single generic category used when themed subject
// picking is disabled.
const SimpleCategory = "subjects for the game '20 Questions'"

// Themed category groups. When themed picking is enabled, one group is chosen
// at random and every label in it is queried, pooling all candidates.
var (
	PeopleCategories = []string{
		"historical people",
		"celebrities",
		"leaders",
		"interesting people (not celebrities or leaders)",
		"well-known sports people",
		"musicians",
	}
	ObjectCategories = []string{
		"things (not places, people or groups of people)",
		"interesting objects (not places, people or groups of people)",
		"interesting things (not places, people or groups of people)",
	}
	PlaceCategories = []string{
		"common places",
		"interesting places",
		"historic places",
	}
)

const pickSubjectTemplate = `You are an AI about to play a game of "20 Questions" with a human.

Before we start the game we need to prepare a list of possible subjects. The subjects should all be well-known to most people.

The following subjects have already been used and should not appear in your answer:
%s

Do not use a variation on a subject that has already been used.

Begin! Remember, each item in the list should be unique with no repeats.

%d %s:
`

const isYesNoTemplate = `A yes/no question is one that could be answered with Yes or No, if we knew the answer.
If we don't know the answer, it can still be a yes/no question.
If the answer is unknowable, it can still be a yes/no question.
If the true answer is uncertain and cannot be definitively stated one way or the other, it can still be a yes/no question.

We are playing the game of 20 Questions. Questions about is it animal/mineral/vegetable are yes/no questions applicable to any subject.

Subject: frogs
Is this a yes/no question: Does it have legs?
Thought: Frogs have legs therefore the answer is yes
Thought: therefore this is a yes/no question
Reply: Yes
Reason:

Subject: frogs
Is this a yes/no question: How many legs does it have?
Thought: Frogs have four legs. The answer is a number
Thought: Therefore this is not a yes/no question
Reply: No
Reason: Because it requires a numeric answer.

Subject: cows
Is this a yes/no question: Are there more of them than sheep?
Thought: I don't know the answer. But if there are more cows then the answer is yes, else no
Thought: Therefore this is a yes/no question.
Reply: Yes
Reason:

Subject: God
Is this a yes/no question: Does it exist?
Thought: The answer is unknowable. But if we knew the answer it would have to be either yes or no.
Thought: Therefore this is a yes/no question
Reply: Yes
Reason:

Subject: %s
Is this a yes/no question: %s`

const answerQuestionTemplate = `You are a chatbot playing a question answering game with a human.

The human will ask you yes/no questions about a subject.

The question must be answered accurately with one of four acceptable answers (nothing else):
- Yes: if the subject has the property asked in the question
- No: if the subject does not have the property asked in the question
- Sometimes: if the subject may or may not have the property asked about depending on the time of day
- I don't know: if you don't know the answer

For this game we use special definitions of the words "animal", "mineral" and "vegetable":
Define everything as being either Animal (if it is, or was, alive but not a vegetable) Vegetable (if it grows but is not an animal) or Mineral (if it isn't alive, doesn't grow and comes from the ground).
For example: "the Eiffel Tower" would be categorized as a mineral, as it is a non-living object that is made from metal and other materials that were extracted from the earth.
So if the subject is "The Great Barrier Reef" and it is asked "Is it animal?" it would be correct to answer "Yes", and if asked "Is it mineral?" it would also be correct to answer "Yes".

Today's date is: %s

Now we are ready to play the game.

Use the following format:

Subject: Albert Einstein
Question: is it alive?
Thought: Albert Einstein died in 1955. Albert Einstein is not alive.
Answer: No

Subject: Albert Einstein
Question: is it animal?
Thought: Albert Einstein was alive but was not a vegetable.
Answer: Yes

Subject: Venus
Question: is it visible?
Thought: Venus is visible in the sky at night, but not during the day.
Answer: Sometimes

Subject: God
Question: does it exist?
Thought: The answer is unknowable.
Answer: I don't know

Subject: %s
Question: %s
`

const decidingQuestionTemplate = `In a game of 20 Questions...

The oracle knows the secret subject.

The secret subject is: %s

The player asked: %s
The oracle answered: Yes

Does the player now know the identity of the secret subject? (Answer only yes or no)
`
