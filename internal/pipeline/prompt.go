package pipeline

import "fmt"

const classifySystemPrompt = "You are an expert at categorizing diabetes-related questions. " +
	"Categorize the given question into one of these categories: " +
	"glucose (blood sugar management), medication (medications and treatments), " +
	"meal (nutrition and diet), wellness (emotional and mental health), " +
	"or general (general diabetes information). " +
	"Respond with only the category name in lowercase."

const answerSystemPrompt = "You are a helpful and accurate medical AI assistant for diabetes patients. " +
	"Use the provided context information to answer the question if it is relevant. " +
	"If the context does not contain the answer, use your own knowledge to provide the most accurate and helpful response. " +
	"Do not say 'I am sorry, but this document does not contain information about ...' or similar phrases. " +
	"Always provide a helpful, informative answer, and mention that the patient should consult healthcare professionals for medical advice."

const followupSystemPrompt = "Based on the user's question and your answer, suggest 1 natural follow-up questions they might want to ask. " +
	"These should be directly related to diabetes management and relevant to the previous conversation and it must be a short question not more than 10 words."

// emptyContextSentinel stands in for retrieved context when retrieval
// produced nothing, steering the model toward its general knowledge.
const emptyContextSentinel = "No specific information available."

func answerUserPrompt(retrievedContext, question string) string {
	if retrievedContext == "" {
		retrievedContext = emptyContextSentinel
	}
	return fmt.Sprintf(
		"Context information: %s\n\nQuestion: %s\n\nAnswer the question based on the context provided, or your own knowledge if the context is insufficient.",
		retrievedContext, question,
	)
}

func followupUserPrompt(question, answer string) string {
	return fmt.Sprintf(
		"User question: %s\nYour answer: %s\nGenerate 1 potential follow-up question:",
		question, answer,
	)
}
