package pipeline

import (
	"fmt"
	"strings"

	"dataexplorer/internal/models"
)

const intentFormat = `Respond with a single JSON object and nothing else:
{
  "context_required": true or false,
  "chatIds": [<prior turn ids this question builds on>],
  "response": "<a direct reply if no data work is needed, else empty string>",
  "run_downstream_llm": true or false,
  "rephrased_query": "<the question restated as a standalone analytical request>"
}
Set run_downstream_llm to false only for greetings, thanks, or questions that
need no data retrieval, and put the full reply in "response".`

func intentPrompt(question string, prior []models.PriorTurn, description string) string {
	var b strings.Builder
	b.WriteString("You triage questions for an analytical assistant over the following dataset:\n")
	b.WriteString(description)
	b.WriteString("\n\n")
	if len(prior) > 0 {
		b.WriteString("Conversation so far:\n")
		b.WriteString(renderPriorTurns(prior))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "New question:\n%s\n\n%s", question, intentFormat)
	return b.String()
}

func rephrasePrompt(instructions, question string, prior []models.PriorTurn) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	if len(prior) > 0 {
		b.WriteString("Conversation so far:\n")
		b.WriteString(renderPriorTurns(prior))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question:\n%s\n\nRespond with the rewritten question only.", question)
	return b.String()
}

const yearScopeFormat = `Respond with one line stating the year or year range the
question targets, or "all years" if none is implied.`

func yearScopePrompt(question string) string {
	return fmt.Sprintf("Determine the time scope of this question about survey data.\n\nQuestion:\n%s\n\n%s", question, yearScopeFormat)
}

const denominatorFormat = `Respond with a single JSON object and nothing else:
{"needs_denominator": true or false, "reason": "<one sentence>"}`

func denominatorPrompt(question string) string {
	return fmt.Sprintf(
		"Decide whether answering this question requires a denominator population (for example, a percentage or rate over a subgroup of survey respondents).\n\nQuestion:\n%s\n\n%s",
		question, denominatorFormat)
}

func hierarchyTask(question, yearScope string) string {
	return fmt.Sprintf(
		"Work out which respondent hierarchy level and mapping entries define the denominator for this question. Use the mapping files to resolve group names.\n\nQuestion: %s\nTime scope: %s",
		question, yearScope)
}

func columnTask(question string, notes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find every table column needed to answer this question.\n\nQuestion: %s\n", question)
	for _, note := range notes {
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}

func queryTask(question, columnContext string, notes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer this question by querying the warehouse. Only read data; never modify it.\n\nQuestion: %s\n", question)
	for _, note := range notes {
		b.WriteString(note)
		b.WriteString("\n")
	}
	if columnContext != "" {
		fmt.Fprintf(&b, "\nRelevant columns:\n%s\n", columnContext)
	}
	return b.String()
}

func researchTask(question string) string {
	return fmt.Sprintf("Answer this question from the reference documentation. Cite the documents you used.\n\nQuestion: %s", question)
}

func finalAnswerPrompt(question string, log *models.StepLog) string {
	return fmt.Sprintf(
		"Write the final answer for the user. Be direct, state the numbers found, and mention caveats from the retrieval notes where they matter.\n\nQuestion:\n%s\n\nRetrieval notes:\n%s",
		question, log.Render())
}

func renderPriorTurns(prior []models.PriorTurn) string {
	var b strings.Builder
	for _, t := range prior {
		fmt.Fprintf(&b, "[turn %d]\nQ: %s\n", t.ChatID, t.Prompt)
		if t.RephrasedPrompt != "" && t.RephrasedPrompt != t.Prompt {
			fmt.Fprintf(&b, "Interpreted as: %s\n", t.RephrasedPrompt)
		}
		if t.SQLCode != "" {
			fmt.Fprintf(&b, "SQL: %s\n", t.SQLCode)
		}
		fmt.Fprintf(&b, "A: %s\n", t.Response)
	}
	return b.String()
}
