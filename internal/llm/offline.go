package llm

import (
	"context"

	"github.com/Veraticus/loanbot/internal/extract"
	"github.com/Veraticus/loanbot/internal/model"
)

// offlineGreeting opens every offline conversation.
const offlineGreeting = "Hello! I'm your loan approval assistant running in offline mode. " +
	"I can run a preliminary eligibility check. What is your gross monthly income before taxes?"

var offlineQuestions = map[model.Field]string{
	model.FieldGrossMonthlyIncome: "What is your gross monthly income before taxes? For example: I earn 45,000 monthly.",
	model.FieldTotalMonthlyDebt:   "Thanks. What are your total monthly debt payments? For example: I have debt of 12,000.",
	model.FieldLoanAmount:         "Got it. How much would you like to borrow? For example: I need a loan of 500,000.",
	model.FieldEmploymentStatus:   "What is your employment status: full-time, part-time, self-employed, unemployed or retired?",
	model.FieldCreditScoreRange:   "Finally, how would you describe your credit score: excellent, good, fair or poor?",
}

const offlineComplete = "Thank you, I have everything I need. Your preliminary assessment is below. " +
	"Final approval requires verification of your documents."

// offlineClient answers without any network access by asking for the next
// missing field. It tracks progress by running the extractor over the
// (masked) messages it receives.
type offlineClient struct{}

func newOfflineClient() *offlineClient {
	return &offlineClient{}
}

func (c *offlineClient) StartConversation(_ context.Context) (Conversation, error) {
	return &offlineConversation{}, nil
}

func (c *offlineClient) Close() error {
	return nil
}

type offlineConversation struct {
	history
	record model.FinancialRecord
}

func (o *offlineConversation) Send(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var reply string
	if text == GreetingPrompt {
		reply = offlineGreeting
	} else {
		o.record, _ = extract.Extract(o.record, text)
		if missing := o.record.Missing(); len(missing) > 0 {
			reply = offlineQuestions[missing[0]]
		} else {
			reply = offlineComplete
		}
	}

	o.commit(text, reply)
	return reply, nil
}
