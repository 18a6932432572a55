package planning

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

const systemMessage = `אתה סוכן AI מומחה בתחום תכנון ובניה.
המטרה שלך היא לענות על שאלות משתמשים בצורה מדויקת ומקצועית באמצעות הכלים שברשותך.
במקרה הצורך, השתמש בכלי 'search_taba_info' כדי לחפש תוכניות בניין, בכלי 'get_parcels_by_zoning' כדי למצוא חלקות לפי ייעוד, ובכלי 'get_plan_details' כדי לקבל פרטים על תכניות.
התשובה הסופית צריכה להיות בעברית, ברורה, מפורטת ומבוססת על המידע שהכלים סיפקו.
אם המידע לא זמין, ציין זאת.`

const maxIterations = 5

// New builds the planning agent: a tool-calling executor bound to the plan
// search source and the two fixture lookups.
func New(log *slog.Logger, model llms.Model, source DataSource) (*Agent, error) {
	fx, err := loadFixtures()
	if err != nil {
		return nil, err
	}
	ts := []tools.Tool{
		searchTool{log: log, source: source},
		zoningTool{table: fx.Zoning},
		planDetailsTool{table: fx.Plans},
	}
	agent := agents.NewOpenAIFunctionsAgent(model, ts,
		agents.NewOpenAIOption().WithSystemMessage(systemMessage),
	)
	executor := agents.NewExecutor(agent, agents.WithMaxIterations(maxIterations))
	return &Agent{executor: executor}, nil
}

type Agent struct {
	executor *agents.Executor
}

// Ask runs the agent loop for a single question and returns its final
// answer.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	return chains.Run(ctx, a.executor, question, chains.WithTemperature(0))
}
