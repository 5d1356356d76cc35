package classify

import (
	"context"
	"log"
)

// Analyzer — единственная точка, где применяется политика отказа
// классификатора: ошибка основного классификатора не роняет обработку,
// а переключает анализ на детерминированный запасной.
type Analyzer struct {
	primary  Classifier
	fallback Classifier
}

// NewAnalyzer создаёт анализатор. primary может быть nil — тогда всегда
// работает запасной классификатор.
func NewAnalyzer(primary Classifier) *Analyzer {
	return &Analyzer{primary: primary, fallback: NewKeyword()}
}

// Classify классифицирует текст. Ошибки не возвращает никогда: при сбое
// основного классификатора результат даёт запасной.
func (a *Analyzer) Classify(ctx context.Context, text string) (Analysis, error) {
	if a.primary != nil {
		analysis, err := a.primary.Classify(ctx, text)
		if err == nil {
			return analysis, nil
		}
		log.Printf("classify: primary classifier failed, using keyword fallback: %v", err)
	}
	return a.fallback.Classify(ctx, text)
}
